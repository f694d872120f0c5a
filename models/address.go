package models

import "time"

type Address struct {
	AddressID string    `json:"addressid" bson:"addressid"`
	UserID    string    `json:"user_id" bson:"user_id"`
	City      string    `json:"city,omitempty" bson:"city,omitempty"`
	State     string    `json:"state,omitempty" bson:"state,omitempty"`
	Pincode   string    `json:"pincode,omitempty" bson:"pincode,omitempty"`
	Country   string    `json:"country,omitempty" bson:"country,omitempty"`
	Phone     string    `json:"phone" bson:"phone"`
	IsDefault bool      `json:"is_default" bson:"is_default"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Carousel is a single well-known document holding the ordered list of
// promotional image URLs. Key is always CarouselKey.
type Carousel struct {
	Key       string    `json:"-" bson:"key"`
	Images    []string  `json:"images" bson:"images"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

const CarouselKey = "main"
