package models

import "time"

type Variant struct {
	SKU   string  `json:"sku" bson:"sku"`
	Color string  `json:"color,omitempty" bson:"color,omitempty"`
	Size  string  `json:"size,omitempty" bson:"size,omitempty"`
	Price float64 `json:"price" bson:"price"`
	Stock int     `json:"stock" bson:"stock"`
}

type Product struct {
	ProductID   string    `json:"productid" bson:"productid"`
	CategoryID  string    `json:"categoryid" bson:"categoryid"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Images      []string  `json:"images" bson:"images"`
	Status      string    `json:"status" bson:"status"`
	Variants    []Variant `json:"variants" bson:"variants"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

type Category struct {
	CategoryID  string    `json:"categoryid" bson:"categoryid"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Status      string    `json:"status" bson:"status"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}
