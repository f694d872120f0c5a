package models

import "time"

// Payment status values.
const (
	PaymentPending   = "pending"
	PaymentPaid      = "paid"
	PaymentRefunded  = "refunded"
	PaymentCancelled = "cancelled"
	PaymentFailed    = "failed"
)

type Payment struct {
	PaymentID  string    `json:"paymentid" bson:"paymentid"`
	OrderID    string    `json:"orderid" bson:"orderid"`
	Amount     float64   `json:"amount" bson:"amount"`
	Status     string    `json:"status" bson:"status"`
	Provider   string    `json:"provider,omitempty" bson:"provider,omitempty"`
	ProviderID string    `json:"provider_id,omitempty" bson:"provider_id,omitempty"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" bson:"updated_at"`
}
