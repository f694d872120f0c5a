package models

import "time"

// Order status values. An order starts pending; confirmed and refunded
// follow payment events; cancelled is set on the delete path before the
// document itself is removed.
const (
	OrderPending   = "pending"
	OrderConfirmed = "confirmed"
	OrderRefunded  = "refunded"
	OrderCancelled = "cancelled"
)

type Order struct {
	OrderID     string    `json:"orderid" bson:"orderid"`
	UserID      string    `json:"userid" bson:"userid"`
	AddressID   string    `json:"addressid" bson:"addressid"`
	PaymentID   string    `json:"paymentid,omitempty" bson:"paymentid,omitempty"`
	OfferID     string    `json:"offerid,omitempty" bson:"offerid,omitempty"`
	TotalAmount float64   `json:"total_amount" bson:"total_amount"`
	Status      string    `json:"status" bson:"status"`
	Notes       string    `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

type OrderItem struct {
	OrderItemID string    `json:"orderitemid" bson:"orderitemid"`
	OrderID     string    `json:"orderid" bson:"orderid"`
	ProductID   string    `json:"productid" bson:"productid"`
	Quantity    int       `json:"quantity" bson:"quantity"`
	Price       float64   `json:"price" bson:"price"` // snapshot at order time
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// OrderDetail is the populated shape returned by single-order reads and
// listings: the raw order plus its owner summary, items and payment.
type OrderDetail struct {
	Order   `bson:",inline"`
	User    *UserSummary `json:"user,omitempty" bson:"user,omitempty"`
	Items   []OrderItem  `json:"orderItems" bson:"orderItems"`
	Payment *Payment     `json:"payment,omitempty" bson:"payment,omitempty"`
}
