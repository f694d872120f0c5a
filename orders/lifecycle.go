package orders

import (
	"context"
	"fmt"
	"log"
	"time"

	"boutique/apperr"
	"boutique/mailer"
	"boutique/middleware"
	"boutique/models"
	"boutique/utils"
)

// OrderStore is the persistence surface the lifecycle needs from the
// orders collection.
type OrderStore interface {
	GetByID(ctx context.Context, orderID string) (*models.Order, error)
	Insert(ctx context.Context, order *models.Order) error
	SetStatus(ctx context.Context, orderID, status string) error
	Patch(ctx context.Context, orderID string, patch OrderPatch) error
	Delete(ctx context.Context, orderID string) error
}

type ItemStore interface {
	ListByOrder(ctx context.Context, orderID string) ([]models.OrderItem, error)
	DeleteByOrder(ctx context.Context, orderID string) (int64, error)
}

type PaymentStore interface {
	GetByID(ctx context.Context, paymentID string) (*models.Payment, error)
	SetStatus(ctx context.Context, paymentID, status string) error
}

type UserStore interface {
	GetSummary(ctx context.Context, userID string) (*models.UserSummary, error)
}

// StatusEvent is what the live feed receives on every transition.
type StatusEvent struct {
	OrderID     string    `json:"orderid"`
	UserID      string    `json:"userid"`
	Status      string    `json:"status"`
	TotalAmount float64   `json:"total_amount"`
	At          time.Time `json:"at"`
}

// Lifecycle owns the order status state machine: pending → confirmed →
// refunded, with cancelled reachable through the delete path. Email and
// feed notifications are side effects that never roll back a persisted
// transition.
type Lifecycle struct {
	Orders    OrderStore
	Items     ItemStore
	Payments  PaymentStore
	Users     UserStore
	Mail      mailer.Mailer
	Broadcast func(StatusEvent)
}

type CreateInput struct {
	UserID      string  `json:"user"`
	AddressID   string  `json:"address"`
	TotalAmount float64 `json:"total_amount"`
	Notes       string  `json:"notes"`
}

// Create persists a new pending order with no payment attached.
func (l *Lifecycle) Create(ctx context.Context, in CreateInput) (*models.Order, error) {
	if in.UserID == "" {
		return nil, apperr.Validation("user is required")
	}
	if in.AddressID == "" {
		return nil, apperr.Validation("address is required")
	}
	if in.TotalAmount <= 0 {
		return nil, apperr.Validation("total_amount must be positive")
	}

	now := time.Now()
	order := &models.Order{
		OrderID:     "o" + utils.GenerateID(12),
		UserID:      in.UserID,
		AddressID:   in.AddressID,
		TotalAmount: in.TotalAmount,
		Status:      models.OrderPending,
		Notes:       in.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := l.Orders.Insert(ctx, order); err != nil {
		return nil, apperr.Internal("failed to create order")
	}
	return order, nil
}

// Confirm marks an order confirmed and sends the confirmation email.
// The status change is durable once persisted; a failed send is logged
// and does not surface to the caller.
func (l *Lifecycle) Confirm(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := l.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := l.Orders.SetStatus(ctx, orderID, models.OrderConfirmed); err != nil {
		return nil, apperr.Internal("failed to update order status")
	}
	order.Status = models.OrderConfirmed
	order.UpdatedAt = time.Now()

	if user, uerr := l.Users.GetSummary(ctx, order.UserID); uerr == nil && user.Email != "" {
		subject := fmt.Sprintf("Your Order #%s is Confirmed", order.OrderID)
		body := fmt.Sprintf(
			"Hi %s,\n\nYour payment has been successfully received and your order is confirmed.\n\nOrder ID: %s\nTotal Amount: %.2f\n\nThank you for shopping with us!",
			user.Name, order.OrderID, order.TotalAmount)
		if merr := l.Mail.Send(user.Email, subject, body); merr != nil {
			log.Printf("Confirm %s: email to %s failed: %v", order.OrderID, user.Email, merr)
		}
	}

	l.notify(order)
	return order, nil
}

// Refund marks an order refunded. Only confirmed orders qualify; the
// refund amount must be positive and cannot exceed the order total.
func (l *Lifecycle) Refund(ctx context.Context, orderID string, amount float64) (*models.Order, error) {
	order, err := l.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderConfirmed {
		return nil, apperr.Conflict("only confirmed orders can be refunded")
	}
	if amount <= 0 {
		return nil, apperr.Validation("refund amount must be positive")
	}
	if amount > order.TotalAmount {
		return nil, apperr.Validation("refund amount exceeds order total")
	}

	if err := l.Orders.SetStatus(ctx, orderID, models.OrderRefunded); err != nil {
		return nil, apperr.Internal("failed to update order status")
	}
	order.Status = models.OrderRefunded
	order.UpdatedAt = time.Now()

	if user, uerr := l.Users.GetSummary(ctx, order.UserID); uerr == nil && user.Email != "" {
		subject := fmt.Sprintf("Your Order #%s has been Refunded", order.OrderID)
		body := fmt.Sprintf(
			"Hi %s,\n\nYour payment for Order ID %s has been successfully refunded.\nRefund Amount: %.2f\n\nWe hope to serve you again soon!",
			user.Name, order.OrderID, amount)
		if merr := l.Mail.Send(user.Email, subject, body); merr != nil {
			log.Printf("Refund %s: email to %s failed: %v", order.OrderID, user.Email, merr)
		}
	}

	l.notify(order)
	return order, nil
}

// OrderPatch carries the updatable fields. Nil pointers are left alone.
type OrderPatch struct {
	AddressID   *string  `json:"address,omitempty"`
	TotalAmount *float64 `json:"total_amount,omitempty"`
	Notes       *string  `json:"notes,omitempty"`
	OfferID     *string  `json:"offer,omitempty"`
}

// Update patches an order. Only the owner or a privileged role may
// touch it.
func (l *Lifecycle) Update(ctx context.Context, orderID string, patch OrderPatch, callerID, callerRole string) (*models.Order, error) {
	order, err := l.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !canTouchOrder(order, callerID, callerRole) {
		return nil, apperr.Forbidden("Access denied")
	}
	if patch.TotalAmount != nil && *patch.TotalAmount < 0 {
		return nil, apperr.Validation("total_amount must be non-negative")
	}

	if err := l.Orders.Patch(ctx, orderID, patch); err != nil {
		return nil, apperr.Internal("failed to update order")
	}
	return l.Orders.GetByID(ctx, orderID)
}

// Delete cancels and removes an order. Cascade ordering matters: items
// go first, then the attached payment is forced to cancelled, then the
// order is persisted as cancelled, and only then is the document
// removed. A crash mid-way leaves a safely-labelled cancelled order
// rather than a dangling confirmed one.
func (l *Lifecycle) Delete(ctx context.Context, orderID, callerID, callerRole string) error {
	order, err := l.Orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if !canTouchOrder(order, callerID, callerRole) {
		return apperr.Forbidden("Access denied")
	}

	if _, err := l.Items.DeleteByOrder(ctx, orderID); err != nil {
		return apperr.Internal("failed to delete order items")
	}

	if order.PaymentID != "" {
		if err := l.Payments.SetStatus(ctx, order.PaymentID, models.PaymentCancelled); err != nil {
			return apperr.Internal("failed to cancel payment")
		}
	}

	if err := l.Orders.SetStatus(ctx, orderID, models.OrderCancelled); err != nil {
		return apperr.Internal("failed to update order status")
	}
	order.Status = models.OrderCancelled
	l.notify(order)

	if err := l.Orders.Delete(ctx, orderID); err != nil {
		return apperr.Internal("failed to delete order")
	}
	return nil
}

func canTouchOrder(order *models.Order, callerID, callerRole string) bool {
	if order.UserID == callerID {
		return true
	}
	return middleware.HasRole(callerRole, models.RoleAdmin, models.RoleSuperAdmin)
}

func (l *Lifecycle) notify(order *models.Order) {
	if l.Broadcast == nil {
		return
	}
	l.Broadcast(StatusEvent{
		OrderID:     order.OrderID,
		UserID:      order.UserID,
		Status:      order.Status,
		TotalAmount: order.TotalAmount,
		At:          time.Now(),
	})
}
