package payments

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"boutique/apperr"
	"boutique/db"
	"boutique/globals"
	"boutique/middleware"
	"boutique/models"
	"boutique/mq"
	"boutique/orders"
	"boutique/rdx"
	"boutique/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Handler ties payment records to the order lifecycle: a verified
// payment confirms its order, a refund walks the order back.
type Handler struct {
	L        *orders.Lifecycle
	Verifier Verifier
}

func NewHandler(l *orders.Lifecycle, v Verifier) *Handler {
	return &Handler{L: l, Verifier: v}
}

func caller(r *http.Request) (userID, role string) {
	userID, _ = r.Context().Value(globals.UserIDKey).(string)
	role, _ = r.Context().Value(globals.RoleKey).(string)
	return userID, role
}

type createInput struct {
	OrderID  string `json:"order"`
	Provider string `json:"provider"`
}

// POST /api/payments/create
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var in createInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if in.OrderID == "" {
		apperr.Write(w, apperr.Validation("order is required"))
		return
	}
	if in.Provider == "" {
		in.Provider = "manual"
	}

	var order models.Order
	if err := db.OrderCollection.FindOne(ctx, bson.M{"orderid": in.OrderID}).Decode(&order); err != nil {
		if err == mongo.ErrNoDocuments {
			apperr.Write(w, apperr.NotFound("Order not found"))
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch order")
		return
	}

	callerID, role := caller(r)
	if order.UserID != callerID && !middleware.HasRole(role, models.RoleAdmin, models.RoleSuperAdmin) {
		apperr.Write(w, apperr.Forbidden("Access denied"))
		return
	}
	if order.PaymentID != "" {
		apperr.Write(w, apperr.Conflict("Order already has a payment"))
		return
	}

	// Short lock so a double-submitted checkout cannot create two
	// payment records for the same order.
	lockKey := "payment_lock:" + in.OrderID
	ok, err := rdx.Conn.SetNX(ctx, lockKey, "1", 10*time.Second).Result()
	if err == nil && !ok {
		apperr.Write(w, apperr.Conflict("Payment already in progress for this order"))
		return
	}
	defer rdx.Conn.Del(ctx, lockKey)

	now := time.Now()
	payment := models.Payment{
		PaymentID: "p" + utils.GenerateID(12),
		OrderID:   order.OrderID,
		Amount:    order.TotalAmount,
		Status:    models.PaymentPending,
		Provider:  in.Provider,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := db.PaymentCollection.InsertOne(ctx, payment); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create payment")
		return
	}

	if _, err := db.OrderCollection.UpdateOne(ctx,
		bson.M{"orderid": order.OrderID},
		bson.M{"$set": bson.M{"paymentid": payment.PaymentID, "updated_at": now}},
	); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to attach payment to order")
		return
	}

	go mq.Emit(ctx, "payment-created", models.Index{EntityType: "payment", EntityId: payment.PaymentID, Method: "POST"})

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"message": "Payment created", "payment": payment})
}

type verifyInput struct {
	ProviderID string `json:"provider_id"`
	Signature  string `json:"signature"`
}

// POST /api/payments/verify/:id
//
// A good signature marks the payment paid and confirms the order. A bad
// one marks the payment failed so the client can retry checkout.
func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	paymentID := ps.ByName("id")

	var in verifyInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	payment, err := fetchPayment(ctx, paymentID)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	if payment.Status != models.PaymentPending {
		apperr.Write(w, apperr.Conflict("Payment is not pending"))
		return
	}

	signed := []byte(payment.PaymentID + "|" + in.ProviderID)
	if err := h.Verifier.Verify(signed, in.Signature); err != nil {
		h.setStatus(ctx, payment.PaymentID, models.PaymentFailed, in.ProviderID)
		apperr.Write(w, apperr.Validation("Payment verification failed"))
		return
	}

	if err := h.setStatus(ctx, payment.PaymentID, models.PaymentPaid, in.ProviderID); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update payment")
		return
	}

	order, err := h.L.Confirm(ctx, payment.OrderID)
	if err != nil {
		log.Printf("VerifyPayment %s: confirm order %s failed: %v", payment.PaymentID, payment.OrderID, err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Payment recorded but order confirmation failed")
		return
	}

	go mq.Emit(ctx, "payment-verified", models.Index{EntityType: "payment", EntityId: payment.PaymentID, Method: "PUT"})

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success": true,
		"message": "Payment verified and order confirmed",
		"order":   order,
	})
}

type refundInput struct {
	Amount float64 `json:"amount"`
}

// POST /api/payments/refund/:id
func (h *Handler) RefundPayment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var in refundInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	payment, err := fetchPayment(ctx, ps.ByName("id"))
	if err != nil {
		apperr.Write(w, err)
		return
	}
	if payment.Status != models.PaymentPaid {
		apperr.Write(w, apperr.Conflict("Only paid payments can be refunded"))
		return
	}

	order, err := h.L.Refund(ctx, payment.OrderID, in.Amount)
	if err != nil {
		apperr.Write(w, err)
		return
	}

	if err := h.setStatus(ctx, payment.PaymentID, models.PaymentRefunded, payment.ProviderID); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update payment")
		return
	}

	go mq.Emit(ctx, "payment-refunded", models.Index{EntityType: "payment", EntityId: payment.PaymentID, Method: "PUT"})

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success": true,
		"message": "Payment refunded",
		"order":   order,
	})
}

type webhookEvent struct {
	Type       string `json:"type"`
	PaymentID  string `json:"payment_id"`
	ProviderID string `json:"provider_id"`
}

// POST /api/payments/webhook
//
// Gateway callback. The raw body is HMAC-verified before parsing.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Failed to read body")
		return
	}

	if err := h.Verifier.Verify(body, r.Header.Get("X-Signature")); err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid signature")
		return
	}

	var ev webhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	payment, err := fetchPayment(ctx, ev.PaymentID)
	if err != nil {
		apperr.Write(w, err)
		return
	}

	switch ev.Type {
	case "payment.succeeded":
		if payment.Status != models.PaymentPending {
			// Replayed event, nothing to do.
			utils.RespondWithJSON(w, http.StatusOK, utils.M{"received": true})
			return
		}
		if err := h.setStatus(ctx, payment.PaymentID, models.PaymentPaid, ev.ProviderID); err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update payment")
			return
		}
		if _, err := h.L.Confirm(ctx, payment.OrderID); err != nil {
			log.Printf("Webhook %s: confirm order %s failed: %v", payment.PaymentID, payment.OrderID, err)
		}

	case "payment.failed":
		if err := h.setStatus(ctx, payment.PaymentID, models.PaymentFailed, ev.ProviderID); err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update payment")
			return
		}

	default:
		log.Printf("Webhook: unknown event type %q for payment %s", ev.Type, ev.PaymentID)
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"received": true})
}

// GET /api/payments/payment/:id
func (h *Handler) GetPaymentByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	payment, err := fetchPayment(ctx, ps.ByName("id"))
	if err != nil {
		apperr.Write(w, err)
		return
	}

	callerID, role := caller(r)
	if !middleware.HasRole(role, models.RoleAdmin, models.RoleSuperAdmin) {
		var order models.Order
		if err := db.OrderCollection.FindOne(ctx, bson.M{"orderid": payment.OrderID}).Decode(&order); err != nil || order.UserID != callerID {
			apperr.Write(w, apperr.Forbidden("Access denied"))
			return
		}
	}

	utils.RespondWithJSON(w, http.StatusOK, payment)
}

// GET /api/payments/all
func (h *Handler) GetAllPayments(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	skip, limit := utils.ParsePagination(r, 20, 100)
	filter := bson.M{}
	if status := r.URL.Query().Get("status"); status != "" {
		filter["status"] = status
	}
	if orderID := r.URL.Query().Get("order"); orderID != "" {
		filter["orderid"] = orderID
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)
	list, err := utils.FindAndDecode[models.Payment](ctx, db.PaymentCollection, filter, opts)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch payments")
		return
	}

	total, err := db.PaymentCollection.CountDocuments(ctx, filter)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to count payments")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success":  true,
		"total":    total,
		"payments": list,
	})
}

func (h *Handler) setStatus(ctx context.Context, paymentID, status, providerID string) error {
	set := bson.M{"status": status, "updated_at": time.Now()}
	if providerID != "" {
		set["provider_id"] = providerID
	}
	_, err := db.PaymentCollection.UpdateOne(ctx, bson.M{"paymentid": paymentID}, bson.M{"$set": set})
	return err
}

func fetchPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	var payment models.Payment
	err := db.PaymentCollection.FindOne(ctx, bson.M{"paymentid": paymentID}).Decode(&payment)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.NotFound("Payment not found")
	}
	if err != nil {
		return nil, apperr.Internal("Failed to fetch payment")
	}
	return &payment, nil
}
