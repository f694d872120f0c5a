package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"boutique/apperr"
	"boutique/globals"
	"boutique/middleware"
	"boutique/models"
	"boutique/mq"
	"boutique/utils"

	"github.com/julienschmidt/httprouter"
)

// Handler exposes the lifecycle over HTTP.
type Handler struct {
	L *Lifecycle
}

func NewHandler(l *Lifecycle) *Handler { return &Handler{L: l} }

func caller(r *http.Request) (userID, role string) {
	userID, _ = r.Context().Value(globals.UserIDKey).(string)
	role, _ = r.Context().Value(globals.RoleKey).(string)
	return userID, role
}

// POST /api/orders/create
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var in CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	callerID, role := caller(r)
	// Non-privileged callers can only create orders for themselves.
	if in.UserID == "" || middleware.HasRole(role, models.RoleUser) {
		in.UserID = callerID
	}

	order, err := h.L.Create(ctx, in)
	if err != nil {
		apperr.Write(w, err)
		return
	}

	go mq.Emit(ctx, "order-created", models.Index{EntityType: "order", EntityId: order.OrderID, Method: "POST"})

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{
		"message": "Order created successfully. Use payment API to complete payment.",
		"order":   order,
	})
}

// GET /api/orders/order/:id
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	order, err := h.L.Orders.GetByID(ctx, ps.ByName("id"))
	if err != nil {
		apperr.Write(w, err)
		return
	}

	callerID, role := caller(r)
	if middleware.HasRole(role, models.RoleUser) && order.UserID != callerID {
		apperr.Write(w, apperr.Forbidden("Access denied"))
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, h.L.populate(ctx, order))
}

// PUT /api/orders/order/:id
func (h *Handler) UpdateOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var patch OrderPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	callerID, role := caller(r)
	order, err := h.L.Update(ctx, ps.ByName("id"), patch, callerID, role)
	if err != nil {
		apperr.Write(w, err)
		return
	}

	go mq.Emit(ctx, "order-updated", models.Index{EntityType: "order", EntityId: order.OrderID, Method: "PUT"})

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Order updated", "order": order})
}

// DELETE /api/orders/order/:id
func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	callerID, role := caller(r)
	orderID := ps.ByName("id")
	if err := h.L.Delete(ctx, orderID, callerID, role); err != nil {
		apperr.Write(w, err)
		return
	}

	go mq.Emit(ctx, "order-deleted", models.Index{EntityType: "order", EntityId: orderID, Method: "DELETE"})

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Order and related items deleted"})
}

// GET /api/orders/all
func (h *Handler) GetAllOrders(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	p := parseListParams(r.URL.Query())
	callerID, role := caller(r)

	details, total, err := h.L.List(ctx, p, callerID, role)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch orders")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success":    true,
		"page":       p.Page,
		"limit":      p.Limit,
		"total":      total,
		"totalPages": totalPages(total, p),
		"orders":     details,
	})
}

// POST /api/orders/confirm/:id
func (h *Handler) ConfirmOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	order, err := h.L.Confirm(ctx, ps.ByName("id"))
	if err != nil {
		apperr.Write(w, err)
		return
	}

	go mq.Emit(ctx, "order-confirmed", models.Index{EntityType: "order", EntityId: order.OrderID, Method: "PUT"})

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success": true,
		"message": "Order confirmed and email sent",
		"order":   order,
	})
}

// POST /api/orders/refund/:id
func (h *Handler) RefundOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var body struct {
		Amount float64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	order, err := h.L.Refund(ctx, ps.ByName("id"), body.Amount)
	if err != nil {
		apperr.Write(w, err)
		return
	}

	go mq.Emit(ctx, "order-refunded", models.Index{EntityType: "order", EntityId: order.OrderID, Method: "PUT"})

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success": true,
		"message": "Order refunded and email sent",
		"order":   order,
	})
}
