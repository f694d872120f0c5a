package orderitems

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"boutique/apperr"
	"boutique/db"
	"boutique/globals"
	"boutique/middleware"
	"boutique/models"
	"boutique/mq"
	"boutique/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func caller(r *http.Request) (userID, role string) {
	userID, _ = r.Context().Value(globals.UserIDKey).(string)
	role, _ = r.Context().Value(globals.RoleKey).(string)
	return userID, role
}

type createInput struct {
	OrderID   string  `json:"order"`
	ProductID string  `json:"product"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// POST /api/orderitems/create
func CreateOrderItem(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var in createInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if in.OrderID == "" || in.ProductID == "" {
		apperr.Write(w, apperr.Validation("order and product are required"))
		return
	}
	if in.Quantity <= 0 {
		apperr.Write(w, apperr.Validation("quantity must be positive"))
		return
	}
	if in.Price < 0 {
		apperr.Write(w, apperr.Validation("price cannot be negative"))
		return
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

	now := time.Now()
	item := models.OrderItem{
		OrderItemID: "oi" + utils.GenerateID(12),
		OrderID:     in.OrderID,
		ProductID:   in.ProductID,
		Quantity:    in.Quantity,
		Price:       in.Price,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := db.OrderItemCollection.InsertOne(ctx, item); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create order item")
		return
	}

	go mq.Emit(ctx, "orderitem-created", models.Index{EntityType: "orderitem", EntityId: item.OrderItemID, Method: "POST"})

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"message": "Order item created", "orderItem": item})
}

// GET /api/orderitems/all
func GetAllOrderItems(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	skip, limit := utils.ParsePagination(r, 20, 100)
	filter := bson.M{}
	if orderID := r.URL.Query().Get("order"); orderID != "" {
		filter["orderid"] = orderID
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)
	items, err := utils.FindAndDecode[models.OrderItem](ctx, db.OrderItemCollection, filter, opts)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch order items")
		return
	}

	total, err := db.OrderItemCollection.CountDocuments(ctx, filter)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to count order items")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success":    true,
		"total":      total,
		"orderItems": items,
	})
}

// GET /api/orderitems/item/:id
func GetOrderItemByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	item, err := fetchItem(ctx, ps.ByName("id"))
	if err != nil {
		apperr.Write(w, err)
		return
	}

	if err := authorizeItem(ctx, r, item); err != nil {
		apperr.Write(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, item)
}

// GET /api/orderitems/order/:id
func GetOrderItemsByOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	orderID := ps.ByName("id")

	var order models.Order
	if err := db.OrderCollection.FindOne(ctx, bson.M{"orderid": orderID}).Decode(&order); err != nil {
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

	items, err := utils.FindAndDecode[models.OrderItem](ctx, db.OrderItemCollection, bson.M{"orderid": orderID})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch order items")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "orderItems": items})
}

type updateInput struct {
	Quantity *int     `json:"quantity,omitempty"`
	Price    *float64 `json:"price,omitempty"`
}

// PUT /api/orderitems/item/:id
func UpdateOrderItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var in updateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	set := bson.M{"updated_at": time.Now()}
	if in.Quantity != nil {
		if *in.Quantity <= 0 {
			apperr.Write(w, apperr.Validation("quantity must be positive"))
			return
		}
		set["quantity"] = *in.Quantity
	}
	if in.Price != nil {
		if *in.Price < 0 {
			apperr.Write(w, apperr.Validation("price cannot be negative"))
			return
		}
		set["price"] = *in.Price
	}

	item, err := fetchItem(ctx, ps.ByName("id"))
	if err != nil {
		apperr.Write(w, err)
		return
	}
	if err := authorizeItem(ctx, r, item); err != nil {
		apperr.Write(w, err)
		return
	}

	if _, err := db.OrderItemCollection.UpdateOne(ctx,
		bson.M{"orderitemid": item.OrderItemID},
		bson.M{"$set": set},
	); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update order item")
		return
	}

	go mq.Emit(ctx, "orderitem-updated", models.Index{EntityType: "orderitem", EntityId: item.OrderItemID, Method: "PUT"})

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Order item updated"})
}

// DELETE /api/orderitems/item/:id
func DeleteOrderItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	item, err := fetchItem(ctx, ps.ByName("id"))
	if err != nil {
		apperr.Write(w, err)
		return
	}
	if err := authorizeItem(ctx, r, item); err != nil {
		apperr.Write(w, err)
		return
	}

	if _, err := db.OrderItemCollection.DeleteOne(ctx, bson.M{"orderitemid": item.OrderItemID}); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to delete order item")
		return
	}

	go mq.Emit(ctx, "orderitem-deleted", models.Index{EntityType: "orderitem", EntityId: item.OrderItemID, Method: "DELETE"})

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Order item deleted"})
}

func fetchItem(ctx context.Context, itemID string) (*models.OrderItem, error) {
	var item models.OrderItem
	err := db.OrderItemCollection.FindOne(ctx, bson.M{"orderitemid": itemID}).Decode(&item)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.NotFound("Order item not found")
	}
	if err != nil {
		return nil, apperr.Internal("Failed to fetch order item")
	}
	return &item, nil
}

// authorizeItem resolves the owning order and applies the owner-or-admin rule.
func authorizeItem(ctx context.Context, r *http.Request, item *models.OrderItem) error {
	callerID, role := caller(r)
	if middleware.HasRole(role, models.RoleAdmin, models.RoleSuperAdmin) {
		return nil
	}
	var order models.Order
	if err := db.OrderCollection.FindOne(ctx, bson.M{"orderid": item.OrderID}).Decode(&order); err != nil {
		return apperr.Forbidden("Access denied")
	}
	if order.UserID != callerID {
		return apperr.Forbidden("Access denied")
	}
	return nil
}
