package addresses

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
)

func caller(r *http.Request) (userID, role string) {
	userID, _ = r.Context().Value(globals.UserIDKey).(string)
	role, _ = r.Context().Value(globals.RoleKey).(string)
	return userID, role
}

func isAdmin(role string) bool {
	return middleware.HasRole(role, models.RoleAdmin, models.RoleSuperAdmin)
}

type addressInput struct {
	City      string `json:"city"`
	State     string `json:"state"`
	Pincode   string `json:"pincode"`
	Country   string `json:"country"`
	Phone     string `json:"phone"`
	IsDefault bool   `json:"is_default"`
}

// POST /api/addresses/create
func CreateAddress(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var in addressInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if in.Phone == "" {
		apperr.Write(w, apperr.Validation("phone is required"))
		return
	}

	userID, _ := caller(r)
	now := time.Now()
	addr := models.Address{
		AddressID: "a" + utils.GenerateID(12),
		UserID:    userID,
		City:      in.City,
		State:     in.State,
		Pincode:   in.Pincode,
		Country:   in.Country,
		Phone:     in.Phone,
		IsDefault: in.IsDefault,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if addr.IsDefault {
		if err := clearDefault(ctx, userID); err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update default address")
			return
		}
	}

	if _, err := db.AddressCollection.InsertOne(ctx, addr); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create address")
		return
	}

	go mq.Emit(ctx, "address-created", models.Index{EntityType: "address", EntityId: addr.AddressID, Method: "POST"})

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"message": "Address created", "address": addr})
}

// GET /api/addresses/all
//
// Admins see every address, everyone else only their own.
func GetAddresses(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, role := caller(r)
	filter := bson.M{"user_id": userID}
	if isAdmin(role) {
		filter = bson.M{}
		if uid := r.URL.Query().Get("user"); uid != "" {
			filter["user_id"] = uid
		}
	}

	list, err := utils.FindAndDecode[models.Address](ctx, db.AddressCollection, filter)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch addresses")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "addresses": list})
}

// GET /api/addresses/address/:id
func GetAddressByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	addr, err := fetchOwned(ctx, r, ps.ByName("id"))
	if err != nil {
		apperr.Write(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, addr)
}

// PUT /api/addresses/address/:id
func UpdateAddress(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	addr, err := fetchOwned(ctx, r, ps.ByName("id"))
	if err != nil {
		apperr.Write(w, err)
		return
	}

	var in addressInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	set := bson.M{"updated_at": time.Now()}
	if in.City != "" {
		set["city"] = in.City
	}
	if in.State != "" {
		set["state"] = in.State
	}
	if in.Pincode != "" {
		set["pincode"] = in.Pincode
	}
	if in.Country != "" {
		set["country"] = in.Country
	}
	if in.Phone != "" {
		set["phone"] = in.Phone
	}
	set["is_default"] = in.IsDefault

	if in.IsDefault && !addr.IsDefault {
		if err := clearDefault(ctx, addr.UserID); err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update default address")
			return
		}
	}

	if _, err := db.AddressCollection.UpdateOne(ctx,
		bson.M{"addressid": addr.AddressID},
		bson.M{"$set": set},
	); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update address")
		return
	}

	go mq.Emit(ctx, "address-updated", models.Index{EntityType: "address", EntityId: addr.AddressID, Method: "PUT"})

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Address updated"})
}

// DELETE /api/addresses/address/:id
func DeleteAddress(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	addr, err := fetchOwned(ctx, r, ps.ByName("id"))
	if err != nil {
		apperr.Write(w, err)
		return
	}

	if _, err := db.AddressCollection.DeleteOne(ctx, bson.M{"addressid": addr.AddressID}); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to delete address")
		return
	}

	go mq.Emit(ctx, "address-deleted", models.Index{EntityType: "address", EntityId: addr.AddressID, Method: "DELETE"})

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Address deleted"})
}

// Only one default address per user.
func clearDefault(ctx context.Context, userID string) error {
	_, err := db.AddressCollection.UpdateMany(ctx,
		bson.M{"user_id": userID, "is_default": true},
		bson.M{"$set": bson.M{"is_default": false, "updated_at": time.Now()}},
	)
	return err
}

func fetchOwned(ctx context.Context, r *http.Request, addressID string) (*models.Address, error) {
	var addr models.Address
	err := db.AddressCollection.FindOne(ctx, bson.M{"addressid": addressID}).Decode(&addr)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.NotFound("Address not found")
	}
	if err != nil {
		return nil, apperr.Internal("Failed to fetch address")
	}

	callerID, role := caller(r)
	if addr.UserID != callerID && !isAdmin(role) {
		return nil, apperr.Forbidden("Access denied")
	}
	return &addr, nil
}
