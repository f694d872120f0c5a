package users

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"boutique/apperr"
	"boutique/db"
	"boutique/globals"
	"boutique/middleware"
	"boutique/models"
	"boutique/mq"
	"boutique/rdx"
	"boutique/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

// GET /api/users/all
//
// Admin listing with name/email search and role/status filters.
func GetAllUsers(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	q := r.URL.Query()
	filter := bson.M{}
	if search := q.Get("search"); search != "" {
		re := bson.M{"$regex": regexp.QuoteMeta(search), "$options": "i"}
		filter["$or"] = []bson.M{{"name": re}, {"email": re}}
	}
	if role := q.Get("role"); role != "" {
		filter["role"] = role
	}
	if status := q.Get("status"); status != "" {
		filter["status"] = status
	}

	skip, limit := utils.ParsePagination(r, 20, 100)
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)

	list, err := utils.FindAndDecode[models.User](ctx, db.UserCollection, filter, opts)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch users")
		return
	}

	total, err := db.UserCollection.CountDocuments(ctx, filter)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to count users")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success": true,
		"total":   total,
		"users":   list,
	})
}

// GET /api/users/user/:id
func GetUserByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var user models.User
	err := db.UserCollection.FindOne(ctx, bson.M{"userid": ps.ByName("id")}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		apperr.Write(w, apperr.NotFound("User not found"))
		return
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch user")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, user)
}

type roleInput struct {
	Role string `json:"role"`
}

// PUT /api/users/role/:id
//
// Only a super admin reaches this handler. Nobody can change their own
// role, and the super admin role itself is not grantable here.
func ChangeUserRole(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	targetID := ps.ByName("id")
	if callerID, _ := r.Context().Value(globals.UserIDKey).(string); callerID == targetID {
		apperr.Write(w, apperr.Forbidden("Cannot change your own role"))
		return
	}

	var in roleInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if !middleware.HasRole(in.Role, models.RoleUser, models.RoleAdmin) {
		apperr.Write(w, apperr.Validation("role must be user or admin"))
		return
	}

	res, err := db.UserCollection.UpdateOne(ctx,
		bson.M{"userid": targetID},
		bson.M{"$set": bson.M{"role": in.Role, "updated_at": time.Now()}},
	)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update role")
		return
	}
	if res.MatchedCount == 0 {
		apperr.Write(w, apperr.NotFound("User not found"))
		return
	}

	// Old access tokens carry the old role; drop the session.
	rdx.RdxHdel("tokki", targetID)

	go mq.Emit(ctx, "user-updated", models.Index{EntityType: "user", EntityId: targetID, Method: "PUT"})

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Role updated"})
}

type statusInput struct {
	Status string `json:"status"`
}

// PUT /api/users/status/:id
func ChangeUserStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	targetID := ps.ByName("id")
	if callerID, _ := r.Context().Value(globals.UserIDKey).(string); callerID == targetID {
		apperr.Write(w, apperr.Forbidden("Cannot change your own status"))
		return
	}

	var in statusInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if in.Status != models.StatusActive && in.Status != models.StatusInactive {
		apperr.Write(w, apperr.Validation("status must be active or inactive"))
		return
	}

	res, err := db.UserCollection.UpdateOne(ctx,
		bson.M{"userid": targetID},
		bson.M{"$set": bson.M{"status": in.Status, "updated_at": time.Now()}},
	)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update status")
		return
	}
	if res.MatchedCount == 0 {
		apperr.Write(w, apperr.NotFound("User not found"))
		return
	}

	if in.Status == models.StatusInactive {
		rdx.RdxHdel("tokki", targetID)
	}

	go mq.Emit(ctx, "user-updated", models.Index{EntityType: "user", EntityId: targetID, Method: "PUT"})

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Status updated"})
}

// EnsureSuperAdmin creates the bootstrap super admin account on first
// startup when SUPERADMIN_EMAIL and SUPERADMIN_PASSWORD are set.
func EnsureSuperAdmin(ctx context.Context) error {
	email := strings.ToLower(strings.TrimSpace(os.Getenv("SUPERADMIN_EMAIL")))
	password := os.Getenv("SUPERADMIN_PASSWORD")
	if email == "" || password == "" {
		return nil
	}

	err := db.UserCollection.FindOne(ctx, bson.M{"role": models.RoleSuperAdmin}).Err()
	if err == nil {
		return nil
	}
	if err != mongo.ErrNoDocuments {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	now := time.Now()
	user := models.User{
		UserID:    "u" + utils.GenerateID(10),
		Name:      "Super Admin",
		Email:     email,
		Password:  string(hashed),
		Role:      models.RoleSuperAdmin,
		Status:    models.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := db.UserCollection.InsertOne(ctx, user); err != nil {
		return err
	}
	log.Printf("Bootstrapped super admin %s", email)
	return nil
}
