package categories

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
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

type categoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// Name uniqueness is case insensitive: "Shoes" and "shoes" collide.
func nameTaken(ctx context.Context, name, excludeID string) (bool, error) {
	filter := bson.M{"name": bson.M{"$regex": "^" + regexp.QuoteMeta(name) + "$", "$options": "i"}}
	if excludeID != "" {
		filter["categoryid"] = bson.M{"$ne": excludeID}
	}
	count, err := db.CategoryCollection.CountDocuments(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// POST /api/categories/create
func CreateCategory(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var in categoryInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if in.Name == "" {
		apperr.Write(w, apperr.Validation("name is required"))
		return
	}
	if in.Status == "" {
		in.Status = models.StatusActive
	}

	taken, err := nameTaken(ctx, in.Name, "")
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to check category name")
		return
	}
	if taken {
		apperr.Write(w, apperr.Conflict("Category with this name already exists"))
		return
	}

	now := time.Now()
	category := models.Category{
		CategoryID:  "c" + utils.GenerateID(12),
		Name:        in.Name,
		Description: in.Description,
		Status:      in.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := db.CategoryCollection.InsertOne(ctx, category); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create category")
		return
	}

	go mq.Emit(ctx, "category-created", models.Index{EntityType: "category", EntityId: category.CategoryID, Method: "POST"})

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"message": "Category created", "category": category})
}

// GET /api/categories/all
//
// Plain users only see active categories.
func GetCategories(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	role, _ := r.Context().Value(globals.RoleKey).(string)
	filter := bson.M{}
	if !middleware.HasRole(role, models.RoleAdmin, models.RoleSuperAdmin) {
		filter["status"] = models.StatusActive
	} else if status := r.URL.Query().Get("status"); status != "" {
		filter["status"] = status
	}

	list, err := utils.FindAndDecode[models.Category](ctx, db.CategoryCollection, filter)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch categories")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "categories": list})
}

// GET /api/categories/category/:id
func GetCategoryByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var category models.Category
	err := db.CategoryCollection.FindOne(ctx, bson.M{"categoryid": ps.ByName("id")}).Decode(&category)
	if err == mongo.ErrNoDocuments {
		apperr.Write(w, apperr.NotFound("Category not found"))
		return
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch category")
		return
	}

	role, _ := r.Context().Value(globals.RoleKey).(string)
	if category.Status != models.StatusActive && !middleware.HasRole(role, models.RoleAdmin, models.RoleSuperAdmin) {
		apperr.Write(w, apperr.NotFound("Category not found"))
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, category)
}

// PUT /api/categories/category/:id
func UpdateCategory(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	categoryID := ps.ByName("id")

	var in categoryInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	set := bson.M{"updated_at": time.Now()}
	if in.Name != "" {
		taken, err := nameTaken(ctx, in.Name, categoryID)
		if err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to check category name")
			return
		}
		if taken {
			apperr.Write(w, apperr.Conflict("Category with this name already exists"))
			return
		}
		set["name"] = in.Name
	}
	if in.Description != "" {
		set["description"] = in.Description
	}
	if in.Status != "" {
		if in.Status != models.StatusActive && in.Status != models.StatusInactive {
			apperr.Write(w, apperr.Validation("status must be active or inactive"))
			return
		}
		set["status"] = in.Status
	}

	res, err := db.CategoryCollection.UpdateOne(ctx, bson.M{"categoryid": categoryID}, bson.M{"$set": set})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update category")
		return
	}
	if res.MatchedCount == 0 {
		apperr.Write(w, apperr.NotFound("Category not found"))
		return
	}

	go mq.Emit(ctx, "category-updated", models.Index{EntityType: "category", EntityId: categoryID, Method: "PUT"})

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Category updated"})
}

// DELETE /api/categories/category/:id
//
// A category with products keeps existing, delete is refused.
func DeleteCategory(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	categoryID := ps.ByName("id")

	inUse, err := db.ProductCollection.CountDocuments(ctx, bson.M{"categoryid": categoryID})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to check category usage")
		return
	}
	if inUse > 0 {
		apperr.Write(w, apperr.Conflict("Category has products and cannot be deleted"))
		return
	}

	res, err := db.CategoryCollection.DeleteOne(ctx, bson.M{"categoryid": categoryID})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to delete category")
		return
	}
	if res.DeletedCount == 0 {
		apperr.Write(w, apperr.NotFound("Category not found"))
		return
	}

	go mq.Emit(ctx, "category-deleted", models.Index{EntityType: "category", EntityId: categoryID, Method: "DELETE"})

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Category deleted"})
}
