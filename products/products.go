package products

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
	"go.mongodb.org/mongo-driver/mongo/options"
)

type productInput struct {
	CategoryID  string           `json:"category"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Status      string           `json:"status"`
	Variants    []models.Variant `json:"variants"`
}

func isAdmin(r *http.Request) bool {
	role, _ := r.Context().Value(globals.RoleKey).(string)
	return middleware.HasRole(role, models.RoleAdmin, models.RoleSuperAdmin)
}

func validateVariants(variants []models.Variant) error {
	if len(variants) == 0 {
		return apperr.Validation("at least one variant is required")
	}
	seen := make(map[string]bool, len(variants))
	for _, v := range variants {
		if v.SKU == "" {
			return apperr.Validation("variant sku is required")
		}
		if seen[v.SKU] {
			return apperr.Validation("duplicate sku %q in variants", v.SKU)
		}
		seen[v.SKU] = true
		if v.Price < 0 {
			return apperr.Validation("variant price cannot be negative")
		}
		if v.Stock < 0 {
			return apperr.Validation("variant stock cannot be negative")
		}
	}
	return nil
}

// SKUs are unique across the whole catalog, not just within a product.
func skuTaken(ctx context.Context, variants []models.Variant, excludeID string) (bool, error) {
	skus := make([]string, 0, len(variants))
	for _, v := range variants {
		skus = append(skus, v.SKU)
	}
	filter := bson.M{"variants.sku": bson.M{"$in": skus}}
	if excludeID != "" {
		filter["productid"] = bson.M{"$ne": excludeID}
	}
	count, err := db.ProductCollection.CountDocuments(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func nameTaken(ctx context.Context, name, excludeID string) (bool, error) {
	filter := bson.M{"name": bson.M{"$regex": "^" + regexp.QuoteMeta(name) + "$", "$options": "i"}}
	if excludeID != "" {
		filter["productid"] = bson.M{"$ne": excludeID}
	}
	count, err := db.ProductCollection.CountDocuments(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func categoryExists(ctx context.Context, categoryID string) (bool, error) {
	count, err := db.CategoryCollection.CountDocuments(ctx, bson.M{"categoryid": categoryID})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// POST /api/products/create
func CreateProduct(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var in productInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if in.Name == "" {
		apperr.Write(w, apperr.Validation("name is required"))
		return
	}
	if in.CategoryID == "" {
		apperr.Write(w, apperr.Validation("category is required"))
		return
	}
	if err := validateVariants(in.Variants); err != nil {
		apperr.Write(w, err)
		return
	}
	if in.Status == "" {
		in.Status = models.StatusActive
	}

	exists, err := categoryExists(ctx, in.CategoryID)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to check category")
		return
	}
	if !exists {
		apperr.Write(w, apperr.NotFound("Category not found"))
		return
	}

	if taken, err := nameTaken(ctx, in.Name, ""); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to check product name")
		return
	} else if taken {
		apperr.Write(w, apperr.Conflict("Product with this name already exists"))
		return
	}
	if taken, err := skuTaken(ctx, in.Variants, ""); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to check skus")
		return
	} else if taken {
		apperr.Write(w, apperr.Conflict("One or more skus already exist"))
		return
	}

	now := time.Now()
	product := models.Product{
		ProductID:   "pr" + utils.GenerateID(12),
		CategoryID:  in.CategoryID,
		Name:        in.Name,
		Description: in.Description,
		Images:      []string{},
		Status:      in.Status,
		Variants:    in.Variants,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := db.ProductCollection.InsertOne(ctx, product); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create product")
		return
	}

	go mq.Emit(ctx, "product-created", models.Index{EntityType: "product", EntityId: product.ProductID, Method: "POST"})

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"message": "Product created", "product": product})
}

// GET /api/products/all
//
// Supports search (name/description regex), category and status
// filters, pagination. Plain users only ever see active products.
func GetProducts(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	q := r.URL.Query()
	filter := bson.M{}
	if search := q.Get("search"); search != "" {
		re := bson.M{"$regex": regexp.QuoteMeta(search), "$options": "i"}
		filter["$or"] = []bson.M{{"name": re}, {"description": re}}
	}
	if categoryID := q.Get("category"); categoryID != "" {
		filter["categoryid"] = categoryID
	}
	if isAdmin(r) {
		if status := q.Get("status"); status != "" {
			filter["status"] = status
		}
	} else {
		filter["status"] = models.StatusActive
	}

	skip, limit := utils.ParsePagination(r, 20, 100)
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)

	list, err := utils.FindAndDecode[models.Product](ctx, db.ProductCollection, filter, opts)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch products")
		return
	}

	total, err := db.ProductCollection.CountDocuments(ctx, filter)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to count products")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success":  true,
		"total":    total,
		"products": list,
	})
}

// GET /api/products/product/:id
func GetProductByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var product models.Product
	err := db.ProductCollection.FindOne(ctx, bson.M{"productid": ps.ByName("id")}).Decode(&product)
	if err == mongo.ErrNoDocuments {
		apperr.Write(w, apperr.NotFound("Product not found"))
		return
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch product")
		return
	}

	if product.Status != models.StatusActive && !isAdmin(r) {
		apperr.Write(w, apperr.NotFound("Product not found"))
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, product)
}

// PUT /api/products/product/:id
func UpdateProduct(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	productID := ps.ByName("id")

	var in productInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	set := bson.M{"updated_at": time.Now()}
	if in.Name != "" {
		if taken, err := nameTaken(ctx, in.Name, productID); err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to check product name")
			return
		} else if taken {
			apperr.Write(w, apperr.Conflict("Product with this name already exists"))
			return
		}
		set["name"] = in.Name
	}
	if in.CategoryID != "" {
		exists, err := categoryExists(ctx, in.CategoryID)
		if err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to check category")
			return
		}
		if !exists {
			apperr.Write(w, apperr.NotFound("Category not found"))
			return
		}
		set["categoryid"] = in.CategoryID
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
	if in.Variants != nil {
		if err := validateVariants(in.Variants); err != nil {
			apperr.Write(w, err)
			return
		}
		if taken, err := skuTaken(ctx, in.Variants, productID); err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to check skus")
			return
		} else if taken {
			apperr.Write(w, apperr.Conflict("One or more skus already exist"))
			return
		}
		set["variants"] = in.Variants
	}

	res, err := db.ProductCollection.UpdateOne(ctx, bson.M{"productid": productID}, bson.M{"$set": set})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update product")
		return
	}
	if res.MatchedCount == 0 {
		apperr.Write(w, apperr.NotFound("Product not found"))
		return
	}

	go mq.Emit(ctx, "product-updated", models.Index{EntityType: "product", EntityId: productID, Method: "PUT"})

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Product updated"})
}

// DELETE /api/products/product/:id
func DeleteProduct(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	productID := ps.ByName("id")

	res, err := db.ProductCollection.DeleteOne(ctx, bson.M{"productid": productID})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to delete product")
		return
	}
	if res.DeletedCount == 0 {
		apperr.Write(w, apperr.NotFound("Product not found"))
		return
	}

	go mq.Emit(ctx, "product-deleted", models.Index{EntityType: "product", EntityId: productID, Method: "DELETE"})

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Product deleted"})
}
