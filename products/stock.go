package products

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"boutique/apperr"
	"boutique/db"
	"boutique/models"
	"boutique/mq"
	"boutique/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type stockInput struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

// POST /api/products/stock/decrease/:id
//
// The decrement is a single conditional update: the filter only matches
// while the variant still holds enough stock, so concurrent checkouts
// can never drive it negative.
func DecreaseStock(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	productID := ps.ByName("id")

	var in stockInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if in.SKU == "" {
		apperr.Write(w, apperr.Validation("sku is required"))
		return
	}
	if in.Quantity <= 0 {
		apperr.Write(w, apperr.Validation("quantity must be positive"))
		return
	}

	res, err := db.ProductCollection.UpdateOne(ctx,
		bson.M{
			"productid": productID,
			"variants": bson.M{"$elemMatch": bson.M{
				"sku":   in.SKU,
				"stock": bson.M{"$gte": in.Quantity},
			}},
		},
		bson.M{
			"$inc": bson.M{"variants.$.stock": -in.Quantity},
			"$set": bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update stock")
		return
	}

	if res.MatchedCount == 0 {
		remaining, lookupErr := variantStock(ctx, productID, in.SKU)
		if lookupErr != nil {
			apperr.Write(w, lookupErr)
			return
		}
		apperr.Write(w, apperr.InsufficientStock(remaining))
		return
	}

	go mq.Emit(ctx, "stock-decreased", models.Index{EntityType: "product", EntityId: productID, Method: "PUT", ItemId: in.SKU, ItemType: "variant"})

	remaining, _ := variantStock(ctx, productID, in.SKU)
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"message": "Stock decreased",
		"sku":     in.SKU,
		"stock":   remaining,
	})
}

// POST /api/products/stock/increase/:id
func IncreaseStock(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	productID := ps.ByName("id")

	var in stockInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if in.SKU == "" {
		apperr.Write(w, apperr.Validation("sku is required"))
		return
	}
	if in.Quantity <= 0 {
		apperr.Write(w, apperr.Validation("quantity must be positive"))
		return
	}

	res, err := db.ProductCollection.UpdateOne(ctx,
		bson.M{"productid": productID, "variants.sku": in.SKU},
		bson.M{
			"$inc": bson.M{"variants.$.stock": in.Quantity},
			"$set": bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update stock")
		return
	}
	if res.MatchedCount == 0 {
		apperr.Write(w, apperr.NotFound("Product or variant not found"))
		return
	}

	go mq.Emit(ctx, "stock-increased", models.Index{EntityType: "product", EntityId: productID, Method: "PUT", ItemId: in.SKU, ItemType: "variant"})

	remaining, _ := variantStock(ctx, productID, in.SKU)
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"message": "Stock increased",
		"sku":     in.SKU,
		"stock":   remaining,
	})
}

// variantStock distinguishes a missing product or sku from a variant
// that exists but has too little stock.
func variantStock(ctx context.Context, productID, sku string) (int, error) {
	var product models.Product
	err := db.ProductCollection.FindOne(ctx, bson.M{"productid": productID}).Decode(&product)
	if err == mongo.ErrNoDocuments {
		return 0, apperr.NotFound("Product not found")
	}
	if err != nil {
		return 0, apperr.Internal("Failed to fetch product")
	}
	for _, v := range product.Variants {
		if v.SKU == sku {
			return v.Stock, nil
		}
	}
	return 0, apperr.NotFound("Variant not found")
}
