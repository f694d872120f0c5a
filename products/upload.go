package products

import (
	"context"
	"net/http"
	"time"

	"boutique/apperr"
	"boutique/db"
	"boutique/filemgr"
	"boutique/models"
	"boutique/mq"
	"boutique/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
)

// POST /api/products/upload/:id
func UploadProductImage(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	productID := ps.ByName("id")

	count, err := db.ProductCollection.CountDocuments(ctx, bson.M{"productid": productID})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch product")
		return
	}
	if count == 0 {
		apperr.Write(w, apperr.NotFound("Product not found"))
		return
	}

	if err := r.ParseMultipartForm(filemgr.MaxUploadSize); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid form")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	filename, err := filemgr.SaveImage(file, header, filemgr.EntityProduct)
	if err != nil {
		apperr.Write(w, apperr.Validation("%v", err))
		return
	}

	url := filemgr.PublicURL(filemgr.EntityProduct, filename)
	if _, err := db.ProductCollection.UpdateOne(ctx,
		bson.M{"productid": productID},
		bson.M{"$push": bson.M{"images": url}, "$set": bson.M{"updated_at": time.Now()}},
	); err != nil {
		filemgr.DeleteStored(filemgr.EntityProduct, filename)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to attach image")
		return
	}

	go mq.Emit(ctx, "product-updated", models.Index{EntityType: "product", EntityId: productID, Method: "PUT"})

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Image uploaded", "url": url})
}

// DELETE /api/products/upload/:id
func DeleteProductImage(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	productID := ps.ByName("id")
	url := r.URL.Query().Get("url")
	if url == "" {
		apperr.Write(w, apperr.Validation("url is required"))
		return
	}

	res, err := db.ProductCollection.UpdateOne(ctx,
		bson.M{"productid": productID},
		bson.M{"$pull": bson.M{"images": url}, "$set": bson.M{"updated_at": time.Now()}},
	)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to remove image")
		return
	}
	if res.MatchedCount == 0 {
		apperr.Write(w, apperr.NotFound("Product not found"))
		return
	}

	if name := filemgr.StoredName(url); name != "" {
		filemgr.DeleteStored(filemgr.EntityProduct, name)
	}

	go mq.Emit(ctx, "product-updated", models.Index{EntityType: "product", EntityId: productID, Method: "PUT"})

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Image removed"})
}
