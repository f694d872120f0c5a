package carousel

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
	"go.mongodb.org/mongo-driver/mongo"
)

// fetch returns the singleton carousel document, creating an empty one
// on first access.
func fetch(ctx context.Context) (*models.Carousel, error) {
	var c models.Carousel
	err := db.CarouselCollection.FindOne(ctx, bson.M{"key": models.CarouselKey}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		c = models.Carousel{Key: models.CarouselKey, Images: []string{}, UpdatedAt: time.Now()}
		if _, ierr := db.CarouselCollection.InsertOne(ctx, c); ierr != nil {
			return nil, apperr.Internal("Failed to initialize carousel")
		}
		return &c, nil
	}
	if err != nil {
		return nil, apperr.Internal("Failed to fetch carousel")
	}
	if c.Images == nil {
		c.Images = []string{}
	}
	return &c, nil
}

// GET /api/carousel
func GetCarousel(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	c, err := fetch(ctx)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "images": c.Images})
}

// POST /api/carousel/upload
func UploadCarouselImage(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	if _, err := fetch(ctx); err != nil {
		apperr.Write(w, err)
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

	filename, err := filemgr.SaveImage(file, header, filemgr.EntityCarousel)
	if err != nil {
		apperr.Write(w, apperr.Validation("%v", err))
		return
	}

	url := filemgr.PublicURL(filemgr.EntityCarousel, filename)
	if _, err := db.CarouselCollection.UpdateOne(ctx,
		bson.M{"key": models.CarouselKey},
		bson.M{"$push": bson.M{"images": url}, "$set": bson.M{"updated_at": time.Now()}},
	); err != nil {
		filemgr.DeleteStored(filemgr.EntityCarousel, filename)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update carousel")
		return
	}

	go mq.Emit(ctx, "carousel-updated", models.Index{EntityType: "carousel", EntityId: models.CarouselKey, Method: "PUT"})

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Image added to carousel", "url": url})
}

// DELETE /api/carousel/image
func DeleteCarouselImage(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	url := r.URL.Query().Get("url")
	if url == "" {
		apperr.Write(w, apperr.Validation("url is required"))
		return
	}

	res, err := db.CarouselCollection.UpdateOne(ctx,
		bson.M{"key": models.CarouselKey},
		bson.M{"$pull": bson.M{"images": url}, "$set": bson.M{"updated_at": time.Now()}},
	)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update carousel")
		return
	}
	if res.ModifiedCount == 0 {
		apperr.Write(w, apperr.NotFound("Image not found in carousel"))
		return
	}

	if name := filemgr.StoredName(url); name != "" {
		filemgr.DeleteStored(filemgr.EntityCarousel, name)
	}

	go mq.Emit(ctx, "carousel-updated", models.Index{EntityType: "carousel", EntityId: models.CarouselKey, Method: "PUT"})

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Image removed from carousel"})
}
