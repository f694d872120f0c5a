package users

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"boutique/apperr"
	"boutique/db"
	"boutique/filemgr"
	"boutique/globals"
	"boutique/models"
	"boutique/mq"
	"boutique/rdx"
	"boutique/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

func callerID(r *http.Request) string {
	userID, _ := r.Context().Value(globals.UserIDKey).(string)
	return userID
}

// GET /api/users/me
func GetProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var user models.User
	err := db.UserCollection.FindOne(ctx, bson.M{"userid": callerID(r)}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		apperr.Write(w, apperr.NotFound("User not found"))
		return
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch profile")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, user)
}

type profileInput struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
}

// PUT /api/users/me
func UpdateProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var in profileInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	set := bson.M{"updated_at": time.Now()}
	if in.Name != "" {
		set["name"] = in.Name
	}
	if in.PhoneNumber != "" {
		set["phone_number"] = in.PhoneNumber
	}
	if in.Password != "" {
		if len(in.Password) < 8 {
			apperr.Write(w, apperr.Validation("password must be at least 8 characters"))
			return
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to hash password")
			return
		}
		set["password"] = string(hashed)
	}

	userID := callerID(r)
	res, err := db.UserCollection.UpdateOne(ctx, bson.M{"userid": userID}, bson.M{"$set": set})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}
	if res.MatchedCount == 0 {
		apperr.Write(w, apperr.NotFound("User not found"))
		return
	}

	if in.Name != "" {
		if err := rdx.RdxSet("users:"+userID, in.Name); err != nil {
			log.Printf("Failed to cache user name: %v", err)
		}
	}

	go mq.Emit(ctx, "user-updated", models.Index{EntityType: "user", EntityId: userID, Method: "PUT"})

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Profile updated"})
}

// DELETE /api/users/me
//
// Soft delete: the account goes inactive and sessions are dropped.
func DeleteProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID := callerID(r)
	res, err := db.UserCollection.UpdateOne(ctx,
		bson.M{"userid": userID},
		bson.M{
			"$set":   bson.M{"status": models.StatusInactive, "updated_at": time.Now()},
			"$unset": bson.M{"refresh_token": "", "refresh_expiry": ""},
		},
	)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to delete account")
		return
	}
	if res.MatchedCount == 0 {
		apperr.Write(w, apperr.NotFound("User not found"))
		return
	}

	rdx.RdxHdel("tokki", userID)

	go mq.Emit(ctx, "user-deleted", models.Index{EntityType: "user", EntityId: userID, Method: "DELETE"})

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Account deactivated"})
}

// POST /api/users/me/avatar
func UploadAvatar(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	if err := r.ParseMultipartForm(filemgr.MaxUploadSize); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid form")
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "avatar file is required")
		return
	}
	defer file.Close()

	filename, err := filemgr.SaveImage(file, header, filemgr.EntityUser)
	if err != nil {
		apperr.Write(w, apperr.Validation("%v", err))
		return
	}

	userID := callerID(r)
	url := filemgr.PublicURL(filemgr.EntityUser, filename)

	var prev models.User
	_ = db.UserCollection.FindOne(ctx, bson.M{"userid": userID}).Decode(&prev)

	if _, err := db.UserCollection.UpdateOne(ctx,
		bson.M{"userid": userID},
		bson.M{"$set": bson.M{"avatar": url, "updated_at": time.Now()}},
	); err != nil {
		filemgr.DeleteStored(filemgr.EntityUser, filename)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update avatar")
		return
	}

	if prev.Avatar != "" {
		if name := filemgr.StoredName(prev.Avatar); name != "" {
			filemgr.DeleteStored(filemgr.EntityUser, name)
		}
	}

	go mq.Emit(ctx, "user-updated", models.Index{EntityType: "user", EntityId: userID, Method: "PUT"})

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Avatar updated", "url": url})
}

// GET /api/users/avatar/:id
func GetAvatar(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var user models.User
	err := db.UserCollection.FindOne(ctx, bson.M{"userid": ps.ByName("id")}).Decode(&user)
	if err == mongo.ErrNoDocuments || (err == nil && user.Avatar == "") {
		apperr.Write(w, apperr.NotFound("Avatar not found"))
		return
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch avatar")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"userid": user.UserID, "url": user.Avatar})
}

// DELETE /api/users/me/avatar
func DeleteAvatar(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID := callerID(r)

	var user models.User
	err := db.UserCollection.FindOne(ctx, bson.M{"userid": userID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		apperr.Write(w, apperr.NotFound("User not found"))
		return
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch profile")
		return
	}
	if user.Avatar == "" {
		apperr.Write(w, apperr.NotFound("No avatar to delete"))
		return
	}

	if _, err := db.UserCollection.UpdateOne(ctx,
		bson.M{"userid": userID},
		bson.M{"$unset": bson.M{"avatar": ""}, "$set": bson.M{"updated_at": time.Now()}},
	); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to delete avatar")
		return
	}

	if name := filemgr.StoredName(user.Avatar); name != "" {
		filemgr.DeleteStored(filemgr.EntityUser, name)
	}

	go mq.Emit(ctx, "user-updated", models.Index{EntityType: "user", EntityId: userID, Method: "PUT"})

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Avatar deleted"})
}
