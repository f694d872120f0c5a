package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"boutique/db"
	"boutique/mailer"
	"boutique/models"
	"boutique/rdx"
	"boutique/utils"

	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/crypto/bcrypt"
)

const resetTokenTTL = 10 * time.Minute

// Mail is set at startup; password reset emails go through it.
var Mail mailer.Mailer

func forgotPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.Email == "" {
		http.Error(w, "Email is required", http.StatusBadRequest)
		return
	}

	// The response never reveals whether the email exists.
	respond := func() {
		utils.SendResponse(w, http.StatusOK, nil, "If the email exists, a reset link has been sent", nil)
	}

	var user models.User
	if err := db.UserCollection.FindOne(context.TODO(), bson.M{"email": normalizeEmail(input.Email)}).Decode(&user); err != nil {
		respond()
		return
	}

	token, err := generateRefreshToken()
	if err != nil {
		http.Error(w, "Failed to generate reset token", http.StatusInternalServerError)
		return
	}

	if err := rdx.SetWithExpiry("pwreset:"+hashToken(token), user.UserID, resetTokenTTL); err != nil {
		log.Printf("Failed to store reset token for %s: %v", user.UserID, err)
		http.Error(w, "Failed to store reset token", http.StatusInternalServerError)
		return
	}

	if Mail != nil {
		body := fmt.Sprintf(
			"Hi %s,\n\nUse the token below to reset your password. It expires in 10 minutes.\n\n%s\n\nIf you did not request this, ignore this email.",
			user.Name, token)
		if err := Mail.Send(user.Email, "Password Reset Request", body); err != nil {
			log.Printf("Reset email to %s failed: %v", user.Email, err)
		}
	}

	respond()
}

func resetPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid input", http.StatusBadRequest)
		return
	}
	if input.Token == "" || input.Password == "" {
		http.Error(w, "Token and password are required", http.StatusBadRequest)
		return
	}
	if len(input.Password) < 8 {
		http.Error(w, "Password must be at least 8 characters", http.StatusBadRequest)
		return
	}

	key := "pwreset:" + hashToken(input.Token)
	userID, err := rdx.RdxGet(key)
	if err != nil || userID == "" {
		http.Error(w, "Invalid or expired reset token", http.StatusUnauthorized)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "Failed to hash password", http.StatusInternalServerError)
		return
	}

	_, err = db.UserCollection.UpdateOne(
		context.TODO(),
		bson.M{"userid": userID},
		bson.M{"$set": bson.M{
			"password":   string(hashedPassword),
			"updated_at": time.Now(),
		}, "$unset": bson.M{"refresh_token": "", "refresh_expiry": ""}},
	)
	if err != nil {
		http.Error(w, "Failed to reset password", http.StatusInternalServerError)
		return
	}

	if _, err := rdx.RdxDel(key); err != nil {
		log.Printf("Failed to delete reset token: %v", err)
	}
	// Force re-login everywhere.
	if _, err := rdx.RdxHdel("tokki", userID); err != nil {
		log.Printf("Failed to drop session for %s: %v", userID, err)
	}

	utils.SendResponse(w, http.StatusOK, nil, "Password reset successfully", nil)
}
