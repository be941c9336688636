package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/openscribe/scribe/models"
	"github.com/openscribe/scribe/utils"
)

// AuthController handles registration, the token lifecycle, and profiles.
type AuthController struct {
	db *gorm.DB
}

// NewAuthController creates an AuthController.
func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{db: db}
}

// Register creates a User and its Profile with a bcrypt-hashed password.
func (a *AuthController) Register(ctx *gin.Context) {
	type request struct {
		Username  string `json:"username" binding:"required,min=3,max=64"`
		Email     string `json:"email" binding:"required,email"`
		Password  string `json:"password" binding:"required"`
		Password2 string `json:"password2" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if req.Password != req.Password2 {
		utils.Error(ctx, http.StatusBadRequest, 40002, "password fields didn't match")
		return
	}
	if err := utils.ValidatePasswordStrength(req.Password); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40003, err.Error())
		return
	}

	var count int64
	a.db.Model(&models.User{}).Where("username = ?", req.Username).Count(&count)
	if count > 0 {
		utils.Error(ctx, http.StatusBadRequest, 40004, "username already exists")
		return
	}
	a.db.Model(&models.User{}).Where("email = ?", req.Email).Count(&count)
	if count > 0 {
		utils.Error(ctx, http.StatusBadRequest, 40005, "email already registered")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to hash password")
		return
	}

	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
	}

	// Profile rows exist from the moment the user does.
	err = a.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return tx.Create(&models.Profile{UserID: user.ID}).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50002, "failed to create user")
		return
	}

	utils.Created(ctx, gin.H{"user": userPublicView(user)})
}

// Login verifies credentials and issues an access/refresh token pair.
func (a *AuthController) Login(ctx *gin.Context) {
	type request struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40010, "invalid request payload")
		return
	}

	var user models.User
	if err := a.db.Where("username = ?", req.Username).First(&user).Error; err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid username or password")
		return
	}
	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid username or password")
		return
	}

	pair, err := utils.GenerateTokenPair(user.ID, user.Username, user.Email)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate tokens")
		return
	}

	utils.Success(ctx, gin.H{
		"access":  pair.Access,
		"refresh": pair.Refresh,
		"user":    userPublicView(user),
	})
}

// Refresh exchanges a valid, non-blacklisted refresh token for a new
// access token.
func (a *AuthController) Refresh(ctx *gin.Context) {
	type request struct {
		Refresh string `json:"refresh" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40011, "invalid request payload")
		return
	}

	claims, err := utils.ParseRefreshToken(req.Refresh)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "invalid or revoked refresh token")
		return
	}

	// Claims are re-read from the row so a renamed user gets fresh ones.
	var user models.User
	if err := a.db.First(&user, claims.UserID).Error; err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40111, "user no longer exists")
		return
	}

	access, err := utils.GenerateAccessToken(user.ID, user.Username, user.Email)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}

	utils.Success(ctx, gin.H{"access": access})
}

// Logout blacklists the supplied refresh token until its natural expiry
// so it cannot be exchanged again.
func (a *AuthController) Logout(ctx *gin.Context) {
	type request struct {
		Refresh string `json:"refresh" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40012, "refresh token missing")
		return
	}

	claims, err := utils.ParseToken(req.Refresh)
	if err != nil || claims.TokenType != utils.TokenTypeRefresh {
		utils.Error(ctx, http.StatusBadRequest, 40013, "malformed refresh token")
		return
	}

	if claims.ExpiresAt != nil {
		utils.BlacklistToken(req.Refresh, claims.ExpiresAt.Time)
	}
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// GetProfile returns the caller's own profile.
func (a *AuthController) GetProfile(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	var user models.User
	if err := a.db.Preload("Profile").First(&user, userID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "user not found")
		return
	}

	utils.Success(ctx, profileView(user))
}

// UpdateProfile updates the caller's username, bio, or profile picture.
// Absent fields are left untouched.
func (a *AuthController) UpdateProfile(ctx *gin.Context) {
	type request struct {
		Username       *string `json:"username"`
		Bio            *string `json:"bio"`
		ProfilePicture *string `json:"profile_picture"`
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	var user models.User
	if err := a.db.Preload("Profile").First(&user, userID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "user not found")
		return
	}

	err := a.db.Transaction(func(tx *gorm.DB) error {
		if req.Username != nil {
			username := strings.TrimSpace(*req.Username)
			if username == "" {
				return errUsernameEmpty
			}
			if username != user.Username {
				var count int64
				tx.Model(&models.User{}).Where("username = ? AND id <> ?", username, user.ID).Count(&count)
				if count > 0 {
					return errUsernameTaken
				}
				user.Username = username
				if err := tx.Model(&user).Update("username", username).Error; err != nil {
					return err
				}
			}
		}

		if req.Bio != nil {
			user.Profile.Bio = utils.SanitizePlain(*req.Bio)
		}
		if req.ProfilePicture != nil {
			user.Profile.ProfilePicture = strings.TrimSpace(*req.ProfilePicture)
		}
		if req.Bio != nil || req.ProfilePicture != nil {
			return tx.Model(&models.Profile{}).Where("user_id = ?", user.ID).
				Updates(map[string]interface{}{
					"bio":             user.Profile.Bio,
					"profile_picture": user.Profile.ProfilePicture,
				}).Error
		}
		return nil
	})
	switch {
	case errors.Is(err, errUsernameEmpty):
		utils.Error(ctx, http.StatusBadRequest, 40021, "username cannot be empty")
		return
	case errors.Is(err, errUsernameTaken):
		utils.Error(ctx, http.StatusBadRequest, 40022, "this username is already taken")
		return
	case err != nil:
		utils.Error(ctx, http.StatusInternalServerError, 50005, "failed to update profile")
		return
	}

	utils.Success(ctx, profileView(user))
}

var (
	errUsernameEmpty = errors.New("username empty")
	errUsernameTaken = errors.New("username taken")
)
