package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"plantdoctor/auth"
	"plantdoctor/middlewares"
	"plantdoctor/models"
	"plantdoctor/utils"
)

type RegisterInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type RefreshInput struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// UserOut Public view of a user record
type UserOut struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	IsAdmin  bool   `json:"is_admin"`
}

func userOut(u *models.User) UserOut {
	return UserOut{ID: u.ID, Email: u.Email, FullName: u.FullName, IsAdmin: u.IsAdmin}
}

// Register Create a new user account. Emails are case-normalized to lowercase.
func Register() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input RegisterInput
		if err := c.ShouldBindJSON(&input); err != nil {
			utils.Respond(c, http.StatusBadRequest, false, err.Error(), nil, nil)
			return
		}

		email := strings.ToLower(input.Email)
		var existing models.User
		if err := models.DB.Where("email = ?", email).First(&existing).Error; err == nil {
			utils.Respond(c, http.StatusOK, false, "Email already registered", nil, nil)
			return
		}

		hash, err := auth.HashPassword(input.Password)
		if err != nil {
			log.Error("Password hashing failed: ", err)
			utils.Respond(c, http.StatusInternalServerError, false, "Registration failed", nil, nil)
			return
		}

		user := models.User{Email: email, PasswordHash: hash, FullName: input.FullName}
		if err := models.DB.Create(&user).Error; err != nil {
			log.Error("User creation failed: ", err)
			utils.Respond(c, http.StatusInternalServerError, false, "Registration failed", nil, nil)
			return
		}

		utils.Respond(c, http.StatusOK, true, "User registered successfully", userOut(&user), nil)
	}
}

// Login Verify credentials and issue an access/refresh token pair
func Login(issuer *auth.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input LoginInput
		if err := c.ShouldBindJSON(&input); err != nil {
			utils.Respond(c, http.StatusBadRequest, false, err.Error(), nil, nil)
			return
		}

		email := strings.ToLower(input.Email)
		var user models.User
		if err := models.DB.Where("email = ?", email).First(&user).Error; err != nil || !auth.CheckPasswordHash(input.Password, user.PasswordHash) {
			utils.Respond(c, http.StatusOK, false, "Invalid credentials", nil, nil)
			return
		}

		access, err := issuer.NewAccessToken(user.ID)
		if err != nil {
			utils.Respond(c, http.StatusInternalServerError, false, "Login failed", nil, nil)
			return
		}
		refresh, err := issuer.NewRefreshToken(user.ID)
		if err != nil {
			utils.Respond(c, http.StatusInternalServerError, false, "Login failed", nil, nil)
			return
		}

		payload := gin.H{
			"access_token":  access,
			"refresh_token": refresh,
			"token_type":    "bearer",
			"user":          userOut(&user),
		}
		utils.Respond(c, http.StatusOK, true, "Login successful", payload, nil)
	}
}

// Refresh Exchange a valid refresh token for a new access token
func Refresh(issuer *auth.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input RefreshInput
		if err := c.ShouldBindJSON(&input); err != nil {
			utils.Respond(c, http.StatusBadRequest, false, err.Error(), nil, nil)
			return
		}

		userID, err := issuer.VerifyToken(input.RefreshToken)
		if err != nil {
			utils.Respond(c, http.StatusOK, false, "Invalid or expired refresh token", nil, nil)
			return
		}

		var user models.User
		if err := models.DB.Where("id = ?", userID).First(&user).Error; err != nil {
			utils.Respond(c, http.StatusOK, false, "Invalid refresh token", nil, nil)
			return
		}

		access, err := issuer.NewAccessToken(user.ID)
		if err != nil {
			utils.Respond(c, http.StatusInternalServerError, false, "Refresh failed", nil, nil)
			return
		}

		utils.Respond(c, http.StatusOK, true, "Token refreshed", gin.H{"access_token": access, "token_type": "bearer"}, nil)
	}
}

// Me The authenticated caller's own record
func Me() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middlewares.CurrentUser(c)
		if user == nil {
			utils.Respond(c, http.StatusUnauthorized, false, "Not authenticated", nil, nil)
			return
		}
		utils.Respond(c, http.StatusOK, true, "Current user", userOut(user), nil)
	}
}
