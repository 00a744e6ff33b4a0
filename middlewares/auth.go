package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"plantdoctor/auth"
	"plantdoctor/models"
	"plantdoctor/utils"
)

const userContextKey = "currentUser"

// JwtAuthMiddleware Require a valid bearer access token and attach the
// authenticated user to the request context. Expired, malformed and
// unknown-subject tokens produce distinct messages, all with 401.
func JwtAuthMiddleware(issuer *auth.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if header == "" || token == header {
			utils.Respond(c, http.StatusUnauthorized, false, "Missing bearer token", nil, nil)
			c.Abort()
			return
		}

		userID, err := issuer.VerifyToken(token)
		if err != nil {
			msg := "Invalid token"
			if errors.Is(err, auth.ErrTokenExpired) {
				msg = "Token expired"
			}
			utils.Respond(c, http.StatusUnauthorized, false, msg, nil, nil)
			c.Abort()
			return
		}

		var user models.User
		if err := models.DB.Where("id = ?", userID).First(&user).Error; err != nil {
			utils.Respond(c, http.StatusUnauthorized, false, "Invalid token", nil, nil)
			c.Abort()
			return
		}

		c.Set(userContextKey, &user)
		c.Next()
	}
}

// AdminRequired Capability check run at the start of admin handlers
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || !user.IsAdmin {
			utils.Respond(c, http.StatusForbidden, false, "Admins only", nil, nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser The user attached by JwtAuthMiddleware, nil when absent
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userContextKey)
	if !ok {
		return nil
	}
	user, ok := v.(*models.User)
	if !ok {
		return nil
	}
	return user
}
