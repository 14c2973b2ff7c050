package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"dwellhub/backend/internal/auth"
	"dwellhub/backend/internal/models"
	"dwellhub/backend/internal/services"
)

// ContextKeyUser holds the resolved *models.User in the Gin context.
const ContextKeyUser = "currentUser"

// CurrentUser returns the authenticated user set by AuthMiddleware.
// Panics if called on a route that is not behind AuthMiddleware.
func CurrentUser(c *gin.Context) *models.User {
	return c.MustGet(ContextKeyUser).(*models.User)
}

// AuthMiddleware verifies the bearer access token and re-resolves the user
// from the store. Resolving on every request means a deleted account locks
// out immediately instead of living until token expiry.
func AuthMiddleware(userService services.IUserService, accessSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}"})
			return
		}

		claims, err := auth.ValidateToken(parts[1], accessSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		userID, err := primitive.ObjectIDFromHex(claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token subject"})
			return
		}

		user, err := userService.FindByID(c.Request.Context(), userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Account no longer exists"})
			return
		}

		c.Set(ContextKeyUser, user)
		c.Next()
	}
}

// RequireRoles allows only callers whose role is in the given set.
// Assumes AuthMiddleware runs first.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
	}
}
