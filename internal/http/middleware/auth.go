// Package middleware holds the gin middleware shared by the admin and front
// route groups.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/menuqr/menuqr/internal/http/api/respond"
	"github.com/menuqr/menuqr/internal/models"
	"github.com/menuqr/menuqr/internal/service"
)

// RequireUser validates the bearer token and stores the user on the context.
func RequireUser(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header", "code": "unauthorized"})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format", "code": "unauthorized"})
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "empty token", "code": "unauthorized"})
			return
		}

		user, errAuth := auth.Authenticate(c.Request.Context(), token)
		if errAuth != nil {
			respond.Error(c, errAuth)
			c.Abort()
			return
		}
		c.Set(respond.UserKey, user)
		c.Next()
	}
}

// RequireDashboard refuses accounts that are still awaiting approval.
func RequireDashboard() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated", "code": "unauthorized"})
			return
		}
		if !user.CanAccessDashboard() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account pending approval", "code": "account_pending"})
			return
		}
		c.Next()
	}
}

// RequireSuperAdmin restricts a group to the platform operators.
func RequireSuperAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated", "code": "unauthorized"})
			return
		}
		if !user.IsSuperAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "super admin only", "code": "forbidden"})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user stored by RequireUser.
func CurrentUser(c *gin.Context) (models.User, bool) {
	value, exists := c.Get(respond.UserKey)
	if !exists {
		return models.User{}, false
	}
	user, ok := value.(models.User)
	return user, ok
}
