package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/loadforge/loadforge/internal/auth"
	"go.uber.org/zap"
)

const (
	AuthKeyIDKey = "auth_key_id"
	AuthRoleKey  = "auth_role"
)

// AuthMiddleware validates the X-API-Key header against apiKeyService
// and rejects the request otherwise. LoadForge's control plane has no
// user-account system; a key identifies only itself and a role.
func AuthMiddleware(apiKeyService *auth.APIKeyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader("X-API-Key")
		if apiKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}

		keyInfo, err := apiKeyService.ValidateAPIKey(apiKey)
		if err != nil {
			zap.L().Warn("invalid API key", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired API key"})
			c.Abort()
			return
		}

		c.Set(AuthKeyIDKey, keyInfo.ID)
		c.Set(AuthRoleKey, keyInfo.Role)
		c.Next()
	}
}

// RequireRole rejects requests whose authenticated role is not in
// allowedRoles. RoleAdmin always passes.
func RequireRole(allowedRoles ...auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(AuthRoleKey)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}

		userRole, ok := role.(auth.Role)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "invalid role format"})
			c.Abort()
			return
		}

		if userRole == auth.RoleAdmin {
			c.Next()
			return
		}

		for _, allowedRole := range allowedRoles {
			if userRole == allowedRole {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
		c.Abort()
	}
}

// OptionalAuth attaches key/role info to the request context when a
// valid X-API-Key is present but never rejects an unauthenticated
// request; used on read-only endpoints LoadForge also exposes
// anonymously on trusted networks.
func OptionalAuth(apiKeyService *auth.APIKeyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader("X-API-Key")
		if apiKey != "" {
			if keyInfo, err := apiKeyService.ValidateAPIKey(apiKey); err == nil {
				c.Set(AuthKeyIDKey, keyInfo.ID)
				c.Set(AuthRoleKey, keyInfo.Role)
			}
		}
		c.Next()
	}
}
