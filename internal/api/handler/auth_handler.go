package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/loadforge/loadforge/internal/auth"
	"github.com/loadforge/loadforge/internal/middleware"
)

// AuthHandler manages control-plane API keys. There is no login
// endpoint: a deployment's first admin key is provisioned out of band
// (see cmd/loadforge-server's bootstrap flag) and used to mint the rest.
type AuthHandler struct {
	apiKeyService *auth.APIKeyService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(apiKeyService *auth.APIKeyService) *AuthHandler {
	return &AuthHandler{apiKeyService: apiKeyService}
}

// CreateAPIKey issues a new API key.
// POST /api/v1/auth/api-keys
func (h *AuthHandler) CreateAPIKey(c *gin.Context) {
	var req auth.CreateAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	issuedBy, _ := c.Get(middleware.AuthKeyIDKey)
	issuedByStr, _ := issuedBy.(string)

	apiKey, err := h.apiKeyService.CreateAPIKey(issuedByStr, &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create API key"})
		return
	}

	c.JSON(http.StatusCreated, apiKey)
}

// ListAPIKeys returns every known API key, hashed value stripped.
// GET /api/v1/auth/api-keys
func (h *AuthHandler) ListAPIKeys(c *gin.Context) {
	keys := h.apiKeyService.ListAPIKeys()
	c.JSON(http.StatusOK, gin.H{
		"api_keys": keys,
		"count":    len(keys),
	})
}

// RevokeAPIKey deactivates an API key.
// DELETE /api/v1/auth/api-keys/:id
func (h *AuthHandler) RevokeAPIKey(c *gin.Context) {
	keyID := c.Param("id")

	if err := h.apiKeyService.RevokeAPIKey(keyID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "API key not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "API key revoked successfully"})
}
