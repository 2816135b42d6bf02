package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/loadforge/loadforge/internal/auth"
)

func newAuthedKey(t *testing.T, svc *auth.APIKeyService, role auth.Role) string {
	t.Helper()
	expiry := time.Now().Add(time.Hour)
	resp, err := svc.CreateAPIKey("issuer", &auth.CreateAPIKeyRequest{Name: "test", Role: role, ExpiresAt: &expiry})
	if err != nil {
		t.Fatalf("CreateAPIKey error: %v", err)
	}
	return resp.Key
}

func TestAuthMiddlewareRejectsMissingKey(t *testing.T) {
	svc := auth.NewAPIKeyService()
	r := gin.New()
	r.Use(AuthMiddleware(svc))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddlewareAcceptsValidKey(t *testing.T) {
	svc := auth.NewAPIKeyService()
	key := newAuthedKey(t, svc, auth.RoleAdmin)

	r := gin.New()
	r.Use(AuthMiddleware(svc))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-API-Key", key)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestRequireRoleRejectsInsufficientRole(t *testing.T) {
	svc := auth.NewAPIKeyService()
	key := newAuthedKey(t, svc, auth.RoleReadOnly)

	r := gin.New()
	r.Use(AuthMiddleware(svc))
	r.GET("/", RequireRole(auth.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-API-Key", key)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestRequireRoleAdminAlwaysPasses(t *testing.T) {
	svc := auth.NewAPIKeyService()
	key := newAuthedKey(t, svc, auth.RoleAdmin)

	r := gin.New()
	r.Use(AuthMiddleware(svc))
	r.GET("/", RequireRole(auth.RoleReadOnly), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-API-Key", key)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d (admin bypasses role check)", w.Code, http.StatusOK)
	}
}

func TestOptionalAuthAllowsMissingKey(t *testing.T) {
	svc := auth.NewAPIKeyService()
	r := gin.New()
	r.Use(OptionalAuth(svc))
	r.GET("/", func(c *gin.Context) {
		_, exists := c.Get(AuthKeyIDKey)
		if exists {
			c.String(http.StatusOK, "authed")
		} else {
			c.String(http.StatusOK, "anonymous")
		}
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK || w.Body.String() != "anonymous" {
		t.Errorf("status=%d body=%q, want 200 anonymous", w.Code, w.Body.String())
	}
}

func TestOptionalAuthAttachesValidKey(t *testing.T) {
	svc := auth.NewAPIKeyService()
	key := newAuthedKey(t, svc, auth.RoleAdmin)

	r := gin.New()
	r.Use(OptionalAuth(svc))
	r.GET("/", func(c *gin.Context) {
		_, exists := c.Get(AuthKeyIDKey)
		if exists {
			c.String(http.StatusOK, "authed")
		} else {
			c.String(http.StatusOK, "anonymous")
		}
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-API-Key", key)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Body.String() != "authed" {
		t.Errorf("body = %q, want authed", w.Body.String())
	}
}
