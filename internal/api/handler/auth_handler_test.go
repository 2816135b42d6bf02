package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/loadforge/loadforge/internal/auth"
)

func newAuthHandlerRouter() (*gin.Engine, *AuthHandler) {
	svc := auth.NewAPIKeyService()
	h := NewAuthHandler(svc)
	r := gin.New()
	r.POST("/api/auth/api-keys", h.CreateAPIKey)
	r.GET("/api/auth/api-keys", h.ListAPIKeys)
	r.DELETE("/api/auth/api-keys/:id", h.RevokeAPIKey)
	return r, h
}

func TestCreateAPIKeyReturnsPlaintextKeyOnce(t *testing.T) {
	r, _ := newAuthHandlerRouter()

	body, _ := json.Marshal(auth.CreateAPIKeyRequest{Name: "ci-runner", Role: auth.RoleReadOnly})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/api-keys", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d, body=%s", w.Code, http.StatusCreated, w.Body.String())
	}

	var resp auth.CreateAPIKeyResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json.Unmarshal error: %v", err)
	}
	if resp.Key == "" {
		t.Error("expected a plaintext key in the create response")
	}
}

func TestCreateAPIKeyRejectsMalformedBody(t *testing.T) {
	r, _ := newAuthHandlerRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/auth/api-keys", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestListAPIKeysReturnsCreatedKeys(t *testing.T) {
	r, h := newAuthHandlerRouter()
	if _, err := h.apiKeyService.CreateAPIKey("issuer", &auth.CreateAPIKeyRequest{Name: "one", Role: auth.RoleAdmin}); err != nil {
		t.Fatalf("CreateAPIKey error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/auth/api-keys", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json.Unmarshal error: %v", err)
	}
	if count, _ := body["count"].(float64); count != 1 {
		t.Errorf("count = %v, want 1", body["count"])
	}
}

func TestRevokeAPIKeyUnknownIDReturnsNotFound(t *testing.T) {
	r, _ := newAuthHandlerRouter()

	req := httptest.NewRequest(http.MethodDelete, "/api/auth/api-keys/does-not-exist", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestRevokeAPIKeySucceeds(t *testing.T) {
	r, h := newAuthHandlerRouter()
	resp, err := h.apiKeyService.CreateAPIKey("issuer", &auth.CreateAPIKeyRequest{Name: "to-revoke", Role: auth.RoleReadOnly})
	if err != nil {
		t.Fatalf("CreateAPIKey error: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/auth/api-keys/"+resp.ID, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}
