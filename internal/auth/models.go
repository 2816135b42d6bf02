package auth

import "time"

// Role gates which control-plane operations a key may perform. There
// is no user account system: a LoadForge deployment authenticates
// callers by key alone.
type Role string

const (
	RoleAdmin    Role = "admin"    // start/stop runs, issue and revoke keys
	RoleReadOnly Role = "readonly" // stream snapshots and read results only
)

// APIKey is a control-plane credential. Key holds the SHA-256 hash of
// the plaintext key, never the plaintext itself.
type APIKey struct {
	ID        string     `json:"id"`
	Key       string     `json:"key"` // Hashed value
	Name      string     `json:"name"`
	IssuedBy  string     `json:"issued_by"`
	Role      Role       `json:"role"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	LastUsed  *time.Time `json:"last_used,omitempty"`
	IsActive  bool       `json:"is_active"`
}

// CreateAPIKeyRequest represents a request to create an API key
type CreateAPIKeyRequest struct {
	Name      string     `json:"name" binding:"required"`
	Role      Role       `json:"role" binding:"required"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// CreateAPIKeyResponse includes the plaintext key (only shown once)
type CreateAPIKeyResponse struct {
	ID        string     `json:"id"`
	Key       string     `json:"key"` // Plaintext - only shown once
	Name      string     `json:"name"`
	Role      Role       `json:"role"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
