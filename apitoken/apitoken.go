package apitoken

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrTokenNotFound    = errors.New("api token not found")
	ErrInvalidTokenName = errors.New("token name is required")
	ErrInvalidScope     = errors.New("invalid scope: must be read_only or read_write")
	ErrInvalidUser      = errors.New("token user is required")
	ErrMaxTokensReached = errors.New("maximum number of active tokens reached")
)

const (
	// ScopeReadOnly tokens identify a caller but may not mutate.
	ScopeReadOnly = "read_only"
	// ScopeReadWrite tokens may call every API operation.
	ScopeReadWrite = "read_write"

	// Prefix marks raw portfolio tokens.
	Prefix = "pft_"

	MaxTokensPerUser = 5

	DefaultExpiry = 90 * 24 * time.Hour
	MinExpiry     = 24 * time.Hour
	MaxExpiry     = 365 * 24 * time.Hour
)

// APIToken is a bearer token for the API. Only the SHA-256 hash of the raw
// token is stored.
type APIToken struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	UserID     uint       `json:"user_id" gorm:"not null;index:idx_api_tokens_user_id"`
	Name       string     `json:"name" gorm:"type:varchar(100);not null"`
	TokenHash  string     `json:"-" gorm:"type:char(64);not null;uniqueIndex:idx_api_tokens_token_hash"`
	Scope      string     `json:"scope" gorm:"type:varchar(20);not null;default:read_write"`
	ExpiresAt  time.Time  `json:"expires_at" gorm:"not null"`
	IsActive   bool       `json:"is_active" gorm:"not null;default:true"`
	LastUsedAt *time.Time `json:"last_used_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// TableName returns the database table name.
func (APIToken) TableName() string {
	return "api_tokens"
}

// Validate checks if the token has valid required fields.
func (t *APIToken) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrInvalidTokenName
	}
	if t.Scope != ScopeReadOnly && t.Scope != ScopeReadWrite {
		return ErrInvalidScope
	}
	if t.UserID == 0 {
		return ErrInvalidUser
	}
	if t.TokenHash == "" {
		return errors.New("token_hash is required")
	}
	return nil
}

// IsExpired returns true if the token has expired.
func (t *APIToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

// CanWrite reports whether the token may call mutating operations.
func (t *APIToken) CanWrite() bool {
	return t.Scope == ScopeReadWrite
}

// GenerateToken creates a new random token with the pft_ prefix.
// Returns the raw token string and its SHA-256 hash.
func GenerateToken() (rawToken string, hash string, err error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	rawToken = Prefix + base64.RawURLEncoding.EncodeToString(bytes)
	return rawToken, HashToken(rawToken), nil
}

// HashToken returns the SHA-256 hex digest of a raw token.
func HashToken(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%x", h)
}

// ClampExpiry normalizes a requested lifetime: zero selects DefaultExpiry,
// anything else is clamped to [MinExpiry, MaxExpiry].
func ClampExpiry(d time.Duration) time.Duration {
	switch {
	case d == 0:
		return DefaultExpiry
	case d < MinExpiry:
		return MinExpiry
	case d > MaxExpiry:
		return MaxExpiry
	default:
		return d
	}
}

// New builds an unsaved token for userID and returns it with the raw token,
// which is shown to the caller once and never stored.
func New(userID uint, name, scope string, expiry time.Duration) (*APIToken, string, error) {
	raw, hash, err := GenerateToken()
	if err != nil {
		return nil, "", err
	}
	if scope == "" {
		scope = ScopeReadWrite
	}

	token := &APIToken{
		UserID:    userID,
		Name:      name,
		TokenHash: hash,
		Scope:     scope,
		ExpiresAt: time.Now().Add(ClampExpiry(expiry)),
		IsActive:  true,
	}
	if err := token.Validate(); err != nil {
		return nil, "", err
	}
	return token, raw, nil
}
