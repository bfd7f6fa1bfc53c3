package apitoken

import (
	"context"
)

// Store defines the interface for API token persistence operations.
type Store interface {
	// Create creates a new API token in the store.
	Create(ctx context.Context, token *APIToken) error

	// GetByID retrieves an API token by its ID.
	GetByID(ctx context.Context, id uint) (*APIToken, error)

	// GetByTokenHash retrieves an active, non-expired token by its hash.
	GetByTokenHash(ctx context.Context, hash string) (*APIToken, error)

	// ListByUser retrieves active tokens for a user, newest first.
	ListByUser(ctx context.Context, userID uint) ([]*APIToken, error)

	// CountActiveByUser returns the count of active tokens for a user.
	CountActiveByUser(ctx context.Context, userID uint) (int, error)

	// MarkUsed records the time a token was last presented.
	MarkUsed(ctx context.Context, id uint) error

	// Revoke sets a token's is_active to false.
	Revoke(ctx context.Context, id uint) error
}
