// Package auth identifies API callers from bearer credentials.
package auth

import (
	"context"
	"errors"
)

// ErrUnauthenticated is returned when a credential is missing, unknown,
// expired or malformed.
var ErrUnauthenticated = errors.New("unauthenticated")

// Authentication methods reported in Identity.Method.
const (
	MethodToken   = "token"
	MethodJWT     = "jwt"
	MethodSession = "session"
)

// Identity is the caller a credential resolved to.
type Identity struct {
	UserID uint
	Scope  string
	Method string
}

// Verifier resolves a bearer credential to an Identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the identity stored in ctx, if any.
func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*Identity)
	return id, ok && id != nil
}
