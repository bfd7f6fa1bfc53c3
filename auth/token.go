package auth

import (
	"context"
	"errors"

	"github.com/rearqui/portfolio/apitoken"
	"github.com/rearqui/portfolio/logger"
)

// TokenVerifier checks opaque API tokens against the api_tokens table.
type TokenVerifier struct {
	tokens apitoken.Store
	logger logger.Logger
}

// NewTokenVerifier creates a verifier backed by tokens.
func NewTokenVerifier(tokens apitoken.Store, log logger.Logger) *TokenVerifier {
	return &TokenVerifier{
		tokens: tokens,
		logger: log,
	}
}

// Verify hashes the raw token and looks it up.
func (v *TokenVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	t, err := v.tokens.GetByTokenHash(ctx, apitoken.HashToken(token))
	if err != nil {
		if errors.Is(err, apitoken.ErrTokenNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}

	if err := v.tokens.MarkUsed(ctx, t.ID); err != nil {
		v.logger.Warn(ctx, "failed to record token use", map[string]interface{}{
			"token_id": t.ID,
			"error":    err.Error(),
		})
	}

	return &Identity{
		UserID: t.UserID,
		Scope:  t.Scope,
		Method: MethodToken,
	}, nil
}
