package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rearqui/portfolio/apitoken"
)

// ErrEmptySecret is returned when a JWT verifier is built without a key.
var ErrEmptySecret = errors.New("jwt secret must not be empty")

// Claims are the registered claims plus the caller's user id and scope.
type Claims struct {
	jwt.RegisteredClaims
	UserID uint   `json:"uid"`
	Scope  string `json:"scope"`
}

// JWTVerifier accepts HS256 tokens signed with a shared secret.
type JWTVerifier struct {
	secret []byte
	issuer string
}

// NewJWTVerifier creates a verifier for tokens signed with secret.
func NewJWTVerifier(secret, issuer string) (*JWTVerifier, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &JWTVerifier{
		secret: []byte(secret),
		issuer: issuer,
	}, nil
}

// Issue signs a token for userID that expires after validity.
func (v *JWTVerifier) Issue(userID uint, scope string, validity time.Duration) (string, error) {
	if scope == "" {
		scope = apitoken.ScopeReadWrite
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
		UserID: userID,
		Scope:  scope,
	})

	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates token.
func (v *JWTVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return nil, ErrUnauthenticated
	}

	if claims.UserID == 0 {
		return nil, ErrUnauthenticated
	}
	if claims.Scope != apitoken.ScopeReadOnly && claims.Scope != apitoken.ScopeReadWrite {
		return nil, ErrUnauthenticated
	}

	return &Identity{
		UserID: claims.UserID,
		Scope:  claims.Scope,
		Method: MethodJWT,
	}, nil
}
