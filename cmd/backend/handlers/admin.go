package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/rearqui/portfolio/apitoken"
	"github.com/rearqui/portfolio/auth"
	"github.com/rearqui/portfolio/logger"
	"github.com/rearqui/portfolio/session"
	"github.com/rearqui/portfolio/user"
)

// AdminHandler handles admin sign-in and API token issuance.
type AdminHandler struct {
	userStore      user.Store
	tokenStore     apitoken.Store
	sessionManager *session.Manager
	cookie         *session.Cookie
	jwt            *auth.JWTVerifier
	logger         logger.Logger
}

// NewAdminHandler creates a new admin handler. When jwt is non-nil issued
// credentials are signed JWTs instead of stored API tokens.
func NewAdminHandler(
	userStore user.Store,
	tokenStore apitoken.Store,
	sessionManager *session.Manager,
	cookie *session.Cookie,
	jwt *auth.JWTVerifier,
	log logger.Logger,
) *AdminHandler {
	return &AdminHandler{
		userStore:      userStore,
		tokenStore:     tokenStore,
		sessionManager: sessionManager,
		cookie:         cookie,
		jwt:            jwt,
		logger:         log,
	}
}

// LoginRequest represents an admin login request.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CreateTokenRequest represents a token creation request.
type CreateTokenRequest struct {
	Name           string `json:"name"`
	Scope          string `json:"scope"`
	ExpiresInHours int    `json:"expires_in_hours"`
}

// CreateTokenResponse includes the raw token (shown once).
type CreateTokenResponse struct {
	ID        uint   `json:"id,omitempty"`
	Name      string `json:"name"`
	Scope     string `json:"scope"`
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// Login handles admin login requests.
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := parseJSON(r, &req, h.logger); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := user.Authenticate(r.Context(), h.userStore, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			h.logger.Warn(r.Context(), "failed login attempt", map[string]interface{}{
				"username": req.Username,
			})
			respondError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.logger.Error(r.Context(), "failed to authenticate", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "authentication failed")
		return
	}

	sess, err := h.sessionManager.Create(u.ID, u.Username)
	if err != nil {
		h.logger.Error(r.Context(), "failed to create session", map[string]interface{}{
			"error":   err.Error(),
			"user_id": u.ID,
		})
		respondError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	if err := h.cookie.Set(w, sess.ID); err != nil {
		h.logger.Error(r.Context(), "failed to encode session cookie", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	h.logger.Info(r.Context(), "admin logged in", map[string]interface{}{
		"user_id":  u.ID,
		"username": u.Username,
	})

	respondJSON(w, http.StatusOK, u)
}

// Logout handles admin logout requests.
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sessionID, err := h.cookie.Read(r); err == nil {
		h.sessionManager.Delete(sessionID)
	}
	h.cookie.Clear(w)

	respondSuccess(w, "logged out successfully")
}

// RequireSession rejects requests without a valid admin session cookie.
func (h *AdminHandler) RequireSession(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := h.cookie.Read(r)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		sess, err := h.sessionManager.Get(sessionID)
		if err != nil {
			h.logger.Warn(r.Context(), "invalid or expired session", map[string]interface{}{
				"error": err.Error(),
			})
			respondError(w, http.StatusUnauthorized, "invalid or expired session")
			return
		}

		ctx := auth.WithIdentity(r.Context(), &auth.Identity{
			UserID: sess.UserID,
			Scope:  apitoken.ScopeReadWrite,
			Method: auth.MethodSession,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CreateToken issues an API credential for the signed-in admin.
func (h *AdminHandler) CreateToken(w http.ResponseWriter, r *http.Request) {
	id, ok := GetIdentity(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "user not authenticated")
		return
	}

	var req CreateTokenRequest
	if err := parseJSON(r, &req, h.logger); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	expiry := apitoken.ClampExpiry(time.Duration(req.ExpiresInHours) * time.Hour)
	if req.Scope == "" {
		req.Scope = apitoken.ScopeReadWrite
	}

	if h.jwt != nil {
		if req.Scope != apitoken.ScopeReadOnly && req.Scope != apitoken.ScopeReadWrite {
			respondError(w, http.StatusBadRequest, apitoken.ErrInvalidScope.Error())
			return
		}
		signed, err := h.jwt.Issue(id.UserID, req.Scope, expiry)
		if err != nil {
			h.logger.Error(r.Context(), "failed to issue jwt", map[string]interface{}{
				"error": err.Error(),
			})
			respondError(w, http.StatusInternalServerError, "failed to create token")
			return
		}
		respondJSON(w, http.StatusCreated, CreateTokenResponse{
			Name:      req.Name,
			Scope:     req.Scope,
			Token:     signed,
			ExpiresAt: time.Now().Add(expiry).Format(time.RFC3339),
		})
		return
	}

	token, raw, err := apitoken.New(id.UserID, req.Name, req.Scope, expiry)
	if err != nil {
		if errors.Is(err, apitoken.ErrInvalidTokenName) || errors.Is(err, apitoken.ErrInvalidScope) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to create token")
		return
	}

	if err := h.tokenStore.Create(r.Context(), token); err != nil {
		if errors.Is(err, apitoken.ErrMaxTokensReached) {
			respondError(w, http.StatusConflict, "maximum number of active tokens reached (limit: 5)")
			return
		}
		h.logger.Error(r.Context(), "failed to create token", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "failed to create token")
		return
	}

	respondJSON(w, http.StatusCreated, CreateTokenResponse{
		ID:        token.ID,
		Name:      token.Name,
		Scope:     token.Scope,
		Token:     raw,
		ExpiresAt: token.ExpiresAt.Format(time.RFC3339),
	})
}

// ListTokens lists the signed-in admin's active tokens.
func (h *AdminHandler) ListTokens(w http.ResponseWriter, r *http.Request) {
	id, ok := GetIdentity(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "user not authenticated")
		return
	}

	tokens, err := h.tokenStore.ListByUser(r.Context(), id.UserID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list tokens")
		return
	}
	respondJSON(w, http.StatusOK, tokens)
}

// RevokeToken deactivates one of the signed-in admin's tokens.
func (h *AdminHandler) RevokeToken(w http.ResponseWriter, r *http.Request) {
	id, ok := GetIdentity(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "user not authenticated")
		return
	}

	tokenID, ok := parseIDOrRespond(w, r, "id", "token")
	if !ok {
		return
	}

	token, err := h.tokenStore.GetByID(r.Context(), tokenID)
	if err != nil || token.UserID != id.UserID {
		respondError(w, http.StatusNotFound, "token not found")
		return
	}

	if err := h.tokenStore.Revoke(r.Context(), tokenID); err != nil {
		h.logger.Error(r.Context(), "failed to revoke token", map[string]interface{}{
			"error":    err.Error(),
			"token_id": tokenID,
		})
		respondError(w, http.StatusInternalServerError, "failed to revoke token")
		return
	}

	respondSuccess(w, "token revoked")
}
