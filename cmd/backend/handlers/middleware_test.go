package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"syscall"
	"testing"

	"github.com/rearqui/portfolio/apitoken"
	"github.com/rearqui/portfolio/auth"
	"github.com/rearqui/portfolio/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireWriteScope(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		scope      string
		wantOK     bool
		wantStatus int
	}{
		{
			name:   "read_write scope passes",
			scope:  apitoken.ScopeReadWrite,
			wantOK: true,
		},
		{
			name:       "read_only scope returns 403",
			scope:      apitoken.ScopeReadOnly,
			wantOK:     false,
			wantStatus: http.StatusForbidden,
		},
		{
			name:   "no scope in context defaults to read_write",
			scope:  "",
			wantOK: true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodPost, "/test", nil)
			if tc.scope != "" {
				ctx := auth.WithIdentity(req.Context(), &auth.Identity{UserID: 1, Scope: tc.scope})
				req = req.WithContext(ctx)
			}
			w := httptest.NewRecorder()

			got := RequireWriteScope(w, req)
			if got != tc.wantOK {
				t.Errorf("RequireWriteScope() = %v, want %v", got, tc.wantOK)
			}
			if !tc.wantOK && w.Code != tc.wantStatus {
				t.Errorf("status code = %d, want %d", w.Code, tc.wantStatus)
			}
		})
	}
}

func TestWriteScopeMiddleware(t *testing.T) {
	t.Parallel()

	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		method     string
		scope      string
		wantStatus int
	}{
		{
			name:       "GET with read_only passes",
			method:     http.MethodGet,
			scope:      apitoken.ScopeReadOnly,
			wantStatus: http.StatusOK,
		},
		{
			name:       "GET with read_write passes",
			method:     http.MethodGet,
			scope:      apitoken.ScopeReadWrite,
			wantStatus: http.StatusOK,
		},
		{
			name:       "POST with read_write passes",
			method:     http.MethodPost,
			scope:      apitoken.ScopeReadWrite,
			wantStatus: http.StatusOK,
		},
		{
			name:       "POST with read_only blocked",
			method:     http.MethodPost,
			scope:      apitoken.ScopeReadOnly,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "PUT with read_only blocked",
			method:     http.MethodPut,
			scope:      apitoken.ScopeReadOnly,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "DELETE with read_only blocked",
			method:     http.MethodDelete,
			scope:      apitoken.ScopeReadOnly,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "PATCH with read_only blocked",
			method:     http.MethodPatch,
			scope:      apitoken.ScopeReadOnly,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "HEAD with read_only passes",
			method:     http.MethodHead,
			scope:      apitoken.ScopeReadOnly,
			wantStatus: http.StatusOK,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(tc.method, "/test", nil)
			ctx := auth.WithIdentity(req.Context(), &auth.Identity{UserID: 1, Scope: tc.scope})
			req = req.WithContext(ctx)

			w := httptest.NewRecorder()
			WriteScopeMiddleware(okHandler).ServeHTTP(w, req)

			if w.Code != tc.wantStatus {
				t.Errorf("status code = %d, want %d", w.Code, tc.wantStatus)
			}
		})
	}
}

type stubVerifier struct {
	identities map[string]*auth.Identity
	err        error
}

func (s *stubVerifier) Verify(ctx context.Context, token string) (*auth.Identity, error) {
	if s.err != nil {
		return nil, s.err
	}
	id, ok := s.identities[token]
	if !ok {
		return nil, auth.ErrUnauthenticated
	}
	return id, nil
}

func TestAuthMiddleware(t *testing.T) {
	verifier := &stubVerifier{identities: map[string]*auth.Identity{
		"good": {UserID: 9, Scope: apitoken.ScopeReadWrite, Method: auth.MethodToken},
	}}

	var seen *auth.Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetIdentity(r)
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Token good", wantStatus: http.StatusUnauthorized},
		{name: "unknown token", header: "Bearer bad", wantStatus: http.StatusUnauthorized},
		{name: "valid token", header: "Bearer good", wantStatus: http.StatusNoContent},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodPost, "/api/project/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()

			NewAuthMiddleware(verifier, logger.NewTestLogger()).Handler(next).ServeHTTP(w, req)

			assert.Equal(t, tc.wantStatus, w.Code)
			if tc.wantStatus == http.StatusNoContent {
				require.NotNil(t, seen)
				assert.Equal(t, uint(9), seen.UserID)
			} else {
				assert.Nil(t, seen)
			}
		})
	}
}

func TestAuthMiddleware_VerifierFailure(t *testing.T) {
	verifier := &stubVerifier{err: errors.New("database down")}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})

	req := httptest.NewRequest(http.MethodPost, "/api/project/", nil)
	req.Header.Set("Authorization", "Bearer anything")
	w := httptest.NewRecorder()

	NewAuthMiddleware(verifier, logger.NewTestLogger()).Handler(next).ServeHTTP(w, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRecoverJSON(t *testing.T) {
	log := logger.NewTestLogger()
	handler := RecoverJSON(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/projects/list/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
	assert.Len(t, log.EntriesWithMessage("handler panicked"), 1)
}

func TestRecover_ReraisesDisconnects(t *testing.T) {
	handler := RecoverHTML(logger.NewTestLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(fmt.Errorf("write: %w", syscall.EPIPE))
	}))

	assert.Panics(t, func() {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestRecover_ReraisesAbortHandler(t *testing.T) {
	log := logger.NewTestLogger()
	handler := RecoverJSON(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithError(t, http.ErrAbortHandler.Error(), func() {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/projects/list/", nil))
	})
	assert.Empty(t, log.EntriesWithMessage("handler panicked"))
}

func TestRequestLogger(t *testing.T) {
	log := logger.NewTestLogger()
	handler := RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, logger.RequestID(r.Context()))
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/about/", nil))

	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	entries := log.EntriesWithMessage("request completed")
	require.Len(t, entries, 1)
	assert.Equal(t, http.StatusTeapot, entries[0].Fields["status"])
	assert.Equal(t, "/about/", entries[0].Fields["path"])
}

func TestRequestLogger_KeepsIncomingID(t *testing.T) {
	handler := RequestLogger(logger.NewTestLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "req-123", logger.RequestID(r.Context()))
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
}
