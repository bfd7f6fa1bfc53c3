package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rearqui/portfolio/apitoken"
	"github.com/rearqui/portfolio/auth"
	"github.com/rearqui/portfolio/dispatch"
	"github.com/rearqui/portfolio/logger"
)

// RequestIDHeader carries the request id in requests and responses.
const RequestIDHeader = "X-Request-ID"

// AuthMiddleware validates Bearer credentials and adds the caller's
// identity to the request context.
type AuthMiddleware struct {
	verifier auth.Verifier
	logger   logger.Logger
}

// NewAuthMiddleware creates a new authentication middleware.
func NewAuthMiddleware(verifier auth.Verifier, log logger.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
		logger:   log,
	}
}

// Handler rejects requests without a valid Bearer credential before the
// wrapped handler runs.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			m.logger.Warn(r.Context(), "missing bearer token", map[string]interface{}{
				"path": r.URL.Path,
			})
			respondError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		rawToken := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		id, err := m.verifier.Verify(r.Context(), rawToken)
		if err != nil {
			if !errors.Is(err, auth.ErrUnauthenticated) {
				m.logger.Error(r.Context(), "failed to verify token", map[string]interface{}{
					"error": err.Error(),
				})
				respondError(w, http.StatusInternalServerError, "failed to verify token")
				return
			}
			m.logger.Warn(r.Context(), "invalid bearer token", map[string]interface{}{
				"path": r.URL.Path,
			})
			respondError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
	})
}

// GetIdentity extracts the authenticated caller from the request.
func GetIdentity(r *http.Request) (*auth.Identity, bool) {
	return auth.FromContext(r.Context())
}

// RequireWriteScope checks if the current request has write scope.
// Returns true if the scope is read_write, false otherwise (and writes a 403 response).
func RequireWriteScope(w http.ResponseWriter, r *http.Request) bool {
	id, ok := GetIdentity(r)
	if ok && id.Scope != apitoken.ScopeReadWrite {
		respondError(w, http.StatusForbidden, "write access required")
		return false
	}
	return true
}

// WriteScopeMiddleware enforces write scope for state-mutating HTTP methods.
// GET and HEAD requests pass through regardless of scope. POST, PUT, DELETE,
// and PATCH require read_write scope.
func WriteScopeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
			if !RequireWriteScope(w, r) {
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// RequestLogger assigns a request id and logs every request once it completes.
func RequestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, requestID)

			ctx := logger.WithRequestID(r.Context(), requestID)
			rec := &statusRecorder{ResponseWriter: w}
			start := time.Now()

			next.ServeHTTP(rec, r.WithContext(ctx))

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			log.Info(ctx, "request completed", map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      status,
				"duration_ms": time.Since(start).Milliseconds(),
			})
		})
	}
}

// Recover turns a panic in a handler into a 500 response written by
// respond. Client disconnects are re-raised so the dispatcher can apply its
// fault policy, and http.ErrAbortHandler is re-raised for net/http.
func Recover(log logger.Logger, respond func(w http.ResponseWriter, r *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && (dispatch.IsDisconnect(err) || errors.Is(err, http.ErrAbortHandler)) {
					panic(rec)
				}

				log.Error(r.Context(), "handler panicked", map[string]interface{}{
					"method": r.Method,
					"path":   r.URL.Path,
					"panic":  fmt.Sprint(rec),
				})
				respond(w, r)
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// RecoverJSON is Recover with the API's JSON error format.
func RecoverJSON(log logger.Logger) func(http.Handler) http.Handler {
	return Recover(log, func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusInternalServerError, "internal server error")
	})
}
