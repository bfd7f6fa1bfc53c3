package handlers

import (
	"context"
	"net/http"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// NewHealthHandler reports healthy while check succeeds. A nil check
// always reports healthy.
func NewHealthHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				respondJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unhealthy", Error: err.Error()})
				return
			}
		}
		respondJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
	}
}
