package api

import (
	"net/http"
	"time"

	"github.com/scamshield/scamshield/internal/api/respond"
)

// HealthHandler handles the health check endpoint.
type HealthHandler struct{}

// NewHealthHandler creates a new health handler.
func NewHealthHandler() *HealthHandler { return &HealthHandler{} }

// serviceHealth is injected by the composition root.
var serviceHealth struct {
	isHealthy  func() bool
	components func() map[string]bool
}

func init() {
	serviceHealth.isHealthy = func() bool { return false }
	serviceHealth.components = func() map[string]bool { return nil }
}

// BindServiceHealth lets run.go inject the aggregate and per-component
// health functions.
func BindServiceHealth(isHealthy func() bool, components func() map[string]bool) {
	serviceHealth.isHealthy = isHealthy
	serviceHealth.components = components
}

// CheckHealth handles GET /api/health.
// Always returns 200; the body reports healthy/unhealthy per component.
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	status := "unhealthy"
	if serviceHealth.isHealthy() {
		status = "healthy"
	}
	deps := map[string]string{}
	for name, up := range serviceHealth.components() {
		if up {
			deps[name] = "healthy"
		} else {
			deps[name] = "unhealthy"
		}
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":     status,
		"components": deps,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}
