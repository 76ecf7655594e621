package handlers

import (
	"net/http"
	"sort"
	"time"
)

// HealthCheck returns the health status of the application
// @Summary Health check
// @Description Returns the health status of the application and its dependencies
// @Tags system
// @Produce json
// @Success 200 {object} map[string]interface{} "Health status"
// @Failure 503 {object} map[string]interface{} "A dependency is unhealthy"
// @Router /health [get]
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now(),
		"version":   h.version,
	}
	if h.api != nil {
		status["backend"] = h.api.BaseURL()
	}

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	code := http.StatusOK
	for _, name := range names {
		if err := h.checks[name](r.Context()); err != nil {
			status[name+"_status"] = "unhealthy"
			status[name+"_error"] = err.Error()
			status["status"] = "unhealthy"
			code = http.StatusServiceUnavailable
		} else {
			status[name+"_status"] = "healthy"
		}
	}

	sendJSON(w, code, status)
}
