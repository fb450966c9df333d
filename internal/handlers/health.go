package handlers

import (
	"net/http"
	"runtime"
	"time"

	"media-editor/internal/media"
	"media-editor/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
	statusDraining = "draining"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Ready   bool   `json:"ready"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`

	// Processing capabilities
	ImageBackend    string `json:"imageBackend"`
	FFmpegAvailable bool   `json:"ffmpegAvailable"`
	ActiveEncoders  int    `json:"activeEncoders"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the service. A missing encoder
// degrades the service without failing the check; only draining does.
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	draining := h.draining.Load()

	response := HealthResponse{
		Ready:           !draining,
		Version:         startup.Version,
		Uptime:          time.Since(h.startTime).Round(time.Second).String(),
		ImageBackend:    string(media.SelectBackend()),
		FFmpegAvailable: h.ffmpegAvailable,
		ActiveEncoders:  h.transcoder.Active(),
		GoVersion:       runtime.Version(),
		NumCPU:          runtime.NumCPU(),
		NumGoroutine:    runtime.NumGoroutine(),
	}

	switch {
	case draining:
		response.Status = statusDraining
	case !h.ffmpegAvailable:
		response.Status = statusDegraded
	default:
		response.Status = statusHealthy
	}

	status := http.StatusOK
	if draining {
		status = http.StatusServiceUnavailable
	}
	writeJSONResponse(w, status, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}

// ReadinessCheck returns 200 until shutdown begins
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	if h.draining.Load() {
		writeJSONStatus(w, http.StatusServiceUnavailable, "not_ready")
		return
	}
	writeJSONStatus(w, http.StatusOK, "ready")
}
