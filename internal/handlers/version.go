package handlers

import (
	"net/http"

	"media-editor/internal/startup"
)

// GetVersion returns the application version and build information
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	buildInfo := startup.GetBuildInfo()

	w.Header().Set("Cache-Control", "no-cache")
	writeJSONResponse(w, http.StatusOK, buildInfo)
}
