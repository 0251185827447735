package handlers

import (
	"net/http"

	"github.com/benvon/study-planner/internal/version"
)

// VersionInfo serves build metadata for the /version endpoint
func VersionInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(version.Render(false, "json")))
}
