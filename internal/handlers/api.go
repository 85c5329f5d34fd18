package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/slidecraft/slidecraft/internal/common"
	"github.com/slidecraft/slidecraft/internal/interfaces"
)

type APIHandler struct {
	presentations interfaces.PresentationStorage
	logger        arbor.ILogger
}

func NewAPIHandler(presentations interfaces.PresentationStorage) *APIHandler {
	return &APIHandler{
		presentations: presentations,
		logger:        common.GetLogger(),
	}
}

// VersionHandler returns version information
func (h *APIHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"version":    common.GetVersion(),
		"build":      common.GetBuild(),
		"git_commit": common.GetGitCommit(),
	})
}

// HealthHandler returns health check status
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	count, err := h.presentations.CountPresentations(r.Context())
	if err != nil {
		h.logger.Warn().Err(err).Msg("Health check could not count presentations")
		WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":        "ok",
		"presentations": count,
	})
}

// NotFoundHandler handles 404 errors with JSON response
func (h *APIHandler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusNotFound, map[string]interface{}{
		"error":   "Not Found",
		"path":    r.URL.Path,
		"message": "The requested endpoint does not exist",
	})
}
