package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/slidecraft/slidecraft/internal/common"
	"github.com/slidecraft/slidecraft/internal/interfaces"
)

// RobotsHandler lets callers pre-check whether a URL may be scraped
// before submitting a generation request
type RobotsHandler struct {
	gate   interfaces.PolicyGate
	logger arbor.ILogger
}

func NewRobotsHandler(gate interfaces.PolicyGate) *RobotsHandler {
	return &RobotsHandler{
		gate:   gate,
		logger: common.GetLogger(),
	}
}

// CheckHandler handles /api/robots-check. POST with body {"url": "..."}
// returns the gate decision; GET with ?url= returns the raw robots.txt body.
func (h *RobotsHandler) CheckHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		h.fetchRaw(w, r)
		return
	}
	if !RequireMethod(w, r, "POST") {
		return
	}

	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}
	if body.URL == "" {
		WriteError(w, http.StatusBadRequest, "url is required")
		return
	}

	decision := h.gate.Check(r.Context(), body.URL)
	WriteJSON(w, http.StatusOK, decision)
}

func (h *RobotsHandler) fetchRaw(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		WriteError(w, http.StatusBadRequest, "url is required")
		return
	}

	content, err := h.gate.FetchRaw(r.Context(), rawURL)
	if err != nil {
		h.logger.Warn().Err(err).Str("url", rawURL).Msg("Failed to fetch robots.txt")
		WriteError(w, http.StatusBadGateway, "Failed to fetch robots.txt: "+err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"url":        rawURL,
		"robots_txt": content,
	})
}
