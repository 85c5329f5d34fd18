package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/slidecraft/slidecraft/internal/common"
	"github.com/slidecraft/slidecraft/internal/interfaces"
	"github.com/slidecraft/slidecraft/internal/models"
)

// ImageHandler exposes image candidate search for the slide editor
type ImageHandler struct {
	resolver interfaces.ImageResolver
	config   *common.Config
	logger   arbor.ILogger
}

func NewImageHandler(resolver interfaces.ImageResolver, config *common.Config) *ImageHandler {
	return &ImageHandler{
		resolver: resolver,
		config:   config,
		logger:   common.GetLogger(),
	}
}

// SuggestionsHandler handles GET /api/images/suggestions?keywords=a,b&max=5
func (h *ImageHandler) SuggestionsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	if h.resolver == nil {
		WriteError(w, http.StatusServiceUnavailable, "Image provider is not configured")
		return
	}

	raw := r.URL.Query().Get("keywords")
	var keywords []string
	for _, keyword := range strings.Split(raw, ",") {
		if keyword = strings.TrimSpace(keyword); keyword != "" {
			keywords = append(keywords, keyword)
		}
	}
	if len(keywords) == 0 {
		WriteError(w, http.StatusBadRequest, "At least one keyword is required")
		return
	}

	max := h.config.Pixabay.MaxCandidates
	if maxStr := r.URL.Query().Get("max"); maxStr != "" {
		if n, err := strconv.Atoi(maxStr); err == nil && n > 0 && n <= h.config.Pixabay.PerPage {
			max = n
		}
	}

	candidates, err := h.resolver.Search(r.Context(), keywords, max)
	if err != nil {
		h.logger.Warn().Err(err).Strs("keywords", keywords).Msg("Image search failed")
		WriteServiceError(w, err)
		return
	}
	if candidates == nil {
		candidates = []models.ImageCandidate{}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"keywords":   keywords,
		"candidates": candidates,
		"count":      len(candidates),
	})
}
