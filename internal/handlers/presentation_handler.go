package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/slidecraft/slidecraft/internal/common"
	"github.com/slidecraft/slidecraft/internal/interfaces"
	"github.com/slidecraft/slidecraft/internal/models"
)

// PresentationHandler exposes stored presentations and slide editing
type PresentationHandler struct {
	service interfaces.PresentationService
	logger  arbor.ILogger
}

func NewPresentationHandler(service interfaces.PresentationService) *PresentationHandler {
	return &PresentationHandler{
		service: service,
		logger:  common.GetLogger(),
	}
}

// ListHandler handles GET /api/presentations
func (h *PresentationHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	ownerID, ok := RequireOwner(w, r)
	if !ok {
		return
	}

	summaries, err := h.service.List(r.Context(), ownerID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if summaries == nil {
		summaries = []*models.PresentationSummary{}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"presentations": summaries,
		"count":         len(summaries),
	})
}

// GetHandler handles GET /api/presentations/{id}
func (h *PresentationHandler) GetHandler(w http.ResponseWriter, r *http.Request, id string) {
	ownerID, ok := RequireOwner(w, r)
	if !ok {
		return
	}

	presentation, err := h.service.Get(r.Context(), ownerID, id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, presentation)
}

// DeleteHandler handles DELETE /api/presentations/{id}
func (h *PresentationHandler) DeleteHandler(w http.ResponseWriter, r *http.Request, id string) {
	ownerID, ok := RequireOwner(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), ownerID, id); err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteSuccess(w, "Presentation deleted")
}

// DownloadHandler handles GET /api/presentations/{id}/download
func (h *PresentationHandler) DownloadHandler(w http.ResponseWriter, r *http.Request, id string) {
	ownerID, ok := RequireOwner(w, r)
	if !ok {
		return
	}

	presentation, err := h.service.Get(r.Context(), ownerID, id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	path, err := h.service.DeckPath(r.Context(), ownerID, id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+downloadFilename(presentation.Topic, id)+`"`)
	http.ServeFile(w, r, path)
}

// downloadFilename builds a safe attachment name from the topic,
// falling back to the presentation ID for topics with no usable characters
func downloadFilename(topic, id string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(topic)) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		case !lastUnderscore && b.Len() > 0:
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	name := strings.TrimSuffix(b.String(), "_")
	if name == "" {
		name = id
	}
	if len(name) > 80 {
		name = name[:80]
	}
	return name + ".pdf"
}

// PatchSlideHandler handles PATCH /api/presentations/{id}/slides/{n}
func (h *PresentationHandler) PatchSlideHandler(w http.ResponseWriter, r *http.Request, id string, slideNumber int) {
	ownerID, ok := RequireOwner(w, r)
	if !ok {
		return
	}

	var patch models.SlidePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}

	presentation, err := h.service.PatchSlide(r.Context(), ownerID, id, slideNumber, patch)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, presentation)
}

// DeleteSlideHandler handles DELETE /api/presentations/{id}/slides/{n}
func (h *PresentationHandler) DeleteSlideHandler(w http.ResponseWriter, r *http.Request, id string, slideNumber int) {
	ownerID, ok := RequireOwner(w, r)
	if !ok {
		return
	}

	presentation, err := h.service.DeleteSlide(r.Context(), ownerID, id, slideNumber)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, presentation)
}

// ReplaceSlideImageHandler handles POST /api/presentations/{id}/slides/{n}/image
func (h *PresentationHandler) ReplaceSlideImageHandler(w http.ResponseWriter, r *http.Request, id string, slideNumber int) {
	ownerID, ok := RequireOwner(w, r)
	if !ok {
		return
	}

	var body struct {
		Keywords []string `json:"keywords"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			WriteError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
			return
		}
	}

	presentation, err := h.service.ReplaceSlideImage(r.Context(), ownerID, id, slideNumber, body.Keywords)
	if err != nil {
		h.logger.Warn().Err(err).Str("presentation_id", id).Int("slide", slideNumber).Msg("Image replacement failed")
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, presentation)
}
