package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/slidecraft/slidecraft/internal/common"
	"github.com/slidecraft/slidecraft/internal/interfaces"
	"github.com/slidecraft/slidecraft/internal/models"
)

// GenerateHandler runs the full generation pipeline for a caller's spec
type GenerateHandler struct {
	generator interfaces.GeneratorService
	validate  *validator.Validate
	logger    arbor.ILogger
}

func NewGenerateHandler(generator interfaces.GeneratorService) *GenerateHandler {
	return &GenerateHandler{
		generator: generator,
		validate:  validator.New(),
		logger:    common.GetLogger(),
	}
}

// GenerateHandler handles POST /api/generate
func (h *GenerateHandler) GenerateHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}
	ownerID, ok := RequireOwner(w, r)
	if !ok {
		return
	}

	var spec models.SlideSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}

	if err := h.validate.Struct(&spec); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	if spec.Chart != nil {
		if err := spec.Chart.Validate(); err != nil {
			WriteError(w, http.StatusBadRequest, "Invalid chart: "+err.Error())
			return
		}
	}

	presentation, err := h.generator.Generate(r.Context(), ownerID, spec)
	if err != nil {
		h.logger.Warn().Err(err).Str("topic", spec.Topic).Msg("Generation failed")
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, presentation)
}
