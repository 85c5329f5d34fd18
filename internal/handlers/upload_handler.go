package handlers

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ternarybob/arbor"

	"github.com/slidecraft/slidecraft/internal/common"
	"github.com/slidecraft/slidecraft/internal/interfaces"
)

// UploadHandler stages source documents for later generation requests
type UploadHandler struct {
	uploads   interfaces.UploadStore
	extractor interfaces.UploadExtractor
	config    *common.Config
	logger    arbor.ILogger
}

func NewUploadHandler(uploads interfaces.UploadStore, extractor interfaces.UploadExtractor, config *common.Config) *UploadHandler {
	return &UploadHandler{
		uploads:   uploads,
		extractor: extractor,
		config:    config,
		logger:    common.GetLogger(),
	}
}

// UploadSourceHandler handles POST /api/upload-source (multipart form, field "file")
func (h *UploadHandler) UploadSourceHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}
	ownerID, ok := RequireOwner(w, r)
	if !ok {
		return
	}

	maxSize := h.config.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		WriteError(w, http.StatusRequestEntityTooLarge, "Upload exceeds size limit or is malformed")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".pdf" && ext != ".docx" {
		WriteError(w, http.StatusBadRequest, "Unsupported file type, expected .pdf or .docx")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Failed to read upload: "+err.Error())
		return
	}

	// Extract up front so callers learn about unreadable documents at
	// upload time instead of during generation
	content, err := h.extractor.Extract(r.Context(), header.Filename, data)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	uploadID, err := h.uploads.SaveUpload(r.Context(), ownerID, header.Filename, data)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	h.logger.Info().
		Str("upload_id", uploadID).
		Str("filename", header.Filename).
		Int("bytes", len(data)).
		Int("chars", len(content.Text)).
		Msg("Source document staged")

	WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"upload_id":    uploadID,
		"filename":     header.Filename,
		"size":         len(data),
		"chars":        len(content.Text),
		"text_preview": textPreview(content.Text, 500),
	})
}

func textPreview(text string, limit int) string {
	text = strings.TrimSpace(text)
	if len(text) <= limit {
		return text
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
