package server

import (
	"net/http"
	"strconv"
	"strings"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Generation pipeline
	mux.HandleFunc("/api/generate", s.app.GenerateHandler.GenerateHandler) // POST

	// API routes - Presentations
	mux.HandleFunc("/api/presentations", s.app.PresentationHandler.ListHandler) // GET (list)
	mux.HandleFunc("/api/presentations/", s.handlePresentationRoutes)           // GET/DELETE /{id} and subpaths

	// API routes - Images
	mux.HandleFunc("/api/images/suggestions", s.app.ImageHandler.SuggestionsHandler) // GET

	// API routes - Source material
	mux.HandleFunc("/api/upload-source", s.app.UploadHandler.UploadSourceHandler) // POST
	mux.HandleFunc("/api/robots-check", s.app.RobotsHandler.CheckHandler)         // POST decision, GET raw

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// handlePresentationRoutes routes /api/presentations/{id} and its subpaths:
//
//	GET    /api/presentations/{id}
//	DELETE /api/presentations/{id}
//	GET    /api/presentations/{id}/download
//	PATCH  /api/presentations/{id}/slides/{n}
//	DELETE /api/presentations/{id}/slides/{n}
//	POST   /api/presentations/{id}/slides/{n}/image
func (s *Server) handlePresentationRoutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/presentations/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")

	if len(parts) == 0 || parts[0] == "" {
		s.app.APIHandler.NotFoundHandler(w, r)
		return
	}
	id := parts[0]

	switch {
	case len(parts) == 1:
		switch r.Method {
		case http.MethodGet:
			s.app.PresentationHandler.GetHandler(w, r, id)
		case http.MethodDelete:
			s.app.PresentationHandler.DeleteHandler(w, r, id)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}

	case len(parts) == 2 && parts[1] == "download":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.app.PresentationHandler.DownloadHandler(w, r, id)

	case len(parts) >= 3 && parts[1] == "slides":
		slideNumber, err := strconv.Atoi(parts[2])
		if err != nil || slideNumber < 1 {
			s.app.APIHandler.NotFoundHandler(w, r)
			return
		}

		switch {
		case len(parts) == 3 && r.Method == http.MethodPatch:
			s.app.PresentationHandler.PatchSlideHandler(w, r, id, slideNumber)
		case len(parts) == 3 && r.Method == http.MethodDelete:
			s.app.PresentationHandler.DeleteSlideHandler(w, r, id, slideNumber)
		case len(parts) == 4 && parts[3] == "image" && r.Method == http.MethodPost:
			s.app.PresentationHandler.ReplaceSlideImageHandler(w, r, id, slideNumber)
		case len(parts) == 3 || (len(parts) == 4 && parts[3] == "image"):
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		default:
			s.app.APIHandler.NotFoundHandler(w, r)
		}

	default:
		s.app.APIHandler.NotFoundHandler(w, r)
	}
}
