package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/slidecraft/slidecraft/internal/models"
)

// OwnerHeader carries the caller identity. Every presentation operation is
// scoped to this value.
const OwnerHeader = "X-Owner-ID"

// RequireMethod validates that the HTTP request uses the specified method.
// Returns true if the method matches, false otherwise (and writes error response).
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// RequireOwner extracts the caller identity header.
// Returns the owner ID and true, or writes a 401 and returns false.
func RequireOwner(w http.ResponseWriter, r *http.Request) (string, bool) {
	ownerID := strings.TrimSpace(r.Header.Get(OwnerHeader))
	if ownerID == "" {
		WriteError(w, http.StatusUnauthorized, "Missing "+OwnerHeader+" header")
		return "", false
	}
	return ownerID, true
}

// WriteJSON writes a JSON response with the specified status code and data.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a standard success JSON response.
func WriteSuccess(w http.ResponseWriter, message string) error {
	return WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": message,
	})
}

// WriteError writes a standard error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, map[string]string{
		"status": "error",
		"error":  message,
	})
}

// WriteServiceError maps pipeline and storage errors onto HTTP status codes
func WriteServiceError(w http.ResponseWriter, err error) error {
	var genErr *models.GenerationError

	switch {
	case errors.Is(err, models.ErrNotFound):
		return WriteError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, models.ErrPolicyBlocked):
		return WriteError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, models.ErrUnsupportedFormat):
		return WriteError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &genErr):
		return WriteError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, models.ErrImageResolution):
		return WriteError(w, http.StatusBadGateway, err.Error())
	default:
		return WriteError(w, http.StatusInternalServerError, err.Error())
	}
}
