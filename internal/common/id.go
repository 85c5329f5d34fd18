package common

import (
	"github.com/google/uuid"
)

// NewPresentationID generates a unique presentation ID with the "pres_" prefix
// Format: pres_<uuid>
func NewPresentationID() string {
	return "pres_" + uuid.New().String()
}

// NewUploadID generates a unique upload ID with the "upl_" prefix
// Format: upl_<uuid>
func NewUploadID() string {
	return "upl_" + uuid.New().String()
}
