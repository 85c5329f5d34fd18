package interfaces

import (
	"context"

	"github.com/slidecraft/slidecraft/internal/models"
)

// ImageResolver searches an external provider for slide images.
// Resolution failures are non-fatal to the pipeline: a slide without
// an image is still a valid slide.
type ImageResolver interface {
	// Search returns up to max candidates for the given keywords
	Search(ctx context.Context, keywords []string, max int) ([]models.ImageCandidate, error)

	// Download fetches the image bytes for a candidate and reports the file extension
	Download(ctx context.Context, candidate models.ImageCandidate) ([]byte, string, error)
}
