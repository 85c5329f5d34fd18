package interfaces

import (
	"context"

	"github.com/slidecraft/slidecraft/internal/models"
)

// GeneratorService runs the full presentation pipeline: policy check,
// acquisition, aggregation, outline, images, render, persist.
type GeneratorService interface {
	// Generate builds and stores a new presentation for the owner
	Generate(ctx context.Context, ownerID string, spec models.SlideSpec) (*models.Presentation, error)

	// ReplaceSlideImage re-resolves the image for a single slide and re-renders the deck
	ReplaceSlideImage(ctx context.Context, ownerID, presentationID string, slideNumber int, keywords []string) (*models.Presentation, error)

	// Rerender rebuilds the deck file for an edited presentation
	Rerender(ctx context.Context, presentation *models.Presentation) error
}
