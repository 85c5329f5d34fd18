package interfaces

import (
	"context"

	"github.com/slidecraft/slidecraft/internal/models"
)

// PresentationService is the owner-scoped facade over stored presentations.
// Edits re-render the deck and persist in one step, serialized per
// presentation so concurrent edits cannot interleave.
type PresentationService interface {
	Get(ctx context.Context, ownerID, id string) (*models.Presentation, error)
	List(ctx context.Context, ownerID string) ([]*models.PresentationSummary, error)

	// Delete removes the record together with its stored images and deck file
	Delete(ctx context.Context, ownerID, id string) error

	// PatchSlide applies the non-nil fields of patch to one slide
	PatchSlide(ctx context.Context, ownerID, id string, slideNumber int, patch models.SlidePatch) (*models.Presentation, error)

	// DeleteSlide removes one slide and renumbers the remainder contiguously
	DeleteSlide(ctx context.Context, ownerID, id string, slideNumber int) (*models.Presentation, error)

	// ReplaceSlideImage re-resolves one slide's image and re-renders
	ReplaceSlideImage(ctx context.Context, ownerID, id string, slideNumber int, keywords []string) (*models.Presentation, error)

	// DeckPath returns the rendered deck file, re-rendering it when missing
	DeckPath(ctx context.Context, ownerID, id string) (string, error)
}
