package interfaces

import (
	"context"

	"github.com/slidecraft/slidecraft/internal/models"
)

// RenderReport collects non-fatal problems encountered while rendering a deck.
// A missing image or an invalid chart degrades the output instead of failing it.
type RenderReport struct {
	Warnings []string `json:"warnings,omitempty"`
}

// Add records a warning
func (r *RenderReport) Add(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// DeckRenderer produces the binary presentation file for a stored presentation.
// Rendering is deterministic: the same presentation always yields the same deck.
type DeckRenderer interface {
	Render(ctx context.Context, presentation *models.Presentation) ([]byte, *RenderReport, error)
}
