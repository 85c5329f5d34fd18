package interfaces

import (
	"context"

	"github.com/slidecraft/slidecraft/internal/models"
)

// OutlineService turns a topic plus aggregated context into slide outlines.
// The returned slice always has exactly slideCount entries with contiguous
// 1-based slide numbers. A models.GenerationError means no usable outline
// could be produced and the pipeline must abort.
type OutlineService interface {
	GenerateOutline(ctx context.Context, topic string, context string, slideCount int) ([]models.Slide, error)
}
