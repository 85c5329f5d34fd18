package interfaces

import (
	"context"

	"github.com/slidecraft/slidecraft/internal/models"
)

// PresentationStorage - interface for presentation persistence.
// All reads and deletes are owner-scoped: a presentation owned by another
// caller is indistinguishable from one that does not exist.
type PresentationStorage interface {
	// CRUD operations
	StorePresentation(ctx context.Context, presentation *models.Presentation) error
	GetPresentation(ctx context.Context, ownerID, id string) (*models.Presentation, error)
	ListPresentations(ctx context.Context, ownerID string) ([]*models.PresentationSummary, error)
	DeletePresentation(ctx context.Context, ownerID, id string) error
	CountPresentations(ctx context.Context) (int, error)

	// Maintenance operations (not owner-scoped, used by the cleanup sweep)
	ListAllPresentations(ctx context.Context) ([]*models.Presentation, error)
}

// ImageStore - interface for slide image file persistence.
// Files are laid out as <ownerID>/<presentationID>/<slideIndex>.<ext>.
type ImageStore interface {
	SaveSlideImage(ctx context.Context, ownerID, presentationID string, slideIndex int, data []byte, ext string) (string, error)
	GetSlideImagePath(ownerID, presentationID string, slideIndex int) (string, bool)
	DeleteSlideImage(ctx context.Context, ownerID, presentationID string, slideIndex int) error
	DeletePresentationImages(ctx context.Context, ownerID, presentationID string) error

	// MoveSlideImage re-keys a stored image to a new slide index, returning
	// the new path. Moving a slide with no stored image returns ("", nil).
	MoveSlideImage(ctx context.Context, ownerID, presentationID string, fromIndex, toIndex int) (string, error)

	// ListPresentationDirs returns stored presentation IDs grouped by owner
	ListPresentationDirs(ctx context.Context) (map[string][]string, error)
}

// DeckStore - interface for rendered deck file persistence
type DeckStore interface {
	SaveDeck(ctx context.Context, ownerID, presentationID string, data []byte) (string, error)
	GetDeckPath(ownerID, presentationID string) (string, bool)
	DeleteDeck(ctx context.Context, ownerID, presentationID string) error

	// ListDeckDirs returns stored presentation IDs grouped by owner
	ListDeckDirs(ctx context.Context) (map[string][]string, error)
}

// UploadStore - interface for staged PDF/DOCX uploads awaiting generation
type UploadStore interface {
	SaveUpload(ctx context.Context, ownerID, filename string, data []byte) (string, error)
	GetUpload(ctx context.Context, ownerID, uploadID string) (string, []byte, error)
	DeleteUpload(ctx context.Context, ownerID, uploadID string) error
}

// StorageManager provides access to all storage interfaces
type StorageManager interface {
	Presentations() PresentationStorage
	Close() error
}
