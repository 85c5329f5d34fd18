package badger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/slidecraft/slidecraft/internal/interfaces"
	"github.com/slidecraft/slidecraft/internal/models"
)

// PresentationStorage implements the PresentationStorage interface for Badger.
// Ownership checks happen here so callers cannot tell a foreign presentation
// from a missing one.
type PresentationStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewPresentationStorage creates a new PresentationStorage instance
func NewPresentationStorage(db *BadgerDB, logger arbor.ILogger) interfaces.PresentationStorage {
	return &PresentationStorage{
		db:     db,
		logger: logger,
	}
}

func (s *PresentationStorage) StorePresentation(ctx context.Context, presentation *models.Presentation) error {
	if presentation == nil {
		return fmt.Errorf("presentation is required")
	}
	if presentation.ID == "" {
		return fmt.Errorf("presentation ID is required")
	}
	if presentation.OwnerID == "" {
		return fmt.Errorf("presentation owner ID is required")
	}

	now := time.Now()
	if presentation.CreatedAt.IsZero() {
		presentation.CreatedAt = now
	}
	presentation.UpdatedAt = now

	if err := s.db.Store().Upsert(presentation.ID, presentation); err != nil {
		return fmt.Errorf("failed to save presentation: %w", err)
	}

	s.logger.Debug().
		Str("presentation_id", presentation.ID).
		Str("owner_id", presentation.OwnerID).
		Int("slides", len(presentation.Slides)).
		Msg("Presentation saved")

	return nil
}

func (s *PresentationStorage) GetPresentation(ctx context.Context, ownerID, id string) (*models.Presentation, error) {
	var presentation models.Presentation
	if err := s.db.Store().Get(id, &presentation); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get presentation: %w", err)
	}
	if presentation.OwnerID != ownerID {
		return nil, models.ErrNotFound
	}
	return &presentation, nil
}

func (s *PresentationStorage) ListPresentations(ctx context.Context, ownerID string) ([]*models.PresentationSummary, error) {
	var presentations []models.Presentation
	if err := s.db.Store().Find(&presentations, badgerhold.Where("OwnerID").Eq(ownerID).Index("OwnerID")); err != nil {
		return nil, fmt.Errorf("failed to list presentations: %w", err)
	}

	sort.Slice(presentations, func(i, j int) bool {
		return presentations[i].CreatedAt.After(presentations[j].CreatedAt)
	})

	summaries := make([]*models.PresentationSummary, len(presentations))
	for i := range presentations {
		summary := presentations[i].Summary()
		summaries[i] = &summary
	}
	return summaries, nil
}

func (s *PresentationStorage) DeletePresentation(ctx context.Context, ownerID, id string) error {
	// Read first so a foreign presentation reports not found rather than deleted
	if _, err := s.GetPresentation(ctx, ownerID, id); err != nil {
		return err
	}

	if err := s.db.Store().Delete(id, &models.Presentation{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return models.ErrNotFound
		}
		return fmt.Errorf("failed to delete presentation: %w", err)
	}

	s.logger.Debug().
		Str("presentation_id", id).
		Str("owner_id", ownerID).
		Msg("Presentation deleted")

	return nil
}

func (s *PresentationStorage) CountPresentations(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.Presentation{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count presentations: %w", err)
	}
	return int(count), nil
}

func (s *PresentationStorage) ListAllPresentations(ctx context.Context) ([]*models.Presentation, error) {
	var presentations []models.Presentation
	if err := s.db.Store().Find(&presentations, nil); err != nil {
		return nil, fmt.Errorf("failed to list all presentations: %w", err)
	}

	result := make([]*models.Presentation, len(presentations))
	for i := range presentations {
		result[i] = &presentations[i]
	}
	return result, nil
}
