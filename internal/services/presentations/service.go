package presentations

import (
	"context"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/slidecraft/slidecraft/internal/interfaces"
	"github.com/slidecraft/slidecraft/internal/models"
)

// Service is the owner-scoped facade over stored presentations. Every edit
// runs under a per-presentation mutex so concurrent patches, deletions and
// image replacements on the same deck serialize instead of interleaving.
type Service struct {
	storage   interfaces.PresentationStorage
	images    interfaces.ImageStore
	decks     interfaces.DeckStore
	generator interfaces.GeneratorService
	logger    arbor.ILogger
	locks     sync.Map
}

var _ interfaces.PresentationService = (*Service)(nil)

// NewService creates a new presentation facade
func NewService(storage interfaces.PresentationStorage, images interfaces.ImageStore, decks interfaces.DeckStore, generator interfaces.GeneratorService, logger arbor.ILogger) *Service {
	return &Service{
		storage:   storage,
		images:    images,
		decks:     decks,
		generator: generator,
		logger:    logger,
	}
}

func (s *Service) lockFor(id string) *sync.Mutex {
	lock, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

func (s *Service) Get(ctx context.Context, ownerID, id string) (*models.Presentation, error) {
	return s.storage.GetPresentation(ctx, ownerID, id)
}

func (s *Service) List(ctx context.Context, ownerID string) ([]*models.PresentationSummary, error) {
	return s.storage.ListPresentations(ctx, ownerID)
}

// Delete removes the record together with its stored images and deck file.
// File cleanup failures are logged, not surfaced: the record is gone and
// the maintenance sweep collects leftovers.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	if err := s.storage.DeletePresentation(ctx, ownerID, id); err != nil {
		return err
	}

	if err := s.images.DeletePresentationImages(ctx, ownerID, id); err != nil {
		s.logger.Warn().Err(err).Str("presentation_id", id).Msg("Failed to delete presentation images")
	}
	if err := s.decks.DeleteDeck(ctx, ownerID, id); err != nil {
		s.logger.Warn().Err(err).Str("presentation_id", id).Msg("Failed to delete deck file")
	}

	s.locks.Delete(id)

	s.logger.Info().
		Str("presentation_id", id).
		Str("owner_id", ownerID).
		Msg("Presentation deleted")

	return nil
}

// PatchSlide applies the non-nil fields of patch to one slide and re-renders
func (s *Service) PatchSlide(ctx context.Context, ownerID, id string, slideNumber int, patch models.SlidePatch) (*models.Presentation, error) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	presentation, err := s.storage.GetPresentation(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	slide, ok := presentation.SlideByNumber(slideNumber)
	if !ok {
		return nil, fmt.Errorf("slide %d: %w", slideNumber, models.ErrNotFound)
	}

	if patch.Title != nil {
		slide.Title = *patch.Title
	}
	if patch.Content != nil {
		slide.Content = *patch.Content
	}
	if patch.Layout != nil {
		slide.Layout = *patch.Layout
	}
	if patch.SpeakerNotes != nil {
		slide.SpeakerNotes = *patch.SpeakerNotes
	}
	if patch.ImageURL != nil {
		slide.ImageURL = *patch.ImageURL
	}

	return s.rerenderAndStore(ctx, presentation)
}

// DeleteSlide removes one slide and renumbers the remainder contiguously
func (s *Service) DeleteSlide(ctx context.Context, ownerID, id string, slideNumber int) (*models.Presentation, error) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	presentation, err := s.storage.GetPresentation(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if _, ok := presentation.SlideByNumber(slideNumber); !ok {
		return nil, fmt.Errorf("slide %d: %w", slideNumber, models.ErrNotFound)
	}

	kept := presentation.Slides[:0]
	for _, slide := range presentation.Slides {
		if slide.SlideNumber != slideNumber {
			kept = append(kept, slide)
		}
	}
	presentation.Slides = kept

	// Drop the deleted slide's file, then re-key the survivors so stored
	// files keep matching the renumbered slide indexes.
	if err := s.images.DeleteSlideImage(ctx, ownerID, id, slideNumber-1); err != nil {
		s.logger.Warn().Err(err).Str("presentation_id", id).Int("slide", slideNumber).Msg("Failed to delete slide image")
	}
	for i := range presentation.Slides {
		slide := &presentation.Slides[i]
		oldIndex := slide.SlideNumber - 1
		if oldIndex == i {
			continue
		}
		path, err := s.images.MoveSlideImage(ctx, ownerID, id, oldIndex, i)
		if err != nil {
			s.logger.Warn().Err(err).Str("presentation_id", id).Int("slide", slide.SlideNumber).Msg("Failed to re-key slide image")
			continue
		}
		if slide.ImageURL != "" || path != "" {
			slide.ImageURL = path
		}
	}
	presentation.Renumber()

	return s.rerenderAndStore(ctx, presentation)
}

// ReplaceSlideImage re-resolves one slide's image and re-renders
func (s *Service) ReplaceSlideImage(ctx context.Context, ownerID, id string, slideNumber int, keywords []string) (*models.Presentation, error) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	return s.generator.ReplaceSlideImage(ctx, ownerID, id, slideNumber, keywords)
}

// DeckPath returns the rendered deck file, re-rendering it when the file
// has gone missing from disk
func (s *Service) DeckPath(ctx context.Context, ownerID, id string) (string, error) {
	presentation, err := s.storage.GetPresentation(ctx, ownerID, id)
	if err != nil {
		return "", err
	}

	if path, ok := s.decks.GetDeckPath(ownerID, id); ok {
		return path, nil
	}

	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	s.logger.Info().Str("presentation_id", id).Msg("Deck file missing, re-rendering")

	if err := s.generator.Rerender(ctx, presentation); err != nil {
		return "", err
	}
	if err := s.storage.StorePresentation(ctx, presentation); err != nil {
		return "", err
	}
	return presentation.DeckPath, nil
}

func (s *Service) rerenderAndStore(ctx context.Context, presentation *models.Presentation) (*models.Presentation, error) {
	if err := s.generator.Rerender(ctx, presentation); err != nil {
		return nil, err
	}
	if err := s.storage.StorePresentation(ctx, presentation); err != nil {
		return nil, err
	}
	return presentation, nil
}
