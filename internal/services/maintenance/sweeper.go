package maintenance

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/slidecraft/slidecraft/internal/common"
	"github.com/slidecraft/slidecraft/internal/interfaces"
)

// Sweeper periodically removes stored images and deck files whose
// presentation record no longer exists. Files can be orphaned when a
// process dies between file writes and the record delete.
type Sweeper struct {
	config        *common.Config
	logger        arbor.ILogger
	presentations interfaces.PresentationStorage
	images        interfaces.ImageStore
	decks         interfaces.DeckStore
	cron          *cron.Cron
	running       bool
}

// SweepResult summarizes one cleanup pass
type SweepResult struct {
	OrphanedImageDirs int `json:"orphaned_image_dirs"`
	OrphanedDecks     int `json:"orphaned_decks"`
}

// NewSweeper creates a new maintenance sweeper
func NewSweeper(config *common.Config, logger arbor.ILogger, presentations interfaces.PresentationStorage, images interfaces.ImageStore, decks interfaces.DeckStore) *Sweeper {
	return &Sweeper{
		config:        config,
		logger:        logger,
		presentations: presentations,
		images:        images,
		decks:         decks,
		cron:          cron.New(cron.WithSeconds()),
	}
}

// Start schedules the periodic sweep using the configured cron expression
func (s *Sweeper) Start() error {
	if s.running {
		return fmt.Errorf("sweeper already running")
	}

	schedule := s.config.Maintenance.Schedule
	if err := common.ValidateSweepSchedule(schedule); err != nil {
		return fmt.Errorf("invalid sweep schedule: %w", err)
	}

	_, err := s.cron.AddFunc(schedule, func() {
		if _, err := s.Sweep(context.Background()); err != nil {
			s.logger.Warn().Err(err).Msg("Maintenance sweep failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info().Str("schedule", schedule).Msg("Maintenance sweeper started")
	return nil
}

// Stop halts the scheduler. A sweep already in flight runs to completion.
func (s *Sweeper) Stop() {
	if !s.running {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.running = false
	s.logger.Info().Msg("Maintenance sweeper stopped")
}

// Sweep runs one cleanup pass and reports what it removed
func (s *Sweeper) Sweep(ctx context.Context) (*SweepResult, error) {
	stored, err := s.presentations.ListAllPresentations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list presentations: %w", err)
	}

	live := make(map[string]bool, len(stored))
	for _, presentation := range stored {
		live[presentation.OwnerID+"/"+presentation.ID] = true
	}

	result := &SweepResult{}

	imageDirs, err := s.images.ListPresentationDirs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list image directories: %w", err)
	}
	for ownerID, ids := range imageDirs {
		for _, id := range ids {
			if live[ownerID+"/"+id] {
				continue
			}
			if err := s.images.DeletePresentationImages(ctx, ownerID, id); err != nil {
				s.logger.Warn().Err(err).Str("owner_id", ownerID).Str("presentation_id", id).Msg("Failed to remove orphaned images")
				continue
			}
			result.OrphanedImageDirs++
		}
	}

	deckDirs, err := s.decks.ListDeckDirs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list deck directories: %w", err)
	}
	for ownerID, ids := range deckDirs {
		for _, id := range ids {
			if live[ownerID+"/"+id] {
				continue
			}
			if err := s.decks.DeleteDeck(ctx, ownerID, id); err != nil {
				s.logger.Warn().Err(err).Str("owner_id", ownerID).Str("presentation_id", id).Msg("Failed to remove orphaned deck")
				continue
			}
			result.OrphanedDecks++
		}
	}

	if result.OrphanedImageDirs > 0 || result.OrphanedDecks > 0 {
		s.logger.Info().
			Int("image_dirs", result.OrphanedImageDirs).
			Int("decks", result.OrphanedDecks).
			Msg("Maintenance sweep removed orphaned files")
	}

	return result, nil
}
