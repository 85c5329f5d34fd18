package maintenance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slidecraft/slidecraft/internal/common"
	"github.com/slidecraft/slidecraft/internal/interfaces"
	"github.com/slidecraft/slidecraft/internal/models"
	"github.com/slidecraft/slidecraft/internal/storage/files"
)

type stubPresentations struct {
	items []*models.Presentation
}

func (s *stubPresentations) StorePresentation(ctx context.Context, p *models.Presentation) error {
	s.items = append(s.items, p)
	return nil
}

func (s *stubPresentations) GetPresentation(ctx context.Context, ownerID, id string) (*models.Presentation, error) {
	return nil, models.ErrNotFound
}

func (s *stubPresentations) ListPresentations(ctx context.Context, ownerID string) ([]*models.PresentationSummary, error) {
	return nil, nil
}

func (s *stubPresentations) DeletePresentation(ctx context.Context, ownerID, id string) error {
	return models.ErrNotFound
}

func (s *stubPresentations) CountPresentations(ctx context.Context) (int, error) {
	return len(s.items), nil
}

func (s *stubPresentations) ListAllPresentations(ctx context.Context) ([]*models.Presentation, error) {
	return s.items, nil
}

func newTestSweeper(t *testing.T) (*Sweeper, *stubPresentations, interfaces.ImageStore, interfaces.DeckStore) {
	t.Helper()
	logger := common.GetLogger()

	images, err := files.NewImageStore(t.TempDir(), logger)
	require.NoError(t, err)
	decks, err := files.NewDeckStore(t.TempDir(), logger)
	require.NoError(t, err)

	presentations := &stubPresentations{}
	sweeper := NewSweeper(common.NewDefaultConfig(), logger, presentations, images, decks)
	return sweeper, presentations, images, decks
}

func TestSweepRemovesOrphans(t *testing.T) {
	sweeper, presentations, images, decks := newTestSweeper(t)
	ctx := context.Background()

	require.NoError(t, presentations.StorePresentation(ctx, &models.Presentation{ID: "pres_live", OwnerID: "owner_a"}))

	_, err := images.SaveSlideImage(ctx, "owner_a", "pres_live", 0, []byte("a"), "jpg")
	require.NoError(t, err)
	_, err = images.SaveSlideImage(ctx, "owner_a", "pres_gone", 0, []byte("b"), "jpg")
	require.NoError(t, err)
	_, err = decks.SaveDeck(ctx, "owner_a", "pres_live", []byte("%PDF"))
	require.NoError(t, err)
	_, err = decks.SaveDeck(ctx, "owner_b", "pres_other", []byte("%PDF"))
	require.NoError(t, err)

	result, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.OrphanedImageDirs)
	assert.Equal(t, 1, result.OrphanedDecks)

	// Live files survive, orphans are gone
	_, ok := images.GetSlideImagePath("owner_a", "pres_live", 0)
	assert.True(t, ok)
	_, ok = images.GetSlideImagePath("owner_a", "pres_gone", 0)
	assert.False(t, ok)
	_, ok = decks.GetDeckPath("owner_a", "pres_live")
	assert.True(t, ok)
	_, ok = decks.GetDeckPath("owner_b", "pres_other")
	assert.False(t, ok)
}

func TestSweepNoOrphans(t *testing.T) {
	sweeper, presentations, images, _ := newTestSweeper(t)
	ctx := context.Background()

	require.NoError(t, presentations.StorePresentation(ctx, &models.Presentation{ID: "pres_live", OwnerID: "owner_a"}))
	_, err := images.SaveSlideImage(ctx, "owner_a", "pres_live", 0, []byte("a"), "jpg")
	require.NoError(t, err)

	result, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.OrphanedImageDirs)
	assert.Equal(t, 0, result.OrphanedDecks)
}

func TestStartRejectsInvalidSchedule(t *testing.T) {
	sweeper, _, _, _ := newTestSweeper(t)
	sweeper.config.Maintenance.Schedule = "not a schedule"

	assert.Error(t, sweeper.Start())
}

func TestStartAndStop(t *testing.T) {
	sweeper, _, _, _ := newTestSweeper(t)

	require.NoError(t, sweeper.Start())
	assert.Error(t, sweeper.Start())
	sweeper.Stop()
}
