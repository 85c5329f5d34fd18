package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slidecraft/slidecraft/internal/common"
	"github.com/slidecraft/slidecraft/internal/models"
)

func newTestStorage(t *testing.T) (*PresentationStorage, func()) {
	t.Helper()

	logger := common.GetLogger()
	db, err := NewBadgerDB(logger, &common.BadgerConfig{Path: t.TempDir()})
	require.NoError(t, err)

	storage := NewPresentationStorage(db, logger).(*PresentationStorage)
	return storage, func() { db.Close() }
}

func samplePresentation(id, ownerID string) *models.Presentation {
	return &models.Presentation{
		ID:      id,
		OwnerID: ownerID,
		Topic:   "Renewable Energy",
		Theme:   models.ThemeModern,
		Slides: []models.Slide{
			{SlideNumber: 1, Title: "Overview", Content: []string{"Point one"}},
		},
	}
}

func TestStoreAndGetPresentation(t *testing.T) {
	storage, cleanup := newTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	presentation := samplePresentation("pres_1", "owner_a")
	require.NoError(t, storage.StorePresentation(ctx, presentation))
	assert.False(t, presentation.CreatedAt.IsZero())
	assert.False(t, presentation.UpdatedAt.IsZero())

	got, err := storage.GetPresentation(ctx, "owner_a", "pres_1")
	require.NoError(t, err)
	assert.Equal(t, "Renewable Energy", got.Topic)
	require.Len(t, got.Slides, 1)
	assert.Equal(t, "Overview", got.Slides[0].Title)
}

func TestStorePresentationValidation(t *testing.T) {
	storage, cleanup := newTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	assert.Error(t, storage.StorePresentation(ctx, nil))
	assert.Error(t, storage.StorePresentation(ctx, &models.Presentation{OwnerID: "owner_a"}))
	assert.Error(t, storage.StorePresentation(ctx, &models.Presentation{ID: "pres_1"}))
}

func TestGetPresentationOwnerScoped(t *testing.T) {
	storage, cleanup := newTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, storage.StorePresentation(ctx, samplePresentation("pres_1", "owner_a")))

	_, err := storage.GetPresentation(ctx, "owner_b", "pres_1")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = storage.GetPresentation(ctx, "owner_a", "pres_missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestListPresentationsByOwner(t *testing.T) {
	storage, cleanup := newTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	older := samplePresentation("pres_1", "owner_a")
	older.CreatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, storage.StorePresentation(ctx, older))
	require.NoError(t, storage.StorePresentation(ctx, samplePresentation("pres_2", "owner_a")))
	require.NoError(t, storage.StorePresentation(ctx, samplePresentation("pres_3", "owner_b")))

	summaries, err := storage.ListPresentations(ctx, "owner_a")
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "pres_2", summaries[0].ID)
	assert.Equal(t, "pres_1", summaries[1].ID)

	summaries, err = storage.ListPresentations(ctx, "owner_c")
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestDeletePresentation(t *testing.T) {
	storage, cleanup := newTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, storage.StorePresentation(ctx, samplePresentation("pres_1", "owner_a")))

	// Foreign owner cannot delete
	assert.ErrorIs(t, storage.DeletePresentation(ctx, "owner_b", "pres_1"), models.ErrNotFound)

	_, err := storage.GetPresentation(ctx, "owner_a", "pres_1")
	require.NoError(t, err)

	require.NoError(t, storage.DeletePresentation(ctx, "owner_a", "pres_1"))
	_, err = storage.GetPresentation(ctx, "owner_a", "pres_1")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCountAndListAll(t *testing.T) {
	storage, cleanup := newTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	count, err := storage.CountPresentations(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	require.NoError(t, storage.StorePresentation(ctx, samplePresentation("pres_1", "owner_a")))
	require.NoError(t, storage.StorePresentation(ctx, samplePresentation("pres_2", "owner_b")))

	count, err = storage.CountPresentations(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	all, err := storage.ListAllPresentations(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
