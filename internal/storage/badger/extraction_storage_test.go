package badger

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mbedbridge/internal/common"
	"github.com/ternarybob/mbedbridge/internal/interfaces"
	"github.com/ternarybob/mbedbridge/internal/models"
)

func newTestManager(t *testing.T) interfaces.StorageManager {
	t.Helper()
	manager, err := NewManager(arbor.NewLogger(), &common.BadgerConfig{
		Path: filepath.Join(t.TempDir(), "extractions"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = manager.Close() })
	return manager
}

func record(target string, createdAt time.Time) *models.ExtractionRecord {
	return &models.ExtractionRecord{
		Target:     target,
		Toolchain:  common.DefaultToolchain,
		SymbolsKey: "abc",
		Info: models.ProjectInfo{
			SrcFiles:     []string{"drivers/uart.c"},
			BuildSymbols: []string{"FOO"},
		},
		CreatedAt: createdAt,
	}
}

func TestExtractionStorage_SaveAndGet(t *testing.T) {
	storage := newTestManager(t).ExtractionStorage()
	ctx := context.Background()

	rec := record("K64F", time.Time{})
	require.NoError(t, storage.SaveExtraction(ctx, rec))
	assert.True(t, strings.HasPrefix(rec.ID, "ext_"))
	assert.False(t, rec.CreatedAt.IsZero())

	got, err := storage.GetExtraction(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "K64F", got.Target)
	assert.Equal(t, []string{"drivers/uart.c"}, got.Info.SrcFiles)
	assert.Equal(t, []string{"FOO"}, got.Info.BuildSymbols)
}

func TestExtractionStorage_NotFound(t *testing.T) {
	storage := newTestManager(t).ExtractionStorage()
	ctx := context.Background()

	_, err := storage.GetExtraction(ctx, "ext_missing")
	assert.ErrorIs(t, err, interfaces.ErrExtractionNotFound)

	_, err = storage.GetLatestForTarget(ctx, "K64F")
	assert.ErrorIs(t, err, interfaces.ErrExtractionNotFound)
}

func TestExtractionStorage_LatestAndList(t *testing.T) {
	storage := newTestManager(t).ExtractionStorage()
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	older := record("K64F", base)
	newer := record("K64F", base.Add(time.Hour))
	other := record("NUCLEO_F401RE", base.Add(2*time.Hour))
	for _, r := range []*models.ExtractionRecord{older, newer, other} {
		require.NoError(t, storage.SaveExtraction(ctx, r))
	}

	latest, err := storage.GetLatestForTarget(ctx, "K64F")
	require.NoError(t, err)
	assert.Equal(t, newer.ID, latest.ID)

	all, err := storage.ListExtractions(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, other.ID, all[0].ID)
	assert.Equal(t, newer.ID, all[1].ID)
	assert.Equal(t, older.ID, all[2].ID)

	require.NoError(t, storage.DeleteAll(ctx))
	all, err = storage.ListExtractions(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestNewBadgerDB_ResetOnStartup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extractions")
	ctx := context.Background()

	first, err := NewManager(arbor.NewLogger(), &common.BadgerConfig{Path: path})
	require.NoError(t, err)
	require.NoError(t, first.ExtractionStorage().SaveExtraction(ctx, record("K64F", time.Now())))
	require.NoError(t, first.Close())

	second, err := NewManager(arbor.NewLogger(), &common.BadgerConfig{Path: path, ResetOnStartup: true})
	require.NoError(t, err)
	defer second.Close()

	all, err := second.ExtractionStorage().ListExtractions(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
