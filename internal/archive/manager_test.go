package archive

import (
	"context"
	"errors"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spinlog/internal/gitstore"
	"spinlog/internal/models"
	"spinlog/internal/providers"
	"spinlog/internal/structures"
	"spinlog/internal/testutil"
)

type recordingSecondary struct {
	batches [][]models.PlayEvent
	err     error
}

func (r *recordingSecondary) InsertRecords(_ context.Context, events []models.PlayEvent) error {
	if r.err != nil {
		return r.err
	}
	r.batches = append(r.batches, events)
	return nil
}

func newTestManager(store gitstore.Store, secondary SecondaryStore) *Manager {
	conf := &structures.Config{}
	conf.Clear.TzOffsetHours = 7
	conf.Supabase.Enabled = secondary != nil
	logger := &testutil.MockLogger{}
	m := NewManager(conf, store, secondary,
		providers.NewCacheProvider(conf, logger),
		providers.NewMetricsProvider(conf),
		logger)
	// 2025-06-02 10:00 at +07:00; yesterday there is 01062025.
	m.now = func() time.Time {
		return time.Date(2025, 6, 2, 3, 0, 0, 0, time.UTC)
	}
	return m
}

func seedHistory(store *testutil.MockStore, events []models.PlayEvent) {
	raw, _ := json.Marshal(events)
	store.Seed(gitstore.HistoryPath, raw)
}

func someEvents() []models.PlayEvent {
	return []models.PlayEvent{
		{Timestamp: 3000, User: "Alice", UserID: "alice", Track: "Three", Artist: "A", URI: "spotify:track:3"},
		{Timestamp: 5000, User: "Alice", UserID: "alice", Track: "Five", Artist: "A", URI: "spotify:track:5"},
		{Timestamp: 1000, User: "Bob", UserID: "bob", Track: "One", Artist: "B", URI: "spotify:track:1"},
	}
}

func TestClear_EmptyHistoryIsSkipped(t *testing.T) {
	store := testutil.NewMockStore()
	m := newTestManager(store, nil)

	result, err := m.Clear(context.Background())

	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Equal(t, 0, store.CommitCount())
}

func TestClear_ArchivesResetsAndAdvancesWatermark(t *testing.T) {
	store := testutil.NewMockStore()
	seedHistory(store, someEvents())
	m := newTestManager(store, nil)
	ctx := context.Background()

	result, err := m.Clear(ctx)

	require.NoError(t, err)
	assert.False(t, result.Skipped)
	assert.Equal(t, 3, result.ItemsRemoved)
	assert.Equal(t, "01062025", result.DateTag)
	// Watermark is the newest archived event, not the wall clock.
	assert.Equal(t, int64(5000), result.Timestamp)

	archived, err := store.ReadFile(ctx, "archive/01062025.json")
	require.NoError(t, err)
	require.NotNil(t, archived)
	var events []models.PlayEvent
	require.NoError(t, json.Unmarshal(archived.Content, &events))
	assert.Len(t, events, 3)

	cleared, err := store.ReadFile(ctx, gitstore.HistoryPath)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(cleared.Content))

	watermark, err := store.ReadFile(ctx, gitstore.WatermarkPath)
	require.NoError(t, err)
	var w models.Watermark
	require.NoError(t, json.Unmarshal(watermark.Content, &w))
	assert.Equal(t, int64(5000), w.LastClearTimestamp)

	// Archive, reset and watermark land in one commit.
	assert.Equal(t, 1, store.CommitCount())
	assert.Contains(t, store.Messages[0], "[01062025]")
}

func TestClear_DifferingExistingArchiveFails(t *testing.T) {
	store := testutil.NewMockStore()
	seedHistory(store, someEvents())
	store.Seed("archive/01062025.json", []byte(`[{"timestamp":9}]`))
	m := newTestManager(store, nil)

	_, err := m.Clear(context.Background())

	require.ErrorIs(t, err, ErrArchiveExists)
	assert.Equal(t, 0, store.CommitCount())
}

func TestClear_IdenticalExistingArchiveIsSkippedButLogStillClears(t *testing.T) {
	store := testutil.NewMockStore()
	events := someEvents()
	seedHistory(store, events)
	raw, _ := json.Marshal(events)
	store.Seed("archive/01062025.json", raw)
	m := newTestManager(store, nil)
	ctx := context.Background()

	result, err := m.Clear(ctx)

	require.NoError(t, err)
	assert.Equal(t, 3, result.ItemsRemoved)

	cleared, err := store.ReadFile(ctx, gitstore.HistoryPath)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(cleared.Content))
}

func TestClear_ForwardsToSecondaryStore(t *testing.T) {
	store := testutil.NewMockStore()
	seedHistory(store, someEvents())
	secondary := &recordingSecondary{}
	m := newTestManager(store, secondary)

	_, err := m.Clear(context.Background())

	require.NoError(t, err)
	require.Len(t, secondary.batches, 1)
	assert.Len(t, secondary.batches[0], 3)
}

func TestClear_SecondaryFailureDoesNotFailClear(t *testing.T) {
	store := testutil.NewMockStore()
	seedHistory(store, someEvents())
	m := newTestManager(store, &recordingSecondary{err: errors.New("unreachable")})

	result, err := m.Clear(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, result.ItemsRemoved)
	assert.Equal(t, 1, store.CommitCount())
}

func TestBackup_SnapshotsParentHistory(t *testing.T) {
	store := testutil.NewMockStore()
	ctx := context.Background()

	raw, _ := json.Marshal(someEvents())
	_, err := store.CommitFiles(ctx, []gitstore.FileChange{{Path: gitstore.HistoryPath, Content: raw}}, "sync")
	require.NoError(t, err)
	clearRef, err := store.CommitFiles(ctx, []gitstore.FileChange{{Path: gitstore.HistoryPath, Content: []byte("[]")}}, "clear history, archive [31052025] [skip ci]")
	require.NoError(t, err)

	m := newTestManager(store, nil)
	result, err := m.Backup(ctx, clearRef)

	require.NoError(t, err)
	assert.Equal(t, "31052025", result.DateTag)
	assert.Equal(t, 3, result.Count)

	archived, err := store.ReadFile(ctx, "archive/31052025.json")
	require.NoError(t, err)
	require.NotNil(t, archived)
}

func TestBackup_NoParentHistoryIs404(t *testing.T) {
	store := testutil.NewMockStore()
	ctx := context.Background()
	ref, err := store.CommitFiles(ctx, []gitstore.FileChange{{Path: "live.json", Content: []byte("{}")}}, "root")
	require.NoError(t, err)

	m := newTestManager(store, nil)
	_, err = m.Backup(ctx, ref)

	require.ErrorIs(t, err, ErrNoHistory)
}
