package syncer

import (
	"context"
	"errors"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spinlog/internal/gitstore"
	"spinlog/internal/models"
	"spinlog/internal/providers"
	"spinlog/internal/structures"
	"spinlog/internal/testutil"
)

func testConfig(users ...string) *structures.Config {
	conf := &structures.Config{}
	conf.Spotify.Users = make(map[string]structures.SpotifyUser)
	for _, u := range users {
		conf.Spotify.Users[u] = structures.SpotifyUser{RefreshToken: u}
	}
	return conf
}

func newTestService(conf *structures.Config, store gitstore.Store, fetcher Fetcher) *Service {
	logger := &testutil.MockLogger{}
	return NewService(conf, store, fetcher,
		providers.NewCacheProvider(conf, logger),
		providers.NewMetricsProvider(conf),
		logger)
}

func profileFor(id string) *models.UserProfile {
	return &models.UserProfile{Name: id, URI: "spotify:user:" + id}
}

func readHistory(t *testing.T, store *testutil.MockStore) []models.PlayEvent {
	t.Helper()
	read, err := store.ReadFile(context.Background(), gitstore.HistoryPath)
	require.NoError(t, err)
	require.NotNil(t, read)
	var log []models.PlayEvent
	require.NoError(t, json.Unmarshal(read.Content, &log))
	return log
}

func TestPass_CommitsNewEvents(t *testing.T) {
	store := testutil.NewMockStore()
	fetcher := &testutil.MockFetcher{
		Profiles: map[string]*models.UserProfile{"alice": profileFor("alice")},
		Recent: map[string][]models.RawEvent{
			"alice": {
				{PlayedAt: 2000, Track: "Two", URI: "spotify:track:2", Artists: []string{"A"}},
				{PlayedAt: 1000, Track: "One", URI: "spotify:track:1", Artists: []string{"A"}},
			},
		},
		Current: map[string]*models.RawEvent{
			"alice": {PlayedAt: 3000, Track: "Now", URI: "spotify:track:3", Artists: []string{"B"}},
		},
	}
	s := newTestService(testConfig("alice"), store, fetcher)

	result, err := s.Pass(context.Background())

	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.Equal(t, 2, result.NewTracks)
	assert.Equal(t, 1, result.LiveCount)
	assert.Equal(t, 1, store.CommitCount())

	log := readHistory(t, store)
	require.Len(t, log, 2)
	assert.Equal(t, int64(2000), log[0].Timestamp)
	assert.Equal(t, "spotify:user:alice", log[0].UserID)
}

func TestPass_SecondIdenticalPassIsNoop(t *testing.T) {
	store := testutil.NewMockStore()
	fetcher := &testutil.MockFetcher{
		Profiles: map[string]*models.UserProfile{"alice": profileFor("alice")},
		Recent: map[string][]models.RawEvent{
			"alice": {{PlayedAt: 1000, Track: "One", URI: "spotify:track:1", Artists: []string{"A"}}},
		},
	}
	s := newTestService(testConfig("alice"), store, fetcher)

	first, err := s.Pass(context.Background())
	require.NoError(t, err)
	require.True(t, first.Changed)

	second, err := s.Pass(context.Background())
	require.NoError(t, err)
	assert.False(t, second.Changed)
	assert.Equal(t, 0, second.NewTracks)
	assert.Equal(t, 1, store.CommitCount())
}

func TestPass_NearDuplicateWithinToleranceNotAdded(t *testing.T) {
	store := testutil.NewMockStore()
	seeded, _ := json.Marshal([]models.PlayEvent{
		{Timestamp: 1000, User: "alice", UserID: "spotify:user:alice", Track: "One", Artist: "A", URI: "spotify:track:1"},
	})
	store.Seed(gitstore.HistoryPath, seeded)

	fetcher := &testutil.MockFetcher{
		Profiles: map[string]*models.UserProfile{"alice": profileFor("alice")},
		Recent: map[string][]models.RawEvent{
			"alice": {{PlayedAt: 1500, Track: "One", URI: "spotify:track:1", Artists: []string{"A"}}},
		},
	}
	s := newTestService(testConfig("alice"), store, fetcher)

	result, err := s.Pass(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, result.NewTracks)
}

func TestPass_FailedUserIsIsolated(t *testing.T) {
	store := testutil.NewMockStore()
	fetcher := &testutil.MockFetcher{
		Profiles: map[string]*models.UserProfile{"alice": profileFor("alice")},
		Recent: map[string][]models.RawEvent{
			"alice": {{PlayedAt: 1000, Track: "One", URI: "spotify:track:1", Artists: []string{"A"}}},
		},
		Errs: map[string]error{"bob": errors.New("token revoked")},
	}
	s := newTestService(testConfig("alice", "bob"), store, fetcher)

	result, err := s.Pass(context.Background())

	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.Equal(t, 1, result.NewTracks)
	assert.Equal(t, 1, result.Failures)
}

func TestPass_AllUsersFailingFailsThePass(t *testing.T) {
	store := testutil.NewMockStore()
	fetcher := &testutil.MockFetcher{
		Errs: map[string]error{
			"alice": errors.New("down"),
			"bob":   errors.New("down"),
		},
	}
	s := newTestService(testConfig("alice", "bob"), store, fetcher)

	_, err := s.Pass(context.Background())

	require.Error(t, err)
	assert.Equal(t, 0, store.CommitCount())
}

func TestPass_WatermarkExcludesOldEvents(t *testing.T) {
	store := testutil.NewMockStore()
	watermark, _ := json.Marshal(models.Watermark{LastClearTimestamp: 5000})
	store.Seed(gitstore.WatermarkPath, watermark)

	fetcher := &testutil.MockFetcher{
		Profiles: map[string]*models.UserProfile{"alice": profileFor("alice")},
		Recent: map[string][]models.RawEvent{
			"alice": {
				{PlayedAt: 6000, Track: "After", URI: "spotify:track:after", Artists: []string{"A"}},
				{PlayedAt: 5000, Track: "At", URI: "spotify:track:at", Artists: []string{"A"}},
				{PlayedAt: 4000, Track: "Before", URI: "spotify:track:before", Artists: []string{"A"}},
			},
		},
	}
	s := newTestService(testConfig("alice"), store, fetcher)

	result, err := s.Pass(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.NewTracks)
	log := readHistory(t, store)
	require.Len(t, log, 1)
	assert.Equal(t, "After", log[0].Track)
}

func TestPass_RepairsMojibakeInExistingLog(t *testing.T) {
	store := testutil.NewMockStore()
	seeded, _ := json.Marshal([]models.PlayEvent{
		{Timestamp: 1000, User: "alice", UserID: "spotify:user:alice", Track: "Song", Artist: "BeyoncÃ©", URI: "spotify:track:1"},
	})
	store.Seed(gitstore.HistoryPath, seeded)

	fetcher := &testutil.MockFetcher{
		Profiles: map[string]*models.UserProfile{"alice": profileFor("alice")},
	}
	s := newTestService(testConfig("alice"), store, fetcher)

	result, err := s.Pass(context.Background())

	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.Equal(t, 1, result.Repaired)
	log := readHistory(t, store)
	assert.Equal(t, "Beyoncé", log[0].Artist)
}

func TestPass_RewritesStoredLogWithExactDuplicates(t *testing.T) {
	// Two byte-identical entries in the stored log: nothing new arrives, but
	// the cleaned log differs from the stored bytes and must be committed.
	store := testutil.NewMockStore()
	dup := models.PlayEvent{Timestamp: 1000, User: "alice", UserID: "spotify:user:alice", Track: "One", Artist: "A", URI: "spotify:track:1"}
	seeded, _ := json.Marshal([]models.PlayEvent{dup, dup})
	store.Seed(gitstore.HistoryPath, seeded)

	fetcher := &testutil.MockFetcher{
		Profiles: map[string]*models.UserProfile{"alice": profileFor("alice")},
	}
	s := newTestService(testConfig("alice"), store, fetcher)

	result, err := s.Pass(context.Background())

	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.Equal(t, 0, result.NewTracks)
	assert.Equal(t, 1, store.CommitCount())
	log := readHistory(t, store)
	require.Len(t, log, 1)
}

func TestPass_ReordersStaleStoredLog(t *testing.T) {
	store := testutil.NewMockStore()
	seeded, _ := json.Marshal([]models.PlayEvent{
		{Timestamp: 1000, User: "alice", UserID: "spotify:user:alice", Track: "One", Artist: "A", URI: "spotify:track:1"},
		{Timestamp: 2000, User: "alice", UserID: "spotify:user:alice", Track: "Two", Artist: "A", URI: "spotify:track:2"},
	})
	store.Seed(gitstore.HistoryPath, seeded)

	s := newTestService(testConfig("alice"), store, &testutil.MockFetcher{
		Profiles: map[string]*models.UserProfile{"alice": profileFor("alice")},
	})

	result, err := s.Pass(context.Background())

	require.NoError(t, err)
	assert.True(t, result.Changed)
	log := readHistory(t, store)
	require.Len(t, log, 2)
	assert.Equal(t, int64(2000), log[0].Timestamp)
}

func TestPass_OverlappingTriggerIsSkipped(t *testing.T) {
	store := testutil.NewMockStore()
	s := newTestService(testConfig("alice"), store, &testutil.MockFetcher{})
	s.inFlight.Store(true)

	result, err := s.Pass(context.Background())

	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Equal(t, 0, store.CommitCount())
}

func TestPass_SortsMergedLogNewestFirst(t *testing.T) {
	store := testutil.NewMockStore()
	seeded, _ := json.Marshal([]models.PlayEvent{
		{Timestamp: 3000, User: "bob", UserID: "spotify:user:bob", Track: "Three", Artist: "B", URI: "spotify:track:3"},
	})
	store.Seed(gitstore.HistoryPath, seeded)

	fetcher := &testutil.MockFetcher{
		Profiles: map[string]*models.UserProfile{"alice": profileFor("alice")},
		Recent: map[string][]models.RawEvent{
			"alice": {
				{PlayedAt: 1000, Track: "One", URI: "spotify:track:1", Artists: []string{"A"}},
				{PlayedAt: 5000, Track: "Five", URI: "spotify:track:5", Artists: []string{"A"}},
			},
		},
	}
	s := newTestService(testConfig("alice"), store, fetcher)

	_, err := s.Pass(context.Background())
	require.NoError(t, err)

	log := readHistory(t, store)
	require.Len(t, log, 3)
	assert.Equal(t, []int64{5000, 3000, 1000}, []int64{log[0].Timestamp, log[1].Timestamp, log[2].Timestamp})
}
