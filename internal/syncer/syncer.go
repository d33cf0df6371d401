package syncer

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/atomic"

	"spinlog/internal/commitmsg"
	"spinlog/internal/gitstore"
	"spinlog/internal/history"
	"spinlog/internal/models"
	"spinlog/internal/providers"
	"spinlog/internal/retry"
	"spinlog/internal/structures"
)

// Fetcher is the upstream event source for one access token.
type Fetcher interface {
	RefreshCredential(ctx context.Context, refreshToken string) (string, error)
	FetchProfile(ctx context.Context, accessToken string) (*models.UserProfile, error)
	FetchRecentEvents(ctx context.Context, accessToken string, afterMs int64) ([]models.RawEvent, error)
	FetchCurrentEvent(ctx context.Context, accessToken string) (*models.RawEvent, error)
}

// Result summarizes one sync pass.
type Result struct {
	Skipped   bool   `json:"skipped,omitempty"`
	Changed   bool   `json:"changed"`
	NewTracks int    `json:"newTracks"`
	Repaired  int    `json:"repaired"`
	LiveCount int    `json:"liveCount"`
	Version   string `json:"version,omitempty"`
	Failures  int    `json:"failures,omitempty"`
}

// Service runs the fetch-merge-commit cycle. A pass reads the full working
// state from the store, fans out one fetch per tracked user, merges
// everything deterministically, and lands at most one commit. Passes never
// overlap: a trigger while one is running is dropped, which together with
// duplicate-tolerant merging makes a pass idempotent.
type Service struct {
	conf    *structures.Config
	store   gitstore.Store
	fetcher Fetcher
	cache   providers.CacheProviderInterface
	metrics providers.MetricsProviderInterface
	logger  providers.Logger
	retry   retry.Policy

	inFlight atomic.Bool
}

func NewService(
	conf *structures.Config,
	store gitstore.Store,
	fetcher Fetcher,
	cache providers.CacheProviderInterface,
	metrics providers.MetricsProviderInterface,
	logger providers.Logger,
) *Service {
	return &Service{
		conf:    conf,
		store:   store,
		fetcher: fetcher,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
		retry:   retry.NewPolicy(conf.Sync.Retry),
	}
}

type userResult struct {
	userKey string
	events  []models.PlayEvent
	live    *models.LiveEntry
	err     error
}

// Pass runs one sync cycle. It is safe to call concurrently; the overlapped
// caller gets Result.Skipped.
func (s *Service) Pass(ctx context.Context) (*Result, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.logger.Debugf(providers.TypeSync, "pass already running, skipping trigger")
		return &Result{Skipped: true}, nil
	}
	defer s.inFlight.Store(false)

	started := time.Now()
	result, err := s.pass(ctx)
	s.metrics.ObserveSyncDuration(time.Since(started))
	if err != nil {
		s.metrics.IncSyncPasses("error")
		return nil, err
	}
	switch {
	case result.Changed:
		s.metrics.IncSyncPasses("committed")
	default:
		s.metrics.IncSyncPasses("no_change")
	}
	return result, nil
}

func (s *Service) pass(ctx context.Context) (*Result, error) {
	log, storedRaw, err := s.loadHistory(ctx)
	if err != nil {
		return nil, err
	}
	watermark, err := s.loadWatermark(ctx)
	if err != nil {
		return nil, err
	}
	oldLive, err := s.loadLive(ctx)
	if err != nil {
		return nil, err
	}

	before := len(log)
	log = history.FilterValid(log)
	repaired := history.Clean(log)
	dropped := before - len(log)
	if dropped > 0 {
		s.logger.Warnf(providers.TypeSync, "dropped %d malformed history entries", dropped)
	}

	results := s.fetchAll(ctx, watermark)

	added := 0
	failures := 0
	var live []models.LiveEntry
	for _, r := range results {
		if r.err != nil {
			failures++
			s.logger.Errorf(providers.TypeSync, "user %s: %v", r.userKey, r.err)
			continue
		}
		var n int
		log, n = history.Merge(log, r.events)
		added += n
		if r.live != nil {
			live = append(live, *r.live)
		}
	}
	if failures == len(results) && len(results) > 0 {
		return nil, fmt.Errorf("all %d users failed", failures)
	}

	log = history.Dedupe(log)
	history.Sort(log)
	if log == nil {
		log = []models.PlayEvent{}
	}

	// Deterministic output for byte-level change detection.
	sort.Slice(live, func(i, j int) bool { return live[i].User.URI < live[j].User.URI })
	if live == nil {
		live = []models.LiveEntry{}
	}
	newLive := models.LiveStatus{Friends: live}

	result := &Result{
		NewTracks: added,
		Repaired:  repaired,
		LiveCount: len(live),
		Failures:  failures,
	}

	historyRaw, err := json.Marshal(log)
	if err != nil {
		return nil, err
	}
	liveRaw, err := json.Marshal(&newLive)
	if err != nil {
		return nil, err
	}
	oldLiveRaw, err := json.Marshal(oldLive)
	if err != nil {
		return nil, err
	}

	// Content equality, not counters: a stored log that dedup, sort or the
	// repair pass rewrote in memory must land even when nothing new arrived.
	if bytes.Equal(historyRaw, storedRaw) && bytes.Equal(liveRaw, oldLiveRaw) {
		s.logger.Debugf(providers.TypeSync, "no changes, skipping commit")
		return result, nil
	}

	version, err := s.store.CommitFiles(ctx, []gitstore.FileChange{
		{Path: gitstore.HistoryPath, Content: historyRaw},
		{Path: gitstore.LivePath, Content: liveRaw},
	}, commitmsg.ForSync(added))
	if err != nil {
		return nil, fmt.Errorf("commit sync: %w", err)
	}

	s.cache.Invalidate()
	s.metrics.IncCommits("sync")
	s.metrics.SetHistorySize(len(log))
	s.logger.Infof(providers.TypeSync, "committed %s: %d new, %d repaired, %d live", version, added, repaired, len(live))

	result.Changed = true
	result.Version = version
	return result, nil
}

// fetchAll fans out one goroutine per tracked user and returns the results
// in deterministic user order. One user's failure never blocks the others.
func (s *Service) fetchAll(ctx context.Context, watermark int64) []userResult {
	keys := make([]string, 0, len(s.conf.Spotify.Users))
	for k := range s.conf.Spotify.Users {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	results := make([]userResult, len(keys))
	var wg sync.WaitGroup
	for i, key := range keys {
		wg.Add(1)
		go func(i int, key string) {
			defer wg.Done()
			results[i] = s.fetchUser(ctx, key, s.conf.Spotify.Users[key], watermark)
		}(i, key)
	}
	wg.Wait()
	return results
}

func (s *Service) fetchUser(ctx context.Context, key string, user structures.SpotifyUser, watermark int64) userResult {
	result := userResult{userKey: key}
	result.err = s.retry.Do(ctx, func() error {
		fetchCtx := ctx
		if s.conf.Sync.FetchTimeout > 0 {
			var cancel context.CancelFunc
			fetchCtx, cancel = context.WithTimeout(ctx, s.conf.Sync.FetchTimeout)
			defer cancel()
		}

		token, err := s.fetcher.RefreshCredential(fetchCtx, user.RefreshToken)
		if err != nil {
			return fmt.Errorf("refresh: %w", err)
		}
		profile, err := s.fetcher.FetchProfile(fetchCtx, token)
		if err != nil {
			return fmt.Errorf("profile: %w", err)
		}
		raws, err := s.fetcher.FetchRecentEvents(fetchCtx, token, watermark)
		if err != nil {
			return fmt.Errorf("recent: %w", err)
		}

		events := make([]models.PlayEvent, 0, len(raws))
		for i := range raws {
			event, err := history.Normalize(&raws[i], profile)
			if err != nil {
				s.logger.Warnf(providers.TypeSync, "user %s: rejecting event: %v", key, err)
				continue
			}
			// The cursor is inclusive upstream; everything at or below the
			// watermark already lives in an archive.
			if event.Timestamp <= watermark {
				continue
			}
			events = append(events, *event)
		}

		current, err := s.fetcher.FetchCurrentEvent(fetchCtx, token)
		if err != nil {
			// Live status is decorative next to the history log.
			s.logger.Warnf(providers.TypeSync, "user %s: currently-playing: %v", key, err)
			current = nil
		}

		result.events = events
		result.live = liveEntry(current, profile)
		return nil
	})
	return result
}

func liveEntry(raw *models.RawEvent, profile *models.UserProfile) *models.LiveEntry {
	if raw == nil || profile == nil {
		return nil
	}
	return &models.LiveEntry{
		Timestamp: raw.PlayedAt,
		User: models.LiveUser{
			URI:      profile.URI,
			Name:     profile.Name,
			ImageURL: profile.ImageURL,
		},
		Track: models.LiveTrack{
			URI:      raw.URI,
			Name:     raw.Track,
			ImageURL: raw.ImageURL,
			Album:    models.LiveRef{URI: raw.AlbumURI, Name: raw.Album},
			Artist:   models.LiveRef{URI: raw.ArtistURI, Name: joinNames(raw.Artists)},
			Context:  models.LiveContext{URI: raw.Context},
		},
	}
}

func joinNames(names []string) string {
	out := ""
	for _, n := range names {
		if n == "" {
			continue
		}
		if out != "" {
			out += ", "
		}
		out += n
	}
	return out
}

// loadHistory returns the parsed log along with the exact stored bytes, the
// baseline the end-of-pass content comparison runs against.
func (s *Service) loadHistory(ctx context.Context) ([]models.PlayEvent, []byte, error) {
	read, err := s.store.ReadFile(ctx, gitstore.HistoryPath)
	if err != nil {
		return nil, nil, fmt.Errorf("read history: %w", err)
	}
	if read == nil || len(read.Content) == 0 {
		return nil, []byte("[]"), nil
	}
	var log []models.PlayEvent
	if err := json.Unmarshal(read.Content, &log); err != nil {
		return nil, nil, fmt.Errorf("parse history: %w", err)
	}
	return log, read.Content, nil
}

func (s *Service) loadWatermark(ctx context.Context) (int64, error) {
	read, err := s.store.ReadFile(ctx, gitstore.WatermarkPath)
	if err != nil {
		return 0, fmt.Errorf("read watermark: %w", err)
	}
	if read == nil || len(read.Content) == 0 {
		return 0, nil
	}
	var w models.Watermark
	if err := json.Unmarshal(read.Content, &w); err != nil {
		return 0, fmt.Errorf("parse watermark: %w", err)
	}
	return w.LastClearTimestamp, nil
}

func (s *Service) loadLive(ctx context.Context) (*models.LiveStatus, error) {
	read, err := s.store.ReadFile(ctx, gitstore.LivePath)
	if err != nil {
		return nil, fmt.Errorf("read live: %w", err)
	}
	status := &models.LiveStatus{Friends: []models.LiveEntry{}}
	if read == nil || len(read.Content) == 0 {
		return status, nil
	}
	if err := json.Unmarshal(read.Content, status); err != nil {
		return nil, fmt.Errorf("parse live: %w", err)
	}
	return status, nil
}
