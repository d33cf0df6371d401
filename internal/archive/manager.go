package archive

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	json "github.com/goccy/go-json"

	"spinlog/internal/commitmsg"
	"spinlog/internal/gitstore"
	"spinlog/internal/history"
	"spinlog/internal/models"
	"spinlog/internal/providers"
	"spinlog/internal/structures"
)

var (
	// ErrArchiveExists means an archive file for the date tag already holds
	// different events. Archives are immutable; this is never overwritten.
	ErrArchiveExists = errors.New("archive for date already exists with different content")

	// ErrNoHistory means the commit to back up from has no history file.
	ErrNoHistory = errors.New("no history at requested commit")
)

const dateTagLayout = "02012006"

var dateTagPattern = regexp.MustCompile(`\[(\d{8})\]`)

// SecondaryStore receives a durable copy of every archived batch.
type SecondaryStore interface {
	InsertRecords(ctx context.Context, events []models.PlayEvent) error
}

// ClearResult reports the outcome of a clear cycle.
type ClearResult struct {
	Skipped      bool   `json:"skipped,omitempty"`
	ItemsRemoved int    `json:"itemsRemoved"`
	DateTag      string `json:"dateTag,omitempty"`
	Timestamp    int64  `json:"timestamp,omitempty"`
	Version      string `json:"version,omitempty"`
}

// BackupResult reports the outcome of a manual backup.
type BackupResult struct {
	DateTag string `json:"dateTag"`
	Count   int    `json:"count"`
	Version string `json:"version"`
}

// Manager runs the watermark/archive cycle: it moves the live log into an
// immutable per-day archive file and advances the watermark so no archived
// event can be re-fetched into the log. All reference-time arithmetic uses
// a fixed configured offset, never the host timezone.
type Manager struct {
	conf      *structures.Config
	store     gitstore.Store
	secondary SecondaryStore
	cache     providers.CacheProviderInterface
	metrics   providers.MetricsProviderInterface
	logger    providers.Logger
	now       func() time.Time
}

func NewManager(
	conf *structures.Config,
	store gitstore.Store,
	secondary SecondaryStore,
	cache providers.CacheProviderInterface,
	metrics providers.MetricsProviderInterface,
	logger providers.Logger,
) *Manager {
	return &Manager{
		conf:      conf,
		store:     store,
		secondary: secondary,
		cache:     cache,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

func (m *Manager) zone() *time.Location {
	return time.FixedZone("ref", m.conf.Clear.TzOffsetHours*3600)
}

// Clear archives the current log and resets it in a single commit. An empty
// log is left untouched. The watermark is set to the newest archived event,
// not the wall clock, so a play that happens mid-clear is never swallowed.
func (m *Manager) Clear(ctx context.Context) (*ClearResult, error) {
	events, err := m.loadHistory(ctx)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		m.logger.Infof(providers.TypeClear, "history empty, nothing to archive")
		return &ClearResult{Skipped: true}, nil
	}

	watermark := maxTimestamp(events)
	dateTag := m.now().In(m.zone()).AddDate(0, 0, -1).Format(dateTagLayout)

	changes, err := m.archiveChange(ctx, dateTag, events)
	if err != nil {
		return nil, err
	}

	emptyLog := []byte("[]")
	watermarkRaw, err := json.Marshal(models.Watermark{LastClearTimestamp: watermark})
	if err != nil {
		return nil, err
	}
	changes = append(changes,
		gitstore.FileChange{Path: gitstore.HistoryPath, Content: emptyLog},
		gitstore.FileChange{Path: gitstore.WatermarkPath, Content: watermarkRaw},
	)

	version, err := m.store.CommitFiles(ctx, changes, commitmsg.ForClear(dateTag))
	if err != nil {
		return nil, fmt.Errorf("commit clear: %w", err)
	}

	m.cache.Invalidate()
	m.metrics.IncCommits("clear")
	m.metrics.SetHistorySize(0)
	m.logger.Infof(providers.TypeClear, "archived %d events as %s, watermark=%d", len(events), dateTag, watermark)

	m.forwardToSecondary(ctx, events)

	return &ClearResult{
		ItemsRemoved: len(events),
		DateTag:      dateTag,
		Timestamp:    watermark,
		Version:      version,
	}, nil
}

// Backup snapshots the history as it was just before the given commit into
// an archive file. The date tag is recovered from the commit message when it
// carries one, otherwise from the commit time.
func (m *Manager) Backup(ctx context.Context, ref string) (*BackupResult, error) {
	info, err := m.store.ReadCommit(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("read commit %s: %w", ref, err)
	}
	if info == nil {
		return nil, fmt.Errorf("%w: unknown commit %s", ErrNoHistory, ref)
	}

	dateTag := ""
	if match := dateTagPattern.FindStringSubmatch(info.Message); match != nil {
		dateTag = match[1]
	} else {
		dateTag = info.Time.In(m.zone()).Format(dateTagLayout)
	}

	if len(info.Parents) == 0 {
		return nil, ErrNoHistory
	}
	read, err := m.store.ReadFileAt(ctx, gitstore.HistoryPath, info.Parents[0])
	if err != nil {
		return nil, fmt.Errorf("read history at %s: %w", info.Parents[0], err)
	}
	if read == nil || len(read.Content) == 0 {
		return nil, ErrNoHistory
	}

	var events []models.PlayEvent
	if err := json.Unmarshal(read.Content, &events); err != nil {
		return nil, fmt.Errorf("parse history at %s: %w", info.Parents[0], err)
	}
	events = history.FilterValid(events)
	if len(events) == 0 {
		return nil, ErrNoHistory
	}

	changes, err := m.archiveChange(ctx, dateTag, events)
	if err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		// Identical archive already stored.
		return &BackupResult{DateTag: dateTag, Count: len(events)}, nil
	}

	version, err := m.store.CommitFiles(ctx, changes, commitmsg.ForBackup(dateTag))
	if err != nil {
		return nil, fmt.Errorf("commit backup: %w", err)
	}
	m.metrics.IncCommits("backup")
	m.logger.Infof(providers.TypeClear, "backed up %d events as %s", len(events), dateTag)

	return &BackupResult{DateTag: dateTag, Count: len(events), Version: version}, nil
}

// archiveChange prepares the archive file write for a date tag. Returns an
// empty slice when an identical archive already exists and ErrArchiveExists
// when a different one does.
func (m *Manager) archiveChange(ctx context.Context, dateTag string, events []models.PlayEvent) ([]gitstore.FileChange, error) {
	path := gitstore.ArchiveDir + "/" + dateTag + ".json"
	content, err := json.Marshal(events)
	if err != nil {
		return nil, err
	}

	existing, err := m.store.ReadFile(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if existing != nil {
		if string(existing.Content) == string(content) {
			m.logger.Infof(providers.TypeClear, "archive %s already stored, skipping write", dateTag)
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrArchiveExists, dateTag)
	}
	return []gitstore.FileChange{{Path: path, Content: content}}, nil
}

func (m *Manager) forwardToSecondary(ctx context.Context, events []models.PlayEvent) {
	if m.secondary == nil || !m.conf.Supabase.Enabled {
		return
	}
	if err := m.secondary.InsertRecords(ctx, events); err != nil {
		// The store commit already landed. Inserts are idempotent, so a
		// later re-forward of the same batch is safe.
		m.logger.Errorf(providers.TypeClear, "secondary store forward failed: %v", err)
	}
}

func (m *Manager) loadHistory(ctx context.Context) ([]models.PlayEvent, error) {
	read, err := m.store.ReadFile(ctx, gitstore.HistoryPath)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	if read == nil || len(read.Content) == 0 {
		return nil, nil
	}
	var events []models.PlayEvent
	if err := json.Unmarshal(read.Content, &events); err != nil {
		return nil, fmt.Errorf("parse history: %w", err)
	}
	return history.FilterValid(events), nil
}

func maxTimestamp(events []models.PlayEvent) int64 {
	var max int64
	for i := range events {
		if events[i].Timestamp > max {
			max = events[i].Timestamp
		}
	}
	return max
}
