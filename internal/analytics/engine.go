package analytics

import (
	"context"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"spinlog/internal/gitstore"
	"spinlog/internal/history"
	"spinlog/internal/models"
	"spinlog/internal/providers"
	"spinlog/internal/structures"
)

// Engine computes derived views over the full listening history: the
// current log joined with every archive file, deduplicated by exact
// identity. Invalid rows anywhere are dropped, not fatal.
type Engine struct {
	conf   *structures.Config
	store  gitstore.Store
	logger providers.Logger
	now    func() time.Time
}

func NewEngine(conf *structures.Config, store gitstore.Store, logger providers.Logger) *Engine {
	return &Engine{conf: conf, store: store, logger: logger, now: time.Now}
}

func (e *Engine) zone() *time.Location {
	return time.FixedZone("ref", e.conf.Clear.TzOffsetHours*3600)
}

// Achievements scores the full catalog against the complete history.
func (e *Engine) Achievements(ctx context.Context) ([]Achievement, error) {
	events, err := e.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	return scoreAchievements(summarize(events, e.zone())), nil
}

// Goals scores the recurring goal catalog at the current instant.
func (e *Engine) Goals(ctx context.Context) ([]Goal, error) {
	events, err := e.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	return scoreGoals(events, e.now(), e.zone()), nil
}

// Insights derives the listening profile over the complete history.
func (e *Engine) Insights(ctx context.Context) (*Insights, error) {
	events, err := e.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	return computeInsights(events, e.zone()), nil
}

// Events returns the full deduplicated event set, newest first.
func (e *Engine) Events(ctx context.Context) ([]models.PlayEvent, error) {
	return e.loadAll(ctx)
}

// loadAll reconstructs the full event set: current log plus all archives,
// exact-duplicate free, newest first. Overlap between the log and an
// archive (a clear raced by a sync) collapses to one event per identity.
func (e *Engine) loadAll(ctx context.Context) ([]models.PlayEvent, error) {
	events, err := e.loadEvents(ctx, gitstore.HistoryPath)
	if err != nil {
		return nil, err
	}

	entries, err := e.store.ListDir(ctx, gitstore.ArchiveDir)
	if err != nil {
		return nil, fmt.Errorf("list archives: %w", err)
	}
	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name, ".json") {
			continue
		}
		archived, err := e.loadEvents(ctx, entry.Path)
		if err != nil {
			// One unreadable archive should not blank out all analytics.
			e.logger.Warnf(providers.TypeStore, "skipping archive %s: %v", entry.Path, err)
			continue
		}
		events = append(events, archived...)
	}

	events = history.Dedupe(events)
	history.Sort(events)
	return events, nil
}

func (e *Engine) loadEvents(ctx context.Context, path string) ([]models.PlayEvent, error) {
	read, err := e.store.ReadFile(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if read == nil || len(read.Content) == 0 {
		return nil, nil
	}
	var events []models.PlayEvent
	if err := json.Unmarshal(read.Content, &events); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return history.FilterValid(events), nil
}
