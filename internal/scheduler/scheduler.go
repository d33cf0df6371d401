package scheduler

import (
	"context"
	"sync"

	"github.com/roylee0704/gron"
	"github.com/roylee0704/gron/xtime"

	"spinlog/internal/archive"
	"spinlog/internal/providers"
	"spinlog/internal/structures"
	"spinlog/internal/syncer"
)

type SchedulerInterface interface {
	Init()
	Stop()
}

// SyncRunner triggers one sync pass.
type SyncRunner interface {
	Pass(ctx context.Context) (*syncer.Result, error)
}

// ClearRunner runs the daily archive cycle.
type ClearRunner interface {
	Clear(ctx context.Context) (*archive.ClearResult, error)
}

// Scheduler drives the two periodic jobs: the sync pass on its interval
// and the clear cycle once a day. opsMu keeps them from overlapping, so a
// clear never runs in the middle of a sync pass.
type Scheduler struct {
	config *structures.Config
	logger providers.Logger
	sync   SyncRunner
	clear  ClearRunner
	cron   *gron.Cron
	opsMu  sync.Mutex
}

func (s *Scheduler) Init() {
	s.cron = gron.New()

	s.cron.AddFunc(gron.Every(s.config.Sync.Interval), func() {
		s.opsMu.Lock()
		defer s.opsMu.Unlock()

		result, err := s.sync.Pass(context.Background())
		if err != nil {
			s.logger.Errorf(providers.TypeSync, "scheduled sync failed: %s", err)
			return
		}
		if result.Changed {
			s.logger.Infof(providers.TypeSync, "scheduled sync added %d tracks", result.NewTracks)
		}
	})

	s.cron.AddFunc(gron.Every(1*xtime.Day).At(s.config.Clear.At), func() {
		s.opsMu.Lock()
		defer s.opsMu.Unlock()

		s.logger.Infof(providers.TypeClear, "starting daily clear")
		result, err := s.clear.Clear(context.Background())
		if err != nil {
			s.logger.Errorf(providers.TypeClear, "scheduled clear failed: %s", err)
			return
		}
		if result.Skipped {
			s.logger.Infof(providers.TypeClear, "daily clear skipped, history empty")
			return
		}
		s.logger.Infof(providers.TypeClear, "archived %d events as %s", result.ItemsRemoved, result.DateTag)
	})

	s.cron.Start()
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func NewScheduler(config *structures.Config, logger providers.Logger, sync SyncRunner, clear ClearRunner) SchedulerInterface {
	return &Scheduler{
		config: config,
		logger: logger,
		sync:   sync,
		clear:  clear,
	}
}
