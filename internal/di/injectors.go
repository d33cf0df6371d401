//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"
	"spinlog/internal"
	"spinlog/internal/analytics"
	"spinlog/internal/archive"
	"spinlog/internal/controllers"
	"spinlog/internal/gitstore"
	"spinlog/internal/providers"
	"spinlog/internal/scheduler"
	"spinlog/internal/spotify"
	"spinlog/internal/structures"
	"spinlog/internal/syncer"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,

		gitstore.NewZstdCompressor,
		NewStore,
		spotify.NewClient,
		NewFetcher,
		NewSupabaseClient,
		NewSecondaryStore,

		syncer.NewService,
		archive.NewManager,
		analytics.NewEngine,

		NewAdminSyncRunner,
		NewAdminArchiveRunner,
		NewScheduledSyncRunner,
		NewScheduledClearRunner,

		controllers.NewApiController,
		controllers.NewAdminController,
		controllers.NewHealthController,
		scheduler.NewScheduler,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil
}
