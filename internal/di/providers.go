package di

import (
	"spinlog/internal/archive"
	"spinlog/internal/controllers"
	"spinlog/internal/gitstore"
	"spinlog/internal/providers"
	"spinlog/internal/scheduler"
	"spinlog/internal/spotify"
	"spinlog/internal/structures"
	"spinlog/internal/supabase"
	"spinlog/internal/syncer"
)

func NewStore(conf *structures.Config, compressor gitstore.CompressorInterface, logger providers.Logger) (gitstore.Store, error) {
	if conf.Store.Backend == "github" {
		return gitstore.NewGitHubStore(conf, logger), nil
	}
	return gitstore.NewFileStore(conf.Store.File.Dir, compressor, logger)
}

func NewSupabaseClient(conf *structures.Config, logger providers.Logger) *supabase.Client {
	if !conf.Supabase.Enabled {
		return nil
	}
	return supabase.NewClient(conf, logger)
}

func NewSecondaryStore(client *supabase.Client) archive.SecondaryStore {
	if client == nil {
		return nil
	}
	return client
}

func NewFetcher(client *spotify.Client) syncer.Fetcher {
	return client
}

func NewAdminSyncRunner(service *syncer.Service) controllers.SyncRunner {
	return service
}

func NewAdminArchiveRunner(manager *archive.Manager) controllers.ArchiveRunner {
	return manager
}

func NewScheduledSyncRunner(service *syncer.Service) scheduler.SyncRunner {
	return service
}

func NewScheduledClearRunner(manager *archive.Manager) scheduler.ClearRunner {
	return manager
}
