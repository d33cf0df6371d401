package providers

import (
	"fmt"
	"path/filepath"
	"spinlog/internal/structures"
	"strings"
	"time"

	"github.com/spf13/viper"
)

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	filename := filepath.Base(flags.ConfigPath)
	viper.AddConfigPath(filepath.Dir(flags.ConfigPath))
	viper.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	viper.SetConfigType("yaml")

	viper.BindEnv("logger.level", "SPINLOG_LOG_LEVEL")
	viper.BindEnv("sync.interval", "SPINLOG_SYNC_INTERVAL")
	viper.BindEnv("clear.secret", "SPINLOG_CLEAR_SECRET")
	viper.BindEnv("spotify.clientId", "SPINLOG_SPOTIFY_CLIENT_ID")
	viper.BindEnv("spotify.clientSecret", "SPINLOG_SPOTIFY_CLIENT_SECRET")
	viper.BindEnv("store.github.token", "SPINLOG_GITHUB_TOKEN")
	viper.BindEnv("store.github.repo", "SPINLOG_GITHUB_REPO")
	viper.BindEnv("supabase.anonKey", "SPINLOG_SUPABASE_ANON_KEY")
	viper.BindEnv("cache.enabled", "SPINLOG_CACHE_ENABLED")
	viper.BindEnv("cache.size", "SPINLOG_CACHE_SIZE")

	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = viper.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	applyDefaults(&conf)

	conf.AppName = "SpinLog"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}

func applyDefaults(conf *structures.Config) {
	if conf.Sync.FetchTimeout <= 0 {
		conf.Sync.FetchTimeout = 10 * time.Second
	}
	if conf.Clear.At == "" {
		conf.Clear.At = "00:05"
	}
	if conf.Store.GitHub.Branch == "" {
		conf.Store.GitHub.Branch = "main"
	}
	if conf.Store.GitHub.APIBase == "" {
		conf.Store.GitHub.APIBase = "https://api.github.com"
	}
	if conf.Supabase.Table == "" {
		conf.Supabase.Table = "listening_history"
	}
	if conf.Sync.Retry.MaxAttempts <= 0 {
		conf.Sync.Retry.MaxAttempts = 3
	}
	if conf.Sync.Retry.BaseDelay <= 0 {
		conf.Sync.Retry.BaseDelay = 500 * time.Millisecond
	}
	if conf.Sync.Retry.MaxDelay <= 0 {
		conf.Sync.Retry.MaxDelay = 5 * time.Second
	}
}
