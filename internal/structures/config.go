package structures

import "time"

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

// FileStoreConfig configures the local content-addressable store backend.
type FileStoreConfig struct {
	Dir string `yaml:"dir"`
}

// GitHubStoreConfig configures the GitHub-backed store backend.
type GitHubStoreConfig struct {
	Repo    string `yaml:"repo"`
	Token   string `yaml:"token"`
	Branch  string `yaml:"branch"`
	APIBase string `yaml:"apiBase"`
}

type StoreConfig struct {
	Backend string            `yaml:"backend" validate:"required|in:file,github"`
	File    FileStoreConfig   `yaml:"file"`
	GitHub  GitHubStoreConfig `yaml:"github"`
}

// SpotifyUser holds per-user credentials. The refresh-token map replaces the
// untyped JSON blob the environment used to carry; every entry is validated
// at startup.
type SpotifyUser struct {
	RefreshToken string `yaml:"refreshToken"`
}

type SpotifyConfig struct {
	ClientID     string                 `yaml:"clientId" validate:"required"`
	ClientSecret string                 `yaml:"clientSecret" validate:"required"`
	Users        map[string]SpotifyUser `yaml:"users"`
}

type RetryConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseDelay   time.Duration `yaml:"baseDelay"`
	MaxDelay    time.Duration `yaml:"maxDelay"`
}

type SyncConfig struct {
	Interval     time.Duration `yaml:"interval" validate:"required|min:1"`
	FetchTimeout time.Duration `yaml:"fetchTimeout"`
	Retry        RetryConfig   `yaml:"retry"`
}

// ClearConfig drives the daily watermark/archive cycle. TzOffsetHours is the
// fixed reference offset used for date tags and all calendar bucketing.
type ClearConfig struct {
	At            string `yaml:"at"`
	Secret        string `yaml:"secret" validate:"required"`
	TzOffsetHours int    `yaml:"tzOffsetHours"`
}

type SupabaseConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	AnonKey string `yaml:"anonKey"`
	Table   string `yaml:"table"`
}

type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	Size    int  `yaml:"size"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	AppName   string
	Debug     bool
	Path      string
	WebServer Server         `yaml:"webServer"`
	Store     StoreConfig    `yaml:"store"`
	Spotify   SpotifyConfig  `yaml:"spotify"`
	Sync      SyncConfig     `yaml:"sync"`
	Clear     ClearConfig    `yaml:"clear"`
	Supabase  SupabaseConfig `yaml:"supabase"`
	Logger    LoggerConfig   `yaml:"logger"`
	Cache     CacheConfig    `yaml:"cache"`
	Metrics   MetricsConfig  `yaml:"metrics"`
}
