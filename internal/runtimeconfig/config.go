package runtimeconfig

import (
	"errors"
	"strings"
	"time"
)

var ErrSourceTokenRequired = errors.New("mirror config: source API token is required")
var ErrPagesDatabaseRequired = errors.New("mirror config: pages database id is required")
var ErrSourcePageSizeInvalid = errors.New("mirror config: source page size must be between 1 and 100")
var ErrCacheDriverUnknown = errors.New("mirror config: cache driver is invalid")
var ErrCacheDSNRequired = errors.New("mirror config: cache dsn is required for database drivers")
var ErrSyncDepthInvalid = errors.New("mirror config: sync max block depth must be positive")
var ErrSyncSecretRequired = errors.New("mirror config: sync secret is required when the server is enabled")
var ErrLoggingProviderUnknown = errors.New("mirror config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("mirror config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("mirror config: logging format is invalid")

// Config aggregates feature flags and adapter bindings for the mirror module.
// Fields intentionally use simple types so host applications can extend them later.
type Config struct {
	Source   SourceConfig
	Cache    CacheConfig
	Sync     SyncConfig
	Server   ServerConfig
	Logging  LoggingConfig
	Features Features
}

// SourceConfig identifies the upstream content source databases.
type SourceConfig struct {
	Token               string
	BaseURL             string
	APIVersion          string
	PagesDatabaseID     string
	HubsDatabaseID      string
	SprintsDatabaseID   string
	WorkshopsDatabaseID string
	CohortsDatabaseID   string
	PageSize            int
}

// CacheConfig selects the bundle store backend.
type CacheConfig struct {
	// Driver is one of "memory", "sqlite" or "postgres".
	Driver      string
	DSN         string
	ReadThrough bool
	TTL         time.Duration
}

// SyncConfig bounds a synchronization run.
type SyncConfig struct {
	MaxBlockDepth int
	Timeout       time.Duration
}

// ServerConfig captures the HTTP surface settings.
type ServerConfig struct {
	Enabled bool
	Addr    string
	// SyncSecret gates the trigger, worker and debug endpoints.
	SyncSecret string
}

// LoggingConfig selects the logging provider wired into the module.
type LoggingConfig struct {
	Provider  string
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// Features toggles optional subsystems.
type Features struct {
	Cohorts     bool
	ImageSizing bool
}

// DefaultConfig returns the baseline configuration used by tests and the CLI.
func DefaultConfig() Config {
	return Config{
		Source: SourceConfig{
			BaseURL:    "https://api.notion.com/v1",
			APIVersion: "2022-06-28",
			PageSize:   100,
		},
		Cache: CacheConfig{
			Driver:      "memory",
			ReadThrough: false,
			TTL:         5 * time.Minute,
		},
		Sync: SyncConfig{
			MaxBlockDepth: 16,
			Timeout:       10 * time.Minute,
		},
		Server: ServerConfig{
			Enabled: false,
			Addr:    ":8080",
		},
		Logging: LoggingConfig{
			Provider: "gologger",
			Level:    "info",
			Format:   "json",
		},
		Features: Features{
			Cohorts: true,
		},
	}
}

// Validate reports the first configuration inconsistency found.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Source.Token) == "" {
		return ErrSourceTokenRequired
	}
	if strings.TrimSpace(c.Source.PagesDatabaseID) == "" {
		return ErrPagesDatabaseRequired
	}
	if c.Source.PageSize < 1 || c.Source.PageSize > 100 {
		return ErrSourcePageSizeInvalid
	}

	switch strings.ToLower(strings.TrimSpace(c.Cache.Driver)) {
	case "memory":
	case "sqlite", "postgres":
		if strings.TrimSpace(c.Cache.DSN) == "" {
			return ErrCacheDSNRequired
		}
	default:
		return ErrCacheDriverUnknown
	}

	if c.Sync.MaxBlockDepth <= 0 {
		return ErrSyncDepthInvalid
	}

	if c.Server.Enabled && strings.TrimSpace(c.Server.SyncSecret) == "" {
		return ErrSyncSecretRequired
	}

	return c.Logging.validate()
}

func (c LoggingConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Provider)) {
	case "", "noop", "gologger":
	default:
		return ErrLoggingProviderUnknown
	}
	switch strings.ToLower(strings.TrimSpace(c.Level)) {
	case "", "trace", "debug", "info", "warn", "warning", "error", "fatal":
	default:
		return ErrLoggingLevelInvalid
	}
	switch strings.ToLower(strings.TrimSpace(c.Format)) {
	case "", "json", "console", "pretty":
	default:
		return ErrLoggingFormatInvalid
	}
	return nil
}
