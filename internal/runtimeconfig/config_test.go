package runtimeconfig

import (
	"errors"
	"testing"
)

func validConfig() Config {
	cfg := DefaultConfig()
	cfg.Source.Token = "secret-token"
	cfg.Source.PagesDatabaseID = "db-pages"
	return cfg
}

func TestValidateAcceptsDefaultsWithSource(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestValidateRequiresToken(t *testing.T) {
	cfg := validConfig()
	cfg.Source.Token = "   "
	if err := cfg.Validate(); !errors.Is(err, ErrSourceTokenRequired) {
		t.Fatalf("expected ErrSourceTokenRequired, got %v", err)
	}
}

func TestValidateRequiresPagesDatabase(t *testing.T) {
	cfg := validConfig()
	cfg.Source.PagesDatabaseID = ""
	if err := cfg.Validate(); !errors.Is(err, ErrPagesDatabaseRequired) {
		t.Fatalf("expected ErrPagesDatabaseRequired, got %v", err)
	}
}

func TestValidateCacheDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.Driver = "redis"
	if err := cfg.Validate(); !errors.Is(err, ErrCacheDriverUnknown) {
		t.Fatalf("expected ErrCacheDriverUnknown, got %v", err)
	}

	cfg = validConfig()
	cfg.Cache.Driver = "sqlite"
	cfg.Cache.DSN = ""
	if err := cfg.Validate(); !errors.Is(err, ErrCacheDSNRequired) {
		t.Fatalf("expected ErrCacheDSNRequired, got %v", err)
	}
}

func TestValidateServerSecret(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Enabled = true
	cfg.Server.SyncSecret = ""
	if err := cfg.Validate(); !errors.Is(err, ErrSyncSecretRequired) {
		t.Fatalf("expected ErrSyncSecretRequired, got %v", err)
	}
}

func TestValidateLogging(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"provider", func(c *Config) { c.Logging.Provider = "zap" }, ErrLoggingProviderUnknown},
		{"level", func(c *Config) { c.Logging.Level = "verbose" }, ErrLoggingLevelInvalid},
		{"format", func(c *Config) { c.Logging.Format = "xml" }, ErrLoggingFormatInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestValidateSyncDepth(t *testing.T) {
	cfg := validConfig()
	cfg.Sync.MaxBlockDepth = 0
	if err := cfg.Validate(); !errors.Is(err, ErrSyncDepthInvalid) {
		t.Fatalf("expected ErrSyncDepthInvalid, got %v", err)
	}
}
