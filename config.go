package mirror

import "github.com/webizupfr/notion-mirror/internal/runtimeconfig"

var (
	ErrSourceTokenRequired    = runtimeconfig.ErrSourceTokenRequired
	ErrPagesDatabaseRequired  = runtimeconfig.ErrPagesDatabaseRequired
	ErrSourcePageSizeInvalid  = runtimeconfig.ErrSourcePageSizeInvalid
	ErrCacheDriverUnknown     = runtimeconfig.ErrCacheDriverUnknown
	ErrCacheDSNRequired       = runtimeconfig.ErrCacheDSNRequired
	ErrSyncDepthInvalid       = runtimeconfig.ErrSyncDepthInvalid
	ErrSyncSecretRequired     = runtimeconfig.ErrSyncSecretRequired
	ErrLoggingProviderUnknown = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid    = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid   = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config        = runtimeconfig.Config
	SourceConfig  = runtimeconfig.SourceConfig
	CacheConfig   = runtimeconfig.CacheConfig
	SyncConfig    = runtimeconfig.SyncConfig
	ServerConfig  = runtimeconfig.ServerConfig
	LoggingConfig = runtimeconfig.LoggingConfig
	Features      = runtimeconfig.Features
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}
