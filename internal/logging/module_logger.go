package logging

import (
	"strings"

	"github.com/webizupfr/notion-mirror/pkg/interfaces"
)

const (
	rootModule   = "mirror"
	syncModule   = "mirror.sync"
	sourceModule = "mirror.source"
	storeModule  = "mirror.store"
	jobsModule   = "mirror.jobs"
	httpModule   = "mirror.http"
)

const (
	fieldSlug   = "slug"
	fieldRunID  = "run_id"
	fieldAction = "sync_action"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The returned logger attaches
// the module identifier as structured context so downstream entries can be
// filtered predictably.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// SyncLogger returns the logger namespace reserved for the sync orchestrator.
func SyncLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, syncModule)
}

// SourceLogger returns the logger namespace reserved for the upstream client.
func SourceLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, sourceModule)
}

// StoreLogger returns the logger namespace reserved for the cache store.
func StoreLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, storeModule)
}

// JobsLogger returns the logger namespace reserved for background workers.
func JobsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, jobsModule)
}

// HTTPLogger returns the logger namespace reserved for HTTP endpoints.
func HTTPLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, httpModule)
}

// WithSyncContext enriches the provided logger with common sync fields such as
// the page slug, run identifier, and action. Empty values are ignored.
func WithSyncContext(logger interfaces.Logger, slug, runID, action string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(slug); trimmed != "" {
		fields[fieldSlug] = trimmed
	}
	if trimmed := strings.TrimSpace(runID); trimmed != "" {
		fields[fieldRunID] = trimmed
	}
	if trimmed := strings.TrimSpace(action); trimmed != "" {
		fields[fieldAction] = trimmed
	}
	return WithFields(logger, fields)
}
