package scheduler

import "github.com/webizupfr/notion-mirror/internal/identity"

// Job types dispatched by the mirror worker.
const (
	JobTypeFullSync = "mirror.sync.full"
	JobTypePageSync = "mirror.sync.page"
)

// FullSyncJobKey returns the replace-key for full-sync jobs. Enqueuing with
// the same key replaces a pending run instead of stacking duplicates.
func FullSyncJobKey() string {
	return identity.FullSyncJobKey()
}

// PageSyncJobKey returns the replace-key for a slug-scoped sync job.
func PageSyncJobKey(slug string) string {
	return identity.PageSyncJobKey(slug)
}
