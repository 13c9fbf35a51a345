package identity

import (
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Callers must ensure key construction prevents cross-entity collisions (prefix by domain/type).
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// CacheEntryUUID derives the primary key for a cache entry from its flat
// namespace key, keeping writes for the same key idempotent across syncs.
func CacheEntryUUID(cacheKey string) uuid.UUID {
	return UUID("mirror:cache_entry:" + strings.TrimSpace(cacheKey))
}

// FullSyncJobKey is the dedupe key for full-sync jobs so a re-trigger replaces
// the pending job instead of stacking a duplicate.
func FullSyncJobKey() string {
	return "sync:full"
}

// PageSyncJobKey is the dedupe key for a slug-scoped sync job.
func PageSyncJobKey(slug string) string {
	return "sync:page:" + strings.ToLower(strings.TrimSpace(slug))
}
