package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/webizupfr/notion-mirror/internal/content"
)

// FirstPageCursor denotes the first page of a database view in cache keys.
const FirstPageCursor = "_"

// IndexKind identifies one of the derived index documents.
type IndexKind string

const (
	IndexPosts     IndexKind = "posts"
	IndexHubs      IndexKind = "hubs"
	IndexSprints   IndexKind = "sprints"
	IndexWorkshops IndexKind = "workshops"
)

// Kinds lists every index document a full sync rebuilds.
func Kinds() []IndexKind {
	return []IndexKind{IndexPosts, IndexHubs, IndexSprints, IndexWorkshops}
}

// Key layout of the flat cache namespace. Each key is written by exactly one
// logical producer (the sync orchestrator) and read by many consumers;
// last-writer-wins per key.
const (
	cohortsKey = "cohorts:index"
	lastRunKey = "sync:last-run"
)

// PageKey builds the cache key of a page bundle.
func PageKey(slug string) string {
	return "page:" + strings.TrimSpace(slug)
}

// DbKey builds the cache key of one paginated database view. An empty cursor
// maps to the first page.
func DbKey(databaseID, cursor string) string {
	if strings.TrimSpace(cursor) == "" {
		cursor = FirstPageCursor
	}
	return "db:" + strings.TrimSpace(databaseID) + ":cursor:" + cursor
}

// IndexKey builds the cache key of a derived index document.
func IndexKey(kind IndexKind) string {
	return string(kind) + ":index"
}

// SlugFromPageKey recovers the slug from a page cache key.
func SlugFromPageKey(key string) (string, bool) {
	if !strings.HasPrefix(key, "page:") {
		return "", false
	}
	return strings.TrimPrefix(key, "page:"), true
}

// DbCacheEntry is one cached paginated view of a linked database, keyed per
// (databaseID, cursor) pair.
type DbCacheEntry struct {
	DatabaseID string           `json:"database_id"`
	Cursor     string           `json:"cursor"`
	Bundle     content.DbBundle `json:"bundle"`
	SyncedAt   time.Time        `json:"synced_at"`
}

// NotFoundError reports a missing cache entry, distinct from transient storage
// failures so callers never retry it as if it were transient.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

// IsNotFound reports whether err is a missing-entry error.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// ContentStore is the durable cache holding page bundles, database-view
// bundles and index documents. Writes are whole-value replacements per key;
// the consistency contract (index items always backed by bundles) is owned by
// the sync orchestrator.
type ContentStore interface {
	GetPage(ctx context.Context, slug string) (*content.PageBundle, error)
	PutPage(ctx context.Context, bundle *content.PageBundle) error
	DeletePage(ctx context.Context, slug string) error
	ListPageSlugs(ctx context.Context) ([]string, error)

	GetDb(ctx context.Context, databaseID, cursor string) (*DbCacheEntry, error)
	PutDb(ctx context.Context, entry *DbCacheEntry) error

	GetIndex(ctx context.Context, kind IndexKind) (*content.Index, error)
	PutIndex(ctx context.Context, kind IndexKind, index *content.Index) error

	GetCohorts(ctx context.Context) ([]content.Cohort, error)
	PutCohorts(ctx context.Context, cohorts []content.Cohort) error

	GetLastRun(ctx context.Context) (*content.SyncReport, error)
	PutLastRun(ctx context.Context, report *content.SyncReport) error
}
