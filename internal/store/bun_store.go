package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/webizupfr/notion-mirror/internal/content"
	"github.com/webizupfr/notion-mirror/internal/identity"
)

const cacheEntryPrefix = "cache_entry"

// BunStore persists the mirror cache in a relational database through the
// generic cache-entry repository. An optional read-through cache sits in
// front of the repository; writes invalidate the cached entry set.
type BunStore struct {
	repo     repository.Repository[*CacheEntry]
	cacheSvc cache.CacheService
	now      func() time.Time
}

// NewBunStore builds a store without a read-through layer.
func NewBunStore(db *bun.DB) *BunStore {
	return &BunStore{
		repo: NewCacheEntryRepository(db),
		now:  time.Now,
	}
}

// NewBunStoreWithCache wraps the repository with a read-through cache. When
// either collaborator is nil the store degrades to direct repository access.
func NewBunStoreWithCache(db *bun.DB, svc cache.CacheService, ser cache.KeySerializer) *BunStore {
	base := NewCacheEntryRepository(db)
	if svc == nil || ser == nil {
		return &BunStore{repo: base, now: time.Now}
	}
	return &BunStore{
		repo:     repositorycache.New(base, svc, ser),
		cacheSvc: svc,
		now:      time.Now,
	}
}

// OpenDB opens a bun handle for the configured cache driver. The sqlite
// driver expects a DSN in the form accepted by mattn/go-sqlite3; postgres
// uses lib/pq connection strings.
func OpenDB(driver, dsn string) (*bun.DB, error) {
	switch driver {
	case "sqlite":
		sqlDB, err := sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, fmt.Errorf("store: open sqlite: %w", err)
		}
		return bun.NewDB(sqlDB, sqlitedialect.New()), nil
	case "postgres":
		sqlDB, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("store: open postgres: %w", err)
		}
		return bun.NewDB(sqlDB, pgdialect.New()), nil
	default:
		return nil, fmt.Errorf("store: unsupported driver %q", driver)
	}
}

// EnsureSchema creates the cache_entries table when it does not exist yet.
func EnsureSchema(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().
		Model((*CacheEntry)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("store: ensure schema: %w", err)
	}
	return nil
}

func (s *BunStore) get(ctx context.Context, key, resource string, target any) error {
	entry, err := s.repo.GetByIdentifier(ctx, key)
	if err != nil {
		return s.mapRepositoryError(err, resource, key)
	}
	if err := json.Unmarshal(entry.Value, target); err != nil {
		return fmt.Errorf("store: decode %s %q: %w", resource, key, err)
	}
	return nil
}

func (s *BunStore) put(ctx context.Context, key, kind string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("store: encode %s %q: %w", kind, key, err)
	}
	entry := &CacheEntry{
		ID:        identity.CacheEntryUUID(key),
		Key:       key,
		Kind:      kind,
		Value:     raw,
		UpdatedAt: s.now().UTC(),
	}
	if _, err := s.repo.Upsert(ctx, entry); err != nil {
		return fmt.Errorf("store: upsert %s %q: %w", kind, key, err)
	}
	s.invalidate(ctx)
	return nil
}

func (s *BunStore) invalidate(ctx context.Context) {
	if s.cacheSvc == nil {
		return
	}
	// Best effort; a stale read-through entry expires on its own TTL.
	_ = s.cacheSvc.DeleteByPrefix(ctx, cacheEntryPrefix)
}

func (s *BunStore) mapRepositoryError(err error, resource, key string) error {
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{Resource: resource, Key: key}
	}
	return fmt.Errorf("store: %s %q: %w", resource, key, err)
}

func (s *BunStore) GetPage(ctx context.Context, slug string) (*content.PageBundle, error) {
	var bundle content.PageBundle
	if err := s.get(ctx, PageKey(slug), "page", &bundle); err != nil {
		return nil, err
	}
	return &bundle, nil
}

func (s *BunStore) PutPage(ctx context.Context, bundle *content.PageBundle) error {
	if bundle == nil || bundle.Meta.Slug == "" {
		return content.ErrSlugRequired
	}
	return s.put(ctx, PageKey(bundle.Meta.Slug), kindPage, bundle)
}

func (s *BunStore) DeletePage(ctx context.Context, slug string) error {
	key := PageKey(slug)
	err := s.repo.Delete(ctx, &CacheEntry{ID: identity.CacheEntryUUID(key)})
	if err != nil && !goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return fmt.Errorf("store: delete page %q: %w", key, err)
	}
	s.invalidate(ctx)
	return nil
}

func (s *BunStore) ListPageSlugs(ctx context.Context) ([]string, error) {
	entries, _, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: list pages: %w", err)
	}
	slugs := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Kind != kindPage {
			continue
		}
		if slug, ok := SlugFromPageKey(entry.Key); ok {
			slugs = append(slugs, slug)
		}
	}
	sort.Strings(slugs)
	return slugs, nil
}

func (s *BunStore) GetDb(ctx context.Context, databaseID, cursor string) (*DbCacheEntry, error) {
	var entry DbCacheEntry
	if err := s.get(ctx, DbKey(databaseID, cursor), "database view", &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *BunStore) PutDb(ctx context.Context, entry *DbCacheEntry) error {
	if entry == nil || entry.DatabaseID == "" {
		return fmt.Errorf("store: db entry requires a database id")
	}
	return s.put(ctx, DbKey(entry.DatabaseID, entry.Cursor), kindDb, entry)
}

func (s *BunStore) GetIndex(ctx context.Context, kind IndexKind) (*content.Index, error) {
	var index content.Index
	if err := s.get(ctx, IndexKey(kind), "index", &index); err != nil {
		return nil, err
	}
	return &index, nil
}

func (s *BunStore) PutIndex(ctx context.Context, kind IndexKind, index *content.Index) error {
	if index == nil {
		return fmt.Errorf("store: index requires a value")
	}
	return s.put(ctx, IndexKey(kind), kindIndex, index)
}

func (s *BunStore) GetCohorts(ctx context.Context) ([]content.Cohort, error) {
	var cohorts []content.Cohort
	if err := s.get(ctx, cohortsKey, "cohorts", &cohorts); err != nil {
		return nil, err
	}
	return cohorts, nil
}

func (s *BunStore) PutCohorts(ctx context.Context, cohorts []content.Cohort) error {
	return s.put(ctx, cohortsKey, kindCohorts, cohorts)
}

func (s *BunStore) GetLastRun(ctx context.Context) (*content.SyncReport, error) {
	var report content.SyncReport
	if err := s.get(ctx, lastRunKey, "sync report", &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (s *BunStore) PutLastRun(ctx context.Context, report *content.SyncReport) error {
	if report == nil {
		return fmt.Errorf("store: report requires a value")
	}
	return s.put(ctx, lastRunKey, kindReport, report)
}

var _ ContentStore = (*BunStore)(nil)
