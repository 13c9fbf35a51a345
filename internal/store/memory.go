package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/webizupfr/notion-mirror/internal/content"
)

// MemoryStore is an in-memory ContentStore for scaffolding and tests. Values
// are kept as encoded JSON so readers always observe an isolated snapshot.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

var _ ContentStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]byte)}
}

func (m *MemoryStore) get(key, resource string, target any) error {
	m.mu.RLock()
	raw, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return &NotFoundError{Resource: resource, Key: key}
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("store: decode %s: %w", key, err)
	}
	return nil
}

func (m *MemoryStore) put(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", key, err)
	}
	m.mu.Lock()
	m.entries[key] = raw
	m.mu.Unlock()
	return nil
}

// GetPage returns the bundle cached for the slug.
func (m *MemoryStore) GetPage(_ context.Context, slug string) (*content.PageBundle, error) {
	bundle := &content.PageBundle{}
	if err := m.get(PageKey(slug), "page", bundle); err != nil {
		return nil, err
	}
	return bundle, nil
}

// PutPage replaces the bundle for the bundle's slug.
func (m *MemoryStore) PutPage(_ context.Context, bundle *content.PageBundle) error {
	if bundle == nil || strings.TrimSpace(bundle.Meta.Slug) == "" {
		return content.ErrSlugRequired
	}
	return m.put(PageKey(bundle.Meta.Slug), bundle)
}

// DeletePage removes a bundle. Deleting an absent slug is not an error.
func (m *MemoryStore) DeletePage(_ context.Context, slug string) error {
	m.mu.Lock()
	delete(m.entries, PageKey(slug))
	m.mu.Unlock()
	return nil
}

// ListPageSlugs returns every cached page slug in stable order.
func (m *MemoryStore) ListPageSlugs(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	slugs := make([]string, 0, len(m.entries))
	for key := range m.entries {
		if slug, ok := SlugFromPageKey(key); ok {
			slugs = append(slugs, slug)
		}
	}
	sort.Strings(slugs)
	return slugs, nil
}

// GetDb returns one cached database view.
func (m *MemoryStore) GetDb(_ context.Context, databaseID, cursor string) (*DbCacheEntry, error) {
	entry := &DbCacheEntry{}
	if err := m.get(DbKey(databaseID, cursor), "database view", entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// PutDb replaces one cached database view.
func (m *MemoryStore) PutDb(_ context.Context, entry *DbCacheEntry) error {
	if entry == nil {
		return &NotFoundError{Resource: "database view", Key: ""}
	}
	return m.put(DbKey(entry.DatabaseID, entry.Cursor), entry)
}

// GetIndex returns a derived index document.
func (m *MemoryStore) GetIndex(_ context.Context, kind IndexKind) (*content.Index, error) {
	index := &content.Index{}
	if err := m.get(IndexKey(kind), "index", index); err != nil {
		return nil, err
	}
	return index, nil
}

// PutIndex replaces a derived index document whole.
func (m *MemoryStore) PutIndex(_ context.Context, kind IndexKind, index *content.Index) error {
	if index == nil {
		return &NotFoundError{Resource: "index", Key: IndexKey(kind)}
	}
	return m.put(IndexKey(kind), index)
}

// GetCohorts returns the cached cohort list.
func (m *MemoryStore) GetCohorts(_ context.Context) ([]content.Cohort, error) {
	var cohorts []content.Cohort
	if err := m.get(cohortsKey, "cohorts", &cohorts); err != nil {
		return nil, err
	}
	return cohorts, nil
}

// PutCohorts replaces the cached cohort list.
func (m *MemoryStore) PutCohorts(_ context.Context, cohorts []content.Cohort) error {
	return m.put(cohortsKey, cohorts)
}

// GetLastRun returns the most recent sync report.
func (m *MemoryStore) GetLastRun(_ context.Context) (*content.SyncReport, error) {
	report := &content.SyncReport{}
	if err := m.get(lastRunKey, "sync report", report); err != nil {
		return nil, err
	}
	return report, nil
}

// PutLastRun replaces the most recent sync report.
func (m *MemoryStore) PutLastRun(_ context.Context, report *content.SyncReport) error {
	if report == nil {
		return &NotFoundError{Resource: "sync report", Key: lastRunKey}
	}
	return m.put(lastRunKey, report)
}
