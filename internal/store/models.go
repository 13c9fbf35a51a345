package store

import (
	"encoding/json"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Entry kinds stored in the cache_entries table. The kind column lets listing
// queries stay cheap without parsing keys.
const (
	kindPage    = "page"
	kindDb      = "db"
	kindIndex   = "index"
	kindCohorts = "cohorts"
	kindReport  = "report"
)

// CacheEntry is the bun model backing the flat cache namespace. The primary
// key is derived deterministically from the cache key so repeated writes for
// the same key stay idempotent.
type CacheEntry struct {
	bun.BaseModel `bun:"table:cache_entries,alias:ce"`

	ID        uuid.UUID       `bun:",pk,type:uuid"          json:"id"`
	Key       string          `bun:"key,notnull,unique"     json:"key"`
	Kind      string          `bun:"kind,notnull"           json:"kind"`
	Value     json.RawMessage `bun:"value,type:jsonb,notnull" json:"value"`
	UpdatedAt time.Time       `bun:"updated_at,notnull"     json:"updated_at"`
}

// NewCacheEntryRepository builds the generic repository over cache entries,
// addressable by primary key or by the cache key column.
func NewCacheEntryRepository(db *bun.DB) repository.Repository[*CacheEntry] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*CacheEntry]{
		NewRecord: func() *CacheEntry { return &CacheEntry{} },
		GetID: func(e *CacheEntry) uuid.UUID {
			return e.ID
		},
		SetID: func(e *CacheEntry, id uuid.UUID) {
			e.ID = id
		},
		GetIdentifier: func() string {
			return "key"
		},
		GetIdentifierValue: func(e *CacheEntry) string {
			return e.Key
		},
	})
}
