package store_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	repocache "github.com/goliatone/go-repository-cache/cache"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/webizupfr/notion-mirror/internal/content"
	"github.com/webizupfr/notion-mirror/internal/store"
)

var sqliteSeq int

func newSQLiteDB(t *testing.T) *bun.DB {
	t.Helper()

	sqliteSeq++
	dsn := fmt.Sprintf("file:store_test_%d?mode=memory&cache=shared&_fk=1", sqliteSeq)
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	db := bun.NewDB(sqlDB, sqlitedialect.New())
	if err := store.EnsureSchema(context.Background(), db); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return db
}

func newBunStore(t *testing.T) store.ContentStore {
	t.Helper()

	svc, err := repocache.NewCacheService(repocache.DefaultConfig())
	if err != nil {
		t.Fatalf("cache service: %v", err)
	}
	return store.NewBunStoreWithCache(newSQLiteDB(t), svc, repocache.NewDefaultKeySerializer())
}

func storeImplementations(t *testing.T) map[string]store.ContentStore {
	return map[string]store.ContentStore{
		"memory": store.NewMemoryStore(),
		"bun":    newBunStore(t),
	}
}

func samplePage(slug string) *content.PageBundle {
	return &content.PageBundle{
		Meta: content.PageMeta{
			Title:      "Welcome",
			Slug:       slug,
			NotionID:   "11111111-2222-3333-4444-555555555555",
			Visibility: "public",
		},
		Blocks: []content.Block{
			{ID: "b1", Type: content.TypeParagraph, Paragraph: &content.TextPayload{
				RichText: []content.RichText{{PlainText: "hello"}},
			}},
		},
		SyncedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestContentStore_PageRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, cs := range storeImplementations(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := cs.GetPage(ctx, "welcome"); !store.IsNotFound(err) {
				t.Fatalf("expected not found, got %v", err)
			}

			bundle := samplePage("welcome")
			if err := cs.PutPage(ctx, bundle); err != nil {
				t.Fatalf("put page: %v", err)
			}

			got, err := cs.GetPage(ctx, "welcome")
			if err != nil {
				t.Fatalf("get page: %v", err)
			}
			if got.Meta.Title != "Welcome" || len(got.Blocks) != 1 {
				t.Fatalf("unexpected bundle: %+v", got)
			}

			// Whole-value replace per key.
			bundle.Meta.Title = "Welcome v2"
			if err := cs.PutPage(ctx, bundle); err != nil {
				t.Fatalf("replace page: %v", err)
			}
			got, err = cs.GetPage(ctx, "welcome")
			if err != nil {
				t.Fatalf("get replaced page: %v", err)
			}
			if got.Meta.Title != "Welcome v2" {
				t.Fatalf("expected replaced title, got %q", got.Meta.Title)
			}

			if err := cs.DeletePage(ctx, "welcome"); err != nil {
				t.Fatalf("delete page: %v", err)
			}
			if _, err := cs.GetPage(ctx, "welcome"); !store.IsNotFound(err) {
				t.Fatalf("expected not found after delete, got %v", err)
			}
			// Deleting an absent slug stays idempotent.
			if err := cs.DeletePage(ctx, "welcome"); err != nil {
				t.Fatalf("delete absent page: %v", err)
			}
		})
	}
}

func TestContentStore_PutPageRequiresSlug(t *testing.T) {
	ctx := context.Background()
	for name, cs := range storeImplementations(t) {
		t.Run(name, func(t *testing.T) {
			err := cs.PutPage(ctx, &content.PageBundle{})
			if !errors.Is(err, content.ErrSlugRequired) {
				t.Fatalf("expected slug required, got %v", err)
			}
		})
	}
}

func TestContentStore_ListPageSlugs(t *testing.T) {
	ctx := context.Background()
	for name, cs := range storeImplementations(t) {
		t.Run(name, func(t *testing.T) {
			for _, slug := range []string{"zeta", "alpha", "mid"} {
				if err := cs.PutPage(ctx, samplePage(slug)); err != nil {
					t.Fatalf("put %s: %v", slug, err)
				}
			}
			// Non-page entries never leak into the listing.
			if err := cs.PutIndex(ctx, store.IndexPosts, &content.Index{}); err != nil {
				t.Fatalf("put index: %v", err)
			}

			slugs, err := cs.ListPageSlugs(ctx)
			if err != nil {
				t.Fatalf("list slugs: %v", err)
			}
			want := []string{"alpha", "mid", "zeta"}
			if !reflect.DeepEqual(slugs, want) {
				t.Fatalf("expected %v, got %v", want, slugs)
			}
		})
	}
}

func TestContentStore_DbViews(t *testing.T) {
	ctx := context.Background()
	for name, cs := range storeImplementations(t) {
		t.Run(name, func(t *testing.T) {
			entry := &store.DbCacheEntry{
				DatabaseID: "db-1",
				Bundle: content.DbBundle{
					Name:       "Posts",
					HasMore:    true,
					NextCursor: "c2",
					Items:      []content.DbItem{{Title: "Post one", Slug: "post-one"}},
				},
				SyncedAt: time.Now().UTC(),
			}
			if err := cs.PutDb(ctx, entry); err != nil {
				t.Fatalf("put db view: %v", err)
			}

			// An empty cursor and the sentinel cursor address the same view.
			got, err := cs.GetDb(ctx, "db-1", "")
			if err != nil {
				t.Fatalf("get db view: %v", err)
			}
			if got.Bundle.NextCursor != "c2" || len(got.Bundle.Items) != 1 {
				t.Fatalf("unexpected view: %+v", got.Bundle)
			}
			if _, err := cs.GetDb(ctx, "db-1", store.FirstPageCursor); err != nil {
				t.Fatalf("get db view by sentinel cursor: %v", err)
			}

			if _, err := cs.GetDb(ctx, "db-1", "c2"); !store.IsNotFound(err) {
				t.Fatalf("expected not found for unsynced cursor, got %v", err)
			}
		})
	}
}

func TestContentStore_IndexesCohortsAndLastRun(t *testing.T) {
	ctx := context.Background()
	for name, cs := range storeImplementations(t) {
		t.Run(name, func(t *testing.T) {
			for _, kind := range store.Kinds() {
				if _, err := cs.GetIndex(ctx, kind); !store.IsNotFound(err) {
					t.Fatalf("%s: expected not found, got %v", kind, err)
				}
			}
			index := &content.Index{
				Items:    []content.Summary{{Title: "Post", Slug: "post"}},
				SyncedAt: time.Now().UTC(),
			}
			if err := cs.PutIndex(ctx, store.IndexPosts, index); err != nil {
				t.Fatalf("put index: %v", err)
			}
			got, err := cs.GetIndex(ctx, store.IndexPosts)
			if err != nil {
				t.Fatalf("get index: %v", err)
			}
			if len(got.Items) != 1 || got.Items[0].Slug != "post" {
				t.Fatalf("unexpected index: %+v", got)
			}

			cohorts := []content.Cohort{{Slug: "spring-26", Name: "Spring 2026", HubNotionID: "abc", Timezone: "Europe/Madrid"}}
			if err := cs.PutCohorts(ctx, cohorts); err != nil {
				t.Fatalf("put cohorts: %v", err)
			}
			gotCohorts, err := cs.GetCohorts(ctx)
			if err != nil {
				t.Fatalf("get cohorts: %v", err)
			}
			if len(gotCohorts) != 1 || gotCohorts[0].Slug != "spring-26" {
				t.Fatalf("unexpected cohorts: %+v", gotCohorts)
			}

			report := &content.SyncReport{
				StartedAt: time.Now().UTC(),
				Synced:    []string{"a", "b", "c"},
			}
			if err := cs.PutLastRun(ctx, report); err != nil {
				t.Fatalf("put last run: %v", err)
			}
			gotReport, err := cs.GetLastRun(ctx)
			if err != nil {
				t.Fatalf("get last run: %v", err)
			}
			if len(gotReport.Synced) != 3 {
				t.Fatalf("unexpected report: %+v", gotReport)
			}
		})
	}
}

func TestKeyLayout(t *testing.T) {
	if got := store.PageKey("welcome"); got != "page:welcome" {
		t.Fatalf("page key: %q", got)
	}
	if got := store.DbKey("db-1", ""); got != "db:db-1:cursor:_" {
		t.Fatalf("db key: %q", got)
	}
	if got := store.DbKey("db-1", "c2"); got != "db:db-1:cursor:c2" {
		t.Fatalf("db key with cursor: %q", got)
	}
	if got := store.IndexKey(store.IndexHubs); got != "hubs:index" {
		t.Fatalf("index key: %q", got)
	}
	slug, ok := store.SlugFromPageKey("page:welcome")
	if !ok || slug != "welcome" {
		t.Fatalf("slug from key: %q %v", slug, ok)
	}
	if _, ok := store.SlugFromPageKey("posts:index"); ok {
		t.Fatal("expected non-page key to be rejected")
	}
}
