// Package sync drives full and slug-scoped synchronization runs against the
// upstream document source, writing normalized bundles, database views and
// index documents to the content store.
package sync

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/webizupfr/notion-mirror/internal/content"
	"github.com/webizupfr/notion-mirror/internal/logging"
	"github.com/webizupfr/notion-mirror/internal/notion"
	"github.com/webizupfr/notion-mirror/internal/runtimeconfig"
	"github.com/webizupfr/notion-mirror/internal/store"
	"github.com/webizupfr/notion-mirror/pkg/interfaces"
)

// ErrSlugRequired rejects scoped syncs without a slug.
var ErrSlugRequired = errors.New("sync: slug is required")

// Orchestrator mirrors upstream content into the cache. A full run enumerates
// every configured database; a scoped run refreshes a single slug without
// touching anything else on failure.
type Orchestrator interface {
	RunFullSync(ctx context.Context, force bool) (*content.SyncReport, error)
	RunSync(ctx context.Context, slug string) (*content.PageBundle, error)
}

type service struct {
	client    notion.Client
	store     store.ContentStore
	logger    interfaces.Logger
	now       func() time.Time
	runID     func() string
	pageSize  int
	maxDepth  int
	databases map[store.IndexKind]string
	cohortsDB string
	sizer     interfaces.ImageSizer
}

// Option configures the orchestrator.
type Option func(*service)

// WithLogger sets the run logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the SyncedAt clock.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRunIDGenerator overrides run id generation.
func WithRunIDGenerator(gen func() string) Option {
	return func(s *service) {
		if gen != nil {
			s.runID = gen
		}
	}
}

// WithImageSizer enables intrinsic-dimension probing for image blocks. A nil
// sizer leaves image payloads untouched.
func WithImageSizer(sizer interfaces.ImageSizer) Option {
	return func(s *service) {
		s.sizer = sizer
	}
}

// New creates a sync orchestrator over the configured source databases.
func New(client notion.Client, cs store.ContentStore, cfg runtimeconfig.Config, opts ...Option) Orchestrator {
	s := &service{
		client:   client,
		store:    cs,
		logger:   logging.NoOp(),
		now:      time.Now,
		runID:    func() string { return uuid.NewString() },
		pageSize: cfg.Source.PageSize,
		maxDepth: cfg.Sync.MaxBlockDepth,
		databases: map[store.IndexKind]string{
			store.IndexPosts:     cfg.Source.PagesDatabaseID,
			store.IndexHubs:      cfg.Source.HubsDatabaseID,
			store.IndexSprints:   cfg.Source.SprintsDatabaseID,
			store.IndexWorkshops: cfg.Source.WorkshopsDatabaseID,
		},
		cohortsDB: cfg.Source.CohortsDatabaseID,
	}
	if s.pageSize <= 0 {
		s.pageSize = 100
	}
	if s.maxDepth <= 0 {
		s.maxDepth = 16
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// run carries the per-invocation state shared across database passes.
type run struct {
	report *content.SyncReport
	force  bool
	// seen maps slug to the upstream page id that claimed it first.
	seen map[string]string
	log  interfaces.Logger
}

func (s *service) RunFullSync(ctx context.Context, force bool) (*content.SyncReport, error) {
	started := s.now().UTC()
	r := &run{
		report: &content.SyncReport{
			StartedAt:   started,
			Failed:      map[string]string{},
			IndexCounts: map[string]int{},
		},
		force: force,
		seen:  map[string]string{},
		log:   logging.WithSyncContext(s.logger, "", s.runID(), "full-sync"),
	}
	r.log.Info("full sync started", "force", force)

	for _, kind := range store.Kinds() {
		databaseID := s.databases[kind]
		if databaseID == "" {
			continue
		}
		s.syncDatabase(ctx, r, kind, databaseID)
	}
	if s.cohortsDB != "" {
		s.syncCohorts(ctx, r)
	}

	r.report.Duration = s.now().UTC().Sub(started)
	if err := s.store.PutLastRun(ctx, r.report); err != nil {
		r.log.Error("persist sync report", "error", err)
	}
	r.log.Info("full sync finished",
		"synced", len(r.report.Synced),
		"failed", len(r.report.Failed),
		"conflicts", len(r.report.Conflicts),
		"duration", r.report.Duration.String(),
	)
	return r.report, nil
}

func (s *service) RunSync(ctx context.Context, slug string) (*content.PageBundle, error) {
	normalized, err := content.NormalizeSlug(slug)
	if err != nil || normalized == "" {
		return nil, ErrSlugRequired
	}
	log := logging.WithSyncContext(s.logger, normalized, s.runID(), "page-sync")

	page, err := s.findPageBySlug(ctx, normalized)
	if err != nil {
		log.Warn("upstream lookup failed, cache left untouched", "error", err)
		return nil, nil
	}
	if page == nil {
		log.Info("slug has no upstream page, cache left untouched")
		return nil, nil
	}
	meta, err := content.NormalizePage(page)
	if err != nil {
		log.Warn("page rejected by normalization, cache left untouched", "error", err)
		return nil, nil
	}

	r := &run{
		report: &content.SyncReport{StartedAt: s.now().UTC(), Failed: map[string]string{}},
		force:  true,
		seen:   map[string]string{},
		log:    log,
	}
	bundle, err := s.syncPage(ctx, r, page, meta)
	if err != nil {
		log.Warn("page sync failed, cache left untouched", "error", err)
		return nil, nil
	}

	// A scoped refresh keeps the owning index honest: the new summary is
	// folded in and items whose bundles disappeared are dropped.
	if err := s.refreshIndex(ctx, store.IndexPosts, bundle.Meta); err != nil {
		log.Warn("index refresh failed", "error", err)
	}
	log.Info("page synced", "blocks", len(bundle.Blocks))
	return bundle, nil
}

// findPageBySlug queries the pages database filtered on the slug property.
func (s *service) findPageBySlug(ctx context.Context, slug string) (*notion.Page, error) {
	databaseID := s.databases[store.IndexPosts]
	if databaseID == "" {
		return nil, fmt.Errorf("sync: pages database is not configured")
	}
	req := notion.QueryDatabaseRequest{
		Filter: map[string]any{
			"property":  "slug",
			"rich_text": map[string]any{"equals": slug},
		},
		PageSize: 1,
	}
	resp, err := s.client.QueryDatabase(ctx, databaseID, req)
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}
	return &resp.Results[0], nil
}

func (s *service) syncDatabase(ctx context.Context, r *run, kind store.IndexKind, databaseID string) {
	pages, err := s.queryAll(ctx, databaseID)
	if err != nil {
		r.report.Failed[string(kind)] = err.Error()
		r.log.Error("database enumeration failed", "kind", string(kind), "error", err)
		return
	}

	summaries := make([]content.Summary, 0, len(pages))
	for i := range pages {
		page := &pages[i]
		meta, err := content.NormalizePage(page)
		if err != nil {
			if errors.Is(err, content.ErrPageArchived) {
				continue
			}
			r.report.Failed[page.ID] = err.Error()
			continue
		}
		if owner, taken := r.seen[meta.Slug]; taken {
			if owner != page.ID {
				r.report.Conflicts = append(r.report.Conflicts, meta.Slug)
				r.log.Warn("slug conflict, first writer wins", "slug", meta.Slug)
			}
			continue
		}
		r.seen[meta.Slug] = page.ID

		bundle, err := s.syncPage(ctx, r, page, meta)
		if err != nil {
			r.report.Failed[meta.Slug] = err.Error()
			r.log.Warn("page sync failed", "slug", meta.Slug, "error", err)
			continue
		}
		r.report.Synced = append(r.report.Synced, meta.Slug)
		summaries = append(summaries, content.Summarize(bundle.Meta))
	}

	index := &content.Index{Items: summaries, SyncedAt: s.now().UTC()}
	if err := s.store.PutIndex(ctx, kind, index); err != nil {
		r.report.Failed[store.IndexKey(kind)] = err.Error()
		r.log.Error("index write failed", "kind", string(kind), "error", err)
		return
	}
	r.report.IndexCounts[string(kind)] = len(summaries)
}

// syncPage fetches the page's full block tree and commits it as one bundle
// write. Without force, an unchanged page short-circuits on LastEdited.
func (s *service) syncPage(ctx context.Context, r *run, page *notion.Page, meta content.PageMeta) (*content.PageBundle, error) {
	if !r.force {
		existing, err := s.store.GetPage(ctx, meta.Slug)
		if err == nil && existing.Meta.NotionID == page.ID && !existing.Meta.LastEdited.Before(meta.LastEdited) {
			return existing, nil
		}
	}

	blocks, err := s.fetchBlocks(ctx, r, page.ID, 0)
	if err != nil {
		return nil, err
	}
	s.resolveDatabases(ctx, r, blocks)
	s.annotateImageSizes(ctx, r, blocks)
	meta.ChildPages = s.childPages(ctx, r, blocks)
	meta.LearningPath = learningPath(meta.ChildPages)

	bundle := &content.PageBundle{
		Meta:     meta,
		Blocks:   blocks,
		SyncedAt: s.now().UTC(),
	}
	if err := s.store.PutPage(ctx, bundle); err != nil {
		return nil, err
	}
	return bundle, nil
}

// fetchBlocks lists a block's children across pagination and splices each
// child subtree directly after its parent, keeping the bundle's block list
// flat. A failed subtree fetch marks the parent childless and keeps the
// already-fetched siblings intact.
func (s *service) fetchBlocks(ctx context.Context, r *run, blockID string, depth int) ([]content.Block, error) {
	if depth >= s.maxDepth {
		return nil, nil
	}

	var raw []notion.Block
	cursor := ""
	for {
		resp, err := s.client.ListBlockChildren(ctx, blockID, cursor, s.pageSize)
		if err != nil {
			return nil, fmt.Errorf("sync: list children of %s: %w", blockID, err)
		}
		raw = append(raw, resp.Results...)
		if !resp.HasMore || resp.NextCursor == nil || *resp.NextCursor == "" {
			break
		}
		cursor = *resp.NextCursor
	}

	blocks := content.NormalizeBlocks(raw)
	out := make([]content.Block, 0, len(blocks))
	for _, block := range blocks {
		// Child pages are separate documents, not part of this tree.
		if !block.HasChildren || block.Type == content.TypeChildPage {
			out = append(out, block)
			continue
		}
		children, err := s.fetchBlocks(ctx, r, block.ID, depth+1)
		if err != nil {
			block.HasChildren = false
			out = append(out, block)
			r.log.Warn("child fetch failed, keeping siblings", "block", block.ID, "error", err)
			continue
		}
		out = append(out, block)
		out = append(out, children...)
	}
	return out, nil
}

// resolveDatabases fills in database ids for inline databases and caches the
// first-page view of every database the block tree references. Resolution is
// best effort; a failure leaves the block tagged but unresolved.
func (s *service) resolveDatabases(ctx context.Context, r *run, blocks []content.Block) {
	for i := range blocks {
		block := &blocks[i]
		switch {
		case block.Type == content.TypeChildDatabase && block.ChildDatabase != nil:
			id, name := s.resolveChildDatabase(ctx, r, block.ID, block.ChildDatabase.Title)
			if id == "" {
				continue
			}
			block.ChildDatabase.DatabaseID = id
			s.syncDbView(ctx, r, id, name, content.DbViewInline)
		case block.Type == content.TypeLinkToPage && block.LinkToPage != nil && block.LinkToPage.DatabaseID != "":
			s.syncDbView(ctx, r, block.LinkToPage.DatabaseID, "", content.DbViewLinked)
		}
	}
}

// annotateImageSizes probes intrinsic dimensions for image blocks when a
// sizer capability is configured. Probing is best effort; a failed probe
// leaves the payload without dimensions.
func (s *service) annotateImageSizes(ctx context.Context, r *run, blocks []content.Block) {
	if s.sizer == nil {
		return
	}
	for i := range blocks {
		block := &blocks[i]
		if block.Type != content.TypeImage || block.Image == nil || block.Image.URL == "" {
			continue
		}
		width, height, err := s.sizer.Size(ctx, block.Image.URL)
		if err != nil {
			r.log.Debug("image size probe failed", "block", block.ID, "error", err)
			continue
		}
		block.Image.Width = width
		block.Image.Height = height
	}
}

// resolveChildDatabase tries the block id directly first (inline databases
// share their block's id), then falls back to a title search.
func (s *service) resolveChildDatabase(ctx context.Context, r *run, blockID, title string) (string, string) {
	if db, err := s.client.RetrieveDatabase(ctx, blockID); err == nil {
		return db.ID, databaseName(db.Title)
	}
	if title == "" {
		return "", ""
	}
	resp, err := s.client.Search(ctx, title, "database", "", s.pageSize)
	if err != nil {
		r.log.Warn("database search failed", "title", title, "error", err)
		return "", ""
	}
	for _, hit := range resp.Results {
		if hit.Object == "database" {
			return hit.ID, databaseName(hit.Title)
		}
	}
	return "", ""
}

func (s *service) syncDbView(ctx context.Context, r *run, databaseID, name, view string) {
	resp, err := s.client.QueryDatabase(ctx, databaseID, notion.QueryDatabaseRequest{PageSize: s.pageSize})
	if err != nil {
		r.log.Warn("database view sync failed", "database", databaseID, "error", err)
		return
	}
	items := make([]content.DbItem, 0, len(resp.Results))
	for i := range resp.Results {
		if resp.Results[i].Archived {
			continue
		}
		items = append(items, content.NormalizeDbItem(&resp.Results[i]))
	}
	entry := &store.DbCacheEntry{
		DatabaseID: databaseID,
		Cursor:     "",
		Bundle: content.DbBundle{
			Items:      items,
			View:       view,
			HasMore:    resp.HasMore,
			NextCursor: cursorString(resp.NextCursor),
			Name:       name,
		},
		SyncedAt: s.now().UTC(),
	}
	if err := s.store.PutDb(ctx, entry); err != nil {
		r.log.Warn("database view write failed", "database", databaseID, "error", err)
	}
}

// childPages resolves child_page blocks into refs, keeping only pages that
// still exist and are not archived at sync time.
func (s *service) childPages(ctx context.Context, r *run, blocks []content.Block) []content.ChildPageRef {
	var refs []content.ChildPageRef
	for _, block := range blocks {
		if block.Type != content.TypeChildPage || block.ChildPage == nil {
			continue
		}
		page, err := s.client.RetrievePage(ctx, block.ID)
		if err != nil {
			if notion.IsNotFound(err) {
				continue
			}
			r.log.Warn("child page lookup failed", "block", block.ID, "error", err)
			continue
		}
		meta, err := content.NormalizePage(page)
		if err != nil {
			continue
		}
		refs = append(refs, content.ChildPageRef{Title: meta.Title, Slug: meta.Slug})
	}
	return refs
}

func (s *service) syncCohorts(ctx context.Context, r *run) {
	pages, err := s.queryAll(ctx, s.cohortsDB)
	if err != nil {
		r.report.Failed["cohorts"] = err.Error()
		r.log.Error("cohorts enumeration failed", "error", err)
		return
	}
	cohorts := make([]content.Cohort, 0, len(pages))
	for i := range pages {
		cohort, err := content.NormalizeCohort(&pages[i])
		if err != nil {
			continue
		}
		cohorts = append(cohorts, cohort)
	}
	if err := s.store.PutCohorts(ctx, cohorts); err != nil {
		r.report.Failed["cohorts"] = err.Error()
		r.log.Error("cohorts write failed", "error", err)
		return
	}
	r.report.IndexCounts["cohorts"] = len(cohorts)
}

// queryAll drains a database query across pagination. Cursor values are
// opaque and may change length between calls.
func (s *service) queryAll(ctx context.Context, databaseID string) ([]notion.Page, error) {
	var pages []notion.Page
	cursor := ""
	for {
		req := notion.QueryDatabaseRequest{StartCursor: cursor, PageSize: s.pageSize}
		resp, err := s.client.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("sync: query database %s: %w", databaseID, err)
		}
		pages = append(pages, resp.Results...)
		if !resp.HasMore || resp.NextCursor == nil || *resp.NextCursor == "" {
			break
		}
		cursor = *resp.NextCursor
	}
	return pages, nil
}

// refreshIndex folds the freshly synced page into an index document and drops
// items whose bundles no longer exist in the store.
func (s *service) refreshIndex(ctx context.Context, kind store.IndexKind, meta content.PageMeta) error {
	index, err := s.store.GetIndex(ctx, kind)
	if err != nil {
		if !store.IsNotFound(err) {
			return err
		}
		index = &content.Index{}
	}

	items := make([]content.Summary, 0, len(index.Items)+1)
	replaced := false
	for _, item := range index.Items {
		if item.Slug == meta.Slug {
			items = append(items, content.Summarize(meta))
			replaced = true
			continue
		}
		if _, err := s.store.GetPage(ctx, item.Slug); err != nil {
			continue
		}
		items = append(items, item)
	}
	if !replaced {
		items = append(items, content.Summarize(meta))
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Slug < items[j].Slug })

	return s.store.PutIndex(ctx, kind, &content.Index{Items: items, SyncedAt: s.now().UTC()})
}

var dayTitlePattern = regexp.MustCompile(`(?i)^day\s+(\d+)\b`)

// learningPath derives the ordered day sequence from child pages titled
// "Day <n> ...". Pages without the prefix do not participate.
func learningPath(refs []content.ChildPageRef) *content.LearningPath {
	var days []content.LearningDay
	for _, ref := range refs {
		m := dayTitlePattern.FindStringSubmatch(ref.Title)
		if m == nil {
			continue
		}
		offset, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		days = append(days, content.LearningDay{Title: ref.Title, Slug: ref.Slug, DayOffset: offset})
	}
	if len(days) == 0 {
		return nil
	}
	sort.SliceStable(days, func(i, j int) bool { return days[i].DayOffset < days[j].DayOffset })
	return &content.LearningPath{Days: days}
}

func databaseName(title []notion.RichText) string {
	var out string
	for _, run := range title {
		out += run.PlainText
	}
	return out
}

func cursorString(cursor *string) string {
	if cursor == nil {
		return ""
	}
	return *cursor
}
