package httpapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/webizupfr/notion-mirror/internal/cohorts"
	synccmd "github.com/webizupfr/notion-mirror/internal/commands/sync"
	"github.com/webizupfr/notion-mirror/internal/content"
	"github.com/webizupfr/notion-mirror/internal/httpapi"
	"github.com/webizupfr/notion-mirror/internal/jobs"
	"github.com/webizupfr/notion-mirror/internal/scheduler"
	"github.com/webizupfr/notion-mirror/internal/store"
	"github.com/webizupfr/notion-mirror/pkg/interfaces"
)

type recordingOrchestrator struct {
	fullRuns int
	pageRuns []string
}

func (r *recordingOrchestrator) RunFullSync(context.Context, bool) (*content.SyncReport, error) {
	r.fullRuns++
	return &content.SyncReport{}, nil
}

func (r *recordingOrchestrator) RunSync(_ context.Context, slug string) (*content.PageBundle, error) {
	r.pageRuns = append(r.pageRuns, slug)
	return &content.PageBundle{}, nil
}

type testAPI struct {
	api   *httpapi.API
	store *store.MemoryStore
	sched interfaces.Scheduler
	orch  *recordingOrchestrator
}

func newTestAPI(t *testing.T, secret string) *testAPI {
	t.Helper()

	cs := store.NewMemoryStore()
	sched := scheduler.NewInMemory()
	orch := &recordingOrchestrator{}
	worker := jobs.NewWorker(
		sched,
		synccmd.NewFullSyncHandler(orch, nil),
		synccmd.NewPageSyncHandler(orch, nil),
	)
	api := httpapi.New(cs, sched, worker, cohorts.NewService(cs), secret)
	return &testAPI{api: api, store: cs, sched: sched, orch: orch}
}

func (ta *testAPI) request(t *testing.T, method, target string) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	ta.api.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func seedBundle(t *testing.T, cs *store.MemoryStore) {
	t.Helper()

	err := cs.PutPage(context.Background(), &content.PageBundle{
		Meta: content.PageMeta{Title: "Welcome", Slug: "welcome", NotionID: "p1"},
		Blocks: []content.Block{
			{ID: "b1", Type: content.TypeParagraph, Paragraph: &content.TextPayload{RichText: []content.RichText{{PlainText: "hi"}}}},
			{ID: "d1", Type: content.TypeDivider},
			{ID: "b2", Type: content.TypeCode, Code: &content.CodePayload{RichText: []content.RichText{
				{PlainText: "widget: checklist"},
				{PlainText: "config:"},
				{PlainText: "  items:"},
				{PlainText: "    - warm up"},
			}}},
		},
		SyncedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed bundle: %v", err)
	}
}

func TestDebugBundle(t *testing.T) {
	ta := newTestAPI(t, "s3cret")
	seedBundle(t, ta.store)

	rec := ta.request(t, http.MethodGet, "/debug/bundle?slug=welcome&secret=s3cret")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	shape := body["shape"].(map[string]any)
	if shape["block_count"].(float64) != 3 {
		t.Fatalf("unexpected block count: %v", shape)
	}
	if shape["section_count"].(float64) != 2 {
		t.Fatalf("unexpected section count: %v", shape)
	}
	if shape["has_widget"] != true {
		t.Fatalf("expected widget flag: %v", shape)
	}
}

func TestDebugBundle_NotFound(t *testing.T) {
	ta := newTestAPI(t, "s3cret")

	rec := ta.request(t, http.MethodGet, "/debug/bundle?slug=nope&secret=s3cret")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "not_found" {
		t.Fatalf("expected machine-readable code, got %v", body)
	}
}

func TestDebugBundle_RequiresSlug(t *testing.T) {
	ta := newTestAPI(t, "s3cret")

	rec := ta.request(t, http.MethodGet, "/debug/bundle?secret=s3cret")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestDebugKeys(t *testing.T) {
	ta := newTestAPI(t, "s3cret")
	seedBundle(t, ta.store)

	rec := ta.request(t, http.MethodGet, "/debug/keys?secret=s3cret")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["count"].(float64) != 1 {
		t.Fatalf("unexpected key count: %v", body)
	}
}

func TestDebug_SecretGating(t *testing.T) {
	ta := newTestAPI(t, "s3cret")

	for _, target := range []string{"/debug/bundle?slug=welcome", "/debug/keys", "/debug/last-run"} {
		if rec := ta.request(t, http.MethodGet, target); rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", target, rec.Code)
		}
	}
}

func TestSync_SecretGating(t *testing.T) {
	ta := newTestAPI(t, "s3cret")

	rec := ta.request(t, http.MethodPost, "/sync?secret=wrong")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	// Rejection happens before any side effect.
	due, err := ta.sched.ListDue(context.Background(), time.Now().Add(time.Hour), 0)
	if err != nil {
		t.Fatalf("list due: %v", err)
	}
	if len(due) != 0 {
		t.Fatalf("expected no enqueued jobs, got %d", len(due))
	}
}

func TestSync_MissingSecretIsConfigError(t *testing.T) {
	ta := newTestAPI(t, "")

	rec := ta.request(t, http.MethodPost, "/sync?secret=anything")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "config_error" {
		t.Fatalf("expected config error, got %v", body)
	}
}

func TestSync_EnqueuesJob(t *testing.T) {
	ta := newTestAPI(t, "s3cret")

	rec := ta.request(t, http.MethodPost, "/sync?secret=s3cret&force=true")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}

	job, err := ta.sched.GetByKey(context.Background(), scheduler.FullSyncJobKey())
	if err != nil {
		t.Fatalf("expected enqueued job: %v", err)
	}
	if job.Payload["force"] != true {
		t.Fatalf("expected force payload, got %v", job.Payload)
	}
}

func TestSyncPage_EnqueuesScopedJob(t *testing.T) {
	ta := newTestAPI(t, "s3cret")

	rec := ta.request(t, http.MethodPost, "/sync/page?secret=s3cret&slug=welcome")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}

	job, err := ta.sched.GetByKey(context.Background(), scheduler.PageSyncJobKey("welcome"))
	if err != nil {
		t.Fatalf("expected enqueued job: %v", err)
	}
	if job.Payload["slug"] != "welcome" {
		t.Fatalf("unexpected payload: %v", job.Payload)
	}
}

func TestSyncPage_RequiresSlug(t *testing.T) {
	ta := newTestAPI(t, "s3cret")

	rec := ta.request(t, http.MethodPost, "/sync/page?secret=s3cret")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestJobsProcess_DrainsQueue(t *testing.T) {
	ta := newTestAPI(t, "s3cret")

	if rec := ta.request(t, http.MethodPost, "/sync?secret=s3cret"); rec.Code != http.StatusAccepted {
		t.Fatalf("enqueue failed: %d", rec.Code)
	}

	rec := ta.request(t, http.MethodPost, "/jobs/process?secret=s3cret")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["processed"].(float64) != 1 {
		t.Fatalf("unexpected result: %v", body)
	}
	if ta.orch.fullRuns != 1 {
		t.Fatalf("expected orchestrator run, got %d", ta.orch.fullRuns)
	}
}

func TestCohortOverlay(t *testing.T) {
	ta := newTestAPI(t, "s3cret")
	ctx := context.Background()

	err := ta.store.PutPage(ctx, &content.PageBundle{
		Meta: content.PageMeta{
			Title:    "AI Sprint",
			Slug:     "ai-sprint",
			NotionID: "hub-1",
			LearningPath: &content.LearningPath{Days: []content.LearningDay{
				{Title: "Kickoff", Slug: "day-0", DayOffset: 0},
			}},
		},
	})
	if err != nil {
		t.Fatalf("seed hub: %v", err)
	}
	err = ta.store.PutCohorts(ctx, []content.Cohort{{
		Slug:        "spring-26",
		Name:        "Spring 2026",
		HubNotionID: "hub-1",
		Timezone:    "UTC",
		StartDate:   time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
	}})
	if err != nil {
		t.Fatalf("seed cohorts: %v", err)
	}

	rec := ta.request(t, http.MethodGet, "/hubs/ai-sprint/cohorts/spring-26")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["cohort"] != "spring-26" {
		t.Fatalf("unexpected overlay: %v", body)
	}
}

func TestCohortOverlay_HubMismatchIsBadRequest(t *testing.T) {
	ta := newTestAPI(t, "s3cret")
	ctx := context.Background()

	err := ta.store.PutPage(ctx, &content.PageBundle{
		Meta: content.PageMeta{Title: "AI Sprint", Slug: "ai-sprint", NotionID: "hub-1"},
	})
	if err != nil {
		t.Fatalf("seed hub: %v", err)
	}
	err = ta.store.PutCohorts(ctx, []content.Cohort{{
		Slug:        "spring-26",
		HubNotionID: "other-hub",
		Timezone:    "UTC",
	}})
	if err != nil {
		t.Fatalf("seed cohorts: %v", err)
	}

	rec := ta.request(t, http.MethodGet, "/hubs/ai-sprint/cohorts/spring-26")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestDebugLastRun(t *testing.T) {
	ta := newTestAPI(t, "s3cret")

	rec := ta.request(t, http.MethodGet, "/debug/last-run?secret=s3cret")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before first sync, got %d", rec.Code)
	}

	err := ta.store.PutLastRun(context.Background(), &content.SyncReport{
		StartedAt: time.Now().UTC(),
		Synced:    []string{"welcome"},
	})
	if err != nil {
		t.Fatalf("seed report: %v", err)
	}

	rec = ta.request(t, http.MethodGet, "/debug/last-run?secret=s3cret")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
