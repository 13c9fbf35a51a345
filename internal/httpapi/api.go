// Package httpapi exposes the mirror's sync triggers, worker endpoint and
// debug surfaces over HTTP.
package httpapi

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/webizupfr/notion-mirror/internal/cohorts"
	"github.com/webizupfr/notion-mirror/internal/jobs"
	"github.com/webizupfr/notion-mirror/internal/logging"
	"github.com/webizupfr/notion-mirror/internal/sections"
	"github.com/webizupfr/notion-mirror/internal/store"
	"github.com/webizupfr/notion-mirror/internal/widgets"
	"github.com/webizupfr/notion-mirror/pkg/interfaces"
)

// API serves the mirror HTTP surface.
type API struct {
	store     store.ContentStore
	scheduler interfaces.Scheduler
	worker    *jobs.Worker
	cohorts   *cohorts.Service
	secret    string
	logger    interfaces.Logger
}

// Option configures the API.
type Option func(*API)

// WithLogger sets the request logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(a *API) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New creates the API. The secret gates every mutating endpoint.
func New(cs store.ContentStore, sched interfaces.Scheduler, worker *jobs.Worker, cohortSvc *cohorts.Service, secret string, opts ...Option) *API {
	a := &API{
		store:     cs,
		scheduler: sched,
		worker:    worker,
		cohorts:   cohortSvc,
		secret:    secret,
		logger:    logging.NoOp(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Register mounts every route on the mux.
func (a *API) Register(mux *http.ServeMux) {
	if mux == nil {
		return
	}
	mux.HandleFunc("GET /debug/bundle", a.handleDebugBundle)
	mux.HandleFunc("GET /debug/keys", a.handleDebugKeys)
	mux.HandleFunc("GET /debug/last-run", a.handleDebugLastRun)
	mux.HandleFunc("POST /sync", a.handleSync)
	mux.HandleFunc("POST /sync/page", a.handleSyncPage)
	mux.HandleFunc("POST /jobs/process", a.handleJobsProcess)
	mux.HandleFunc("GET /hubs/{slug}/cohorts/{cohort}", a.handleCohortOverlay)
}

// Handler returns a mux with every route registered.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	a.Register(mux)
	return mux
}

// requireSecret authorizes a mutating request. A missing server secret is a
// configuration error, not an auth failure; it must never fall open. The
// check runs before any side effect.
func (a *API) requireSecret(w http.ResponseWriter, r *http.Request) bool {
	if strings.TrimSpace(a.secret) == "" {
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   "config_error",
			Message: "sync secret is not configured",
		})
		return false
	}
	supplied := r.URL.Query().Get("secret")
	if subtle.ConstantTimeCompare([]byte(supplied), []byte(a.secret)) != 1 {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return false
	}
	return true
}

type bundleShape struct {
	BlockCount   int  `json:"block_count"`
	SectionCount int  `json:"section_count"`
	HasWidget    bool `json:"has_widget"`
}

func (a *API) handleDebugBundle(w http.ResponseWriter, r *http.Request) {
	if !a.requireSecret(w, r) {
		return
	}
	slug := strings.TrimSpace(r.URL.Query().Get("slug"))
	if slug == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "slug query parameter is required"})
		return
	}
	bundle, err := a.store.GetPage(r.Context(), slug)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"bundle": bundle,
		"shape": bundleShape{
			BlockCount:   len(bundle.Blocks),
			SectionCount: len(sections.Split(bundle.Blocks)),
			HasWidget:    widgets.Detect(bundle.Blocks),
		},
	})
}

type keySummary struct {
	Slug       string `json:"slug"`
	Title      string `json:"title"`
	BlockCount int    `json:"block_count"`
	SyncedAt   string `json:"synced_at"`
}

func (a *API) handleDebugKeys(w http.ResponseWriter, r *http.Request) {
	if !a.requireSecret(w, r) {
		return
	}
	slugs, err := a.store.ListPageSlugs(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	keys := make([]keySummary, 0, len(slugs))
	for _, slug := range slugs {
		bundle, err := a.store.GetPage(r.Context(), slug)
		if err != nil {
			continue
		}
		keys = append(keys, keySummary{
			Slug:       slug,
			Title:      bundle.Meta.Title,
			BlockCount: len(bundle.Blocks),
			SyncedAt:   bundle.SyncedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"keys": keys, "count": len(keys)})
}

func (a *API) handleDebugLastRun(w http.ResponseWriter, r *http.Request) {
	if !a.requireSecret(w, r) {
		return
	}
	report, err := a.store.GetLastRun(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *API) handleSync(w http.ResponseWriter, r *http.Request) {
	if !a.requireSecret(w, r) {
		return
	}
	force := parseBoolQuery(r.URL.Query().Get("force"), false)
	job, err := jobs.EnqueueFullSync(r.Context(), a.scheduler, force)
	if err != nil {
		writeError(w, err)
		return
	}
	a.logger.Info("full sync enqueued", "job", job.ID, "force", force)
	writeJSON(w, http.StatusAccepted, map[string]any{"job_id": job.ID, "status": string(job.Status)})
}

func (a *API) handleSyncPage(w http.ResponseWriter, r *http.Request) {
	if !a.requireSecret(w, r) {
		return
	}
	slug := strings.TrimSpace(r.URL.Query().Get("slug"))
	if slug == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "slug query parameter is required"})
		return
	}
	job, err := jobs.EnqueuePageSync(r.Context(), a.scheduler, slug)
	if err != nil {
		writeError(w, err)
		return
	}
	a.logger.Info("page sync enqueued", "job", job.ID, "slug", slug)
	writeJSON(w, http.StatusAccepted, map[string]any{"job_id": job.ID, "status": string(job.Status)})
}

func (a *API) handleJobsProcess(w http.ResponseWriter, r *http.Request) {
	if !a.requireSecret(w, r) {
		return
	}
	result, err := a.worker.ProcessDue(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *API) handleCohortOverlay(w http.ResponseWriter, r *http.Request) {
	if a.cohorts == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable", Message: "cohort overlays are disabled"})
		return
	}
	overlay, err := a.cohorts.Resolve(r.Context(), r.PathValue("slug"), r.PathValue("cohort"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overlay)
}
