package mirror

import (
	"github.com/webizupfr/notion-mirror/internal/cohorts"
	"github.com/webizupfr/notion-mirror/internal/content"
	"github.com/webizupfr/notion-mirror/internal/di"
	"github.com/webizupfr/notion-mirror/internal/httpapi"
	"github.com/webizupfr/notion-mirror/internal/jobs"
	"github.com/webizupfr/notion-mirror/internal/sections"
	"github.com/webizupfr/notion-mirror/internal/store"
	"github.com/webizupfr/notion-mirror/internal/sync"
	"github.com/webizupfr/notion-mirror/internal/widgets"
	"github.com/webizupfr/notion-mirror/pkg/interfaces"
)

// SyncOrchestrator exports the sync orchestrator contract for consumers of the
// mirror package.
type SyncOrchestrator = sync.Orchestrator

// ContentStore exports the cached bundle store contract.
type ContentStore = store.ContentStore

// Scheduler exports the job scheduler contract.
type Scheduler = interfaces.Scheduler

// JobWorker exports the worker draining scheduled sync jobs.
type JobWorker = jobs.Worker

// CohortService exports the cohort overlay resolver.
type CohortService = cohorts.Service

// PageBundle exports the cached payload for a single mirrored page.
type PageBundle = content.PageBundle

// PageMeta exports the normalized metadata of a mirrored page.
type PageMeta = content.PageMeta

// Block exports the canonical block representation.
type Block = content.Block

// SyncReport exports the outcome summary of a full synchronization run.
type SyncReport = content.SyncReport

// Section exports a divider-delimited slice of a page's blocks.
type Section = sections.Section

// WidgetDeclaration exports a parsed widget declaration.
type WidgetDeclaration = widgets.Declaration

// SplitSections partitions a flat block sequence at divider blocks.
func SplitSections(blocks []content.Block) []sections.Section {
	return sections.Split(blocks)
}

// DetectWidgets reports whether a block sequence carries a widget declaration
// embedded in a code block.
func DetectWidgets(blocks []content.Block) bool {
	return widgets.Detect(blocks)
}

// ParseWidget extracts the widget declaration from a single code block.
func ParseWidget(block content.Block) (*widgets.Declaration, error) {
	return widgets.Parse(block)
}

// Module represents the top level mirror runtime façade.
type Module struct {
	container *di.Container
}

// New constructs a mirror module using the provided configuration and optional
// DI overrides.
func New(cfg Config, opts ...di.Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Sync returns the configured sync orchestrator.
func (m *Module) Sync() SyncOrchestrator {
	return m.container.Orchestrator()
}

// Store returns the configured content store.
func (m *Module) Store() ContentStore {
	return m.container.ContentStore()
}

// Jobs returns the worker draining scheduled sync jobs.
func (m *Module) Jobs() *jobs.Worker {
	return m.container.Worker()
}

// Scheduler returns the configured job scheduler.
func (m *Module) Scheduler() Scheduler {
	return m.container.Scheduler()
}

// Cohorts returns the cohort overlay resolver, nil when the feature is
// disabled.
func (m *Module) Cohorts() *cohorts.Service {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.CohortService()
}

// API returns the HTTP surface, nil when the server is disabled.
func (m *Module) API() *httpapi.API {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.API()
}
