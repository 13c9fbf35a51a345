package di

import (
	"context"
	"strings"
	"time"

	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"

	"github.com/webizupfr/notion-mirror/internal/cohorts"
	"github.com/webizupfr/notion-mirror/internal/commands"
	synccmd "github.com/webizupfr/notion-mirror/internal/commands/sync"
	"github.com/webizupfr/notion-mirror/internal/httpapi"
	"github.com/webizupfr/notion-mirror/internal/jobs"
	"github.com/webizupfr/notion-mirror/internal/logging"
	"github.com/webizupfr/notion-mirror/internal/logging/gologger"
	"github.com/webizupfr/notion-mirror/internal/notion"
	"github.com/webizupfr/notion-mirror/internal/runtimeconfig"
	"github.com/webizupfr/notion-mirror/internal/scheduler"
	"github.com/webizupfr/notion-mirror/internal/store"
	"github.com/webizupfr/notion-mirror/internal/sync"
	"github.com/webizupfr/notion-mirror/pkg/interfaces"
)

// Container wires module dependencies. Every binding can be overridden with an
// Option before the defaults are finalised.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider

	bunDB         *bun.DB
	cacheTTL      time.Duration
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer

	client       notion.Client
	imageSizer   interfaces.ImageSizer
	contentStore store.ContentStore
	orchestrator sync.Orchestrator
	sched        interfaces.Scheduler
	worker       *jobs.Worker
	cohortSvc    *cohorts.Service
	api          *httpapi.API

	fullSyncHandler *synccmd.FullSyncHandler
	pageSyncHandler *synccmd.PageSyncHandler
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithLoggerProvider overrides the default logging provider.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithClient overrides the upstream source client.
func WithClient(client notion.Client) Option {
	return func(c *Container) {
		c.client = client
	}
}

// WithImageSizer supplies the optional image dimension probing capability.
// The sizer is only consulted when the image sizing feature flag is enabled.
func WithImageSizer(sizer interfaces.ImageSizer) Option {
	return func(c *Container) {
		c.imageSizer = sizer
	}
}

// WithStore overrides the content store binding.
func WithStore(cs store.ContentStore) Option {
	return func(c *Container) {
		c.contentStore = cs
	}
}

// WithBunDB injects an existing database handle instead of opening one from
// the cache DSN.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithCache overrides the read-through cache service and key serializer.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithScheduler overrides the default in-memory scheduler.
func WithScheduler(sched interfaces.Scheduler) Option {
	return func(c *Container) {
		c.sched = sched
	}
}

// WithOrchestrator overrides the default sync orchestrator binding.
func WithOrchestrator(orchestrator sync.Orchestrator) Option {
	return func(c *Container) {
		c.orchestrator = orchestrator
	}
}

// NewContainer creates a container with the provided configuration.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cacheTTL := cfg.Cache.TTL
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}

	c := &Container{
		Config:   cfg,
		cacheTTL: cacheTTL,
	}

	for _, opt := range opts {
		opt(c)
	}

	if err := c.configureLogging(); err != nil {
		return nil, err
	}
	c.configureCacheDefaults()
	if err := c.configureStore(); err != nil {
		return nil, err
	}
	if err := c.configureClient(); err != nil {
		return nil, err
	}

	if c.orchestrator == nil {
		syncOpts := []sync.Option{
			sync.WithLogger(logging.SyncLogger(c.loggerProvider)),
		}
		if c.Config.Features.ImageSizing && c.imageSizer != nil {
			syncOpts = append(syncOpts, sync.WithImageSizer(c.imageSizer))
		}
		c.orchestrator = sync.New(c.client, c.contentStore, c.Config, syncOpts...)
	}

	if c.sched == nil {
		c.sched = scheduler.NewInMemory()
	}

	cmdLogger := commands.CommandLogger(c.loggerProvider, "sync")
	c.fullSyncHandler = synccmd.NewFullSyncHandler(c.orchestrator, cmdLogger)
	c.pageSyncHandler = synccmd.NewPageSyncHandler(c.orchestrator, cmdLogger)

	c.worker = jobs.NewWorker(c.sched, c.fullSyncHandler, c.pageSyncHandler,
		jobs.WithLogger(logging.JobsLogger(c.loggerProvider)))

	if c.Config.Features.Cohorts {
		c.cohortSvc = cohorts.NewService(c.contentStore)
	}

	if c.Config.Server.Enabled {
		c.api = httpapi.New(c.contentStore, c.sched, c.worker, c.cohortSvc,
			c.Config.Server.SyncSecret,
			httpapi.WithLogger(logging.HTTPLogger(c.loggerProvider)))
	}

	return c, nil
}

func (c *Container) configureLogging() error {
	if c.loggerProvider != nil {
		return nil
	}

	switch strings.ToLower(strings.TrimSpace(c.Config.Logging.Provider)) {
	case "gologger":
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     c.Config.Logging.Level,
			Format:    c.Config.Logging.Format,
			AddSource: c.Config.Logging.AddSource,
			Focus:     c.Config.Logging.Focus,
		})
		if err != nil {
			return err
		}
		c.loggerProvider = provider
	}

	return nil
}

func (c *Container) configureCacheDefaults() {
	if !c.Config.Cache.ReadThrough {
		return
	}

	if c.cacheService == nil {
		cfg := repocache.DefaultConfig()
		if c.cacheTTL > 0 {
			cfg.TTL = c.cacheTTL
		}
		service, err := repocache.NewCacheService(cfg)
		if err == nil {
			c.cacheService = service
		}
	}

	if c.cacheService != nil && c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
}

func (c *Container) configureStore() error {
	if c.contentStore != nil {
		return nil
	}

	driver := strings.ToLower(strings.TrimSpace(c.Config.Cache.Driver))
	if driver == "" || driver == "memory" {
		c.contentStore = store.NewMemoryStore()
		return nil
	}

	if c.bunDB == nil {
		db, err := store.OpenDB(driver, c.Config.Cache.DSN)
		if err != nil {
			return err
		}
		c.bunDB = db
	}

	if err := store.EnsureSchema(context.Background(), c.bunDB); err != nil {
		return err
	}

	c.contentStore = store.NewBunStoreWithCache(c.bunDB, c.cacheService, c.keySerializer)
	return nil
}

func (c *Container) configureClient() error {
	if c.client != nil {
		return nil
	}

	clientOpts := []notion.ClientOption{
		notion.WithRetry(4, 500*time.Millisecond),
		notion.WithLogger(logging.SourceLogger(c.loggerProvider)),
	}
	if base := strings.TrimSpace(c.Config.Source.BaseURL); base != "" {
		clientOpts = append(clientOpts, notion.WithBaseURL(base))
	}
	if version := strings.TrimSpace(c.Config.Source.APIVersion); version != "" {
		clientOpts = append(clientOpts, notion.WithAPIVersion(version))
	}

	client, err := notion.NewHTTPClient(c.Config.Source.Token, clientOpts...)
	if err != nil {
		return err
	}
	c.client = client
	return nil
}

// LoggerProvider exposes the configured logging provider.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

// DB exposes the database handle, nil for the memory driver.
func (c *Container) DB() *bun.DB {
	return c.bunDB
}

// Client exposes the upstream source client.
func (c *Container) Client() notion.Client {
	return c.client
}

// ImageSizer exposes the optional image sizing capability, nil when no sizer
// was injected.
func (c *Container) ImageSizer() interfaces.ImageSizer {
	return c.imageSizer
}

// ContentStore exposes the configured content store.
func (c *Container) ContentStore() store.ContentStore {
	return c.contentStore
}

// Orchestrator exposes the sync orchestrator.
func (c *Container) Orchestrator() sync.Orchestrator {
	return c.orchestrator
}

// Scheduler exposes the job scheduler.
func (c *Container) Scheduler() interfaces.Scheduler {
	return c.sched
}

// Worker exposes the job worker draining scheduled sync jobs.
func (c *Container) Worker() *jobs.Worker {
	return c.worker
}

// FullSyncHandler exposes the full sync command handler.
func (c *Container) FullSyncHandler() *synccmd.FullSyncHandler {
	return c.fullSyncHandler
}

// PageSyncHandler exposes the scoped page sync command handler.
func (c *Container) PageSyncHandler() *synccmd.PageSyncHandler {
	return c.pageSyncHandler
}

// CohortService exposes the cohort overlay resolver, nil when the feature is
// disabled.
func (c *Container) CohortService() *cohorts.Service {
	return c.cohortSvc
}

// API exposes the HTTP surface, nil when the server is disabled.
func (c *Container) API() *httpapi.API {
	return c.api
}
