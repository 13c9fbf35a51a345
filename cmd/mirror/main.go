package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	mirror "github.com/webizupfr/notion-mirror"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using system environment variables")
	}

	command := "serve"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	cfg := configFromEnv(command == "serve")

	module, err := mirror.New(cfg)
	if err != nil {
		log.Fatalf("mirror: %v", err)
	}

	switch command {
	case "serve":
		runServer(cfg, module)
	case "sync":
		runFullSync(ctx, cfg, module)
	case "page":
		if len(os.Args) < 3 {
			log.Fatal("usage: mirror page <slug>")
		}
		runPageSync(ctx, cfg, module, os.Args[2])
	default:
		log.Fatalf("unknown command %q (expected serve, sync or page)", command)
	}
}

func runServer(cfg mirror.Config, module *mirror.Module) {
	api := module.API()
	if api == nil {
		log.Fatal("mirror: server is disabled, set MIRROR_SYNC_SECRET to enable it")
	}

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("mirror: listening on %s", cfg.Server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("mirror: %v", err)
	}
}

func runFullSync(ctx context.Context, cfg mirror.Config, module *mirror.Module) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Sync.Timeout)
	defer cancel()

	force := hasFlag("--force")
	report, err := module.Sync().RunFullSync(ctx, force)
	if err != nil {
		log.Fatalf("mirror: full sync: %v", err)
	}
	printJSON(report)
}

func runPageSync(ctx context.Context, cfg mirror.Config, module *mirror.Module, slug string) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Sync.Timeout)
	defer cancel()

	bundle, err := module.Sync().RunSync(ctx, slug)
	if err != nil {
		log.Fatalf("mirror: page sync: %v", err)
	}
	if bundle == nil {
		log.Printf("mirror: no page found for slug %q", slug)
		return
	}
	printJSON(bundle.Meta)
}

func configFromEnv(serve bool) mirror.Config {
	cfg := mirror.DefaultConfig()

	cfg.Source.Token = mustEnv("MIRROR_NOTION_TOKEN")
	cfg.Source.PagesDatabaseID = mustEnv("MIRROR_PAGES_DB")
	cfg.Source.HubsDatabaseID = getEnv("MIRROR_HUBS_DB", "")
	cfg.Source.SprintsDatabaseID = getEnv("MIRROR_SPRINTS_DB", "")
	cfg.Source.WorkshopsDatabaseID = getEnv("MIRROR_WORKSHOPS_DB", "")
	cfg.Source.CohortsDatabaseID = getEnv("MIRROR_COHORTS_DB", "")

	cfg.Cache.Driver = getEnv("MIRROR_CACHE_DRIVER", cfg.Cache.Driver)
	cfg.Cache.DSN = getEnv("MIRROR_CACHE_DSN", "")
	cfg.Cache.ReadThrough = getBoolEnv("MIRROR_CACHE_READ_THROUGH", cfg.Cache.ReadThrough)

	cfg.Server.Enabled = serve
	cfg.Server.Addr = getEnv("MIRROR_HTTP_ADDR", cfg.Server.Addr)
	cfg.Server.SyncSecret = getEnv("MIRROR_SYNC_SECRET", "")

	cfg.Logging.Level = getEnv("MIRROR_LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getEnv("MIRROR_LOG_FORMAT", cfg.Logging.Format)

	cfg.Features.Cohorts = getBoolEnv("MIRROR_FEATURE_COHORTS", cfg.Features.Cohorts)

	return cfg
}

func hasFlag(flag string) bool {
	for _, arg := range os.Args[2:] {
		if arg == flag {
			return true
		}
	}
	return false
}

func printJSON(payload any) {
	encoded, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		log.Fatalf("mirror: encode output: %v", err)
	}
	os.Stdout.Write(append(encoded, '\n'))
}

func mustEnv(key string) string {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		log.Fatalf("missing required environment variable %s", key)
	}
	return value
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}
