package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"articleforge/api"
	"articleforge/archive"
	"articleforge/config"
	"articleforge/events"
	"articleforge/generation"
	"articleforge/ingest"
	"articleforge/pipeline"
	"articleforge/references"
	"articleforge/scrape"
	"articleforge/search"
	"articleforge/store"
)

func main() {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	initLogging()
	logger := slog.Default()
	ctx := context.Background()

	st := buildStore(logger)
	extractor := scrape.NewReadabilityExtractor(config.FetchTimeout, logger)

	var finder search.Finder
	if serper := search.NewSerperFromEnv(); serper != nil {
		finder = serper
	} else {
		logger.Warn("SERPER_API_KEY not set, reference discovery disabled")
	}

	acquirer := references.NewAcquirer(finder, extractor, config.FetchTimeout, logger)
	generator := generation.NewClient(buildProviders(logger), config.ProviderTimeout, logger)

	opts := []pipeline.Option{pipeline.WithLogger(logger)}
	if publisher, err := events.NewPublisherFromEnv(logger); err != nil {
		logger.Warn("kafka publisher disabled", "err", err)
	} else if publisher != nil {
		defer publisher.Close()
		opts = append(opts, pipeline.WithNotifier(publisher))
	}
	if archiver, err := archive.NewArchiverFromEnv(ctx, logger); err != nil {
		logger.Warn("s3 archiver disabled", "err", err)
	} else if archiver != nil {
		opts = append(opts, pipeline.WithArchiver(archiver))
	}

	orchestrator := pipeline.NewOrchestrator(st, acquirer, generator, opts...)
	ingester := ingest.NewIngester(st, extractor, logger)

	addr := ":" + config.EnvOrDefault("PORT", "8080")
	router := api.NewServer(st, orchestrator, ingester, logger).NewRouter()

	logger.Info("starting api server", "addr", addr)
	if err := http.ListenAndServe(addr, router); err != nil {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}

// initLogging configures the default slog logger from LOG_FORMAT
// (text|json) and LOG_LEVEL (debug|info|warn|error).
func initLogging() {
	var level slog.Level
	switch strings.ToLower(config.EnvOrDefault("LOG_LEVEL", "info")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(config.EnvOrDefault("LOG_FORMAT", "text"), "json") {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// buildStore picks Redis when REDIS_ADDR is set, falling back to the
// in-memory store otherwise.
func buildStore(logger *slog.Logger) store.Store {
	if os.Getenv("REDIS_ADDR") == "" {
		logger.Info("using in-memory document store")
		return store.NewMemoryStore()
	}

	rs, err := store.NewRedisStoreFromEnv()
	if err != nil {
		logger.Error("redis unavailable", "err", err)
		os.Exit(1)
	}
	logger.Info("using redis document store")
	return rs
}

// buildProviders assembles the rewrite chain in priority order from
// whatever credentials are configured.
func buildProviders(logger *slog.Logger) []generation.Provider {
	var providers []generation.Provider

	if p := generation.NewCohereFromEnv(); p != nil {
		providers = append(providers, p)
	}
	if p, err := generation.NewOpenAIFromEnv(); err != nil {
		logger.Warn("openai provider disabled", "err", err)
	} else if p != nil {
		providers = append(providers, p)
	}

	if len(providers) == 0 {
		logger.Warn("no rewrite providers configured, all documents will use the local fallback")
	}
	return providers
}
