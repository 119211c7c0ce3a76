package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"retail-insights/internal/config"
	"retail-insights/internal/ingest"
	"retail-insights/internal/middleware"
	"retail-insights/internal/observability"
	"retail-insights/internal/server"
	"retail-insights/internal/services"
	"retail-insights/internal/store"
	"retail-insights/internal/store/memory"
	"retail-insights/internal/store/pg"
)

const csvLoadTimeout = 5 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"addr", cfg.Address(),
		"database", cfg.UseDatabase(),
	)

	ctx, cancel := context.WithTimeout(context.Background(), csvLoadTimeout)
	defer cancel()

	st, cleanup, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}

	if err := seedIfEmpty(ctx, cfg, st, logger); err != nil {
		logger.Error("failed to load CSV data", "error", err)
		os.Exit(1)
	}

	analytics := services.NewAnalytics(st, logger)
	if err := analytics.Refresh(ctx); err != nil {
		logger.Error("failed to build report snapshot", "error", err)
		os.Exit(1)
	}

	srv := server.NewServer(analytics, logger)

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)

	handler := middlewareChain(srv)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
		IdleTimeout:  cfg.Server.IdleTimeoutDuration(),
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)

	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("closing store")
		cleanup()
		return nil
	})

	logger.Info("starting graceful server")
	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}

// openStore picks the backend: Postgres when a database URL is configured,
// the in-memory engine otherwise. The cleanup func is safe to call once.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, func(), error) {
	if !cfg.UseDatabase() {
		logger.Info("using in-memory store")
		return memory.New(), func() {}, nil
	}

	pgStore, err := pg.Connect(ctx, cfg.Database, logger)
	if err != nil {
		return nil, nil, err
	}

	if err := pgStore.EnsureSchema(ctx); err != nil {
		pgStore.Close()
		return nil, nil, err
	}

	logger.Info("using postgres store")
	return pgStore, pgStore.Close, nil
}

// seedIfEmpty ingests the configured CSV file into an empty store. A store
// that already holds retail data is left alone so restarts do not double
// the dataset.
func seedIfEmpty(ctx context.Context, cfg *config.Config, st store.Store, logger *slog.Logger) error {
	if cfg.Ingest.CSVFile == "" {
		return nil
	}

	count, err := st.RetailCount(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		logger.Info("store already populated, skipping CSV ingest", "records", count)
		return nil
	}

	loader, ok := st.(store.RetailLoader)
	if !ok {
		logger.Warn("store does not accept CSV ingest, skipping")
		return nil
	}

	ing := ingest.New(loader, cfg.Ingest.BatchSize, logger)
	result, err := ing.LoadFile(ctx, cfg.Ingest.CSVFile)
	if err != nil {
		return err
	}

	logger.Info("CSV data loaded successfully",
		"loaded", result.Loaded,
		"skipped", result.Skipped,
		"duration", result.Elapsed,
	)
	return nil
}
