// Package main is the entrypoint for the ReplySim API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kiranshivaraju/replysim/internal/api"
	"github.com/kiranshivaraju/replysim/internal/api/handler"
	mw "github.com/kiranshivaraju/replysim/internal/api/middleware"
	"github.com/kiranshivaraju/replysim/internal/cache"
	"github.com/kiranshivaraju/replysim/internal/config"
	"github.com/kiranshivaraju/replysim/internal/llm/factory"
	"github.com/kiranshivaraju/replysim/internal/simulation"
	"github.com/kiranshivaraju/replysim/internal/store"
)

const (
	shutdownTimeout = 30 * time.Second
	migrationsDir   = "migrations"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config, fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded",
		"generator_provider", cfg.LLM.GeneratorProvider,
		"judge_provider", cfg.LLM.JudgeProvider,
		"database_driver", cfg.Database.Driver,
		"env", cfg.Server.Env,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Open the store; SQLite applies its embedded schema on open
	st, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer st.Close()
	slog.Info("database connected")

	// 3. Run migrations
	if cfg.Database.Driver == config.DriverPostgres {
		if err := store.RunMigrations(cfg.Database.URL, migrationsDir); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		slog.Info("database migrations applied")
	}

	// 4. Create Redis cache
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	// 5. Create LLM providers
	generator, judge, err := factory.NewProviders(ctx, cfg.LLM)
	if err != nil {
		return fmt.Errorf("create llm providers: %w", err)
	}
	generatorName, judgeName := factory.ProviderNames(cfg.LLM)
	slog.Info("llm providers initialized", "generator", generatorName, "judge", judgeName)

	// 6. Build the simulation service
	corpus, err := simulation.LoadScenarios(cfg.Simulation.ScenariosFile)
	if err != nil {
		return fmt.Errorf("load scenarios: %w", err)
	}
	scenarios, err := simulation.NewScenarioSource(corpus)
	if err != nil {
		return fmt.Errorf("load scenarios: %w", err)
	}
	slog.Info("scenarios loaded", "count", scenarios.Len())

	svc := simulation.NewService(simulation.ServiceDeps{
		Store:       st,
		Cache:       redisCache,
		Generator:   generator,
		Judge:       judge,
		Scenarios:   scenarios,
		Limits:      cfg.Simulation,
		CallTimeout: cfg.LLM.InferenceTimeout,
		Logger:      slog.Default(),
	})

	// 7. Build router with dependencies
	router := api.NewRouter(newDependencies(st, redisCache, svc, cfg.Server.RateLimitPerMin))

	// 8. Start HTTP server. Batches can run for minutes, so there is no write timeout.
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// newDependencies wires every route to the simulation service.
func newDependencies(st store.Store, c cache.Cache, svc *simulation.Service, ratePerMin int) api.Dependencies {
	return api.Dependencies{
		RateLimit: mw.NewRateLimit(c, ratePerMin),

		HealthHandler:    handler.NewHealthHandler(st, c),
		RunTestHandler:   handler.NewRunTestHandler(svc),
		ListTestsHandler: handler.NewListTestsHandler(svc),
		GetTestHandler:   handler.NewGetTestHandler(svc),
		SummarizeHandler: handler.NewSummarizeHandler(svc),
		GetRunHandler:    handler.NewGetRunHandler(svc),
		RegradeHandler:   handler.NewRegradeHandler(svc),
	}
}
