package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"mutuo/internal/cache"
	"mutuo/internal/cli"
	apphttp "mutuo/internal/http"
	applog "mutuo/internal/log"
	"mutuo/internal/services"
)

func main() {
	if err := cli.LoadEnvFile(); err != nil {
		applog.New(applog.DefaultConfig()).Warn("Ignoring .env file", applog.FieldError, err)
	}

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Stdout)

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	defaults, err := cfg.DefaultParams()
	if err != nil {
		logger.Error("Invalid default inputs", applog.FieldError, err)
		os.Exit(1)
	}

	schedules := services.NewScheduleService(cfg.ScheduleCacheSize, cfg.ScheduleCacheTTL,
		services.WithLogger(logger))

	srv, err := apphttp.NewServer(cfg.Addr(), schedules, apphttp.Options{
		Defaults: defaults,
		PageSize: cfg.PageSize,
		Logger:   logger,
	})
	if err != nil {
		logger.Error("Failed to initialize HTTP server", applog.FieldError, err)
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext(context.Background(), logger)
	defer stop()

	cacheManager := cache.NewManager(logger.WithComponent(applog.ComponentCache))
	cacheManager.Register(schedules.Cache())
	cacheManager.StartCleanup(ctx, cfg.ScheduleCacheTTL)
	defer cacheManager.Stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting mutuo server", "addr", cfg.Addr(), applog.FieldOperation, applog.OpStartup)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	start := time.Now()
	if err := g.Wait(); err != nil {
		logger.Error("Server error", applog.FieldError, err, "addr", cfg.Addr())
		os.Exit(1)
	}

	stats := schedules.Stats()
	logger.Info("Server stopped gracefully",
		"uptime", time.Since(start).Round(time.Second).String(),
		"requests", srv.Metrics().TotalRequests,
		"cache_hits", stats.Hits,
		"cache_misses", stats.Misses)
}
