// Overlay server - captures the screen, recognizes and translates on-screen
// text, and feeds positioned translations to overlay clients.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/GriffinCanCode/lingolens/internal/capture"
	"github.com/GriffinCanCode/lingolens/internal/config"
	"github.com/GriffinCanCode/lingolens/internal/ocr"
	"github.com/GriffinCanCode/lingolens/internal/pipeline"
	"github.com/GriffinCanCode/lingolens/internal/resilience"
	"github.com/GriffinCanCode/lingolens/internal/server"
	"github.com/GriffinCanCode/lingolens/internal/snapshot"
	"github.com/GriffinCanCode/lingolens/internal/translate"
)

const (
	snapshotEventBuffer = 64
	shutdownTimeout     = 5 * time.Second
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	level := slog.LevelInfo
	if cfg.DebugMode {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// OCR backend availability is a startup requirement, not a per-frame one
	engine, err := ocr.NewEngine(cfg)
	if err != nil {
		slog.Error("ocr engine init failed", "engine", cfg.OCREngine, "error", err)
		os.Exit(1)
	}

	cache := buildCache(cfg)

	retry := resilience.TranslateRetryConfig()
	retry.MaxRetries = cfg.MaxRetries
	retry.BaseDelay = cfg.RetryBaseDelay
	retry.MaxDelay = cfg.RetryMaxDelay

	service := translate.NewHTTPClient(cfg.TranslateURL, cfg.TranslateTimeout)
	worker := translate.NewWorker(cache, service, retry, cfg.SourceLang, cfg.TargetLang, logger)

	store := snapshot.NewStore(snapshotEventBuffer)
	ctrl := pipeline.New(cfg, capture.New(), engine, worker, store)
	srv := server.New(ctrl, store, cache, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctrl.Start(ctx)

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srv.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0, // WebSocket connections stay open
	}

	go func() {
		slog.Info("overlay server starting",
			"http", cfg.HTTPAddr, "translate", cfg.TranslateURL,
			"source", cfg.SourceLang, "target", cfg.TargetLang)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("http server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	slog.Info("shutting down...")

	ctrl.Stop()
	select {
	case <-ctrl.Done():
	case <-time.After(shutdownTimeout):
		slog.Warn("pipeline shutdown timed out")
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
}

// buildCache prefers Redis when configured so translations survive restarts
// and can be shared between instances; otherwise the in-process cache.
func buildCache(cfg *config.Config) translate.Cache {
	if cfg.RedisAddr == "" {
		return translate.NewMemoryCache(cfg.CacheTTL, cfg.CacheCapacity, cfg.FailureCooldown)
	}
	cache, err := translate.NewRedisCache(cfg.RedisAddr, cfg.CacheTTL, cfg.FailureCooldown, slog.Default())
	if err != nil {
		slog.Warn("redis unavailable, using in-memory cache", "addr", cfg.RedisAddr, "error", err)
		return translate.NewMemoryCache(cfg.CacheTTL, cfg.CacheCapacity, cfg.FailureCooldown)
	}
	slog.Info("translation cache backed by redis", "addr", cfg.RedisAddr)
	return cache
}
