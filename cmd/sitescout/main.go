package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/schemabot/sitescout/api"
	"github.com/schemabot/sitescout/cache"
	"github.com/schemabot/sitescout/config"
	"github.com/schemabot/sitescout/discovery"
	"github.com/schemabot/sitescout/fetch"
	"github.com/schemabot/sitescout/renderer"
	"github.com/schemabot/sitescout/webhook"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("sitescout starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"maxPages", cfg.Browser.MaxPages,
	)

	// ── 3. Initialise HTTP fetch client ─────────────────────────────
	client := fetch.NewClient(cfg.Fetch, cfg.Discovery.UserAgent)

	// ── 4. Initialise renderer (launches browser) ───────────────────
	rd, err := renderer.New(cfg.Browser, cfg.Discovery.UserAgent)
	if err != nil {
		slog.Error("failed to initialise renderer", "error", err)
		os.Exit(1)
	}
	defer rd.Close()

	// ── 5. Initialise discovery pipeline ────────────────────────────
	fetcher := renderer.NewComposite(client, rd)
	pipeline := discovery.NewPipeline(cfg.Discovery, client, fetcher)

	// ── 5b. Initialise result cache and webhook sender ──────────────
	cc := cache.New(cfg.Cache.MaxEntries)
	wh := webhook.NewSender(cfg.Webhook)

	// ── 6. Setup router and start HTTP server ───────────────────────
	router := api.NewRouter(pipeline, rd, cfg, cc, wh)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 7. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// Give in-flight requests 5 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// rd.Close() runs via defer — drains page pool and kills Chrome.
	slog.Info("sitescout stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
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
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
