// Package renderer implements the page-rendering collaborator on top of a
// shared headless Chrome instance.
package renderer

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"

	"github.com/schemabot/sitescout/config"
	"github.com/schemabot/sitescout/models"
)

// Renderer manages the global browser lifecycle and the page pool.
// It is safe for concurrent use.
type Renderer struct {
	browser     *rod.Browser
	pagePool    rod.Pool[rod.Page]
	cfg         config.BrowserConfig
	userAgent   string
	activePages atomic.Int32
	startTime   time.Time
}

// New launches a headless browser and initialises the reusable page pool.
func New(cfg config.BrowserConfig, userAgent string) (*Renderer, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}
	if cfg.DefaultProxy != "" {
		l = l.Proxy(cfg.DefaultProxy)
	}

	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewDiscoveryError(
			models.ErrCodeBrowserCrash,
			"failed to launch browser",
			err,
		)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewDiscoveryError(
			models.ErrCodeBrowserCrash,
			"failed to connect to browser",
			err,
		)
	}

	pool := rod.NewPagePool(cfg.MaxPages)
	slog.Info("page pool created", "maxPages", cfg.MaxPages)

	return &Renderer{
		browser:   browser,
		pagePool:  pool,
		cfg:       cfg,
		userAgent: userAgent,
		startTime: time.Now(),
	}, nil
}

// Uptime reports how long the renderer has been running.
func (r *Renderer) Uptime() time.Duration {
	return time.Since(r.startTime)
}

// Stats returns a snapshot of the pool's current state.
func (r *Renderer) Stats() models.PoolStats {
	return models.PoolStats{
		MaxPages:    r.cfg.MaxPages,
		ActivePages: int(r.activePages.Load()),
	}
}

// Close drains the page pool and kills the browser process.
// Call this on graceful shutdown to prevent zombie Chrome processes.
func (r *Renderer) Close() {
	slog.Info("renderer shutting down: draining page pool")
	r.pagePool.Cleanup(func(p *rod.Page) {
		_ = p.Close()
	})
	slog.Info("renderer shutting down: closing browser")
	r.browser.MustClose()
	slog.Info("renderer shutdown complete")
}
