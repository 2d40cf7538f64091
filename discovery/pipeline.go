package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/schemabot/sitescout/config"
	"github.com/schemabot/sitescout/fetch"
	"github.com/schemabot/sitescout/models"
)

// Pipeline sequences robots check → domain normalization → sitemap
// resolution → frontier crawl. It holds no run state: every Discover call
// creates its own run struct, so one Pipeline serves concurrent runs for
// different domains.
type Pipeline struct {
	cfg      config.DiscoveryConfig
	fetcher  PageFetcher
	robots   *RobotsChecker
	norm     *Normalizer
	sitemaps *SitemapResolver
}

// NewPipeline builds a pipeline from configuration, the shared fetch client,
// and the page-rendering collaborator.
func NewPipeline(cfg config.DiscoveryConfig, client *fetch.Client, fetcher PageFetcher) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		fetcher:  fetcher,
		robots:   NewRobotsChecker(client, cfg.UserAgent, cfg.RobotsTimeout),
		norm:     NewNormalizer(client, cfg),
		sitemaps: NewSitemapResolver(client, cfg.SitemapTimeout),
	}
}

// Budgets are per-run overrides. Zero fields fall back to the configured
// defaults.
type Budgets struct {
	MaxURLs  int
	MaxDepth int
	Timeout  time.Duration
}

func (p *Pipeline) resolveBudgets(b Budgets) Budgets {
	if b.MaxURLs <= 0 {
		b.MaxURLs = p.cfg.MaxURLs
	}
	if b.MaxDepth <= 0 {
		b.MaxDepth = p.cfg.MaxDepth
	}
	if b.Timeout <= 0 {
		b.Timeout = p.cfg.Timeout
	}
	return b
}

// Stream is the lazy, pull-driven output of one discovery run. The consumer
// controls pacing by draining URLs; Result is complete once URLs is closed.
type Stream struct {
	urls chan models.DiscoveredURL

	mu     sync.Mutex
	result models.CrawlResult
}

// URLs returns the channel of discovered URLs. It is closed when the run
// concludes.
func (s *Stream) URLs() <-chan models.DiscoveredURL {
	return s.urls
}

// Result returns a snapshot of the run summary. Until URLs is closed the
// status is StatusInProgress and the snapshot covers emissions so far.
func (s *Stream) Result() models.CrawlResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

func (s *Stream) append(u models.DiscoveredURL) {
	s.mu.Lock()
	s.result.URLs = append(s.result.URLs, u)
	s.result.TotalFound = len(s.result.URLs)
	s.mu.Unlock()
}

func (s *Stream) finish(status models.RunStatus) {
	s.mu.Lock()
	s.result.Status = status
	s.mu.Unlock()
}

// run is the mutable state owned by exactly one discovery run.
type run struct {
	origin   *url.URL
	budgets  Budgets
	deadline time.Time

	// seen holds every URL already emitted or processed; queued holds
	// URLs waiting in the frontier. Together they guarantee at-most-once
	// processing across both phases.
	seen    map[string]struct{}
	queued  map[string]struct{}
	queue   []string
	emitted int

	// truncated is set when the run stops on budget, timeout, or
	// cancellation rather than natural exhaustion.
	truncated bool
}

func (r *run) expired() bool {
	return !time.Now().Before(r.deadline)
}

// Discover starts a discovery run for rawDomain. Fatal conditions — a domain
// that cannot be normalized, or a robots.txt that disallows the crawler —
// are returned synchronously as *models.DiscoveryError before any URL work
// begins. Otherwise the returned Stream emits URLs as they are found;
// cancelling ctx stops the run promptly and settles it as partial.
func (p *Pipeline) Discover(ctx context.Context, rawDomain string, b Budgets) (*Stream, error) {
	origin, err := p.norm.Resolve(ctx, rawDomain)
	if err != nil {
		return nil, err
	}

	info := p.robots.Check(ctx, origin)
	if !info.Allowed {
		return nil, models.NewDiscoveryError(
			models.ErrCodeRobotsDisallowed,
			fmt.Sprintf("robots.txt of %s disallows crawling", origin.Host),
			nil,
		)
	}

	r := &run{
		origin:  origin,
		budgets: p.resolveBudgets(b),
		seen:    make(map[string]struct{}),
		queued:  make(map[string]struct{}),
	}
	r.deadline = time.Now().Add(r.budgets.Timeout)

	s := &Stream{
		urls: make(chan models.DiscoveredURL),
		result: models.CrawlResult{
			Domain: origin.String(),
			Status: models.StatusInProgress,
		},
	}

	go p.produce(ctx, r, s, info.Sitemaps)

	return s, nil
}

// produce runs the sitemap phase, then the frontier phase if budget remains,
// and settles the stream. A run that stops because the URL budget or the
// clock ran out settles as partial even when nothing more would have been
// found — a sitemap landing exactly on MaxURLs reads as partial. Consumers
// must treat the output as potentially truncated either way, so the status
// only distinguishes "frontier drained" from "a limit stopped us".
func (p *Pipeline) produce(ctx context.Context, r *run, s *Stream, robotsSitemaps []string) {
	defer close(s.urls)

	start := time.Now()

	// The sitemap phase always runs to completion; it is bounded by its own
	// candidate list and per-document timeouts, not the global deadline.
	sitemapURLs := p.sitemaps.Resolve(ctx, r.origin, robotsSitemaps, r.budgets.MaxURLs)
	for _, u := range sitemapURLs {
		if !p.emit(ctx, r, s, u, 0, models.SourceSitemap) {
			break
		}
	}
	sitemapCount := r.emitted

	switch {
	case ctx.Err() == nil && r.emitted < r.budgets.MaxURLs && !r.expired():
		p.crawlFrontier(ctx, r, s)
	default:
		// Budget or clock already exhausted by the sitemap phase.
		r.truncated = true
	}

	status := models.StatusCompleted
	if r.truncated {
		status = models.StatusPartial
	}
	s.finish(status)

	slog.Info("discovery run finished",
		"domain", r.origin.String(),
		"status", string(status),
		"total", r.emitted,
		"sitemap", sitemapCount,
		"frontier", r.emitted-sitemapCount,
		"elapsed", time.Since(start).Round(time.Millisecond).String(),
	)
}

// emit sends one URL to the consumer if it passes the dedup, origin, and
// budget checks. It returns false when the run must stop (budget exhausted
// or consumer gone); skipped URLs return true.
func (p *Pipeline) emit(ctx context.Context, r *run, s *Stream, rawURL string, depth int, source string) bool {
	if r.emitted >= r.budgets.MaxURLs {
		r.truncated = true
		return false
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || !sameOrigin(parsed, r.origin) {
		return true
	}

	key := parsed.String()
	if _, ok := r.seen[key]; ok {
		return true
	}
	r.seen[key] = struct{}{}

	d := models.DiscoveredURL{
		URL:          key,
		Path:         parsed.Path,
		Depth:        depth,
		Source:       source,
		DiscoveredAt: time.Now(),
	}

	select {
	case s.urls <- d:
	case <-ctx.Done():
		r.truncated = true
		return false
	}

	s.append(d)
	r.emitted++
	return true
}

// sameOrigin reports whether u shares scheme and host with origin.
func sameOrigin(u, origin *url.URL) bool {
	return u.Scheme == origin.Scheme && strings.EqualFold(u.Host, origin.Host)
}
