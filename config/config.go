package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Fetch     FetchConfig
	Discovery DiscoveryConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Webhook   WebhookConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance used for page rendering.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// MaxPages is the page pool capacity (max concurrent tabs).
	MaxPages int // default: 5

	// DefaultProxy is the default proxy URL for all requests.
	DefaultProxy string

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Stealth enables anti-bot-detection evasions on every page.
	Stealth bool // default: false
}

// FetchConfig controls the plain HTTP client used for robots.txt, sitemap
// documents, and HTTP-first page fetches.
type FetchConfig struct {
	// MaxBodyBytes caps response bodies.
	MaxBodyBytes int64 // default: 10 MB

	// Proxy is an optional proxy URL.
	Proxy string
}

// DiscoveryConfig holds the budgets and timeouts of the discovery pipeline.
// A copy is handed to the pipeline at construction; per-request overrides
// never mutate it.
type DiscoveryConfig struct {
	// MaxURLs caps the total URLs emitted per run.
	MaxURLs int // default: 500

	// MaxDepth caps the path depth of frontier-discovered URLs.
	MaxDepth int // default: 4

	// Timeout is the wall-clock budget for a whole run.
	Timeout time.Duration // default: 60s

	// PageTimeout bounds a single page fetch + link extraction.
	PageTimeout time.Duration // default: 10s

	// SitemapTimeout bounds a single sitemap document fetch.
	SitemapTimeout time.Duration // default: 10s

	// RobotsTimeout bounds the robots.txt fetch.
	RobotsTimeout time.Duration // default: 5s

	// ProbeTimeout bounds each apex/www sitemap probe.
	ProbeTimeout time.Duration // default: 3s

	// UserAgent is the crawler identity sent on every request and matched
	// against robots.txt groups.
	UserAgent string // default: "SiteScoutBot/1.0 (+https://sitescout.dev/bot)"
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per API key.
	Burst int // default: 10
}

// CacheConfig controls the discovery result cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached results.
	MaxEntries int // default: 1000
}

// WebhookConfig controls delivery of job lifecycle webhooks.
type WebhookConfig struct {
	// Timeout bounds a single delivery attempt.
	Timeout time.Duration // default: 10s

	// RetryDelays are the waits before each redelivery attempt after the
	// first. An empty list disables retries.
	RetryDelays []time.Duration // default: 1s, 5s, 30s
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("SITESCOUT_HOST", "0.0.0.0"),
			Port: envIntOr("SITESCOUT_PORT", 8080),
			Mode: envOr("SITESCOUT_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:     envBoolOr("SITESCOUT_HEADLESS", true),
			MaxPages:     envIntOr("SITESCOUT_MAX_PAGES", 5),
			DefaultProxy: os.Getenv("SITESCOUT_PROXY"),
			NoSandbox:    envBoolOr("SITESCOUT_NO_SANDBOX", false),
			BrowserBin:   os.Getenv("SITESCOUT_BROWSER_BIN"),
			Stealth:      envBoolOr("SITESCOUT_STEALTH", false),
		},
		Fetch: FetchConfig{
			MaxBodyBytes: envInt64Or("SITESCOUT_MAX_BODY_BYTES", 10*1024*1024),
			Proxy:        os.Getenv("SITESCOUT_PROXY"),
		},
		Discovery: DiscoveryConfig{
			MaxURLs:        envIntOr("SITESCOUT_MAX_URLS", 500),
			MaxDepth:       envIntOr("SITESCOUT_MAX_DEPTH", 4),
			Timeout:        envDurationOr("SITESCOUT_TIMEOUT", 60*time.Second),
			PageTimeout:    envDurationOr("SITESCOUT_PAGE_TIMEOUT", 10*time.Second),
			SitemapTimeout: envDurationOr("SITESCOUT_SITEMAP_TIMEOUT", 10*time.Second),
			RobotsTimeout:  envDurationOr("SITESCOUT_ROBOTS_TIMEOUT", 5*time.Second),
			ProbeTimeout:   envDurationOr("SITESCOUT_PROBE_TIMEOUT", 3*time.Second),
			UserAgent:      envOr("SITESCOUT_USER_AGENT", "SiteScoutBot/1.0 (+https://sitescout.dev/bot)"),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("SITESCOUT_AUTH_ENABLED", true),
			APIKeys: envSliceOr("SITESCOUT_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("SITESCOUT_RATE_RPS", 5.0),
			Burst:             envIntOr("SITESCOUT_RATE_BURST", 10),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("SITESCOUT_CACHE_MAX_ENTRIES", 1000),
		},
		Webhook: WebhookConfig{
			Timeout: envDurationOr("SITESCOUT_WEBHOOK_TIMEOUT", 10*time.Second),
			RetryDelays: envDurationSliceOr("SITESCOUT_WEBHOOK_RETRY_DELAYS",
				[]time.Duration{1 * time.Second, 5 * time.Second, 30 * time.Second}),
		},
		Log: LogConfig{
			Level:  envOr("SITESCOUT_LOG_LEVEL", "info"),
			Format: envOr("SITESCOUT_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envInt64Or(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envDurationSliceOr(key string, fallback []time.Duration) []time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var result []time.Duration
	for _, p := range strings.Split(v, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		d, err := time.ParseDuration(p)
		if err != nil {
			return fallback
		}
		result = append(result, d)
	}
	return result
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
