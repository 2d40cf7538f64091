package discovery

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/temoto/robotstxt"

	"github.com/schemabot/sitescout/fetch"
)

// RobotsInfo is the outcome of a robots.txt check for one origin.
type RobotsInfo struct {
	// Allowed reports whether the crawler may visit the origin root.
	Allowed bool

	// Sitemaps holds any Sitemap: directives found in robots.txt,
	// in file order.
	Sitemaps []string
}

// RobotsChecker fetches and interprets robots.txt for a fixed crawler
// identity. It fails open: absence or unreachability of robots.txt is
// treated as permission.
type RobotsChecker struct {
	client    *fetch.Client
	userAgent string
	timeout   time.Duration
}

// NewRobotsChecker builds a checker using the shared fetch client.
func NewRobotsChecker(client *fetch.Client, userAgent string, timeout time.Duration) *RobotsChecker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RobotsChecker{client: client, userAgent: userAgent, timeout: timeout}
}

// Check fetches robots.txt for the origin and evaluates whether the crawler
// may visit its root. Fetch failures fail open; only a fetched, parseable
// robots.txt that explicitly disallows the crawler's user-agent fails closed.
func (rc *RobotsChecker) Check(ctx context.Context, origin *url.URL) *RobotsInfo {
	robotsURL := origin.String() + "/robots.txt"

	body, err := rc.client.GetWithTimeout(ctx, robotsURL, rc.timeout)
	if err != nil {
		slog.Debug("robots.txt not reachable, failing open",
			"url", robotsURL, "error", err)
		return &RobotsInfo{Allowed: true}
	}

	info := &RobotsInfo{Allowed: true, Sitemaps: sitemapDirectives(body)}

	data, err := robotstxt.FromBytes(body)
	if err != nil {
		slog.Debug("robots.txt not parseable, failing open",
			"url", robotsURL, "error", err)
		return info
	}

	group := data.FindGroup(rc.userAgent)
	if group == nil {
		group = data.FindGroup("*")
		if group == nil {
			return info
		}
	}
	info.Allowed = group.Test("/")
	return info
}

// sitemapDirectives extracts Sitemap: directive values from robots.txt text.
func sitemapDirectives(body []byte) []string {
	var sitemaps []string
	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimSpace(line)
		if len(line) < len("sitemap:") || !strings.EqualFold(line[:len("sitemap:")], "sitemap:") {
			continue
		}
		if loc := strings.TrimSpace(line[len("sitemap:"):]); loc != "" {
			sitemaps = append(sitemaps, loc)
		}
	}
	return sitemaps
}
