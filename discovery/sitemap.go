package discovery

import (
	"context"
	"encoding/xml"
	"log/slog"
	"net/url"
	"time"

	"github.com/schemabot/sitescout/fetch"
)

// maxSitemapRecursion bounds sitemap-index nesting so a self-referencing
// index cannot recurse forever.
const maxSitemapRecursion = 5

// sitemapIndex represents a sitemap index XML file.
type sitemapIndex struct {
	XMLName  xml.Name       `xml:"sitemapindex"`
	Sitemaps []sitemapEntry `xml:"sitemap"`
}

// sitemapEntry is an entry in a sitemap index.
type sitemapEntry struct {
	Loc string `xml:"loc"`
}

// urlset represents a sitemap URL set XML file.
type urlset struct {
	XMLName xml.Name   `xml:"urlset"`
	URLs    []urlEntry `xml:"url"`
}

// urlEntry is a single URL in a sitemap.
type urlEntry struct {
	Loc string `xml:"loc"`
}

// SitemapResolver discovers and recursively parses sitemap / sitemap-index
// documents into a flat, capped list of URLs.
type SitemapResolver struct {
	client  *fetch.Client
	timeout time.Duration
}

// NewSitemapResolver builds a resolver using the shared fetch client.
func NewSitemapResolver(client *fetch.Client, timeout time.Duration) *SitemapResolver {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SitemapResolver{client: client, timeout: timeout}
}

// Resolve tries each sitemap candidate in order and returns the URLs of the
// first one that yields any. Candidates are the robots.txt Sitemap:
// directives followed by the conventional default locations. The result is
// truncated to maxURLs.
func (sr *SitemapResolver) Resolve(ctx context.Context, origin *url.URL, robotsSitemaps []string, maxURLs int) []string {
	var candidates []string
	seenCandidate := make(map[string]struct{})
	add := func(c string) {
		if _, ok := seenCandidate[c]; ok {
			return
		}
		seenCandidate[c] = struct{}{}
		candidates = append(candidates, c)
	}

	for _, s := range robotsSitemaps {
		add(s)
	}
	base := origin.String()
	add(base + "/sitemap.xml")
	add(base + "/sitemap_index.xml")
	add(base + "/sitemap-index.xml")

	for _, candidate := range candidates {
		if ctx.Err() != nil {
			return nil
		}

		visited := make(map[string]struct{})
		urls := sr.fetchSitemap(ctx, candidate, visited, 0, maxURLs)
		if len(urls) > 0 {
			if len(urls) > maxURLs {
				urls = urls[:maxURLs]
			}
			return urls
		}
	}

	return nil
}

// fetchSitemap fetches and parses one sitemap document. Index documents are
// recursed into, aggregating sub-sitemap URLs up to the budget. Any fetch or
// parse failure is non-fatal and yields zero URLs for that document.
func (sr *SitemapResolver) fetchSitemap(ctx context.Context, sitemapURL string, visited map[string]struct{}, depth, budget int) []string {
	if depth > maxSitemapRecursion {
		slog.Warn("sitemap recursion limit reached", "url", sitemapURL)
		return nil
	}
	if _, ok := visited[sitemapURL]; ok {
		slog.Warn("sitemap cycle detected", "url", sitemapURL)
		return nil
	}
	visited[sitemapURL] = struct{}{}

	body, err := sr.client.GetWithTimeout(ctx, sitemapURL, sr.timeout)
	if err != nil {
		slog.Debug("sitemap fetch failed", "url", sitemapURL, "error", err)
		return nil
	}

	// Try parsing as a sitemap index first.
	var idx sitemapIndex
	if err := xml.Unmarshal(body, &idx); err == nil && len(idx.Sitemaps) > 0 {
		var urls []string
		for _, entry := range idx.Sitemaps {
			if entry.Loc == "" {
				continue
			}
			urls = append(urls, sr.fetchSitemap(ctx, entry.Loc, visited, depth+1, budget-len(urls))...)
			if len(urls) >= budget {
				break
			}
		}
		return urls
	}

	// Then as a regular URL set. A document matching neither shape yields
	// zero URLs.
	var us urlset
	if err := xml.Unmarshal(body, &us); err != nil {
		slog.Debug("sitemap parse failed", "url", sitemapURL, "error", err)
		return nil
	}

	var urls []string
	for _, entry := range us.URLs {
		if entry.Loc != "" {
			urls = append(urls, entry.Loc)
		}
	}
	return urls
}
