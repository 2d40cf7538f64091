// Package discovery implements the URL discovery pipeline: given a domain,
// it streams a bounded, robots-respecting, best-effort set of candidate
// content URLs.
//
// A run is sitemap-first: the resolver parses sitemap / sitemap-index
// documents into URLs, then — only if budget remains — a breadth-first
// frontier crawl seeded at the domain root tops up the result. All run
// state lives in a per-run struct, so one Pipeline is safe for concurrent
// runs across domains.
package discovery

import "context"

// PageLinks is what the page-rendering collaborator returns for one page.
type PageLinks struct {
	// FinalURL is the page URL after redirects.
	FinalURL string

	// Anchors are the absolute hrefs present after DOM-ready.
	Anchors []string
}

// PageFetcher renders a page and extracts its outbound anchors. The frontier
// crawler consumes it one page at a time; implementations own their own
// concurrency limits.
type PageFetcher interface {
	FetchLinks(ctx context.Context, pageURL string) (*PageLinks, error)
}
