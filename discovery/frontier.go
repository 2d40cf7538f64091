package discovery

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/schemabot/sitescout/models"
)

// crawlFrontier walks the page-link graph breadth-first, seeded at the
// origin root. Pages are fetched and link-extracted one at a time — a
// deliberate politeness/simplicity trade-off (one browser page in flight
// per run) that caps throughput; parallel fan-out is the known scaling
// lever here.
func (p *Pipeline) crawlFrontier(ctx context.Context, r *run, s *Stream) {
	root := r.origin.String() + "/"
	r.queued[root] = struct{}{}
	r.queue = append(r.queue, root)

	for len(r.queue) > 0 {
		if ctx.Err() != nil || r.expired() {
			r.truncated = true
			return
		}
		if r.emitted >= r.budgets.MaxURLs {
			r.truncated = true
			return
		}

		current := r.queue[0]
		r.queue = r.queue[1:]
		delete(r.queued, current)

		// URLs the sitemap phase already found are not re-processed.
		if _, ok := r.seen[current]; ok {
			continue
		}

		parsed, err := url.Parse(current)
		if err != nil {
			r.seen[current] = struct{}{}
			continue
		}

		// Depth is the URL's own path-segment count, not hop distance.
		// Too-deep URLs are dead ends: no emission, no expansion, but
		// they still count as visited.
		depth := pathDepth(parsed.Path)
		if depth > r.budgets.MaxDepth {
			r.seen[current] = struct{}{}
			continue
		}

		// emit marks current as seen before any network call.
		if !p.emit(ctx, r, s, current, depth, models.SourceFrontier) {
			return
		}

		p.expand(ctx, r, current)
	}
}

// expand fetches one page and appends its eligible outbound links to the
// queue tail. A fetch or extraction failure drops this page's expansion but
// never aborts the run.
func (p *Pipeline) expand(ctx context.Context, r *run, pageURL string) {
	pageCtx, cancel := context.WithTimeout(ctx, p.cfg.PageTimeout)
	result, err := p.fetcher.FetchLinks(pageCtx, pageURL)
	cancel()
	if err != nil {
		slog.Warn("page fetch failed, skipping expansion",
			"url", pageURL, "error", err)
		return
	}

	for _, link := range result.Anchors {
		parsed, err := url.Parse(link)
		if err != nil {
			continue
		}
		if !sameOrigin(parsed, r.origin) {
			continue
		}
		if !IsContentPath(parsed.Path) {
			continue
		}
		if _, ok := r.seen[link]; ok {
			continue
		}
		if _, ok := r.queued[link]; ok {
			continue
		}

		r.queued[link] = struct{}{}
		r.queue = append(r.queue, link)
	}
}
