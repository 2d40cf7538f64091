package renderer

import (
	"context"
	"log/slog"

	"github.com/schemabot/sitescout/discovery"
	"github.com/schemabot/sitescout/fetch"
	"github.com/schemabot/sitescout/links"
)

// Composite is a PageFetcher that tries a plain HTTP fetch first and falls
// back to the headless browser when the fetched HTML looks like it needs JS
// rendering before its links are complete. Most server-rendered pages never
// touch the browser, which keeps discovery runs cheap.
type Composite struct {
	client   *fetch.Client
	renderer *Renderer
}

// NewComposite builds a composite fetcher. renderer may be nil, in which
// case the HTTP result is used as-is even when the heuristic would have
// escalated.
func NewComposite(client *fetch.Client, renderer *Renderer) *Composite {
	return &Composite{client: client, renderer: renderer}
}

// FetchLinks implements discovery.PageFetcher.
func (c *Composite) FetchLinks(ctx context.Context, pageURL string) (*discovery.PageLinks, error) {
	finalURL, body, err := c.client.FetchPage(ctx, pageURL)
	if err == nil && (c.renderer == nil || !fetch.NeedsBrowser(body)) {
		return &discovery.PageLinks{
			FinalURL: finalURL,
			Anchors:  links.ExtractAnchors(string(body), finalURL),
		}, nil
	}

	if c.renderer == nil {
		return nil, err
	}

	if err != nil {
		slog.Debug("http fetch failed, escalating to browser",
			"url", pageURL, "error", err)
	} else {
		slog.Debug("page looks JS-rendered, escalating to browser",
			"url", pageURL)
	}

	return c.renderer.FetchLinks(ctx, pageURL)
}
