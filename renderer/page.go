package renderer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/schemabot/sitescout/discovery"
	"github.com/schemabot/sitescout/links"
	"github.com/schemabot/sitescout/models"
)

// FetchLinks implements discovery.PageFetcher: it renders the page in a
// pooled browser tab, waits for the DOM to settle, and extracts every anchor
// href.
//
// Lifecycle:
//
//  1. Acquire page      – borrow a tab from the pool (or create one)
//  2. DEFER: cleanup    – about:blank + return to pool (leak prevention)
//  3. Stealth injection – mask navigator.webdriver etc. (before navigation!)
//  4. Identity header   – crawler User-Agent, set before navigation
//  5. Context binding   – propagate the caller's timeout to all Rod ops
//  6. Navigate + wait   – DOM stable rather than full network idle
//  7. Extract           – page.HTML() → anchor hrefs
//
// The about:blank in step 2 uses the ORIGINAL page reference (without the
// request context), so cleanup succeeds even after the context expires.
func (r *Renderer) FetchLinks(ctx context.Context, pageURL string) (*discovery.PageLinks, error) {
	r.activePages.Add(1)
	defer r.activePages.Add(-1)

	page, acquireErr := r.pagePool.Get(func() (*rod.Page, error) {
		return r.browser.Page(proto.TargetCreateTarget{})
	})
	if acquireErr != nil {
		return nil, models.NewDiscoveryError(
			models.ErrCodeBrowserCrash,
			"failed to acquire page from pool",
			acquireErr,
		)
	}

	defer func() {
		if navErr := page.Navigate("about:blank"); navErr != nil {
			slog.Warn("cleanup: failed to navigate to about:blank",
				"error", navErr,
			)
		}
		r.pagePool.Put(page)
	}()

	if r.cfg.Stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth",
				"error", evalErr,
			)
		}
	}

	if r.userAgent != "" {
		_ = proto.NetworkSetExtraHTTPHeaders{
			Headers: proto.NetworkHeaders{"User-Agent": gson.New(r.userAgent)},
		}.Call(page)
	}

	p := page.Context(ctx)

	if navErr := p.Navigate(pageURL); navErr != nil {
		return nil, categorizeError(navErr, "navigation to target URL failed")
	}

	// Wait for DOM content rather than network idle: link discovery only
	// needs the anchor elements, not every deferred asset.
	if stableErr := p.WaitDOMStable(300*time.Millisecond, 0.1); stableErr != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM",
			"error", stableErr,
		)
	}

	rawHTML, htmlErr := p.HTML()
	if htmlErr != nil {
		return nil, categorizeError(htmlErr, "failed to extract page HTML")
	}

	finalURL := evalStringOrEmpty(p, `() => window.location.href`)
	if finalURL == "" {
		finalURL = pageURL
	}

	return &discovery.PageLinks{
		FinalURL: finalURL,
		Anchors:  links.ExtractAnchors(rawHTML, finalURL),
	}, nil
}

// evalStringOrEmpty evaluates a JS expression and returns the string result,
// swallowing any errors (useful for optional metadata extraction).
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// categorizeError wraps raw errors into typed DiscoveryErrors so callers
// can distinguish timeouts from navigation failures.
func categorizeError(err error, msg string) *models.DiscoveryError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewDiscoveryError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewDiscoveryError(models.ErrCodeTimeout, "request canceled", err)
	default:
		return models.NewDiscoveryError(models.ErrCodeNavigation, msg, err)
	}
}
