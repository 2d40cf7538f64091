package discovery

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/schemabot/sitescout/config"
	"github.com/schemabot/sitescout/fetch"
	"github.com/schemabot/sitescout/models"
)

// Normalizer resolves a raw domain to the canonical origin to crawl,
// preferring whichever of apex / www actually exposes a sitemap.
type Normalizer struct {
	// probe reports whether origin serves a reachable /sitemap.xml.
	// Injectable for tests; defaults to a bounded GET through the
	// shared fetch client.
	probe func(ctx context.Context, origin string) bool
}

// NewNormalizer builds a normalizer using the shared fetch client.
func NewNormalizer(client *fetch.Client, cfg config.DiscoveryConfig) *Normalizer {
	return &Normalizer{
		probe: func(ctx context.Context, origin string) bool {
			return client.Probe(ctx, origin+"/sitemap.xml", cfg.ProbeTimeout)
		},
	}
}

// Resolve turns a raw domain into the canonical origin (scheme + host).
// Input may lack a scheme; https:// is assumed. When the host does not
// already start with www., both the apex and the www. variant are probed
// for a sitemap, and www. wins only if it has one and the apex does not.
// This is a heuristic: if both probes fail, the apex is kept.
func (n *Normalizer) Resolve(ctx context.Context, raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw != "" && !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, models.NewDiscoveryError(
			models.ErrCodeInvalidDomain,
			fmt.Sprintf("cannot resolve %q as a crawlable domain", raw),
			err,
		)
	}

	origin := &url.URL{Scheme: parsed.Scheme, Host: parsed.Host}
	if strings.HasPrefix(origin.Hostname(), "www.") {
		return origin, nil
	}

	if n.probe(ctx, origin.String()) {
		return origin, nil
	}

	www := &url.URL{Scheme: origin.Scheme, Host: "www." + origin.Host}
	if n.probe(ctx, www.String()) {
		return www, nil
	}

	return origin, nil
}
