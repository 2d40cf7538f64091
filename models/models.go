package models

import "time"

// Version is the service version reported by the health endpoint.
const Version = "1.0.0"

// RunStatus describes the lifecycle state of a discovery run.
type RunStatus string

const (
	// StatusInProgress means the run is still emitting URLs.
	StatusInProgress RunStatus = "in_progress"

	// StatusCompleted means the run drained its frontier naturally.
	StatusCompleted RunStatus = "completed"

	// StatusPartial means the run was truncated by the URL budget,
	// the wall-clock timeout, or caller cancellation. Partial results
	// are a success state, not a failure.
	StatusPartial RunStatus = "partial"

	// StatusFailed means the run aborted before emitting any URL
	// (invalid domain or robots.txt disallow).
	StatusFailed RunStatus = "failed"
)

// Terminal reports whether the status is a final state.
func (s RunStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusPartial || s == StatusFailed
}

// URL sources.
const (
	SourceSitemap  = "sitemap"
	SourceFrontier = "frontier"
)

// DiscoveredURL is one discovered page reference. It is immutable once
// emitted; URL values are unique within a single run and always share the
// origin of the normalized domain.
type DiscoveredURL struct {
	// URL is the absolute URL.
	URL string `json:"url"`

	// Path is the URL's path component without query or fragment.
	Path string `json:"path"`

	// Depth is 0 for sitemap-sourced URLs. For frontier-sourced URLs it is
	// the count of non-empty path segments relative to the domain root.
	Depth int `json:"depth"`

	// Source records which phase produced the URL: "sitemap" or "frontier".
	Source string `json:"source"`

	// DiscoveredAt is the emission timestamp.
	DiscoveredAt time.Time `json:"discovered_at"`
}

// CrawlResult is the run-level summary available once a run concludes.
// Consumers must treat URLs as potentially truncated.
type CrawlResult struct {
	Domain     string          `json:"domain"`
	URLs       []DiscoveredURL `json:"urls"`
	TotalFound int             `json:"total_found"`
	Status     RunStatus       `json:"status"`
	Error      *ErrorDetail    `json:"error,omitempty"`
}
