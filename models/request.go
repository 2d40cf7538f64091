package models

// DiscoverRequest is the payload for POST /api/v1/discover.
type DiscoverRequest struct {
	// Domain is the site to discover URLs for. A bare domain is accepted;
	// https:// is assumed when no scheme is given.
	Domain string `json:"domain" binding:"required"`

	// MaxURLs caps the total number of URLs emitted by the run.
	// Default: 500.
	MaxURLs int `json:"max_urls,omitempty" binding:"omitempty,min=1,max=500"`

	// MaxDepth caps the path depth of frontier-discovered URLs.
	// Default: 4. Max: 10.
	MaxDepth int `json:"max_depth,omitempty" binding:"omitempty,min=1,max=10"`

	// Timeout is the wall-clock budget for the run in seconds.
	// Default: 60. Max: 300.
	Timeout int `json:"timeout,omitempty" binding:"omitempty,min=1,max=300"`

	// MaxAgeMs enables the result cache: a completed run for the same
	// domain and budgets younger than this many milliseconds is returned
	// without crawling. 0 disables cache lookup.
	MaxAgeMs int `json:"max_age_ms,omitempty"`

	WebhookURL    string `json:"webhook_url,omitempty" binding:"omitempty,url"`
	WebhookSecret string `json:"webhook_secret,omitempty"`
}

// Defaults applies default values to unset fields.
func (r *DiscoverRequest) Defaults() {
	if r.MaxURLs == 0 {
		r.MaxURLs = 500
	}
	if r.MaxDepth == 0 {
		r.MaxDepth = 4
	}
	if r.Timeout == 0 {
		r.Timeout = 60
	}
}

// DiscoverResponse is the immediate response for POST /api/v1/discover.
type DiscoverResponse struct {
	ID     string       `json:"id"`
	Status RunStatus    `json:"status"`
	Error  *ErrorDetail `json:"error,omitempty"`
}

// DiscoverStatusResponse is the response for GET /api/v1/discover/:id.
// URLs grows while the run is in progress; pollers observe the stream
// incrementally.
type DiscoverStatusResponse struct {
	ID     string          `json:"id"`
	Status RunStatus       `json:"status"`
	Domain string          `json:"domain"`
	Total  int             `json:"total"`
	URLs   []DiscoveredURL `json:"urls"`

	// CacheStatus indicates whether the result was served from cache.
	// Values: "hit", "miss", or empty (caching not requested).
	CacheStatus string `json:"cache_status,omitempty"`

	Error *ErrorDetail `json:"error,omitempty"`
}
