package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/schemabot/sitescout/cache"
	"github.com/schemabot/sitescout/config"
	"github.com/schemabot/sitescout/discovery"
	"github.com/schemabot/sitescout/fetch"
	"github.com/schemabot/sitescout/models"
	"github.com/schemabot/sitescout/webhook"
)

// emptyFetcher is a PageFetcher that finds no links anywhere.
type emptyFetcher struct{}

func (emptyFetcher) FetchLinks(_ context.Context, pageURL string) (*discovery.PageLinks, error) {
	return &discovery.PageLinks{FinalURL: pageURL}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Mode: "test"},
		Discovery: config.DiscoveryConfig{
			MaxURLs:        500,
			MaxDepth:       4,
			Timeout:        30 * time.Second,
			PageTimeout:    2 * time.Second,
			SitemapTimeout: 2 * time.Second,
			RobotsTimeout:  2 * time.Second,
			ProbeTimeout:   1 * time.Second,
			UserAgent:      "SiteScoutBot/1.0 (+https://sitescout.dev/bot)",
		},
		Auth:      config.AuthConfig{Enabled: false},
		RateLimit: config.RateLimitConfig{RequestsPerSecond: 100, Burst: 100},
		Cache:     config.CacheConfig{MaxEntries: 100},
	}
}

// newTestAPI spins up a site fixture and an API server wired together.
// The fixture serves a sitemap so the apex/www probe resolves naturally.
func newTestAPI(t *testing.T) (apiSrv, siteSrv *httptest.Server) {
	t.Helper()

	var siteURL string
	siteSrv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/sitemap.xml" {
			fmt.Fprintf(w, `<?xml version="1.0"?><urlset><url><loc>%s/about</loc></url><url><loc>%s/pricing</loc></url></urlset>`,
				siteURL, siteURL)
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(siteSrv.Close)
	siteURL = siteSrv.URL

	cfg := testConfig()
	client := fetch.NewClient(config.FetchConfig{}, cfg.Discovery.UserAgent)
	pipeline := discovery.NewPipeline(cfg.Discovery, client, emptyFetcher{})
	wh := webhook.NewSender(cfg.Webhook)
	router := NewRouter(pipeline, nil, cfg, cache.New(cfg.Cache.MaxEntries), wh)

	apiSrv = httptest.NewServer(router)
	t.Cleanup(apiSrv.Close)
	return apiSrv, siteSrv
}

func postDiscover(t *testing.T, apiURL, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(apiURL+"/api/v1/discover", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /discover: %v", err)
	}
	return resp
}

func TestAPI_DiscoverLifecycle(t *testing.T) {
	apiSrv, siteSrv := newTestAPI(t)

	resp := postDiscover(t, apiSrv.URL, fmt.Sprintf(`{"domain": %q}`, siteSrv.URL))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST status = %d, want 200", resp.StatusCode)
	}

	var created models.DiscoverResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.ID == "" || !strings.HasPrefix(created.ID, "disc-") {
		t.Fatalf("job ID = %q, want disc- prefix", created.ID)
	}

	// Poll until the job settles.
	var status models.DiscoverStatusResponse
	deadline := time.Now().Add(15 * time.Second)
	for {
		if time.Now().After(deadline) {
			t.Fatalf("job %s did not settle, last status: %s", created.ID, status.Status)
		}
		getResp, err := http.Get(apiSrv.URL + "/api/v1/discover/" + created.ID)
		if err != nil {
			t.Fatalf("GET /discover/%s: %v", created.ID, err)
		}
		err = json.NewDecoder(getResp.Body).Decode(&status)
		getResp.Body.Close()
		if err != nil {
			t.Fatalf("decode status response: %v", err)
		}
		if status.Status.Terminal() {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	if status.Status != models.StatusCompleted {
		t.Errorf("final status = %s, want %s", status.Status, models.StatusCompleted)
	}
	if status.Total < 2 {
		t.Errorf("total = %d, want at least the 2 sitemap URLs", status.Total)
	}
	for _, u := range status.URLs[:2] {
		if u.Source != models.SourceSitemap {
			t.Errorf("URL %s source = %s, want sitemap first", u.URL, u.Source)
		}
	}
}

func TestAPI_DiscoverRejectsBadBody(t *testing.T) {
	apiSrv, _ := newTestAPI(t)

	resp := postDiscover(t, apiSrv.URL, `{"max_urls": 10}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing domain: status = %d, want 400", resp.StatusCode)
	}

	resp2 := postDiscover(t, apiSrv.URL, `{"domain": "example.com", "max_urls": 9000}`)
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusBadRequest {
		t.Errorf("over-limit max_urls: status = %d, want 400", resp2.StatusCode)
	}
}

func TestAPI_DiscoverInvalidDomainFailsSynchronously(t *testing.T) {
	apiSrv, _ := newTestAPI(t)

	resp := postDiscover(t, apiSrv.URL, `{"domain": "ftp://example.com"}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for an uncrawlable domain", resp.StatusCode)
	}

	var body models.DiscoverResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Status != models.StatusFailed {
		t.Errorf("status = %s, want %s", body.Status, models.StatusFailed)
	}
	if body.Error == nil || body.Error.Code != models.ErrCodeInvalidDomain {
		t.Errorf("error = %+v, want code %s", body.Error, models.ErrCodeInvalidDomain)
	}
	if body.ID != "" {
		t.Errorf("no job should be created for a fatal error, got ID %q", body.ID)
	}
}

func TestAPI_DiscoverRobotsDisallowedFailsSynchronously(t *testing.T) {
	siteSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			fmt.Fprint(w, "User-agent: *\nDisallow: /\n")
			return
		}
		http.NotFound(w, r)
	}))
	defer siteSrv.Close()

	cfg := testConfig()
	client := fetch.NewClient(config.FetchConfig{}, cfg.Discovery.UserAgent)
	pipeline := discovery.NewPipeline(cfg.Discovery, client, emptyFetcher{})
	router := NewRouter(pipeline, nil, cfg, cache.New(10), webhook.NewSender(cfg.Webhook))
	apiSrv := httptest.NewServer(router)
	defer apiSrv.Close()

	resp := postDiscover(t, apiSrv.URL, fmt.Sprintf(`{"domain": %q}`, siteSrv.URL))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403 for a robots.txt disallow", resp.StatusCode)
	}

	var body models.DiscoverResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Error == nil || body.Error.Code != models.ErrCodeRobotsDisallowed {
		t.Errorf("error = %+v, want code %s", body.Error, models.ErrCodeRobotsDisallowed)
	}
}

func TestAPI_GetUnknownJob(t *testing.T) {
	apiSrv, _ := newTestAPI(t)

	resp, err := http.Get(apiSrv.URL + "/api/v1/discover/disc-nope")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestAPI_HealthOpenWithoutAuth(t *testing.T) {
	cfg := testConfig()
	cfg.Auth = config.AuthConfig{Enabled: true, APIKeys: []string{"sk-test"}}
	client := fetch.NewClient(config.FetchConfig{}, cfg.Discovery.UserAgent)
	pipeline := discovery.NewPipeline(cfg.Discovery, client, emptyFetcher{})
	router := NewRouter(pipeline, nil, cfg, cache.New(10), webhook.NewSender(cfg.Webhook))
	apiSrv := httptest.NewServer(router)
	defer apiSrv.Close()

	resp, err := http.Get(apiSrv.URL + "/api/v1/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d, want 200 without credentials", resp.StatusCode)
	}

	// Protected routes still require a key.
	postResp, err := http.Post(apiSrv.URL+"/api/v1/discover", "application/json", strings.NewReader(`{"domain":"example.com"}`))
	if err != nil {
		t.Fatalf("POST /discover: %v", err)
	}
	defer postResp.Body.Close()
	if postResp.StatusCode != http.StatusUnauthorized {
		t.Errorf("unauthenticated discover status = %d, want 401", postResp.StatusCode)
	}
}
