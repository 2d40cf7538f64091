package discovery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/schemabot/sitescout/config"
	"github.com/schemabot/sitescout/fetch"
)

const testUserAgent = "SiteScoutBot/1.0 (+https://sitescout.dev/bot)"

func newTestChecker() *RobotsChecker {
	client := fetch.NewClient(config.FetchConfig{}, testUserAgent)
	return NewRobotsChecker(client, testUserAgent, 5*time.Second)
}

func serverOrigin(t *testing.T, srv *httptest.Server) *url.URL {
	t.Helper()
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse test server URL: %v", err)
	}
	return u
}

func TestRobotsCheck_Allowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("User-agent: *\nAllow: /\n"))
	}))
	defer srv.Close()

	info := newTestChecker().Check(context.Background(), serverOrigin(t, srv))
	if !info.Allowed {
		t.Error("expected crawling to be allowed")
	}
}

func TestRobotsCheck_DisallowedForAll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("User-agent: *\nDisallow: /\n"))
	}))
	defer srv.Close()

	info := newTestChecker().Check(context.Background(), serverOrigin(t, srv))
	if info.Allowed {
		t.Error("expected crawling to be disallowed")
	}
}

func TestRobotsCheck_DisallowedForOurAgent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("User-agent: SiteScoutBot\nDisallow: /\n\nUser-agent: *\nAllow: /\n"))
	}))
	defer srv.Close()

	info := newTestChecker().Check(context.Background(), serverOrigin(t, srv))
	if info.Allowed {
		t.Error("expected crawling to be disallowed for our user-agent group")
	}
}

func TestRobotsCheck_MissingFailsOpen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	info := newTestChecker().Check(context.Background(), serverOrigin(t, srv))
	if !info.Allowed {
		t.Error("missing robots.txt should fail open")
	}
}

func TestRobotsCheck_UnreachableFailsOpen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	info := newTestChecker().Check(context.Background(), serverOrigin(t, srv))
	if !info.Allowed {
		t.Error("unreachable robots.txt should fail open")
	}
}

func TestRobotsCheck_SitemapDirectives(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("User-agent: *\nAllow: /\n\nSitemap: https://example.com/sitemap.xml\nsitemap: https://example.com/news.xml\n"))
	}))
	defer srv.Close()

	info := newTestChecker().Check(context.Background(), serverOrigin(t, srv))
	if !info.Allowed {
		t.Fatal("expected crawling to be allowed")
	}
	want := []string{"https://example.com/sitemap.xml", "https://example.com/news.xml"}
	if len(info.Sitemaps) != len(want) {
		t.Fatalf("got %d sitemap directives, want %d: %v", len(info.Sitemaps), len(want), info.Sitemaps)
	}
	for i, w := range want {
		if info.Sitemaps[i] != w {
			t.Errorf("sitemap[%d] = %q, want %q", i, info.Sitemaps[i], w)
		}
	}
}

func TestSitemapDirectives_Malformed(t *testing.T) {
	body := []byte("Sitemap:\nSitemap: \nnot a directive\nSITEMAP: https://a.test/s.xml")
	got := sitemapDirectives(body)
	if len(got) != 1 || got[0] != "https://a.test/s.xml" {
		t.Errorf("sitemapDirectives = %v, want single case-insensitive match", got)
	}
}
