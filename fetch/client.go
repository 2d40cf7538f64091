package fetch

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/andybalholm/brotli"
	tls2 "github.com/refraction-networking/utls"

	"github.com/schemabot/sitescout/config"
)

// Client is the plain HTTP client used for robots.txt, sitemap documents,
// normalizer probes, and HTTP-first page fetches. It sends a fixed crawler
// User-Agent and presents a Chrome TLS fingerprint on HTTPS connections.
// It is safe for concurrent use.
type Client struct {
	http      *http.Client
	userAgent string
	maxBody   int64
}

// NewClient builds a Client from configuration.
func NewClient(cfg config.FetchConfig, userAgent string) *Client {
	proxy := cfg.Proxy

	transport := &http.Transport{
		DialContext:           (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialTLSChrome(ctx, network, addr)
		},
	}
	if proxy != "" {
		if proxyURL, err := url.Parse(proxy); err == nil && (proxyURL.Scheme == "http" || proxyURL.Scheme == "https") {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 10 * 1024 * 1024
	}

	return &Client{
		http:      &http.Client{Transport: transport},
		userAgent: userAgent,
		maxBody:   maxBody,
	}
}

// Get retrieves the URL and returns the decoded body.
// Responses with status >= 400 are errors.
func (c *Client) Get(ctx context.Context, targetURL string) ([]byte, error) {
	body, _, err := c.do(ctx, targetURL)
	return body, err
}

// GetWithTimeout is Get bounded by an additional per-call timeout.
func (c *Client) GetWithTimeout(ctx context.Context, targetURL string, timeout time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.Get(ctx, targetURL)
}

// Probe reports whether the URL answers 200 within the timeout.
// Used by the domain normalizer for sitemap reachability checks.
func (c *Client) Probe(ctx context.Context, targetURL string, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	return resp.StatusCode == http.StatusOK
}

// FetchPage retrieves a page for link extraction, returning the final URL
// after redirects alongside the decoded body.
func (c *Client) FetchPage(ctx context.Context, targetURL string) (string, []byte, error) {
	body, finalURL, err := c.do(ctx, targetURL)
	return finalURL, body, err
}

func (c *Client) do(ctx context.Context, targetURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("fetch: build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch: request failed: %w", err)
	}
	defer resp.Body.Close()

	finalURL := targetURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	if resp.StatusCode >= 400 {
		return nil, finalURL, fmt.Errorf("fetch: HTTP %d for %s", resp.StatusCode, targetURL)
	}

	// Accept-Encoding is set explicitly, so the transport does not
	// transparently decompress.
	reader, err := decodeBody(resp)
	if err != nil {
		return nil, finalURL, err
	}

	body, err := io.ReadAll(io.LimitReader(reader, c.maxBody))
	if err != nil {
		return nil, finalURL, fmt.Errorf("fetch: read body: %w", err)
	}

	return body, finalURL, nil
}

// decodeBody unwraps the response body according to Content-Encoding.
func decodeBody(resp *http.Response) (io.Reader, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("fetch: gzip reader: %w", err)
		}
		return gz, nil
	case "deflate":
		return flate.NewReader(resp.Body), nil
	case "br":
		return brotli.NewReader(resp.Body), nil
	default:
		return resp.Body, nil
	}
}

// dialTLSChrome establishes a TLS connection using a Chrome fingerprint via utls.
func dialTLSChrome(ctx context.Context, network, addr string) (net.Conn, error) {
	dialer := &net.Dialer{}
	rawConn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	host, _, _ := net.SplitHostPort(addr)
	tlsConn := tls2.UClient(rawConn, &tls2.Config{
		ServerName: host,
	}, tls2.HelloChrome_Auto)

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		rawConn.Close()
		return nil, err
	}
	return tlsConn, nil
}
