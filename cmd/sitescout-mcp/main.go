package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// discoverResponse mirrors the SiteScout discover API response model.
type discoverResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// discoverStatusResponse mirrors the SiteScout discover status API response.
type discoverStatusResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Domain string `json:"domain"`
	Total  int    `json:"total"`
	URLs   []struct {
		URL    string `json:"url"`
		Path   string `json:"path"`
		Depth  int    `json:"depth"`
		Source string `json:"source"`
	} `json:"urls"`
	CacheStatus string `json:"cache_status"`
	Error       *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func main() {
	apiURL := os.Getenv("SITESCOUT_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("SITESCOUT_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "SITESCOUT_API_KEY is required")
		os.Exit(1)
	}

	s := server.NewMCPServer(
		"sitescout",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	discoverURLsTool := mcp.NewTool("discover_urls",
		mcp.WithDescription("Discover the URLs of a website. Checks robots.txt, reads sitemaps, and crawls internal links breadth-first. Returns the list of discovered URLs with their source and depth."),
		mcp.WithString("domain",
			mcp.Required(),
			mcp.Description("The domain to discover URLs for (e.g. 'example.com'; https:// is assumed)"),
		),
		mcp.WithNumber("max_urls",
			mcp.Description("Maximum number of URLs to return (default: 500, max: 500)"),
		),
		mcp.WithNumber("max_depth",
			mcp.Description("Maximum path depth of crawled URLs (default: 4, max: 10)"),
		),
	)
	s.AddTool(discoverURLsTool, handleDiscoverURLs(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiPost sends a POST request to the SiteScout API and returns the response body.
func apiPost(ctx context.Context, client *http.Client, apiURL, apiKey, path string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// pollJobCompletion polls a job endpoint until status is no longer "in_progress" or context is cancelled.
func pollJobCompletion(ctx context.Context, client *http.Client, apiURL, apiKey, endpoint string) ([]byte, error) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+endpoint, nil)
			if err != nil {
				return nil, fmt.Errorf("create poll request: %w", err)
			}
			req.Header.Set("X-API-Key", apiKey)

			resp, err := client.Do(req)
			if err != nil {
				return nil, fmt.Errorf("poll request failed: %w", err)
			}

			body, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				return nil, fmt.Errorf("read poll response: %w", err)
			}

			// Quick check if still running.
			var status struct {
				Status string `json:"status"`
			}
			if err := json.Unmarshal(body, &status); err != nil {
				return nil, fmt.Errorf("parse poll status: %w", err)
			}

			if status.Status != "in_progress" {
				return body, nil
			}
		}
	}
}

func handleDiscoverURLs(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 600 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		domain, err := request.RequireString("domain")
		if err != nil {
			return mcp.NewToolResultError("domain is required"), nil
		}

		payload := map[string]interface{}{
			"domain": domain,
		}

		args := request.GetArguments()
		if maxURLs, ok := args["max_urls"]; ok {
			payload["max_urls"] = maxURLs
		}
		if maxDepth, ok := args["max_depth"]; ok {
			payload["max_depth"] = maxDepth
		}

		// POST to create discovery job.
		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/discover", payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("discover request failed: %v", err)), nil
		}

		var createResp discoverResponse
		if err := json.Unmarshal(respBody, &createResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse discover response: %v", err)), nil
		}

		if createResp.ID == "" {
			errMsg := "discovery job creation failed"
			if createResp.Error != nil {
				errMsg = fmt.Sprintf("[%s] %s", createResp.Error.Code, createResp.Error.Message)
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		// Poll for completion.
		resultBody, err := pollJobCompletion(ctx, client, apiURL, apiKey, "/api/v1/discover/"+createResp.ID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("polling discovery job failed: %v", err)), nil
		}

		var statusResp discoverStatusResponse
		if err := json.Unmarshal(resultBody, &statusResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse discovery status: %v", err)), nil
		}

		if statusResp.Status == "failed" {
			errMsg := "discovery failed"
			if statusResp.Error != nil {
				errMsg = fmt.Sprintf("[%s] %s", statusResp.Error.Code, statusResp.Error.Message)
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		// Format results.
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("Discovered %d URLs on %s (%s):\n\n", statusResp.Total, statusResp.Domain, statusResp.Status))
		for _, u := range statusResp.URLs {
			sb.WriteString(fmt.Sprintf("%s  [%s, depth %d]\n", u.URL, u.Source, u.Depth))
		}

		return mcp.NewToolResultText(sb.String()), nil
	}
}
