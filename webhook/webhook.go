// Package webhook delivers signed discovery lifecycle events to caller
// endpoints.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/schemabot/sitescout/config"
	"github.com/schemabot/sitescout/models"
)

// Event types.
const (
	EventDiscoverCompleted = "discover.completed"
	EventDiscoverFailed    = "discover.failed"
)

// Event is the payload sent to webhook endpoints. Exactly one of Result or
// Error is set, matching the event type.
type Event struct {
	Type      string `json:"type"`
	JobID     string `json:"job_id,omitempty"`
	Timestamp int64  `json:"timestamp"`
	Domain    string `json:"domain,omitempty"`

	// Result carries the full run summary for discover.completed (which
	// covers both completed and partial terminal statuses).
	Result *models.CrawlResult `json:"result,omitempty"`

	// Error carries the fatal error for discover.failed.
	Error *models.ErrorDetail `json:"error,omitempty"`
}

// CompletedEvent builds the event for a run that settled with URLs.
func CompletedEvent(jobID string, res *models.CrawlResult) *Event {
	return &Event{
		Type:      EventDiscoverCompleted,
		JobID:     jobID,
		Timestamp: time.Now().Unix(),
		Domain:    res.Domain,
		Result:    res,
	}
}

// FailedEvent builds the event for a run that aborted before emitting any
// URL. There is no job in that case, so the event carries the requested
// domain instead.
func FailedEvent(domain string, detail *models.ErrorDetail) *Event {
	return &Event{
		Type:      EventDiscoverFailed,
		Timestamp: time.Now().Unix(),
		Domain:    domain,
		Error:     detail,
	}
}

// Sender delivers signed webhook events. Retry pacing comes from
// configuration, so operators can tighten or disable redelivery.
type Sender struct {
	client *http.Client
	delays []time.Duration
}

// NewSender builds a Sender from configuration.
func NewSender(cfg config.WebhookConfig) *Sender {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Sender{
		client: &http.Client{Timeout: timeout},
		delays: cfg.RetryDelays,
	}
}

// Deliver sends a webhook event synchronously.
// The request body is signed with HMAC-SHA256 if secret is non-empty.
// Header: X-SiteScout-Signature: sha256=<hex>
func (s *Sender) Deliver(ctx context.Context, url, secret string, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "SiteScout-Webhook/1.0")

	if secret != "" {
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(body)
		sig := hex.EncodeToString(mac.Sum(nil))
		req.Header.Set("X-SiteScout-Signature", "sha256="+sig)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// DeliverAsync sends a webhook event asynchronously, retrying once per
// configured delay after the initial attempt.
func (s *Sender) DeliverAsync(url, secret string, event *Event) {
	go func() {
		attempts := append([]time.Duration{0}, s.delays...)
		for attempt, delay := range attempts {
			if delay > 0 {
				time.Sleep(delay)
			}
			ctx, cancel := context.WithTimeout(context.Background(), s.client.Timeout)
			err := s.Deliver(ctx, url, secret, event)
			cancel()
			if err == nil {
				slog.Info("webhook delivered",
					"url", url,
					"event", event.Type,
					"job_id", event.JobID,
					"attempt", attempt+1,
				)
				return
			}
			slog.Warn("webhook delivery failed",
				"url", url,
				"event", event.Type,
				"job_id", event.JobID,
				"attempt", attempt+1,
				"error", err,
			)
		}
		slog.Error("webhook delivery exhausted all retries",
			"url", url,
			"event", event.Type,
			"job_id", event.JobID,
		)
	}()
}
