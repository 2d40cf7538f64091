package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/schemabot/sitescout/cache"
	"github.com/schemabot/sitescout/discovery"
	"github.com/schemabot/sitescout/models"
	"github.com/schemabot/sitescout/webhook"
)

// discoverStore holds all in-flight and completed discovery jobs.
var discoverStore sync.Map

func init() {
	// Background goroutine to expire discovery jobs older than 1 hour.
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			cutoff := time.Now().Add(-1 * time.Hour).Unix()
			discoverStore.Range(func(key, value any) bool {
				job := value.(*discoverJob)
				if job.createdAt < cutoff {
					discoverStore.Delete(key)
				}
				return true
			})
		}
	}()
}

// discoverJob tracks one discovery run. The run goroutine appends URLs while
// status polls read them, so every access goes through the mutex.
type discoverJob struct {
	mu          sync.Mutex
	id          string
	domain      string
	status      models.RunStatus
	urls        []models.DiscoveredURL
	errDetail   *models.ErrorDetail
	cacheStatus string
	createdAt   int64
}

func (j *discoverJob) append(u models.DiscoveredURL) {
	j.mu.Lock()
	j.urls = append(j.urls, u)
	j.mu.Unlock()
}

func (j *discoverJob) finish(status models.RunStatus, detail *models.ErrorDetail) {
	j.mu.Lock()
	j.status = status
	j.errDetail = detail
	j.mu.Unlock()
}

func (j *discoverJob) snapshot() models.DiscoverStatusResponse {
	j.mu.Lock()
	defer j.mu.Unlock()
	urls := make([]models.DiscoveredURL, len(j.urls))
	copy(urls, j.urls)
	return models.DiscoverStatusResponse{
		ID:          j.id,
		Status:      j.status,
		Domain:      j.domain,
		Total:       len(urls),
		URLs:        urls,
		CacheStatus: j.cacheStatus,
		Error:       j.errDetail,
	}
}

// PostDiscover returns a handler for POST /api/v1/discover.
//
// Discover performs normalization and the robots check before any URL work,
// so fatal conditions surface synchronously here as 4xx with a typed error
// code; only the stream drain runs in the background. Accepted jobs answer
// 200/in_progress, and pollers see URLs as they are found.
func PostDiscover(p *discovery.Pipeline, cc *cache.Cache, wh *webhook.Sender) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.DiscoverRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.DiscoverResponse{
				Status: models.StatusFailed,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}
		req.Defaults()

		jobID := "disc-" + randomID()
		job := &discoverJob{
			id:        jobID,
			domain:    req.Domain,
			status:    models.StatusInProgress,
			createdAt: time.Now().Unix(),
		}

		// Serve a fresh-enough completed run from cache when requested.
		key := cache.Key(req.Domain, req.MaxURLs, req.MaxDepth)
		if res, ok := cc.Get(key, req.MaxAgeMs); ok {
			job.status = res.Status
			job.domain = res.Domain
			job.urls = res.URLs
			job.cacheStatus = "hit"
			discoverStore.Store(jobID, job)
			c.JSON(http.StatusOK, models.DiscoverResponse{ID: jobID, Status: res.Status})
			return
		}
		if req.MaxAgeMs > 0 {
			job.cacheStatus = "miss"
		}

		budgets := discovery.Budgets{
			MaxURLs:  req.MaxURLs,
			MaxDepth: req.MaxDepth,
			Timeout:  time.Duration(req.Timeout) * time.Second,
		}

		stream, err := p.Discover(context.Background(), req.Domain, budgets)
		if err != nil {
			detail := &models.ErrorDetail{Code: models.ErrCodeInternal, Message: err.Error()}
			var derr *models.DiscoveryError
			if errors.As(err, &derr) {
				detail = derr.ToDetail()
			}

			if req.WebhookURL != "" {
				wh.DeliverAsync(req.WebhookURL, req.WebhookSecret,
					webhook.FailedEvent(req.Domain, detail))
			}

			c.JSON(fatalStatusCode(detail.Code), models.DiscoverResponse{
				Status: models.StatusFailed,
				Error:  detail,
			})
			return
		}

		discoverStore.Store(jobID, job)

		go drainDiscover(stream, cc, key, job, req, wh)

		c.JSON(http.StatusOK, models.DiscoverResponse{
			ID:     jobID,
			Status: models.StatusInProgress,
		})
	}
}

// fatalStatusCode maps run-aborting error codes to HTTP statuses.
func fatalStatusCode(code string) int {
	switch code {
	case models.ErrCodeInvalidDomain:
		return http.StatusBadRequest
	case models.ErrCodeRobotsDisallowed:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// GetDiscover returns a handler for GET /api/v1/discover/:id.
func GetDiscover() gin.HandlerFunc {
	return func(c *gin.Context) {
		jobID := c.Param("id")
		val, ok := discoverStore.Load(jobID)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{
				"error": models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "discovery job not found",
				},
			})
			return
		}

		c.JSON(http.StatusOK, val.(*discoverJob).snapshot())
	}
}

// drainDiscover consumes the stream into the job and settles it.
func drainDiscover(stream *discovery.Stream, cc *cache.Cache, cacheKey string, job *discoverJob, req models.DiscoverRequest, wh *webhook.Sender) {
	for u := range stream.URLs() {
		job.append(u)
	}

	res := stream.Result()
	job.finish(res.Status, res.Error)
	cc.Set(cacheKey, &res)

	if req.WebhookURL != "" {
		wh.DeliverAsync(req.WebhookURL, req.WebhookSecret,
			webhook.CompletedEvent(job.id, &res))
	}
}

// randomID generates a short random hex string for job IDs.
func randomID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
