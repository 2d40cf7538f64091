package api

import (
	"github.com/gin-gonic/gin"

	"github.com/schemabot/sitescout/api/handler"
	"github.com/schemabot/sitescout/api/middleware"
	"github.com/schemabot/sitescout/cache"
	"github.com/schemabot/sitescout/config"
	"github.com/schemabot/sitescout/discovery"
	"github.com/schemabot/sitescout/renderer"
	"github.com/schemabot/sitescout/webhook"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health endpoint is intentionally outside auth so monitoring probes always work.
func NewRouter(p *discovery.Pipeline, rd *renderer.Renderer, cfg *config.Config, cc *cache.Cache, wh *webhook.Sender) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	// Health — no auth required.
	v1.GET("/health", handler.Health(rd))

	// Protected group — auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	// Discovery
	protected.POST("/discover", handler.PostDiscover(p, cc, wh))
	protected.GET("/discover/:id", handler.GetDiscover())

	return r
}
