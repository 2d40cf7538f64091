package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/schemabot/sitescout/models"
	"github.com/schemabot/sitescout/renderer"
)

// Health returns a handler for GET /api/v1/health. Status flips to
// "degraded" when the browser page pool is near saturation.
func Health(r *renderer.Renderer) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := models.HealthResponse{
			Status:  "healthy",
			Version: models.Version,
		}
		if r != nil {
			resp.Uptime = r.Uptime().Round(time.Second).String()
			resp.PoolStats = r.Stats()
			if resp.PoolStats.MaxPages > 0 &&
				resp.PoolStats.ActivePages*100/resp.PoolStats.MaxPages > 80 {
				resp.Status = "degraded"
			}
		}
		c.JSON(http.StatusOK, resp)
	}
}
