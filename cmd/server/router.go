package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/devscore/github-score-api/internal/errors"
	"github.com/devscore/github-score-api/internal/monitoring"
	"github.com/devscore/github-score-api/internal/ratelimit"
	"github.com/devscore/github-score-api/internal/security"
	"github.com/devscore/github-score-api/internal/service"
	"github.com/devscore/github-score-api/internal/types"
)

const scoreTimeout = 60 * time.Second

// newRouter assembles the gin engine with middleware and routes. Kept apart
// from main so tests can drive the full handler chain in-process.
func newRouter(svc *service.ScoreService, metrics *monitoring.Metrics, limiter *ratelimit.RateLimiter) *gin.Engine {
	r := gin.New()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-Request-ID"}
	r.Use(cors.New(corsConfig))

	r.Use(security.HeadersMiddleware())
	r.Use(monitoring.Middleware(metrics))
	r.Use(errors.ErrorHandler())
	r.Use(errors.RecoveryHandler())
	if limiter != nil {
		r.Use(limiter.IPRateLimitMiddleware())
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"metrics":   metrics.GetStats(),
		})
	})

	r.GET("/metrics", func(c *gin.Context) {
		stats := metrics.GetStats()
		if limiter != nil {
			stats["rate_limiter"] = limiter.GetStats()
		}
		c.JSON(http.StatusOK, stats)
	})

	r.POST("/api/score", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), scoreTimeout)
		defer cancel()

		var req types.ScoreRequest
		if err := c.BindJSON(&req); err != nil {
			appErr := errors.NewValidationError("username is required")
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		req.Username = strings.TrimSpace(req.Username)
		if req.Username == "" {
			appErr := errors.NewValidationError("username cannot be empty")
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		response, err := svc.ScoreUser(ctx, req.Username)
		if err != nil {
			appErr := errors.ToAppError(err)
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		c.JSON(http.StatusOK, response)
	})

	return r
}
