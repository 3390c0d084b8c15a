package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"trade-journal/internal/errors"
	"trade-journal/internal/logging"
	"trade-journal/internal/metrics"
	"trade-journal/internal/security"
)

// rateLimitMiddleware rejects requests once the shared token bucket is empty.
// Health and metrics stay reachable.
func rateLimitMiddleware(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := c.Request.URL.Path
		if p == "/health" || p == "/metrics" {
			c.Next()
			return
		}
		if !limiter.Allow() {
			metrics.HTTPRateLimited.Inc()
			c.Header("Retry-After", "1")
			Fail(c, errors.ErrRateLimited)
			return
		}
		c.Next()
	}
}

// requestMiddleware records metrics and a log line per request and puts the
// logger on the request context.
func requestMiddleware(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		ctx := logging.WithLogger(c.Request.Context(), logger)
		c.Request = c.Request.WithContext(security.WithSource(ctx, "api"))

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		latency := time.Since(start)

		var err error
		if last := c.Errors.Last(); last != nil {
			err = last.Err
		}

		metrics.RecordHTTPRequest(c.Request.Method, route, status, latency)
		logging.LogRequest(logger, c.Request.Method, c.Request.URL.Path, status, latency, err)
	}
}
