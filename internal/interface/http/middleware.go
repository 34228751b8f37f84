package http

import (
	"log/slog"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/health-voice/internal/infra/config"
)

func errorHandlingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		httpErr := asHTTPError(c.Errors.Last().Err)
		message := httpErr.Message
		if message == "" {
			message = httpErr.Error()
		}

		if httpErr.Status >= http.StatusInternalServerError {
			logger.Error("request failed", "code", httpErr.Code, "status", httpErr.Status, "path", c.Request.URL.Path, "error", httpErr.Err)
		} else {
			logger.Warn("request failed", "code", httpErr.Code, "status", httpErr.Status, "path", c.Request.URL.Path, "error", httpErr.Err)
		}

		body := gin.H{
			"error": message,
			"code":  httpErr.Code,
		}
		if httpErr.Status >= http.StatusInternalServerError && httpErr.Details != "" {
			body["details"] = httpErr.Details
		}
		c.JSON(httpErr.Status, body)
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("http request", "method", c.Request.Method, "path", c.Request.URL.Path, "status", c.Writer.Status(), "latency_ms", latency.Milliseconds())
	}
}

const voiceQueryRoute = "/process-voice-query"

// rateLimitMiddleware throttles per client IP. Voice queries fan out to
// speech recognition, the pipeline and synthesis, so they draw VoiceCost
// tokens from the same bucket.
func rateLimitMiddleware(cfg config.RateLimitConfig, logger *slog.Logger) gin.HandlerFunc {
	if !cfg.Enabled || cfg.RequestsPerMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	limiter := newClientLimiter(cfg)
	voiceCost := float64(cfg.VoiceCost)
	if voiceCost < 1 {
		voiceCost = 1
	}
	return func(c *gin.Context) {
		cost := 1.0
		if c.FullPath() == voiceQueryRoute {
			cost = voiceCost
		}
		ip := c.ClientIP()
		if limiter.take(ip, cost) {
			c.Next()
			return
		}
		logger.Warn("rate limit exceeded", "ip", ip, "path", c.Request.URL.Path, "cost", cost)
		abortWithError(c, NewHTTPError(http.StatusTooManyRequests, "rate_limit_exceeded", "too many requests", nil))
	}
}

// clientLimiter is a token bucket per client key. Idle buckets are swept at
// most once per idleAfter.
type clientLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	perMinute float64
	capacity  float64
	idleAfter time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type bucket struct {
	tokens  float64
	updated time.Time
}

func newClientLimiter(cfg config.RateLimitConfig) *clientLimiter {
	return &clientLimiter{
		buckets:   make(map[string]*bucket),
		perMinute: float64(cfg.RequestsPerMinute),
		capacity:  float64(cfg.Burst),
		idleAfter: 5 * time.Minute,
		now:       time.Now,
	}
}

func (l *clientLimiter) take(key string, cost float64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweepLocked(now)

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.capacity, updated: now}
		l.buckets[key] = b
	} else if elapsed := now.Sub(b.updated).Minutes(); elapsed > 0 {
		b.tokens = math.Min(l.capacity, b.tokens+elapsed*l.perMinute)
		b.updated = now
	}

	if b.tokens < cost {
		return false
	}
	b.tokens -= cost
	return true
}

func (l *clientLimiter) sweepLocked(now time.Time) {
	if now.Sub(l.lastSweep) < l.idleAfter {
		return
	}
	l.lastSweep = now
	for key, b := range l.buckets {
		if now.Sub(b.updated) > l.idleAfter {
			delete(l.buckets, key)
		}
	}
}
