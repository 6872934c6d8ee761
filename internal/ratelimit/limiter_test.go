package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ZanzyTHEbar/profile-pulse/internal/monitoring"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFallbackLimiter(config Config) *RateLimiter {
	redisClient := &RedisClient{enabled: false}
	return NewRateLimiter(redisClient, config, monitoring.NewMetrics())
}

func TestAllowIPFallbackMode(t *testing.T) {
	limiter := newFallbackLimiter(Config{IPLimitPerMin: 5, BurstMultiplier: 1})

	ctx := context.Background()

	// Burst floor is 5, so the first five requests pass
	for i := 0; i < 5; i++ {
		result, err := limiter.AllowIP(ctx, "203.0.113.1")
		require.NoError(t, err)
		assert.True(t, result.Allowed, "request %d should be allowed", i+1)
		assert.Equal(t, 5, result.Limit)
	}

	result, err := limiter.AllowIP(ctx, "203.0.113.1")
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Greater(t, result.RetryAfter, time.Duration(0))
}

func TestAllowIPIndependentKeys(t *testing.T) {
	limiter := newFallbackLimiter(Config{IPLimitPerMin: 5, BurstMultiplier: 1})

	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := limiter.AllowIP(ctx, "203.0.113.1")
		require.NoError(t, err)
	}

	// A different IP has its own bucket
	result, err := limiter.AllowIP(ctx, "203.0.113.2")
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestIPRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	limiter := newFallbackLimiter(Config{IPLimitPerMin: 5, BurstMultiplier: 1})

	router := gin.New()
	router.Use(limiter.IPRateLimitMiddleware())
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	var lastCode int
	for i := 0; i < 6; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "203.0.113.9:12345"
		router.ServeHTTP(w, req)
		lastCode = w.Code

		if i == 0 {
			assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
		}
	}

	assert.Equal(t, http.StatusTooManyRequests, lastCode)
}

func TestEndpointRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	limiter := newFallbackLimiter(Config{IPLimitPerMin: 100, BurstMultiplier: 1})

	router := gin.New()
	router.POST("/analyze", limiter.EndpointRateLimitMiddleware("analyze", 5), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	var lastCode int
	for i := 0; i < 6; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/analyze", nil)
		req.RemoteAddr = "203.0.113.9:12345"
		router.ServeHTTP(w, req)
		lastCode = w.Code
	}

	assert.Equal(t, http.StatusTooManyRequests, lastCode)
	assert.EqualValues(t, 1, limiter.metrics.RateLimitEndpointBlocks["analyze"])
}

func TestGetStatsFallbackOnly(t *testing.T) {
	limiter := newFallbackLimiter(DefaultConfig())

	_, err := limiter.AllowIP(context.Background(), "203.0.113.7")
	require.NoError(t, err)

	stats := limiter.GetStats()
	assert.Equal(t, false, stats["redis_enabled"])
	assert.Equal(t, 1, stats["fallback_limiters"])
}
