package main

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/profile-pulse/internal/adapters"
	"github.com/ZanzyTHEbar/profile-pulse/internal/analysis"
	"github.com/ZanzyTHEbar/profile-pulse/internal/cache"
	"github.com/ZanzyTHEbar/profile-pulse/internal/errors"
	"github.com/ZanzyTHEbar/profile-pulse/internal/history"
	"github.com/ZanzyTHEbar/profile-pulse/internal/monitoring"
	"github.com/ZanzyTHEbar/profile-pulse/internal/ratelimit"
	"github.com/ZanzyTHEbar/profile-pulse/internal/resilience"
	"github.com/ZanzyTHEbar/profile-pulse/internal/security"
	"github.com/ZanzyTHEbar/profile-pulse/internal/types"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const version = "1.0.0"

// Analyses fan out to several GitHub API calls, so the analyze endpoint gets
// a tighter per-IP cap than the global limit.
const analyzeLimitPerMin = 10

// server bundles the handler dependencies.
type server struct {
	github      *adapters.GitHubAdapter
	engine      *analysis.Engine
	store       *history.Store
	db          *history.DB
	cache       *cache.Cache
	metrics     *monitoring.Metrics
	logger      *monitoring.Logger
	limiter     *ratelimit.RateLimiter
	sec         *security.Middleware
	avatarHosts []string
}

// setupRouter builds the gin engine with the full middleware chain and routes.
func (s *server) setupRouter(allowedOrigins []string) *gin.Engine {
	r := gin.New()

	r.Use(monitoring.MonitoringMiddleware(s.metrics, s.logger))
	r.Use(monitoring.SecurityMonitoringMiddleware(s.logger))

	r.Use(errors.ErrorHandler())
	r.Use(errors.RecoveryHandler())

	r.Use(s.sec.SecurityHeaders)
	r.Use(s.sec.RequestTimeout)
	r.Use(s.sec.ValidateContentType)

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if s.limiter != nil {
		r.Use(s.limiter.IPRateLimitMiddleware())
	}

	r.Use(s.cache.Middleware(s.metrics))

	if s.limiter != nil {
		r.POST("/analyze", s.limiter.EndpointRateLimitMiddleware("analyze", analyzeLimitPerMin), s.handleAnalyze)
	} else {
		r.POST("/analyze", s.handleAnalyze)
	}
	r.GET("/avatar", s.handleAvatar)
	r.GET("/health", s.handleHealth)
	r.GET("/metrics", s.handleMetrics)
	r.GET("/cache/stats", s.handleCacheStats)
	r.GET("/pools/github", s.handleGitHubPoolStats)
	r.GET("/pools/database", s.handleDatabasePoolStats)
	r.GET("/history/:username", s.handleHistory)
	r.GET("/top", s.handleTopScores)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// handleAnalyze scores a GitHub profile and returns the composite result.
func (s *server) handleAnalyze(c *gin.Context) {
	start := time.Now()

	var req types.AnalyzeRequest
	if err := c.BindJSON(&req); err != nil {
		appErr := errors.NewValidationError("invalid JSON body", err.Error())
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	username := s.sec.SanitizeUsername(req.Username)
	if err := s.sec.ValidateUsername(username); err != nil {
		appErr := errors.NewValidationError(err.Error())
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	slog.Info("Starting analysis", "username", username, "ip", c.ClientIP())

	source := s.github.WithToken(req.Token)
	analyzer := analysis.NewAnalyzer(source, s.engine)

	s.metrics.IncrementGitHubCalls()

	result, err := analyzer.Analyze(c.Request.Context(), username)
	if err != nil {
		appErr := errors.ToAppError(err)
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	s.metrics.IncrementAnalyses()
	s.logger.AnalysisLogger(username, result.Score, time.Since(start), false)

	if s.store != nil {
		// Persist outside the request path; a failed insert must not fail
		// the response.
		go func(username string, result analysis.Result) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if _, err := s.store.SaveAnalysis(ctx, username, &result); err != nil {
				slog.Error("Failed to save analysis", "username", username, "error", err)
			}
		}(username, result)
	}

	c.JSON(http.StatusOK, types.NewAnalyzeResponse(username, &result))
}

// handleAvatar proxies an avatar image from an allowed host.
func (s *server) handleAvatar(c *gin.Context) {
	rawURL := c.Query("url")
	if rawURL == "" {
		appErr := errors.NewValidationError("url query parameter is required")
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		appErr := errors.NewValidationError("url must be an absolute http(s) URL")
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	if !s.isAllowedAvatarHost(parsed.Host) {
		appErr := errors.NewValidationError("avatar host not allowed")
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	data, contentType, err := s.github.FetchAvatar(c.Request.Context(), rawURL)
	if err != nil {
		appErr := errors.NewExternalAPIError("Avatar", err)
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	s.metrics.IncrementAvatarFetches()

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, contentType, data)
}

func (s *server) isAllowedAvatarHost(host string) bool {
	for _, allowed := range s.avatarHosts {
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return true
		}
	}
	return false
}

func (s *server) handleHealth(c *gin.Context) {
	status := "ok"
	httpStatus := http.StatusOK

	poolStats := s.github.GetPoolStats()
	if state, ok := poolStats["circuit_breaker_state"].(resilience.CircuitBreakerState); ok && state == resilience.StateOpen {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, gin.H{
		"status":      status,
		"timestamp":   time.Now().Format(time.RFC3339),
		"version":     version,
		"github_pool": poolStats,
		"metrics":     s.metrics.GetStats(),
	})
}

func (s *server) handleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, s.metrics.GetStats())
}

func (s *server) handleCacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.cache.Stats())
}

func (s *server) handleGitHubPoolStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"pool":  "github",
		"stats": s.github.GetPoolStats(),
	})
}

func (s *server) handleDatabasePoolStats(c *gin.Context) {
	if s.db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history database not configured"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"pool":  "database",
		"stats": s.db.GetPoolStats(),
	})
}

// handleHistory returns past analyses for a username, newest first.
func (s *server) handleHistory(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history database not configured"})
		return
	}

	username := s.sec.SanitizeUsername(c.Param("username"))
	if err := s.sec.ValidateUsername(username); err != nil {
		appErr := errors.NewValidationError(err.Error())
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	limit := parseLimit(c.Query("limit"), 10, 100)

	entries, err := s.store.History(c.Request.Context(), username, limit)
	if err != nil {
		appErr := errors.ToAppError(err)
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"username": username,
		"entries":  entries,
	})
}

// handleTopScores returns the best score seen per username.
func (s *server) handleTopScores(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history database not configured"})
		return
	}

	limit := parseLimit(c.Query("limit"), 10, 100)

	scores, err := s.store.TopScores(c.Request.Context(), limit)
	if err != nil {
		appErr := errors.ToAppError(err)
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"top": scores,
	})
}

func parseLimit(raw string, fallback, max int) int {
	if raw == "" {
		return fallback
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return fallback
	}
	if limit > max {
		return max
	}
	return limit
}
