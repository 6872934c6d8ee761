package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ZanzyTHEbar/profile-pulse/internal/adapters"
	"github.com/ZanzyTHEbar/profile-pulse/internal/analysis"
	"github.com/ZanzyTHEbar/profile-pulse/internal/cache"
	"github.com/ZanzyTHEbar/profile-pulse/internal/history"
	"github.com/ZanzyTHEbar/profile-pulse/internal/monitoring"
	"github.com/ZanzyTHEbar/profile-pulse/internal/ratelimit"
	"github.com/ZanzyTHEbar/profile-pulse/internal/security"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Configuration from environment with defaults
	dataDir := getEnvOrDefault("DATA_DIR", "./data")
	githubToken := os.Getenv("GITHUB_TOKEN")
	port := getEnvOrDefault("PORT", "8080")
	cacheTTL := getEnvDurationOrDefault("CACHE_TTL", 15*time.Minute)
	redisAddr := os.Getenv("REDIS_ADDR")
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := getEnvIntOrDefault("REDIS_DB", 0)
	ipLimitPerMin := getEnvIntOrDefault("IP_RATE_LIMIT_PER_MIN", 60)
	allowedOrigins := strings.Split(getEnvOrDefault("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173"), ",")

	// History database
	db, err := history.NewDB(dataDir)
	if err != nil {
		slog.Error("Failed to initialize history database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	store := history.NewStore(db)

	// Scoring engine
	engine, err := analysis.NewEngine(analysis.DefaultConfig())
	if err != nil {
		slog.Error("Invalid scoring configuration", "error", err)
		os.Exit(1)
	}

	githubAdapter := adapters.NewGitHubAdapter(githubToken)

	appMetrics := monitoring.NewMetrics()
	appLogger := monitoring.NewLogger()

	// Rate limiting backed by Redis when configured, in-memory otherwise
	redisClient, err := ratelimit.NewRedisClient(redisAddr, redisPassword, redisDB)
	if err != nil {
		slog.Warn("Redis connection failed, continuing with fallback rate limiting", "error", err)
	}
	limiterConfig := ratelimit.DefaultConfig()
	limiterConfig.IPLimitPerMin = ipLimitPerMin
	limiter := ratelimit.NewRateLimiter(redisClient, limiterConfig, appMetrics)

	srv := &server{
		github:      githubAdapter,
		engine:      engine,
		store:       store,
		db:          db,
		cache:       cache.NewCache(cacheTTL),
		metrics:     appMetrics,
		logger:      appLogger,
		limiter:     limiter,
		sec:         security.NewMiddleware(security.DefaultConfig()),
		avatarHosts: []string{"githubusercontent.com"},
	}

	r := srv.setupRouter(allowedOrigins)

	httpServer := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		slog.Info("Starting server", "port", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	githubAdapter.Close()
	if redisClient != nil {
		redisClient.Close()
	}

	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
		slog.Warn("Invalid integer in environment, using default", "key", key, "value", value)
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
		slog.Warn("Invalid duration in environment, using default", "key", key, "value", value)
	}
	return defaultValue
}
