package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"reading-tree/backend/internal/config"
	"reading-tree/backend/internal/handler"
	"reading-tree/backend/internal/middleware"
	"reading-tree/backend/internal/recommender"
	"reading-tree/backend/internal/recommender/deps"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

// NewLLMClient builds the completion client for the configured provider
func NewLLMClient(ctx context.Context, cfg *config.Config) (deps.LLMClient, error) {
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		return recommender.NewOpenAILLMClient(recommender.OpenAIConfig{
			APIKey:     cfg.OpenAIAPIKey,
			Model:      cfg.OpenAIModel,
			BaseURL:    cfg.OpenAIBaseURL,
			MaxRetries: cfg.OpenAIMaxRetries,
			Timeout:    cfg.AttemptTimeout,
		}), nil
	case config.ProviderGemini:
		return recommender.NewGeminiLLMClient(ctx, recommender.GeminiConfig{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.GeminiModel,
			BaseURL: cfg.GeminiBaseURL,
		})
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}
}

// NewRouter wires middleware and routes around a recommender
func NewRouter(cfg *config.Config, rec handler.Recommender) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// ClientIP keys the rate limiter, so only configured proxies may set X-Forwarded-For
	if err := r.SetTrustedProxies(cfg.TrustedProxyList()); err != nil {
		log.Printf("[WARN] Invalid trusted_proxies %q, trusting none: %v", cfg.TrustedProxies, err)
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(middleware.RequestID())

	// Security headers (before CORS)
	r.Use(middleware.SecurityHeaders())

	allowedOrigins := cfg.Origins()
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Accept-Language", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader, "Retry-After"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = allowedOrigins
	}
	r.Use(cors.New(corsConfig))

	ipLimiter := middleware.PerMinute(cfg.RateLimitPerMinute)
	var dailyQuota *middleware.DailyQuota
	if cfg.DailyQuota > 0 {
		dailyQuota = middleware.NewDailyQuota(cfg.DailyQuota, time.UTC)
	}
	log.Printf("[INFO] Rate limiting enabled per_minute=%d daily_quota=%d", cfg.RateLimitPerMinute, cfg.DailyQuota)

	// Health check endpoints (no rate limiting)
	r.GET("/healthz", handler.HandleHealth)
	r.GET("/ready", handler.HandleReadiness(cfg.LLMProvider))

	recommendHandler := handler.NewRecommendHandler(rec, cfg.MaxPromptRunes)
	r.POST("/recommend", middleware.RateLimitMiddleware(ipLimiter, dailyQuota), recommendHandler.HandleRecommend)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found"})
	})

	return r
}

// Run serves the router until ctx is cancelled, then shuts down gracefully
func Run(ctx context.Context, cfg *config.Config, engine http.Handler) error {
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[INFO] Server ready port=%s provider=%s allowed_origins=%v", cfg.Port, cfg.LLMProvider, cfg.Origins())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Printf("[INFO] Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
