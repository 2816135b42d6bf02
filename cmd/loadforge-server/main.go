// Command loadforge-server runs LoadForge's control-plane API: it
// accepts run-launch requests, supervises their coordinators, and
// streams live snapshots back over WebSocket.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/loadforge/loadforge/internal/api/handler"
	"github.com/loadforge/loadforge/internal/api/router"
	"github.com/loadforge/loadforge/internal/auth"
	"github.com/loadforge/loadforge/internal/config"
	"github.com/loadforge/loadforge/internal/logger"
	"github.com/loadforge/loadforge/internal/metrics"
	"github.com/loadforge/loadforge/internal/middleware"
	"github.com/loadforge/loadforge/internal/runservice"
	"go.uber.org/zap"
)

func main() {
	bootstrapKey := flag.String("bootstrap-admin-key", os.Getenv("LOADFORGE_BOOTSTRAP_ADMIN_KEY"), "plaintext admin API key to register on startup; only needed on a deployment's first boot")
	flag.Parse()

	cfg := config.Load()

	if err := logger.Init(cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Log.Sync()

	apiKeyService := auth.NewAPIKeyService()
	if *bootstrapKey != "" {
		apiKeyService.BootstrapAdminKey(*bootstrapKey, "bootstrap admin")
		logger.Log.Info("registered bootstrap admin key")
	} else if cfg.AuthEnabled {
		logger.Log.Warn("AUTH_ENABLED is true but no bootstrap admin key was supplied; no API key can authenticate until one is minted out of band")
	}

	registry := runservice.NewRegistry()

	var metricsCollector *metrics.Collector
	if cfg.MetricsEnabled {
		metricsCollector = metrics.NewCollector()
	}

	var rateLimitMiddleware gin.HandlerFunc
	if cfg.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimitPerSecond, int(cfg.RateLimitPerSecond)+1)
		rateLimitMiddleware = middleware.RateLimitMiddleware(limiter)
	}

	r := router.SetupRouter(router.RouterConfig{
		TestRunHandler:      handler.NewTestRunHandler(registry),
		WebSocketHandler:    handler.NewWebSocketHandler(registry, logger.Log, cfg),
		AuthHandler:         handler.NewAuthHandler(apiKeyService),
		MetricsHandler:      handler.NewMetricsHandler(),
		APIKeyService:       apiKeyService,
		RateLimitMiddleware: rateLimitMiddleware,
		AuthEnabled:         cfg.AuthEnabled,
		Config:              cfg,
		Logger:              logger.Log,
		MetricsCollector:    metricsCollector,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("starting loadforge-server", zap.String("port", cfg.ServerPort), zap.String("environment", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.GracePeriodSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Log.Info("server stopped")
}
