package router

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/loadforge/loadforge/internal/api/handler"
	"github.com/loadforge/loadforge/internal/auth"
	"github.com/loadforge/loadforge/internal/config"
	"github.com/loadforge/loadforge/internal/metrics"
	"github.com/loadforge/loadforge/internal/middleware"
	"go.uber.org/zap"
)

//go:embed swagger-ui
var swaggerUI embed.FS

// RouterConfig holds configuration for router setup
//
//nolint:revive // exported name intentionally includes package name for clarity
type RouterConfig struct {
	TestRunHandler      *handler.TestRunHandler
	WebSocketHandler    *handler.WebSocketHandler
	AuthHandler         *handler.AuthHandler
	MetricsHandler      *handler.MetricsHandler
	APIKeyService       *auth.APIKeyService
	RateLimitMiddleware gin.HandlerFunc
	AuthEnabled         bool
	Config              *config.Config
	Logger              *zap.Logger
	MetricsCollector    *metrics.Collector
}

// SetupRouter configures all API routes.
func SetupRouter(routerConfig RouterConfig) *gin.Engine {
	if routerConfig.Config != nil && routerConfig.Config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New() // gin.New() instead of gin.Default() for custom middleware

	r.Use(middleware.RequestIDMiddleware())

	if routerConfig.Logger != nil {
		r.Use(middleware.RecoveryMiddleware(routerConfig.Logger))
	} else {
		r.Use(gin.Recovery())
	}

	if routerConfig.Logger != nil {
		r.Use(middleware.LoggingMiddlewareWithConfig(middleware.LoggingConfig{
			Logger:    routerConfig.Logger,
			SkipPaths: []string{"/health", "/metrics"},
		}))
	} else {
		r.Use(gin.Logger())
	}

	if routerConfig.MetricsCollector != nil {
		r.Use(middleware.MetricsMiddlewareWithConfig(middleware.MetricsMiddlewareConfig{
			Collector: routerConfig.MetricsCollector,
			SkipPaths: []string{"/metrics"},
		}))
	}

	if routerConfig.Config != nil {
		r.Use(middleware.CORSMiddleware(routerConfig.Config))
	} else {
		r.Use(middleware.CORSMiddlewarePermissive())
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "loadforge",
		})
	})

	if routerConfig.MetricsHandler != nil {
		r.GET("/metrics", routerConfig.MetricsHandler.Handler())
	}

	r.GET("/api/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/api/docs/")
	})
	swaggerFS, _ := fs.Sub(swaggerUI, "swagger-ui")
	r.StaticFS("/api/docs/", http.FS(swaggerFS))

	r.GET("/api/openapi.yaml", func(c *gin.Context) {
		c.File("./docs/openapi.yaml")
	})
	r.GET("/api/openapi.json", func(c *gin.Context) {
		c.File("./docs/openapi.json")
	})

	apiVersionMiddleware := func(c *gin.Context) {
		c.Header("X-API-Version", "v1")
		c.Next()
	}

	api := r.Group("/api/v1")
	api.Use(apiVersionMiddleware)
	{
		// Protected API endpoints. There is no public auth group: keys
		// are minted out of band and used from the first request.
		protected := api
		if routerConfig.AuthEnabled && routerConfig.APIKeyService != nil {
			protected.Use(middleware.AuthMiddleware(routerConfig.APIKeyService))
		}

		if routerConfig.RateLimitMiddleware != nil {
			protected.Use(routerConfig.RateLimitMiddleware)
		}

		if routerConfig.AuthHandler != nil {
			authManagement := protected.Group("/auth")
			if routerConfig.AuthEnabled {
				authManagement.Use(middleware.RequireRole(auth.RoleAdmin))
			}
			{
				authManagement.POST("/api-keys", routerConfig.AuthHandler.CreateAPIKey)
				authManagement.GET("/api-keys", routerConfig.AuthHandler.ListAPIKeys)
				authManagement.DELETE("/api-keys/:id", routerConfig.AuthHandler.RevokeAPIKey)
			}
		}

		if routerConfig.TestRunHandler != nil {
			runs := protected.Group("/runs")
			{
				// Starting and stopping a run needs an admin key; readonly
				// keys may only list and read runs.
				startHandlers := []gin.HandlerFunc{routerConfig.TestRunHandler.StartRun}
				stopHandlers := []gin.HandlerFunc{routerConfig.TestRunHandler.StopRun}
				if routerConfig.AuthEnabled {
					requireAdmin := middleware.RequireRole(auth.RoleAdmin)
					startHandlers = append([]gin.HandlerFunc{requireAdmin}, startHandlers...)
					stopHandlers = append([]gin.HandlerFunc{requireAdmin}, stopHandlers...)
				}
				runs.POST("/start", startHandlers...)
				runs.POST("/:id/stop", stopHandlers...)
				runs.GET("", routerConfig.TestRunHandler.ListRuns)
				runs.GET("/:id", routerConfig.TestRunHandler.GetRun)
				runs.GET("/:id/result", routerConfig.TestRunHandler.GetRunResult)
			}
		}
	}

	if routerConfig.WebSocketHandler != nil {
		ws := r.Group("/ws")
		if routerConfig.AuthEnabled && routerConfig.APIKeyService != nil {
			ws.Use(middleware.OptionalAuth(routerConfig.APIKeyService))
		}
		ws.GET("/runs/:id", routerConfig.WebSocketHandler.LiveRun)
	}

	return r
}
