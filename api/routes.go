package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/customeros/formlayer/api/handlers"
	"github.com/customeros/formlayer/api/middleware"
	"github.com/customeros/formlayer/config"
	"github.com/customeros/formlayer/internal/logger"
	"github.com/customeros/formlayer/internal/metrics"
	"github.com/customeros/formlayer/internal/tracing"
	"github.com/customeros/formlayer/services"
)

const (
	appSource    = "formlayer"
	APIKeyHeader = "X-FORMLAYER-API-KEY"
)

// RegisterRoutes sets up all API endpoints
func RegisterRoutes(ctx context.Context, r *gin.Engine, cfg *config.Config, s *services.Services, log logger.Logger) {
	if s == nil {
		panic("Services cannot be nil")
	}

	metrics.Register()

	// Add recovery middlewares
	r.Use(gin.Recovery())                                         // Gin's built-in recovery
	r.Use(tracing.RecoveryWithJaeger(opentracing.GlobalTracer())) // Our custom Jaeger recovery
	r.Use(middleware.MetricsMiddleware())

	// setup handlers
	apiHandlers := handlers.InitHandlers(cfg, log, s)

	// Health, status and browser assets (no api key)
	r.GET("/health", handlers.HealthCheck)
	r.GET("/status", handlers.Status(s.StatusService))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/assets/formlayer.js", apiHandlers.Assets.Listener())

	apiKeyMiddleware := middleware.APIKeyMiddleware(middleware.APIKeyConfig{
		HeaderName:  APIKeyHeader,
		ValidAPIKey: cfg.AppConfig.APIKey,
	})

	// API group with version and custom context
	api := r.Group("/v1")
	api.Use(apiKeyMiddleware)
	api.Use(middleware.SessionMiddleware())
	api.Use(middleware.CustomContextMiddleware(appSource))
	api.Use(middleware.TracingMiddleware())
	{
		api.GET("/forms", apiHandlers.Settings.List())

		forms := api.Group("/forms/:formId")
		{
			forms.POST("/submissions", apiHandlers.Submissions.Submit())
			forms.POST("/ajax-response", apiHandlers.Delivery.AjaxResponse())
			forms.POST("/confirmation", apiHandlers.Delivery.Confirmation())
			forms.GET("/settings", apiHandlers.Settings.Get())
			forms.PUT("/settings", apiHandlers.Settings.Put())
			forms.GET("/debug/:submissionId", apiHandlers.Debug.Get())
			forms.DELETE("/debug/:submissionId", apiHandlers.Debug.Delete())
			forms.GET("/pushes", apiHandlers.Pushes.Count())
			forms.GET("/pushes/:submissionId", apiHandlers.Pushes.Get())
		}

		api.GET("/sessions/:sessionKey/footer", apiHandlers.Delivery.Footer())
		api.POST("/maintenance/sweep", apiHandlers.Delivery.Sweep())
	}
}
