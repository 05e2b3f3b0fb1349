package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	"github.com/siteforge/domainops/api/handlers"
	"github.com/siteforge/domainops/api/middleware"
	"github.com/siteforge/domainops/internal/logger"
	"github.com/siteforge/domainops/internal/repository"
	"github.com/siteforge/domainops/internal/tracing"
	"github.com/siteforge/domainops/services"
)

// RegisterRoutes sets up all API endpoints
func RegisterRoutes(ctx context.Context, r *gin.Engine, log logger.Logger, s *services.Services, repos *repository.Repositories, apikey string) {
	if s == nil {
		panic("Services cannot be nil")
	}
	if repos == nil {
		panic("Repositories cannot be nil")
	}

	// Add recovery middlewares
	r.Use(gin.Recovery())                                         // Gin's built-in recovery
	r.Use(tracing.RecoveryWithJaeger(opentracing.GlobalTracer())) // Our custom Jaeger recovery

	// setup handlers
	apiHandlers := handlers.InitHandlers(log, repos, s)

	// Health check endpoint (no custom context needed)
	r.GET("/health", handlers.HealthCheck)

	apiKeyMiddleware := middleware.APIKeyMiddleware(middleware.APIKeyConfig{
		HeaderName:  "X-DOMAINOPS-API-KEY",
		ValidAPIKey: apikey,
	})

	// API group with version and custom context
	api := r.Group("/v1")
	api.Use(apiKeyMiddleware)
	api.Use(middleware.CustomContextMiddleware("domainops")) // Add custom context for all /v1/* endpoints
	api.Use(middleware.TracingMiddleware())                  // Add tracing for all /v1/* endpoints
	{
		// Purchase session endpoints
		purchases := api.Group("/purchases")
		{
			purchases.POST("", apiHandlers.Purchases.Start())
			purchases.POST("/:id/cancel", apiHandlers.Purchases.Cancel())
			purchases.GET("/:id/progress", apiHandlers.Purchases.Progress())
		}

		// Domain endpoints
		domains := api.Group("/domains")
		{
			domains.GET("", apiHandlers.Domains.List())
			domains.GET("/:id/integrations", apiHandlers.Domains.Integrations())
			domains.POST("/:id/deactivate", apiHandlers.Domains.Deactivate())
		}
	}
}
