package api

import (
	v1 "github.com/flexprice/curbside/internal/api/v1"
	"github.com/flexprice/curbside/internal/config"
	"github.com/flexprice/curbside/internal/rest/middleware"
	"github.com/flexprice/curbside/internal/types"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Health       *v1.HealthHandler
	Subscription *v1.SubscriptionHandler
	Webhook      *v1.WebhookHandler
}

func NewRouter(handlers Handlers, cfg *config.Configuration) *gin.Engine {
	if cfg.Deployment.Mode != types.ModeLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.SentryMiddleware(cfg),
		middleware.RequestIDMiddleware,
		middleware.CORSMiddleware,
		middleware.ErrorHandler(),
	)

	router.GET("/health", handlers.Health.Health)

	v1Group := router.Group("/v1")
	registerV1Routes(v1Group, handlers)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	subscriptions := router.Group("/subscriptions")
	{
		subscriptions.POST("", handlers.Subscription.CreateSubscription)
		subscriptions.POST("/quote", handlers.Subscription.Quote)
		subscriptions.POST("/:id/reconcile", handlers.Subscription.Reconcile)
	}

	// provider webhooks are authenticated by signature
	webhooks := router.Group("/webhooks")
	{
		webhooks.POST("/stripe", handlers.Webhook.HandleStripeWebhook)
	}
}
