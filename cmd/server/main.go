package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/flexprice/curbside/internal/api"
	v1 "github.com/flexprice/curbside/internal/api/v1"
	"github.com/flexprice/curbside/internal/cache"
	"github.com/flexprice/curbside/internal/clock"
	"github.com/flexprice/curbside/internal/config"
	"github.com/flexprice/curbside/internal/domain/billing"
	"github.com/flexprice/curbside/internal/domain/servicearea"
	"github.com/flexprice/curbside/internal/idempotency"
	stripeintegration "github.com/flexprice/curbside/internal/integration/stripe"
	"github.com/flexprice/curbside/internal/logger"
	"github.com/flexprice/curbside/internal/redis"
	"github.com/flexprice/curbside/internal/sentry"
	"github.com/flexprice/curbside/internal/service"
	"github.com/flexprice/curbside/internal/types"
	"github.com/flexprice/curbside/internal/validator"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Clock
			provideClock,

			// Cache
			cache.NewInMemoryCache,

			// Event de-duplication
			redis.NewClient,
			idempotency.NewStore,
			idempotency.NewGenerator,

			// Billing provider
			stripeintegration.NewClient,
			fx.Annotate(stripeintegration.NewProvider, fx.As(new(billing.Provider))),
			fx.Annotate(provideEventParser, fx.As(new(billing.EventParser))),

			// Service area
			servicearea.NewResolverFromConfig,
		),
		sentry.Module(),
	)

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewServiceParams,
			service.NewReconcilerService,
			service.NewSubscriptionService,
			service.NewWebhookService,
		),
	)

	// API
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			api.NewRouter,
		),
		fx.Invoke(
			validator.NewValidator,
			startServer,
		),
	)

	app := fx.New(opts...)
	app.Run()
}

func provideClock() clock.Clock {
	return clock.SystemClock{}
}

func provideEventParser(client *stripeintegration.Client) *stripeintegration.Client {
	return client
}

func provideHandlers(
	logger *logger.Logger,
	subscriptionService service.SubscriptionService,
	reconcilerService service.ReconcilerService,
	webhookService service.WebhookService,
) api.Handlers {
	return api.Handlers{
		Health:       v1.NewHealthHandler(logger),
		Subscription: v1.NewSubscriptionHandler(subscriptionService, reconcilerService, logger),
		Webhook:      v1.NewWebhookHandler(webhookService, logger),
	}
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	log *logger.Logger,
) {
	mode := cfg.Deployment.Mode
	if mode == "" {
		mode = types.ModeLocal
	}

	switch mode {
	case types.ModeLocal, types.ModeAPI:
		startAPIServer(lc, r, cfg, log)
	default:
		log.Fatalf("Unknown deployment mode: %s", mode)
	}
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info("Registering API server start hook")
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("Starting API server...", "address", cfg.Server.Address, "mode", cfg.Deployment.Mode)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			return srv.Shutdown(ctx)
		},
	})
}
