package service

import (
	"github.com/flexprice/curbside/internal/cache"
	"github.com/flexprice/curbside/internal/clock"
	"github.com/flexprice/curbside/internal/config"
	"github.com/flexprice/curbside/internal/domain/billing"
	"github.com/flexprice/curbside/internal/domain/servicearea"
	"github.com/flexprice/curbside/internal/idempotency"
	"github.com/flexprice/curbside/internal/logger"
	"github.com/flexprice/curbside/internal/sentry"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	Clock  clock.Clock
	Sentry *sentry.Service

	Resolver *servicearea.Resolver
	Cache    cache.Cache

	// Billing provider
	Provider    billing.Provider
	EventParser billing.EventParser

	// Event de-duplication
	DedupStore idempotency.Store
	Keys       *idempotency.Generator
}

// Common service params
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	clock clock.Clock,
	sentry *sentry.Service,
	resolver *servicearea.Resolver,
	cache cache.Cache,
	provider billing.Provider,
	eventParser billing.EventParser,
	dedupStore idempotency.Store,
	keys *idempotency.Generator,
) ServiceParams {
	return ServiceParams{
		Logger:      logger,
		Config:      config,
		Clock:       clock,
		Sentry:      sentry,
		Resolver:    resolver,
		Cache:       cache,
		Provider:    provider,
		EventParser: eventParser,
		DedupStore:  dedupStore,
		Keys:        keys,
	}
}
