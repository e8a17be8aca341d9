package stripe

import (
	"errors"
	"net/http"

	"github.com/flexprice/curbside/internal/config"
	ierr "github.com/flexprice/curbside/internal/errors"
	"github.com/flexprice/curbside/internal/idempotency"
	"github.com/flexprice/curbside/internal/logger"
	"github.com/stripe/stripe-go/v82"
)

// Client owns the configured Stripe API client
type Client struct {
	api           *stripe.Client
	webhookSecret string
	keys          *idempotency.Generator
	logger        *logger.Logger
}

// NewClient creates a new Stripe client from the stripe config section
func NewClient(cfg *config.Configuration, keys *idempotency.Generator, logger *logger.Logger) *Client {
	return &Client{
		api:           stripe.NewClient(cfg.Stripe.SecretKey, nil),
		webhookSecret: cfg.Stripe.WebhookSecret,
		keys:          keys,
		logger:        logger,
	}
}

// wrapError maps a Stripe API error onto the internal taxonomy
func wrapError(err error, msg string, details map[string]any) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		details["stripe_code"] = string(stripeErr.Code)
		details["stripe_status"] = stripeErr.HTTPStatusCode
		details["stripe_request_id"] = stripeErr.RequestID

		if stripeErr.HTTPStatusCode == http.StatusNotFound || stripeErr.Code == stripe.ErrorCodeResourceMissing {
			return ierr.WithError(err).
				WithMessage(msg).
				WithHint("The billing record could not be found").
				WithReportableDetails(details).
				Mark(ierr.ErrNotFound)
		}
	}

	return ierr.WithError(err).
		WithMessage(msg).
		WithHint("The billing provider is unavailable, please try again").
		WithReportableDetails(details).
		Mark(ierr.ErrProviderUnavailable)
}
