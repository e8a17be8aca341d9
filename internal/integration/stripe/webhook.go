package stripe

import (
	"encoding/json"
	"time"

	"github.com/flexprice/curbside/internal/domain/billing"
	ierr "github.com/flexprice/curbside/internal/errors"
	"github.com/flexprice/curbside/internal/types"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// ParseEvent verifies the Stripe signature and narrows the event to the
// subscription it concerns
func (c *Client) ParseEvent(payload []byte, signature string) (*billing.Event, error) {
	options := webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, c.webhookSecret, options)
	if err != nil {
		c.logger.Errorw("Stripe webhook verification failed", "error", err)
		return nil, ierr.NewError("failed to verify webhook signature").
			WithHint("Invalid webhook signature or payload").
			Mark(ierr.ErrValidation)
	}

	return toEvent(event)
}

// invoicePayload covers both the legacy top-level subscription field and the
// parent.subscription_details one
type invoicePayload struct {
	Subscription billing.Ref[billing.Subscription] `json:"subscription"`
	Parent       *struct {
		SubscriptionDetails *struct {
			Subscription billing.Ref[billing.Subscription] `json:"subscription"`
		} `json:"subscription_details"`
	} `json:"parent"`
}

type schedulePayload struct {
	Subscription billing.Ref[billing.Subscription] `json:"subscription"`
}

type subscriptionPayload struct {
	ID string `json:"id"`
}

func toEvent(event stripe.Event) (*billing.Event, error) {
	out := &billing.Event{
		ID:      event.ID,
		Type:    types.WebhookEventType(event.Type),
		Created: time.Unix(event.Created, 0).UTC(),
	}
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return out, nil
	}

	var err error
	switch out.Type {
	case types.WebhookEventTypeInvoicePaid, types.WebhookEventTypeInvoicePaymentFailed:
		var inv invoicePayload
		if err = json.Unmarshal(event.Data.Raw, &inv); err == nil {
			out.SubscriptionID = inv.Subscription.ID()
			if out.SubscriptionID == "" && inv.Parent != nil && inv.Parent.SubscriptionDetails != nil {
				out.SubscriptionID = inv.Parent.SubscriptionDetails.Subscription.ID()
			}
		}
	case types.WebhookEventTypeSubscriptionUpdated:
		var sub subscriptionPayload
		if err = json.Unmarshal(event.Data.Raw, &sub); err == nil {
			out.SubscriptionID = sub.ID
		}
	case types.WebhookEventTypeSubscriptionScheduleCreated, types.WebhookEventTypeSubscriptionScheduleUpdated:
		var sched schedulePayload
		if err = json.Unmarshal(event.Data.Raw, &sched); err == nil {
			out.SubscriptionID = sched.Subscription.ID()
		}
	}

	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Webhook payload could not be parsed").
			WithReportableDetails(map[string]any{
				"event_id":   event.ID,
				"event_type": string(event.Type),
			}).
			Mark(ierr.ErrValidation)
	}
	return out, nil
}
