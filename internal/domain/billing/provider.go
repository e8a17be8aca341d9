package billing

import (
	"context"
)

// Provider is the subscription billing API the scheduler drives. Implementations
// mark transport and API failures with ErrProviderUnavailable and missing
// objects with ErrNotFound.
type Provider interface {
	CreateCustomer(ctx context.Context, input CreateCustomerInput) (*Customer, error)

	CreateSubscription(ctx context.Context, input CreateSubscriptionInput) (*Subscription, error)
	GetSubscription(ctx context.Context, id string) (*Subscription, error)
	UpdateSubscriptionMetadata(ctx context.Context, id string, metadata map[string]string) (*Subscription, error)

	CreateScheduleFromSubscription(ctx context.Context, subscriptionID string) (*Schedule, error)
	GetSchedule(ctx context.Context, id string) (*Schedule, error)
	UpdateSchedulePhases(ctx context.Context, id string, input UpdateScheduleInput) (*Schedule, error)

	GetPrice(ctx context.Context, id string) (*Price, error)
}

// EventParser verifies a signed webhook delivery and narrows it to an Event
type EventParser interface {
	ParseEvent(payload []byte, signature string) (*Event, error)
}
