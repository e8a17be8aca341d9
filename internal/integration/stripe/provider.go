package stripe

import (
	"context"

	"github.com/flexprice/curbside/internal/domain/billing"
	"github.com/flexprice/curbside/internal/domain/schedule"
	"github.com/flexprice/curbside/internal/idempotency"
	"github.com/samber/lo"
	"github.com/stripe/stripe-go/v82"
)

// Provider implements billing.Provider on top of the Stripe API
type Provider struct {
	client *Client
}

var _ billing.Provider = (*Provider)(nil)

func NewProvider(client *Client) *Provider {
	return &Provider{client: client}
}

func (p *Provider) CreateCustomer(ctx context.Context, input billing.CreateCustomerInput) (*billing.Customer, error) {
	params := &stripe.CustomerCreateParams{
		Email:    stripe.String(input.Email),
		Name:     stripe.String(input.Name),
		Metadata: input.Metadata,
	}
	if input.Address != nil {
		params.Address = &stripe.AddressParams{
			Line1:      stripe.String(input.Address.Line1),
			City:       stripe.String(input.Address.City),
			State:      stripe.String(input.Address.State),
			PostalCode: stripe.String(input.Address.PostalCode),
		}
	}
	p.setIdempotencyKey(&params.Params, input.IdempotencyKey, idempotency.ScopeCustomer, map[string]interface{}{
		"email": input.Email,
		"name":  input.Name,
	})

	customer, err := p.client.api.V1Customers.Create(ctx, params)
	if err != nil {
		p.client.logger.Errorw("failed to create customer in Stripe", "error", err, "email", input.Email)
		return nil, wrapError(err, "create customer", map[string]any{})
	}

	return toCustomer(customer), nil
}

func (p *Provider) CreateSubscription(ctx context.Context, input billing.CreateSubscriptionInput) (*billing.Subscription, error) {
	params := &stripe.SubscriptionCreateParams{
		Customer:        stripe.String(input.CustomerID),
		PaymentBehavior: stripe.String("default_incomplete"),
		Metadata:        input.Metadata,
		Items: lo.Map(input.Items, func(item schedule.LineItem, _ int) *stripe.SubscriptionCreateItemParams {
			return &stripe.SubscriptionCreateItemParams{
				Price:    stripe.String(item.PriceID),
				Quantity: stripe.Int64(item.Quantity),
			}
		}),
	}
	if input.ProrationBehavior != "" {
		params.ProrationBehavior = stripe.String(input.ProrationBehavior.String())
	}
	if input.BillingCycleAnchor != nil {
		params.BillingCycleAnchor = stripe.Int64(input.BillingCycleAnchor.Unix())
	}
	p.setIdempotencyKey(&params.Params, input.IdempotencyKey, idempotency.ScopeSubscription, map[string]interface{}{
		"customer_id": input.CustomerID,
	})

	sub, err := p.client.api.V1Subscriptions.Create(ctx, params)
	if err != nil {
		p.client.logger.Errorw("failed to create subscription in Stripe", "error", err, "customer_id", input.CustomerID)
		return nil, wrapError(err, "create subscription", map[string]any{"customer_id": input.CustomerID})
	}

	return toSubscription(sub), nil
}

func (p *Provider) GetSubscription(ctx context.Context, id string) (*billing.Subscription, error) {
	params := &stripe.SubscriptionRetrieveParams{
		Expand: []*string{
			stripe.String("schedule"),
		},
	}

	sub, err := p.client.api.V1Subscriptions.Retrieve(ctx, id, params)
	if err != nil {
		p.client.logger.Errorw("failed to retrieve subscription from Stripe", "error", err, "subscription_id", id)
		return nil, wrapError(err, "retrieve subscription", map[string]any{"subscription_id": id})
	}

	return toSubscription(sub), nil
}

func (p *Provider) UpdateSubscriptionMetadata(ctx context.Context, id string, metadata map[string]string) (*billing.Subscription, error) {
	params := &stripe.SubscriptionUpdateParams{
		Metadata: metadata,
	}

	sub, err := p.client.api.V1Subscriptions.Update(ctx, id, params)
	if err != nil {
		p.client.logger.Errorw("failed to update subscription metadata in Stripe", "error", err, "subscription_id", id)
		return nil, wrapError(err, "update subscription metadata", map[string]any{"subscription_id": id})
	}

	return toSubscription(sub), nil
}

func (p *Provider) CreateScheduleFromSubscription(ctx context.Context, subscriptionID string) (*billing.Schedule, error) {
	params := &stripe.SubscriptionScheduleCreateParams{
		FromSubscription: stripe.String(subscriptionID),
	}
	p.setIdempotencyKey(&params.Params, "", idempotency.ScopeScheduleCreate, map[string]interface{}{
		"subscription_id": subscriptionID,
	})

	sched, err := p.client.api.V1SubscriptionSchedules.Create(ctx, params)
	if err != nil {
		p.client.logger.Errorw("failed to create subscription schedule in Stripe", "error", err, "subscription_id", subscriptionID)
		return nil, wrapError(err, "create subscription schedule", map[string]any{"subscription_id": subscriptionID})
	}

	return toSchedule(sched), nil
}

func (p *Provider) GetSchedule(ctx context.Context, id string) (*billing.Schedule, error) {
	sched, err := p.client.api.V1SubscriptionSchedules.Retrieve(ctx, id, nil)
	if err != nil {
		p.client.logger.Errorw("failed to retrieve subscription schedule from Stripe", "error", err, "schedule_id", id)
		return nil, wrapError(err, "retrieve subscription schedule", map[string]any{"schedule_id": id})
	}

	return toSchedule(sched), nil
}

func (p *Provider) UpdateSchedulePhases(ctx context.Context, id string, input billing.UpdateScheduleInput) (*billing.Schedule, error) {
	params := toScheduleUpdateParams(input)
	p.setIdempotencyKey(&params.Params, input.IdempotencyKey, idempotency.ScopeScheduleUpdate, map[string]interface{}{
		"schedule_id": id,
		"phases":      PhaseFingerprint(input.Phases),
	})

	sched, err := p.client.api.V1SubscriptionSchedules.Update(ctx, id, params)
	if err != nil {
		p.client.logger.Errorw("failed to update subscription schedule in Stripe",
			"error", err,
			"schedule_id", id,
			"phase_count", len(input.Phases),
		)
		return nil, wrapError(err, "update subscription schedule", map[string]any{
			"schedule_id": id,
			"phase_count": len(input.Phases),
		})
	}

	return toSchedule(sched), nil
}

func (p *Provider) GetPrice(ctx context.Context, id string) (*billing.Price, error) {
	price, err := p.client.api.V1Prices.Retrieve(ctx, id, nil)
	if err != nil {
		p.client.logger.Errorw("failed to retrieve price from Stripe", "error", err, "price_id", id)
		return nil, wrapError(err, "retrieve price", map[string]any{"price_id": id})
	}

	return toPrice(price), nil
}

// setIdempotencyKey uses the caller's key when given and otherwise derives a
// deterministic one so provider retries of the same write collapse
func (p *Provider) setIdempotencyKey(params *stripe.Params, key string, scope idempotency.Scope, fields map[string]interface{}) {
	if key == "" {
		key = p.client.keys.GenerateKey(scope, fields)
	}
	params.SetIdempotencyKey(key)
}
