package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/flexprice/curbside/internal/clock"
	"github.com/flexprice/curbside/internal/domain/billing"
	"github.com/flexprice/curbside/internal/domain/schedule"
	ierr "github.com/flexprice/curbside/internal/errors"
	"github.com/flexprice/curbside/internal/types"
	"github.com/samber/lo"
)

// InMemoryBillingProvider is a billing.Provider backed by maps. It records
// every schedule update so tests can assert on what would have been sent.
type InMemoryBillingProvider struct {
	mu            sync.RWMutex
	clock         clock.Clock
	seq           int
	customers     map[string]*billing.Customer
	subscriptions map[string]*billing.Subscription
	schedules     map[string]*billing.Schedule
	prices        map[string]*billing.Price
	idempotency   map[string]string

	// SubscriptionStatus is the status new subscriptions are created with
	SubscriptionStatus billing.SubscriptionStatus

	// Fail, when set, is returned by the named method instead of doing any work
	Fail map[string]error

	ScheduleUpdates []billing.UpdateScheduleInput
	MetadataUpdates int
}

func NewInMemoryBillingProvider(c clock.Clock) *InMemoryBillingProvider {
	return &InMemoryBillingProvider{
		clock:              c,
		customers:          make(map[string]*billing.Customer),
		subscriptions:      make(map[string]*billing.Subscription),
		schedules:          make(map[string]*billing.Schedule),
		prices:             make(map[string]*billing.Price),
		idempotency:        make(map[string]string),
		SubscriptionStatus: billing.SubscriptionStatusActive,
		Fail:               make(map[string]error),
	}
}

func (p *InMemoryBillingProvider) nextID(prefix string) string {
	p.seq++
	return fmt.Sprintf("%s_%04d", prefix, p.seq)
}

func (p *InMemoryBillingProvider) notFound(kind, id string) error {
	return ierr.NewErrorf("%s %s not found", kind, id).
		WithHintf("No such %s", kind).
		Mark(ierr.ErrNotFound)
}

func (p *InMemoryBillingProvider) CreateCustomer(_ context.Context, input billing.CreateCustomerInput) (*billing.Customer, error) {
	if err := p.Fail["CreateCustomer"]; err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if id, ok := p.idempotency[input.IdempotencyKey]; ok && input.IdempotencyKey != "" {
		return p.customers[id], nil
	}

	c := &billing.Customer{
		ID:       p.nextID("cus"),
		Email:    input.Email,
		Name:     input.Name,
		Metadata: types.Metadata(input.Metadata).Merge(nil),
	}
	p.customers[c.ID] = c
	if input.IdempotencyKey != "" {
		p.idempotency[input.IdempotencyKey] = c.ID
	}
	return c, nil
}

func (p *InMemoryBillingProvider) CreateSubscription(_ context.Context, input billing.CreateSubscriptionInput) (*billing.Subscription, error) {
	if err := p.Fail["CreateSubscription"]; err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if id, ok := p.idempotency[input.IdempotencyKey]; ok && input.IdempotencyKey != "" {
		return p.copySubscription(p.subscriptions[id]), nil
	}
	if _, ok := p.customers[input.CustomerID]; !ok {
		return nil, p.notFound("customer", input.CustomerID)
	}

	sub := &billing.Subscription{
		ID:       p.nextID("sub"),
		Customer: billing.Reference[billing.Customer](input.CustomerID),
		Status:   p.SubscriptionStatus,
		Metadata: types.Metadata(input.Metadata).Merge(nil),
		Created:  p.clock.Now(),
	}
	for _, item := range input.Items {
		sub.Items = append(sub.Items, billing.SubscriptionItem{
			ID:       p.nextID("si"),
			PriceID:  item.PriceID,
			Quantity: item.Quantity,
		})
	}
	p.subscriptions[sub.ID] = sub
	if input.IdempotencyKey != "" {
		p.idempotency[input.IdempotencyKey] = sub.ID
	}
	return p.copySubscription(sub), nil
}

func (p *InMemoryBillingProvider) GetSubscription(_ context.Context, id string) (*billing.Subscription, error) {
	if err := p.Fail["GetSubscription"]; err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	sub, ok := p.subscriptions[id]
	if !ok {
		return nil, p.notFound("subscription", id)
	}

	out := p.copySubscription(sub)
	if schedID := sub.Schedule.ID(); schedID != "" {
		out.Schedule = billing.Expanded(schedID, p.copySchedule(p.schedules[schedID]))
	}
	return out, nil
}

func (p *InMemoryBillingProvider) UpdateSubscriptionMetadata(_ context.Context, id string, metadata map[string]string) (*billing.Subscription, error) {
	if err := p.Fail["UpdateSubscriptionMetadata"]; err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	sub, ok := p.subscriptions[id]
	if !ok {
		return nil, p.notFound("subscription", id)
	}
	sub.Metadata = sub.Metadata.Merge(metadata)
	p.MetadataUpdates++
	return p.copySubscription(sub), nil
}

// CreateScheduleFromSubscription mirrors the subscription into a single phase
// running until the next month start, the way the provider does for a
// subscription anchored on the first of the month
func (p *InMemoryBillingProvider) CreateScheduleFromSubscription(_ context.Context, subscriptionID string) (*billing.Schedule, error) {
	if err := p.Fail["CreateScheduleFromSubscription"]; err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	sub, ok := p.subscriptions[subscriptionID]
	if !ok {
		return nil, p.notFound("subscription", subscriptionID)
	}
	if !sub.Schedule.IsZero() {
		return nil, ierr.NewErrorf("subscription %s already has a schedule", subscriptionID).
			WithHint("Subscription already has a schedule").
			Mark(ierr.ErrAlreadyExists)
	}

	start := sub.Created
	end := types.NextMonthStart(start)
	sched := &billing.Schedule{
		ID:           p.nextID("sub_sched"),
		Subscription: billing.Reference[billing.Subscription](sub.ID),
		EndBehavior:  billing.ScheduleEndBehaviorRelease,
		Phases: []schedule.Phase{{
			Start: start,
			End:   lo.ToPtr(end),
			Items: lo.Map(sub.Items, func(item billing.SubscriptionItem, _ int) schedule.LineItem {
				return schedule.LineItem{PriceID: item.PriceID, Quantity: item.Quantity}
			}),
		}},
	}
	p.schedules[sched.ID] = sched
	sub.Schedule = billing.Reference[billing.Schedule](sched.ID)
	return p.copySchedule(sched), nil
}

func (p *InMemoryBillingProvider) GetSchedule(_ context.Context, id string) (*billing.Schedule, error) {
	if err := p.Fail["GetSchedule"]; err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	sched, ok := p.schedules[id]
	if !ok {
		return nil, p.notFound("subscription schedule", id)
	}
	return p.copySchedule(sched), nil
}

func (p *InMemoryBillingProvider) UpdateSchedulePhases(_ context.Context, id string, input billing.UpdateScheduleInput) (*billing.Schedule, error) {
	if err := p.Fail["UpdateSchedulePhases"]; err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	sched, ok := p.schedules[id]
	if !ok {
		return nil, p.notFound("subscription schedule", id)
	}
	sched.Phases = append([]schedule.Phase(nil), input.Phases...)
	if input.EndBehavior != "" {
		sched.EndBehavior = input.EndBehavior
	}
	if input.Metadata != nil {
		sched.Metadata = sched.Metadata.Merge(input.Metadata)
	}
	p.ScheduleUpdates = append(p.ScheduleUpdates, input)
	return p.copySchedule(sched), nil
}

func (p *InMemoryBillingProvider) GetPrice(_ context.Context, id string) (*billing.Price, error) {
	if err := p.Fail["GetPrice"]; err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	price, ok := p.prices[id]
	if !ok {
		return nil, p.notFound("price", id)
	}
	out := *price
	return &out, nil
}

// AddPrice seeds the catalog
func (p *InMemoryBillingProvider) AddPrice(price *billing.Price) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prices[price.ID] = price
}

// AddSubscription seeds a subscription as if it had been created out of band
func (p *InMemoryBillingProvider) AddSubscription(sub *billing.Subscription) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if sub.Created.IsZero() {
		sub.Created = p.clock.Now()
	}
	p.subscriptions[sub.ID] = sub
}

// AddSchedule seeds a schedule and links it to its subscription
func (p *InMemoryBillingProvider) AddSchedule(sched *billing.Schedule) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.schedules[sched.ID] = sched
	if sub, ok := p.subscriptions[sched.Subscription.ID()]; ok {
		sub.Schedule = billing.Reference[billing.Schedule](sched.ID)
	}
}

// Subscription returns the stored subscription without provider-side expansion
func (p *InMemoryBillingProvider) Subscription(id string) *billing.Subscription {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.copySubscription(p.subscriptions[id])
}

// Schedule returns the stored schedule, nil when absent
func (p *InMemoryBillingProvider) Schedule(id string) *billing.Schedule {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.copySchedule(p.schedules[id])
}

// SetStatus changes a subscription's status, as payment would
func (p *InMemoryBillingProvider) SetStatus(id string, status billing.SubscriptionStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if sub, ok := p.subscriptions[id]; ok {
		sub.Status = status
	}
}

func (p *InMemoryBillingProvider) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.customers = make(map[string]*billing.Customer)
	p.subscriptions = make(map[string]*billing.Subscription)
	p.schedules = make(map[string]*billing.Schedule)
	p.prices = make(map[string]*billing.Price)
	p.idempotency = make(map[string]string)
	p.Fail = make(map[string]error)
	p.ScheduleUpdates = nil
	p.MetadataUpdates = 0
	p.SubscriptionStatus = billing.SubscriptionStatusActive
}

func (p *InMemoryBillingProvider) copySubscription(sub *billing.Subscription) *billing.Subscription {
	if sub == nil {
		return nil
	}
	out := *sub
	out.Items = append([]billing.SubscriptionItem(nil), sub.Items...)
	out.Metadata = sub.Metadata.Merge(nil)
	return &out
}

func (p *InMemoryBillingProvider) copySchedule(sched *billing.Schedule) *billing.Schedule {
	if sched == nil {
		return nil
	}
	out := *sched
	out.Phases = append([]schedule.Phase(nil), sched.Phases...)
	return &out
}
