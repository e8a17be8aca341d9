package billing

import (
	"time"

	"github.com/flexprice/curbside/internal/domain/schedule"
	"github.com/flexprice/curbside/internal/types"
	"github.com/shopspring/decimal"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive            SubscriptionStatus = "active"
	SubscriptionStatusTrialing          SubscriptionStatus = "trialing"
	SubscriptionStatusIncomplete        SubscriptionStatus = "incomplete"
	SubscriptionStatusIncompleteExpired SubscriptionStatus = "incomplete_expired"
	SubscriptionStatusPastDue           SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled          SubscriptionStatus = "canceled"
	SubscriptionStatusUnpaid            SubscriptionStatus = "unpaid"
	SubscriptionStatusPaused            SubscriptionStatus = "paused"
)

// IsBillable reports whether the provider will start invoicing on the subscription
func (s SubscriptionStatus) IsBillable() bool {
	return s == SubscriptionStatusActive || s == SubscriptionStatusTrialing
}

// ScheduleEndBehavior decides what happens to the subscription after the last phase
type ScheduleEndBehavior string

const (
	ScheduleEndBehaviorRelease ScheduleEndBehavior = "release"
	ScheduleEndBehaviorCancel  ScheduleEndBehavior = "cancel"
)

type Customer struct {
	ID       string         `json:"id"`
	Email    string         `json:"email"`
	Name     string         `json:"name"`
	Metadata types.Metadata `json:"metadata,omitempty"`
}

type SubscriptionItem struct {
	ID       string `json:"id"`
	PriceID  string `json:"price_id"`
	Quantity int64  `json:"quantity"`
}

type Subscription struct {
	ID       string             `json:"id"`
	Customer Ref[Customer]      `json:"customer"`
	Status   SubscriptionStatus `json:"status"`
	Items    []SubscriptionItem `json:"items"`
	Metadata types.Metadata     `json:"metadata"`
	Schedule Ref[Schedule]      `json:"schedule"`
	Created  time.Time          `json:"created"`
}

type Schedule struct {
	ID           string              `json:"id"`
	Subscription Ref[Subscription]   `json:"subscription"`
	EndBehavior  ScheduleEndBehavior `json:"end_behavior"`
	Phases       []schedule.Phase    `json:"phases"`
	Metadata     types.Metadata      `json:"metadata,omitempty"`
}

// CurrentPhase returns the phase active at t, or the first phase when none is
func (s *Schedule) CurrentPhase(t time.Time) (schedule.Phase, bool) {
	if s == nil || len(s.Phases) == 0 {
		return schedule.Phase{}, false
	}
	for _, p := range s.Phases {
		if !p.Start.After(t) && (p.End == nil || p.End.After(t)) {
			return p, true
		}
	}
	return s.Phases[0], true
}

// Price is a catalog price. UnitAmount is in the currency's major unit.
type Price struct {
	ID            string          `json:"id"`
	Nickname      string          `json:"nickname,omitempty"`
	Currency      string          `json:"currency"`
	UnitAmount    decimal.Decimal `json:"unit_amount"`
	Interval      string          `json:"interval"`
	IntervalCount int64           `json:"interval_count"`
}

type CreateCustomerInput struct {
	Email          string
	Name           string
	Address        *types.Address
	Metadata       map[string]string
	IdempotencyKey string
}

type CreateSubscriptionInput struct {
	CustomerID         string
	Items              []schedule.LineItem
	BillingCycleAnchor *time.Time
	ProrationBehavior  types.ProrationBehavior
	Metadata           map[string]string
	IdempotencyKey     string
}

type UpdateScheduleInput struct {
	Phases         []schedule.Phase
	EndBehavior    ScheduleEndBehavior
	Metadata       map[string]string
	IdempotencyKey string
}

// Event is a verified provider notification narrowed to what reconciliation needs
type Event struct {
	ID             string                 `json:"id"`
	Type           types.WebhookEventType `json:"type"`
	SubscriptionID string                 `json:"subscription_id"`
	Created        time.Time              `json:"created"`
}
