package stripe

import (
	"fmt"
	"strings"
	"time"

	"github.com/flexprice/curbside/internal/domain/billing"
	"github.com/flexprice/curbside/internal/domain/schedule"
	"github.com/flexprice/curbside/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
)

func toCustomer(c *stripe.Customer) *billing.Customer {
	if c == nil {
		return nil
	}
	return &billing.Customer{
		ID:       c.ID,
		Email:    c.Email,
		Name:     c.Name,
		Metadata: c.Metadata,
	}
}

func toSubscription(s *stripe.Subscription) *billing.Subscription {
	if s == nil {
		return nil
	}

	sub := &billing.Subscription{
		ID:       s.ID,
		Status:   billing.SubscriptionStatus(s.Status),
		Metadata: types.Metadata(s.Metadata),
		Created:  time.Unix(s.Created, 0).UTC(),
	}
	if sub.Metadata == nil {
		sub.Metadata = types.Metadata{}
	}

	if s.Customer != nil {
		sub.Customer = billing.Reference[billing.Customer](s.Customer.ID)
		if s.Customer.Email != "" || s.Customer.Name != "" {
			sub.Customer = billing.Expanded(s.Customer.ID, toCustomer(s.Customer))
		}
	}

	// an unexpanded schedule only carries its id
	if s.Schedule != nil {
		sub.Schedule = billing.Reference[billing.Schedule](s.Schedule.ID)
		if len(s.Schedule.Phases) > 0 {
			sub.Schedule = billing.Expanded(s.Schedule.ID, toSchedule(s.Schedule))
		}
	}

	if s.Items != nil {
		sub.Items = lo.FilterMap(s.Items.Data, func(item *stripe.SubscriptionItem, _ int) (billing.SubscriptionItem, bool) {
			if item == nil || item.Price == nil {
				return billing.SubscriptionItem{}, false
			}
			return billing.SubscriptionItem{
				ID:       item.ID,
				PriceID:  item.Price.ID,
				Quantity: item.Quantity,
			}, true
		})
	}

	return sub
}

func toSchedule(s *stripe.SubscriptionSchedule) *billing.Schedule {
	if s == nil {
		return nil
	}

	sched := &billing.Schedule{
		ID:          s.ID,
		EndBehavior: billing.ScheduleEndBehavior(s.EndBehavior),
		Metadata:    s.Metadata,
		Phases:      make([]schedule.Phase, 0, len(s.Phases)),
	}
	if s.Subscription != nil {
		sched.Subscription = billing.Reference[billing.Subscription](s.Subscription.ID)
	}

	for _, phase := range s.Phases {
		if phase == nil {
			continue
		}
		sched.Phases = append(sched.Phases, toPhase(phase))
	}
	return sched
}

func toPhase(p *stripe.SubscriptionSchedulePhase) schedule.Phase {
	phase := schedule.Phase{
		Start:             time.Unix(p.StartDate, 0).UTC(),
		ProrationBehavior: types.ProrationBehavior(p.ProrationBehavior),
		Items: lo.FilterMap(p.Items, func(item *stripe.SubscriptionSchedulePhaseItem, _ int) (schedule.LineItem, bool) {
			if item == nil || item.Price == nil {
				return schedule.LineItem{}, false
			}
			return schedule.LineItem{PriceID: item.Price.ID, Quantity: item.Quantity}, true
		}),
	}
	if p.EndDate > 0 {
		end := time.Unix(p.EndDate, 0).UTC()
		phase.End = &end
		if months, ok := types.WholeMonths(phase.Start, end); ok {
			phase.Months = months
		}
	}
	return phase
}

func toPrice(p *stripe.Price) *billing.Price {
	if p == nil {
		return nil
	}

	price := &billing.Price{
		ID:         p.ID,
		Nickname:   p.Nickname,
		Currency:   string(p.Currency),
		UnitAmount: minorToMajor(p.UnitAmount, string(p.Currency)),
	}
	if p.Recurring != nil {
		price.Interval = string(p.Recurring.Interval)
		price.IntervalCount = p.Recurring.IntervalCount
	}
	return price
}

func minorToMajor(amount int64, currency string) decimal.Decimal {
	if types.IsZeroDecimalCurrency(currency) {
		return decimal.NewFromInt(amount)
	}
	return decimal.New(amount, -2)
}

// toScheduleUpdateParams writes the whole phase list. Only the first phase
// carries a start date; Stripe chains the rest from each previous end.
func toScheduleUpdateParams(input billing.UpdateScheduleInput) *stripe.SubscriptionScheduleUpdateParams {
	params := &stripe.SubscriptionScheduleUpdateParams{
		Metadata: input.Metadata,
	}
	if input.EndBehavior != "" {
		params.EndBehavior = stripe.String(string(input.EndBehavior))
	}

	for i, phase := range input.Phases {
		pp := &stripe.SubscriptionScheduleUpdatePhaseParams{
			Items: lo.Map(phase.Items, func(item schedule.LineItem, _ int) *stripe.SubscriptionScheduleUpdatePhaseItemParams {
				return &stripe.SubscriptionScheduleUpdatePhaseItemParams{
					Price:    stripe.String(item.PriceID),
					Quantity: stripe.Int64(item.Quantity),
				}
			}),
		}
		if phase.ProrationBehavior != "" {
			pp.ProrationBehavior = stripe.String(phase.ProrationBehavior.String())
		}
		if i == 0 {
			pp.StartDate = stripe.Int64(phase.Start.Unix())
		}

		switch {
		case phase.IsOpenEnded():
		case phase.Months > 0 && i > 0:
			pp.Duration = &stripe.SubscriptionScheduleUpdatePhaseDurationParams{
				Interval:      stripe.String("month"),
				IntervalCount: stripe.Int64(int64(phase.Months)),
			}
		case phase.End != nil:
			pp.EndDate = stripe.Int64(phase.End.Unix())
		}

		params.Phases = append(params.Phases, pp)
	}
	return params
}

// PhaseFingerprint is a stable textual digest of a phase list
func PhaseFingerprint(phases []schedule.Phase) string {
	var b strings.Builder
	for _, p := range phases {
		b.WriteString(fmt.Sprintf("%d", p.Start.Unix()))
		if p.End != nil {
			b.WriteString(fmt.Sprintf("-%d", p.End.Unix()))
		}
		for _, item := range p.Items {
			b.WriteString(fmt.Sprintf(":%s=%d", item.PriceID, item.Quantity))
		}
		b.WriteByte(';')
	}
	return b.String()
}
