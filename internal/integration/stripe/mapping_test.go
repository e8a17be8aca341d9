package stripe

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/flexprice/curbside/internal/domain/billing"
	"github.com/flexprice/curbside/internal/domain/schedule"
	ierr "github.com/flexprice/curbside/internal/errors"
	"github.com/flexprice/curbside/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func TestToScheduleUpdateParams(t *testing.T) {
	base := schedule.LineItem{PriceID: "price_base", Quantity: 2}
	seasonal := schedule.LineItem{PriceID: "price_seasonal", Quantity: 1}

	params := toScheduleUpdateParams(billing.UpdateScheduleInput{
		EndBehavior: billing.ScheduleEndBehaviorRelease,
		Phases: []schedule.Phase{
			{Start: day(2026, 4, 15), End: lo.ToPtr(day(2026, 5, 1)), Items: []schedule.LineItem{base}, ProrationBehavior: types.ProrationBehaviorNone},
			{Start: day(2026, 5, 1), End: lo.ToPtr(day(2026, 10, 1)), Months: 5, Items: []schedule.LineItem{base, seasonal}},
			{Start: day(2026, 10, 1), End: lo.ToPtr(day(2026, 10, 20)), Items: []schedule.LineItem{base}},
			{Start: day(2026, 10, 20), Items: []schedule.LineItem{base}},
		},
	})

	assert.Equal(t, "release", *params.EndBehavior)
	require.Len(t, params.Phases, 4)

	first := params.Phases[0]
	assert.Equal(t, day(2026, 4, 15).Unix(), *first.StartDate)
	assert.Equal(t, day(2026, 5, 1).Unix(), *first.EndDate)
	assert.Equal(t, "none", *first.ProrationBehavior)
	require.Len(t, first.Items, 1)
	assert.Equal(t, "price_base", *first.Items[0].Price)
	assert.Equal(t, int64(2), *first.Items[0].Quantity)

	season := params.Phases[1]
	assert.Nil(t, season.StartDate)
	assert.Nil(t, season.EndDate)
	require.NotNil(t, season.Duration)
	assert.Equal(t, "month", *season.Duration.Interval)
	assert.Equal(t, int64(5), *season.Duration.IntervalCount)
	assert.Len(t, season.Items, 2)
	assert.Nil(t, season.ProrationBehavior)

	assert.Equal(t, day(2026, 10, 20).Unix(), *params.Phases[2].EndDate)

	tail := params.Phases[3]
	assert.Nil(t, tail.EndDate)
	assert.Nil(t, tail.Duration)
}

func TestToSubscription(t *testing.T) {
	sub := toSubscription(&stripe.Subscription{
		ID:       "sub_1",
		Status:   stripe.SubscriptionStatusActive,
		Customer: &stripe.Customer{ID: "cus_1"},
		Schedule: &stripe.SubscriptionSchedule{ID: "sub_sched_1"},
		Metadata: map[string]string{"schedule_attached": "true"},
		Items: &stripe.SubscriptionItemList{
			Data: []*stripe.SubscriptionItem{
				{ID: "si_1", Price: &stripe.Price{ID: "price_base"}, Quantity: 3},
				{ID: "si_2"},
			},
		},
	})

	assert.Equal(t, billing.SubscriptionStatusActive, sub.Status)
	assert.Equal(t, "cus_1", sub.Customer.ID())
	_, expanded := sub.Customer.Get()
	assert.False(t, expanded)

	assert.Equal(t, "sub_sched_1", sub.Schedule.ID())
	_, expanded = sub.Schedule.Get()
	assert.False(t, expanded)

	assert.True(t, sub.Metadata.ScheduleAttached())
	assert.Equal(t, []billing.SubscriptionItem{{ID: "si_1", PriceID: "price_base", Quantity: 3}}, sub.Items)
}

func TestToSchedule(t *testing.T) {
	sched := toSchedule(&stripe.SubscriptionSchedule{
		ID:           "sub_sched_1",
		Subscription: &stripe.Subscription{ID: "sub_1"},
		EndBehavior:  stripe.SubscriptionScheduleEndBehaviorRelease,
		Phases: []*stripe.SubscriptionSchedulePhase{
			{
				StartDate: day(2026, 5, 1).Unix(),
				EndDate:   day(2026, 7, 1).Unix(),
				Items:     []*stripe.SubscriptionSchedulePhaseItem{{Price: &stripe.Price{ID: "price_base"}, Quantity: 1}},
			},
			{
				StartDate: day(2026, 7, 1).Unix(),
				EndDate:   day(2026, 7, 15).Unix(),
			},
		},
	})

	assert.Equal(t, "sub_1", sched.Subscription.ID())
	assert.Equal(t, billing.ScheduleEndBehaviorRelease, sched.EndBehavior)
	require.Len(t, sched.Phases, 2)
	assert.Equal(t, 2, sched.Phases[0].Months)
	assert.Equal(t, int64(1), sched.Phases[0].Quantity("price_base"))
	assert.Zero(t, sched.Phases[1].Months)
	assert.Equal(t, day(2026, 7, 15), *sched.Phases[1].End)
}

func TestToPrice(t *testing.T) {
	price := toPrice(&stripe.Price{
		ID:         "price_base",
		Currency:   stripe.CurrencyUSD,
		UnitAmount: 2599,
		Recurring:  &stripe.PriceRecurring{Interval: stripe.PriceRecurringIntervalMonth, IntervalCount: 1},
	})
	assert.True(t, decimal.RequireFromString("25.99").Equal(price.UnitAmount))
	assert.Equal(t, "month", price.Interval)

	assert.True(t, decimal.NewFromInt(500).Equal(minorToMajor(500, "JPY")))
}

func TestWrapError(t *testing.T) {
	notFound := wrapError(&stripe.Error{HTTPStatusCode: http.StatusNotFound, Code: stripe.ErrorCodeResourceMissing}, "retrieve", map[string]any{})
	assert.True(t, ierr.IsNotFound(notFound))

	unavailable := wrapError(&stripe.Error{HTTPStatusCode: http.StatusServiceUnavailable}, "retrieve", map[string]any{})
	assert.True(t, ierr.IsProviderUnavailable(unavailable))

	transport := wrapError(errors.New("connection reset"), "retrieve", map[string]any{})
	assert.True(t, ierr.IsProviderUnavailable(transport))
	assert.Equal(t, http.StatusBadGateway, ierr.HTTPStatusFromErr(transport))
}

func TestPhaseFingerprint(t *testing.T) {
	a := []schedule.Phase{{Start: day(2026, 5, 1), Items: []schedule.LineItem{{PriceID: "p", Quantity: 1}}}}
	b := []schedule.Phase{{Start: day(2026, 5, 1), Items: []schedule.LineItem{{PriceID: "p", Quantity: 2}}}}
	assert.Equal(t, PhaseFingerprint(a), PhaseFingerprint(a))
	assert.NotEqual(t, PhaseFingerprint(a), PhaseFingerprint(b))
}
