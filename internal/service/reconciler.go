package service

import (
	"context"
	"strconv"
	"time"

	"github.com/flexprice/curbside/internal/domain/billing"
	"github.com/flexprice/curbside/internal/domain/compactrule"
	"github.com/flexprice/curbside/internal/domain/schedule"
	ierr "github.com/flexprice/curbside/internal/errors"
	"github.com/flexprice/curbside/internal/sentry"
	"github.com/flexprice/curbside/internal/types"
	"github.com/samber/lo"
)

// ReconcileOutcome says what a reconciliation run did
type ReconcileOutcome string

const (
	ReconcileOutcomeAttached         ReconcileOutcome = "attached"
	ReconcileOutcomeAlreadyAttached  ReconcileOutcome = "already_attached"
	ReconcileOutcomeScheduleExists   ReconcileOutcome = "schedule_exists"
	ReconcileOutcomeNoScheduleNeeded ReconcileOutcome = "no_schedule_needed"
	ReconcileOutcomeNotBillable      ReconcileOutcome = "not_billable"
)

type ReconcileResult struct {
	SubscriptionID string
	ScheduleID     string
	Outcome        ReconcileOutcome
	Phases         []schedule.Phase
	Truncated      bool
	SkippedChunks  int
}

type ReconcilerService interface {
	// Reconcile attaches the seasonal phase list to a subscription created at
	// signup. It is safe to call repeatedly for the same subscription.
	Reconcile(ctx context.Context, subscriptionID string) (*ReconcileResult, error)
}

type reconcilerService struct {
	ServiceParams
	planner phasePlanner
}

func NewReconcilerService(params ServiceParams) ReconcilerService {
	return &reconcilerService{
		ServiceParams: params,
		planner:       newPhasePlanner(params.Config.Billing),
	}
}

func (s *reconcilerService) Reconcile(ctx context.Context, subscriptionID string) (*ReconcileResult, error) {
	if subscriptionID == "" {
		return nil, ierr.NewError("subscription id is required").
			WithHint("Subscription ID is required").
			Mark(ierr.ErrValidation)
	}

	sub, err := s.Provider.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}

	log := s.Logger.With(
		"subscription_id", sub.ID,
		"event_id", types.GetEventID(ctx),
	)

	result := &ReconcileResult{SubscriptionID: sub.ID}
	if sub.Metadata.ScheduleAttached() {
		result.ScheduleID = sub.Metadata[types.MetadataKeyScheduleID]
		result.Outcome = ReconcileOutcomeAlreadyAttached
		log.Debugw("schedule already attached, nothing to do")
		return result, nil
	}

	// the provider refuses schedules on incomplete or ended subscriptions; a
	// later status change to active triggers another run
	if !sub.Status.IsBillable() {
		result.Outcome = ReconcileOutcomeNotBillable
		log.Infow("subscription not billable, leaving schedule unattached", "status", sub.Status)
		return result, nil
	}

	var sched *billing.Schedule
	if !sub.Schedule.IsZero() {
		sched, err = s.existingSchedule(ctx, sub)
		if err != nil {
			return nil, err
		}

		// a schedule with more than the mirrored phase was built by an earlier
		// run that failed before writing the breadcrumb
		if len(sched.Phases) > 1 {
			if err := s.markAttached(ctx, sub.ID, sched.ID); err != nil {
				return nil, err
			}
			result.ScheduleID = sched.ID
			result.Outcome = ReconcileOutcomeScheduleExists
			result.Phases = sched.Phases
			log.Infow("found existing multi-phase schedule, marked attached", "schedule_id", sched.ID)
			return result, nil
		}
	}

	rules, malformed := compactrule.Decode(s.Config.Billing.MetadataKey, sub.Metadata)
	for _, chunkErr := range malformed {
		log.Warnw("skipping malformed compact rule chunk",
			"error", chunkErr,
			"details", ierr.ReportableDetails(chunkErr),
		)
	}
	result.SkippedChunks = len(malformed)

	windows := windowsFromCompactRules(rules)
	if len(windows) == 0 && sched == nil {
		if err := s.markAttached(ctx, sub.ID, ""); err != nil {
			return nil, err
		}
		result.Outcome = ReconcileOutcomeNoScheduleNeeded
		log.Infow("no seasonal windows, marked attached without a schedule")
		return result, nil
	}

	if sched == nil {
		sched, err = s.Provider.CreateScheduleFromSubscription(ctx, sub.ID)
		if err != nil {
			return nil, err
		}
	}

	now := s.Clock.Now()
	phaseZero, ok := sched.CurrentPhase(now)
	if !ok {
		return nil, ierr.NewErrorf("schedule %s has no phases", sched.ID).
			WithHint("The subscription schedule has no current phase").
			WithReportableDetails(map[string]any{
				"schedule_id": sched.ID,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	// the provider's current phase is kept as-is; the seasonal plan continues
	// from where it ends
	var ref time.Time
	if phaseZero.End != nil {
		ref = phaseZero.End.UTC()
	} else {
		ref = types.MonthStartOnOrAfter(now)
		if !ref.After(phaseZero.Start) {
			ref = types.NextMonthStart(phaseZero.Start)
		}
		phaseZero.End = lo.ToPtr(ref)
		phaseZero.Months = 0
	}

	plan, err := s.planner.plan(windows, s.baseQuantity(sub, rules), ref, 0, s.phaseBudget())
	if err != nil {
		return nil, err
	}

	phases := append([]schedule.Phase{phaseZero}, plan.Phases...)
	updated, err := s.updatePhases(ctx, sched.ID, phases)
	if err != nil {
		return nil, err
	}

	if err := s.markAttached(ctx, sub.ID, updated.ID); err != nil {
		return nil, err
	}

	if plan.Truncated {
		log.Warnw("schedule phase list truncated",
			"error", ierr.ErrPhaseCountExceeded,
			"schedule_id", updated.ID,
			"max_phases", s.Config.Billing.MaxPhases,
		)
	}

	s.Sentry.AddBreadcrumb("reconcile", "attached seasonal schedule", map[string]interface{}{
		"subscription_id": sub.ID,
		"schedule_id":     updated.ID,
		"phase_count":     len(phases),
	})
	log.Infow("attached seasonal schedule",
		"schedule_id", updated.ID,
		"phase_count", len(phases),
		"skipped_chunks", result.SkippedChunks,
	)

	result.ScheduleID = updated.ID
	result.Outcome = ReconcileOutcomeAttached
	result.Phases = phases
	result.Truncated = plan.Truncated
	return result, nil
}

func (s *reconcilerService) updatePhases(ctx context.Context, scheduleID string, phases []schedule.Phase) (*billing.Schedule, error) {
	span, ctx := s.Sentry.StartProviderSpan(ctx, "subscription_schedule.update", map[string]interface{}{
		"schedule_id": scheduleID,
		"phase_count": len(phases),
	})
	defer sentry.Finish(span)

	return s.Provider.UpdateSchedulePhases(ctx, scheduleID, billing.UpdateScheduleInput{
		Phases:      phases,
		EndBehavior: billing.ScheduleEndBehaviorRelease,
	})
}

func (s *reconcilerService) existingSchedule(ctx context.Context, sub *billing.Subscription) (*billing.Schedule, error) {
	if expanded, ok := sub.Schedule.Get(); ok {
		return expanded, nil
	}
	return s.Provider.GetSchedule(ctx, sub.Schedule.ID())
}

// phaseBudget leaves one phase of the provider ceiling for phase zero
func (s *reconcilerService) phaseBudget() int {
	if s.Config.Billing.MaxPhases == 0 {
		return 0
	}
	return s.Config.Billing.MaxPhases - 1
}

// baseQuantity trusts the live base item over the stored rule count, since the
// subscription may have been edited after signup
func (s *reconcilerService) baseQuantity(sub *billing.Subscription, rules []compactrule.Rule) int64 {
	item, ok := lo.Find(sub.Items, func(item billing.SubscriptionItem) bool {
		return item.PriceID == s.Config.Billing.BasePriceID
	})
	if ok {
		return item.Quantity
	}
	return int64(len(rules))
}

func (s *reconcilerService) markAttached(ctx context.Context, subscriptionID, scheduleID string) error {
	md := map[string]string{
		types.MetadataKeyScheduleAttached: strconv.FormatBool(true),
	}
	if scheduleID != "" {
		md[types.MetadataKeyScheduleID] = scheduleID
	}
	_, err := s.Provider.UpdateSubscriptionMetadata(ctx, subscriptionID, md)
	return err
}
