package service

import (
	"context"

	"github.com/flexprice/curbside/internal/api/dto"
	"github.com/flexprice/curbside/internal/domain/billing"
	"github.com/flexprice/curbside/internal/idempotency"
	"github.com/flexprice/curbside/internal/sentry"
	"github.com/flexprice/curbside/internal/types"
)

type WebhookService interface {
	// HandleWebhook verifies a raw provider delivery and processes it
	HandleWebhook(ctx context.Context, payload []byte, signature string) (*dto.WebhookResponse, error)

	// HandleEvent processes an already verified event at most once
	HandleEvent(ctx context.Context, event *billing.Event) (*dto.WebhookResponse, error)
}

type webhookService struct {
	ServiceParams
	reconciler ReconcilerService
}

func NewWebhookService(params ServiceParams, reconciler ReconcilerService) WebhookService {
	return &webhookService{
		ServiceParams: params,
		reconciler:    reconciler,
	}
}

func (s *webhookService) HandleWebhook(ctx context.Context, payload []byte, signature string) (*dto.WebhookResponse, error) {
	event, err := s.EventParser.ParseEvent(payload, signature)
	if err != nil {
		s.Logger.Warnw("rejected webhook delivery", "error", err)
		return nil, err
	}
	return s.HandleEvent(ctx, event)
}

func (s *webhookService) HandleEvent(ctx context.Context, event *billing.Event) (*dto.WebhookResponse, error) {
	ctx = types.SetEventID(ctx, event.ID)
	log := s.Logger.With(
		"event_id", event.ID,
		"event_type", event.Type,
		"subscription_id", event.SubscriptionID,
	)

	span, ctx := s.Sentry.MonitorEventProcessing(ctx, event.Type.String(), event.Created)
	defer sentry.Finish(span)

	resp := &dto.WebhookResponse{
		EventID:   event.ID,
		EventType: event.Type.String(),
	}

	// dedup is best effort; reconciliation is idempotent on its own
	dedupKey := s.Keys.GenerateKey(idempotency.ScopeWebhookEvent, map[string]interface{}{
		"event_id": event.ID,
	})
	seen, err := s.DedupStore.WasSeenBefore(ctx, dedupKey)
	if err != nil {
		log.Warnw("dedup lookup failed, processing anyway", "error", err)
	} else if seen {
		log.Debugw("duplicate webhook delivery")
		resp.Status = dto.WebhookStatusDuplicate
		return resp, nil
	}

	switch {
	case event.Type.TriggersReconciliation():
		if event.SubscriptionID == "" {
			log.Infow("event carries no subscription, ignoring")
			resp.Status = dto.WebhookStatusIgnored
			break
		}

		result, err := s.reconciler.Reconcile(ctx, event.SubscriptionID)
		if err != nil {
			log.Errorw("reconciliation failed", "error", err)
			s.Sentry.CaptureException(err, map[string]string{
				"event_id":        event.ID,
				"event_type":      event.Type.String(),
				"subscription_id": event.SubscriptionID,
			})
			// not marked seen so the provider's retry gets another attempt
			return nil, err
		}
		log.Infow("processed webhook", "outcome", result.Outcome, "schedule_id", result.ScheduleID)
		resp.Status = dto.WebhookStatusProcessed

	case event.Type == types.WebhookEventTypeInvoicePaymentFailed:
		log.Warnw("invoice payment failed, schedule attachment waits for a successful payment")
		resp.Status = dto.WebhookStatusProcessed

	default:
		log.Debugw("unhandled webhook event type")
		resp.Status = dto.WebhookStatusIgnored
	}

	if err := s.DedupStore.MarkSeen(ctx, dedupKey); err != nil {
		log.Warnw("failed to record processed webhook", "error", err)
	}
	return resp, nil
}
