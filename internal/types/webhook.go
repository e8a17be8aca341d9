package types

// WebhookEventType is the provider event name as delivered on the wire
type WebhookEventType string

const (
	WebhookEventTypeInvoicePaid                 WebhookEventType = "invoice.paid"
	WebhookEventTypeInvoicePaymentFailed        WebhookEventType = "invoice.payment_failed"
	WebhookEventTypeSubscriptionUpdated         WebhookEventType = "customer.subscription.updated"
	WebhookEventTypeSubscriptionScheduleCreated WebhookEventType = "subscription_schedule.created"
	WebhookEventTypeSubscriptionScheduleUpdated WebhookEventType = "subscription_schedule.updated"
)

func (t WebhookEventType) String() string {
	return string(t)
}

// TriggersReconciliation reports whether the event may complete schedule attachment
func (t WebhookEventType) TriggersReconciliation() bool {
	switch t {
	case WebhookEventTypeInvoicePaid,
		WebhookEventTypeSubscriptionUpdated,
		WebhookEventTypeSubscriptionScheduleCreated,
		WebhookEventTypeSubscriptionScheduleUpdated:
		return true
	default:
		return false
	}
}
