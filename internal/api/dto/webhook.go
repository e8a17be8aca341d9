package dto

// WebhookResponse acknowledges a provider webhook delivery
type WebhookResponse struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	Status    string `json:"status"`
}

const (
	WebhookStatusProcessed = "processed"
	WebhookStatusDuplicate = "duplicate"
	WebhookStatusIgnored   = "ignored"
)
