package types

import (
	"context"
)

// ContextKey is a type for the keys of values stored in the context
type ContextKey string

const (
	CtxRequestID ContextKey = "ctx_request_id"
	CtxEventID   ContextKey = "ctx_event_id"

	HeaderRequestID = "X-Request-ID"
)

func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(CtxRequestID).(string); ok {
		return requestID
	}
	return ""
}

// SetRequestID sets the request ID in the context
func SetRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, CtxRequestID, requestID)
}

// GetEventID returns the provider event being processed, if any
func GetEventID(ctx context.Context) string {
	if eventID, ok := ctx.Value(CtxEventID).(string); ok {
		return eventID
	}
	return ""
}

// SetEventID sets the provider event ID in the context
func SetEventID(ctx context.Context, eventID string) context.Context {
	return context.WithValue(ctx, CtxEventID, eventID)
}
