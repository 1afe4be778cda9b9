package logger

import (
	"context"

	"github.com/google/uuid"
)

// WithTraceID stores traceID in ctx, generating a UUID when traceID is empty.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	if traceID == "" {
		traceID = NewTraceID()
	}
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID returns the trace ID stored in ctx, or "".
func GetTraceID(ctx context.Context) string {
	if traceID, ok := ctx.Value(TraceIDKey).(string); ok {
		return traceID
	}
	return ""
}

func NewTraceID() string {
	return uuid.New().String()
}
