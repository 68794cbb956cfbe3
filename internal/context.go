package internal

import (
	"context"
	"time"
)

type ctxKey string

const ContextCustomerKey ctxKey = "customerID"

func CustomerIDFromContext(ctx context.Context) int64 {
	if ctx == nil {
		return 0
	}
	if customerID, ok := ctx.Value(ContextCustomerKey).(int64); ok {
		return customerID
	}
	return 0
}

func ContextWithCustomerID(ctx context.Context, customerID int64) context.Context {
	return context.WithValue(ctx, ContextCustomerKey, customerID)
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
