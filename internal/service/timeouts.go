package service

import (
	"context"
	"time"
)

// timeoutFunc derives a bounded child context for one outbound call.
type timeoutFunc func(ctx context.Context) (context.Context, context.CancelFunc)

// boundedBy returns a timeoutFunc applying d, or a no-op when d is zero.
func boundedBy(d time.Duration) timeoutFunc {
	if d <= 0 {
		return func(ctx context.Context) (context.Context, context.CancelFunc) {
			return ctx, func() {}
		}
	}
	return func(ctx context.Context) (context.Context, context.CancelFunc) {
		return context.WithTimeout(ctx, d)
	}
}
