package internal

import (
	"context"
	"time"
)

// WithTimeout returns a context with timeout, defaulting to 10 seconds if
// duration is zero or negative. Every outbound request goes through this so
// a hung backend can never wedge the console loop.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 10 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
