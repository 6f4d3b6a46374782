package mongo

import (
	"context"
	"time"
)

// WithTimeout wraps the context with a timeout if not already in a transaction.
// Inside a transaction the session owns the deadline, so the context is
// returned unchanged with a no-op cancel function.
func WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if InTransaction(ctx) || timeout <= 0 {
		return ctx, func() {}
	}

	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < timeout {
		return context.WithDeadline(ctx, deadline)
	}

	return context.WithTimeout(ctx, timeout)
}
