package steps

import (
	"context"
	"errors"
	"time"
)

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// classifyCallErr turns a deadline hit on the per-call context into a
// CollaboratorTimeoutError. A canceled parent context is passed through untouched.
func classifyCallErr(callCtx context.Context, collaborator, op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return &CollaboratorTimeoutError{Collaborator: collaborator, Operation: op, Cause: err}
	}
	return err
}

// parentDone reports whether the run-level context is gone, in which case degraded
// results must not be mistaken for a real outcome.
func parentDone(ctx context.Context) bool {
	return ctx != nil && ctx.Err() != nil
}
