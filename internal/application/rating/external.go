package rating

import (
	"context"
	"time"

	"github.com/turtacn/RateCraft/pkg/errors"
)

// ErrCallTimeout is returned when a bounded call does not finish in time.
var ErrCallTimeout = errors.New(errors.ErrCodeTimeout, "external call timed out")

type callResult[T any] struct {
	val T
	err error
}

// callWithTimeout runs fn under its own deadline and returns as soon as
// either fn finishes or the deadline passes.  A call that overruns is
// abandoned: its goroutine drains into a buffered channel and its result is
// discarded, so a provider that ignores ctx cannot hold up the caller.
func callWithTimeout[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, errors.Wrap(err, errors.ErrCodeTimeout, "calculation cancelled")
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	done := make(chan callResult[T], 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- callResult[T]{val: zero, err: errors.Newf(errors.ErrCodeExternalService, "external call panicked: %v", r)}
			}
		}()
		v, err := fn(callCtx)
		done <- callResult[T]{val: v, err: err}
	}()

	select {
	case res := <-done:
		cancel()
		if res.err != nil && ctx.Err() != nil {
			return zero, errors.Wrap(ctx.Err(), errors.ErrCodeTimeout, "calculation cancelled")
		}
		return res.val, res.err
	case <-callCtx.Done():
		cancel()
		if ctx.Err() != nil {
			return zero, errors.Wrap(ctx.Err(), errors.ErrCodeTimeout, "calculation cancelled")
		}
		return zero, ErrCallTimeout
	}
}

//Personal.AI order the ending
