// Package retry runs an operation with bounded exponential backoff,
// retrying only transient failures.
package retry

import (
	"context"
	"errors"
	"time"

	"ai-docqa-be/pkg/apperror"

	"github.com/cenkalti/backoff/v5"
)

type Policy struct {
	MaxAttempts     uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsed      time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:     3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		MaxElapsed:      30 * time.Second,
	}
}

// Notify is called before each retry with the error that triggered it.
type Notify func(err error, wait time.Duration)

// Do executes op until it succeeds, returns a non-transient error, or the
// policy is exhausted. The last error is returned unwrapped.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error), notify Notify) (T, error) {
	if p.MaxAttempts == 0 {
		p.MaxAttempts = 1
	}

	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(b),
		backoff.WithMaxTries(p.MaxAttempts),
	}
	if p.MaxElapsed > 0 {
		opts = append(opts, backoff.WithMaxElapsedTime(p.MaxElapsed))
	}
	if notify != nil {
		opts = append(opts, backoff.WithNotify(backoff.Notify(notify)))
	}

	res, err := backoff.Retry(ctx, func() (T, error) {
		res, err := op(ctx)
		if err != nil && !apperror.IsTransient(err) {
			return res, backoff.Permanent(err)
		}
		return res, err
	}, opts...)

	// the final attempt may still carry the permanent marker
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Unwrap()
	}
	return res, err
}
