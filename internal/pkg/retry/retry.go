// Package retry runs store operations with bounded exponential backoff.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Policy bounds how often and how long an operation is retried.
type Policy struct {
	Attempts        uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultPolicy is used for store reads: three attempts, 50ms doubling up to 500ms.
func DefaultPolicy() Policy {
	return Policy{
		Attempts:        3,
		InitialInterval: 50 * time.Millisecond,
		MaxInterval:     500 * time.Millisecond,
	}
}

// Do runs op until it succeeds, returns an error for which retryable reports false,
// or the attempts in p are exhausted. The last error is returned unwrapped.
func Do[T any](ctx context.Context, p Policy, retryable func(error) bool, op func(ctx context.Context) (T, error)) (T, error) {
	if p.Attempts == 0 {
		p.Attempts = 1
	}

	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}

	res, err := backoff.Retry(ctx, func() (T, error) {
		v, err := op(ctx)
		if err != nil && !retryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(p.Attempts))

	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		err = perm.Unwrap()
	}
	return res, err
}
