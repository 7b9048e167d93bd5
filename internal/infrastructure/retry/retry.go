// Package retry runs calls to storage and external collaborators under a
// bounded exponential backoff with a timeout per attempt.
package retry

import (
	"context"
	"errors"
	"time"

	"edufund-backend/internal/domain/apperr"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

type Policy struct {
	MaxAttempts     uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
	AttemptTimeout  time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:     4,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		AttemptTimeout:  5 * time.Second,
	}
}

// Retrier applies a Policy. The zero value is not usable; use New.
type Retrier struct {
	policy Policy
	log    *zap.Logger
}

func New(p Policy, log *zap.Logger) *Retrier {
	if p.MaxAttempts == 0 {
		p.MaxAttempts = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Retrier{policy: p, log: log}
}

// Do calls fn until it succeeds or fails with a non-retriable error.
// Exhausting the attempts yields an apperr dependency error.
func Do[T any](ctx context.Context, r *Retrier, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = r.policy.InitialInterval
	eb.MaxInterval = r.policy.MaxInterval

	attempt := 0
	res, err := backoff.Retry(ctx, func() (T, error) {
		attempt++
		actx := ctx
		if r.policy.AttemptTimeout > 0 {
			var cancel context.CancelFunc
			actx, cancel = context.WithTimeout(ctx, r.policy.AttemptTimeout)
			defer cancel()
		}
		out, err := fn(actx)
		if err != nil && !apperr.Retriable(err) {
			return out, backoff.Permanent(err)
		}
		return out, err
	},
		backoff.WithBackOff(eb),
		backoff.WithMaxTries(r.policy.MaxAttempts),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			r.log.Warn("retrying",
				zap.String("op", op),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", next),
				zap.Error(err))
		}),
	)
	if err == nil {
		return res, nil
	}
	// the last attempt's error comes back still wrapped
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Unwrap()
	}
	if apperr.Retriable(err) {
		return res, apperr.Dependency(op, err)
	}
	return res, err
}

// Run is Do for calls without a result.
func Run(ctx context.Context, r *Retrier, op string, fn func(ctx context.Context) error) error {
	_, err := Do(ctx, r, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}
