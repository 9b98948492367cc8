// Package retry runs destructive store operations with a bounded number of
// attempts and, for deletes, a post-condition check.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"

	"wedmarket/internal/domain"
)

// Policy bounds one retried operation.
type Policy struct {
	Attempts int
	// Delay is the pause after a failed attempt. With Incremental set the
	// n-th pause is n*Delay.
	Delay       time.Duration
	Incremental bool
	// Settle is the wait before re-reading state to verify a delete.
	Settle time.Duration
}

var (
	// RowDelete: 3 attempts, 1s apart, verified after a short propagation delay.
	RowDelete = Policy{Attempts: 3, Delay: time.Second, Settle: 500 * time.Millisecond}
	// Transfer covers uploads and downloads: 3 attempts, pausing 1s then 2s.
	Transfer = Policy{Attempts: 3, Delay: time.Second, Incremental: true}
)

// ErrNotVerified means a delete reported success but the row is still there.
var ErrNotVerified = errors.New("deletion not verified")

type incremental struct {
	step time.Duration
	n    int
}

func (b *incremental) NextBackOff() time.Duration {
	b.n++
	return time.Duration(b.n) * b.step
}

func (b *incremental) Reset() { b.n = 0 }

func (p Policy) options() []backoff.RetryOption {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var b backoff.BackOff = backoff.NewConstantBackOff(p.Delay)
	if p.Incremental {
		b = &incremental{step: p.Delay}
	}
	return []backoff.RetryOption{
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(attempts)),
	}
}

// permanent errors are returned at once: retrying cannot change an
// authorization decision or bring back a missing row.
func permanent(err error) bool {
	return errors.Is(err, domain.ErrPermissionDenied) || errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, context.Canceled)
}

// Do runs op until it succeeds, fails permanently, or runs out of attempts.
func Do(ctx context.Context, p Policy, op func(context.Context) error) error {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		if err := op(ctx); err != nil {
			if permanent(err) {
				return struct{}{}, backoff.Permanent(err)
			}
			return struct{}{}, err
		}
		return struct{}{}, nil
	}, p.options()...)
	return err
}

// Value is Do for operations producing a result.
func Value[T any](ctx context.Context, p Policy, op func(context.Context) (T, error)) (T, error) {
	return backoff.Retry(ctx, func() (T, error) {
		v, err := op(ctx)
		if err != nil && permanent(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, p.options()...)
}

// DeleteVerified deletes through del and confirms with exists. An attempt
// only counts as successful once exists reports the target gone. After the
// last attempt one more existence check runs, so a delete that landed but
// errored is not reported as a failure. The returned error wraps
// domain.ErrDeleteFailed and the last cause.
func DeleteVerified(ctx context.Context, p Policy, del func(context.Context) error, exists func(context.Context) (bool, error)) error {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		if err := del(ctx); err != nil {
			if permanent(err) {
				return struct{}{}, backoff.Permanent(err)
			}
			return struct{}{}, err
		}
		if err := Sleep(ctx, p.Settle); err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		still, err := exists(ctx)
		if err != nil {
			return struct{}{}, err
		}
		if still {
			return struct{}{}, ErrNotVerified
		}
		return struct{}{}, nil
	}, p.options()...)
	if err == nil {
		return nil
	}
	if ctx.Err() == nil {
		if still, cerr := exists(ctx); cerr == nil && !still {
			return nil
		}
	}
	return fmt.Errorf("%w: %w", domain.ErrDeleteFailed, err)
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
