package pipeline

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/jackzampolin/toccata/internal/extract"
)

// RetryPolicy governs how a single extraction call is retried. Only
// transient failures are retried; fatal failures and context cancellation
// surface immediately.
type RetryPolicy struct {
	// Attempts is the total number of tries, including the first.
	Attempts uint

	// BaseDelay is the wait before the first retry. Subsequent waits
	// double: BaseDelay, 2*BaseDelay, 4*BaseDelay, ...
	BaseDelay time.Duration
}

// DefaultRetryPolicy matches the service defaults: three attempts with a
// one second base delay.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, BaseDelay: time.Second}
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.Attempts == 0 {
		p.Attempts = 3
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = time.Second
	}
	return p
}

// Do runs fn under the policy. When every attempt fails with a transient
// error the last failure is wrapped as an exhaustion error carrying the
// attempt count.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) (*extract.Result, error)) (*extract.Result, error) {
	p = p.normalized()

	var result *extract.Result
	err := retry.Do(
		func() error {
			res, err := fn(ctx)
			if err != nil {
				return err
			}
			result = res
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(p.Attempts),
		retry.Delay(p.BaseDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(extract.IsTransient),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		if extract.IsTransient(err) {
			return nil, extract.Exhausted(int(p.Attempts), err)
		}
		return nil, err
	}
	return result, nil
}
