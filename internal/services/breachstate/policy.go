package breachstate

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"

	"breachmonitor/internal/domain"
)

// Policy bounds every upstream call made by the engine.
type Policy struct {
	Timeout time.Duration // per attempt
	Retries int
	Backoff time.Duration
}

func DefaultPolicy() Policy {
	return Policy{Timeout: 10 * time.Second, Retries: 2, Backoff: 200 * time.Millisecond}
}

// do runs fn with a per-attempt timeout, retrying transient failures. Missing
// configuration and rejected input are not retried.
func (p Policy) do(ctx context.Context, fn func(ctx context.Context) error) error {
	if p.Timeout <= 0 {
		p.Timeout = DefaultPolicy().Timeout
	}
	if p.Backoff <= 0 {
		p.Backoff = DefaultPolicy().Backoff
	}
	retries := p.Retries
	if retries < 0 {
		retries = 0
	}
	b := retry.WithMaxRetries(uint64(retries), retry.NewExponential(p.Backoff))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, p.Timeout)
		defer cancel()
		err := fn(callCtx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || errors.Is(err, domain.ErrConfigurationMissing) || errors.Is(err, domain.ErrInvalidInput) {
			return err
		}
		return retry.RetryableError(err)
	})
}
