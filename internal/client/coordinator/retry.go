package coordinator

import (
	"context"

	"github.com/dmitrijs2005/gistkeeper/internal/client/client"
	"github.com/sethvargo/go-retry"
)

// withRetry runs fn with exponential backoff while it fails with a
// retryable transport error. Each call gets its own RequestTimeout.
func (c *Coordinator) withRetry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	b := retry.WithMaxRetries(c.opts.MaxRetries, retry.NewExponential(c.opts.RetryBase))

	attempt := 0
	return retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		err := c.call(ctx, fn)
		if err == nil {
			return nil
		}
		if client.IsRetryable(err) && ctx.Err() == nil {
			c.log.Warn(ctx, "remote call failed, retrying", "op", op, "attempt", attempt, "err", err)
			return retry.RetryableError(err)
		}
		return err
	})
}

func (c *Coordinator) call(ctx context.Context, fn func(ctx context.Context) error) error {
	if c.opts.RequestTimeout <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, c.opts.RequestTimeout)
	defer cancel()
	return fn(ctx)
}
