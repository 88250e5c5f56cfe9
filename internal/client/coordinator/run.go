package coordinator

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/gistkeeper/internal/common"
)

// Run performs the startup check and then polls every PollInterval until
// ctx is done. Ticks that find an attempt running or a decision pending are
// skipped. Failures are reported through Events and do not stop the loop.
func (c *Coordinator) Run(ctx context.Context) {
	c.poll(ctx, triggerStartup)

	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.poll(ctx, triggerPoll)
		}
	}
}

// poll runs one check. Failures were already published as results.
func (c *Coordinator) poll(ctx context.Context, trigger string) {
	_, err := c.check(ctx, trigger)
	if errors.Is(err, common.ErrSyncInProgress) || errors.Is(err, common.ErrDecisionPending) {
		c.log.Debug(ctx, "poll skipped", "trigger", trigger, "reason", err)
	}
}
