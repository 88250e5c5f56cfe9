package coordinator

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gistkeeper/internal/client/models"
	"github.com/dmitrijs2005/gistkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gistkeeper/internal/client/repositories/records"
	"github.com/dmitrijs2005/gistkeeper/internal/common"
	"github.com/dmitrijs2005/gistkeeper/internal/dbx"
)

// Decide applies strategy to the pending decision. An unknown strategy
// fails with common.ErrUnknownStrategy and keeps the decision pending; any
// other outcome consumes it.
func (c *Coordinator) Decide(ctx context.Context, strategy models.Strategy) (Event, error) {
	switch strategy {
	case models.StrategyLocal, models.StrategyRemote, models.StrategyMerge:
	default:
		return Event{}, fmt.Errorf("%w: %q", common.ErrUnknownStrategy, strategy)
	}

	c.mu.Lock()
	switch {
	case c.running:
		c.mu.Unlock()
		return Event{}, common.ErrSyncInProgress
	case c.pending == nil:
		c.mu.Unlock()
		return Event{}, common.ErrNoPendingChoice
	}
	d := c.pending
	c.pending = nil
	c.running = true
	c.mu.Unlock()
	defer c.end()

	c.log.Info(ctx, "sync decision taken", "strategy", strategy)

	local := &localState{dataset: d.local, snapshot: d.snapshot}
	return c.apply(ctx, local, d.remote, strategy, string(strategy), c.opts.Now())
}

// Cancel discards the pending decision. Nothing has been written at that
// point, so the store and ledger are left as they were.
func (c *Coordinator) Cancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return common.ErrNoPendingChoice
	}
	c.pending = nil
	return nil
}

// apply resolves, pushes unless the remote wins, and commits locally.
// Until the commit starts, cancellation of ctx aborts without side effects.
func (c *Coordinator) apply(ctx context.Context, local *localState, remote *models.Dataset, strategy models.Strategy, action string, started time.Time) (Event, error) {
	res := &models.SyncResult{Action: action, StartedAt: started, Authoritative: "local"}

	resolved, err := c.resolver.Resolve(local.dataset, remote, strategy)
	if err != nil {
		res.Err = err
		return c.finish(ctx, res), err
	}

	if strategy != models.StrategyRemote {
		if c.opts.DeviceID != "" {
			resolved.Metadata.DeviceID = c.opts.DeviceID
		}
		if err := c.ensureLedger(ctx, local); err != nil {
			res.Err = err
			return c.finish(ctx, res), err
		}
		err := c.withRetry(ctx, "push dataset", func(ctx context.Context) error {
			return c.remote.PushDataset(ctx, resolved)
		})
		if err != nil {
			res.Err = fmt.Errorf("push dataset: %w", err)
			return c.finish(ctx, res), res.Err
		}
		// The remote now holds the resolved data.
		res.Authoritative = "remote"
	}

	if err := ctx.Err(); err != nil && strategy == models.StrategyRemote {
		res.Err = err
		return c.finish(ctx, res), err
	}

	if err := c.commit(context.WithoutCancel(ctx), local, resolved); err != nil {
		res.Err = fmt.Errorf("commit: %w", err)
		return c.finish(ctx, res), res.Err
	}

	res.Success = true
	res.Authoritative = ""
	switch {
	case strategy == models.StrategyLocal && remote == nil:
		res.Counts = pushedCounts(local.pending)
	case strategy == models.StrategyLocal:
		res.Counts = diffCounts(remote, resolved)
	default:
		res.Counts = diffCounts(local.dataset, resolved)
	}
	return c.finish(ctx, res), nil
}

// ensureLedger fails when changes were recorded after local was loaded.
func (c *Coordinator) ensureLedger(ctx context.Context, local *localState) error {
	cur, err := c.ledger.Snapshot(ctx)
	if err != nil {
		return err
	}
	if cur != local.snapshot {
		return common.ErrLedgerChanged
	}
	return nil
}

// commit writes resolved, the sync time and an empty ledger in one
// transaction.
func (c *Coordinator) commit(ctx context.Context, local *localState, resolved *models.Dataset) error {
	return dbx.WithTx(ctx, c.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		l := c.ledger.WithTx(tx)
		cur, err := l.Snapshot(ctx)
		if err != nil {
			return err
		}
		if cur != local.snapshot {
			return common.ErrLedgerChanged
		}
		if err := records.NewSQLiteRepository(tx).SaveDataset(ctx, resolved); err != nil {
			return err
		}
		if resolved.Metadata.LastSync != nil {
			if err := metadata.NewSQLiteRepository(tx).SetLastSync(ctx, *resolved.Metadata.LastSync); err != nil {
				return err
			}
		}
		return l.Clear(ctx)
	})
}

// pushedCounts tallies a pure push from the ledger: the last operation per
// record decides how it is counted.
func pushedCounts(pending []*models.PendingChange) map[models.Kind]models.KindCounts {
	type key struct {
		kind models.Kind
		id   string
	}
	first := make(map[key]models.Operation)
	last := make(map[key]models.Operation)
	var order []key
	for _, p := range pending {
		k := key{p.Kind, p.RecordID}
		if _, ok := first[k]; !ok {
			first[k] = p.Operation
			order = append(order, k)
		}
		last[k] = p.Operation
	}

	out := make(map[models.Kind]models.KindCounts, len(models.AllKinds))
	for _, k := range models.AllKinds {
		out[k] = models.KindCounts{}
	}
	for _, k := range order {
		kc := out[k.kind]
		switch {
		case last[k] == models.OpDelete && first[k] == models.OpCreate:
			// created and deleted before ever reaching the remote
		case last[k] == models.OpDelete:
			kc.Deleted++
		case first[k] == models.OpCreate:
			kc.Added++
		default:
			kc.Updated++
		}
		out[k.kind] = kc
	}
	return out
}

// finish stamps, logs and publishes a result and returns its event.
func (c *Coordinator) finish(ctx context.Context, res *models.SyncResult) Event {
	res.FinishedAt = c.opts.Now()
	if res.Err != nil {
		c.log.Error(ctx, "sync failed", "action", res.Action, "authoritative", res.Authoritative, "err", res.Err)
	} else {
		t := res.Total()
		c.log.Info(ctx, "sync finished", "action", res.Action, "added", t.Added, "updated", t.Updated, "deleted", t.Deleted)
	}
	e := Event{Type: EventResult, Result: res}
	c.publish(ctx, e)
	return e
}
