package coordinator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gistkeeper/internal/client/client"
	"github.com/dmitrijs2005/gistkeeper/internal/client/comparator"
	"github.com/dmitrijs2005/gistkeeper/internal/client/conflict"
	"github.com/dmitrijs2005/gistkeeper/internal/client/models"
	"github.com/dmitrijs2005/gistkeeper/internal/client/repositories/changes"
	"github.com/dmitrijs2005/gistkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gistkeeper/internal/client/repositories/records"
	"github.com/dmitrijs2005/gistkeeper/internal/common"
)

// CheckOnStartup runs the initial check. It is not debounced.
func (c *Coordinator) CheckOnStartup(ctx context.Context) (Event, error) {
	return c.check(ctx, triggerStartup)
}

// Refresh runs a manual check. Calls closer together than MinInterval fail
// with common.ErrTooFrequent; a call while another attempt runs fails with
// common.ErrSyncInProgress. Only a refresh that actually starts restarts the
// MinInterval window.
func (c *Coordinator) Refresh(ctx context.Context) (Event, error) {
	return c.check(ctx, triggerManual)
}

const (
	triggerStartup = "startup"
	triggerManual  = "manual"
	triggerPoll    = "poll"
)

// begin marks an attempt as running. It fails while another attempt runs or
// while a decision is pending. Manual triggers are debounced here, under the
// same lock, so a rejected refresh leaves lastRefresh untouched.
func (c *Coordinator) begin(trigger string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.opts.Now()
	manual := trigger == triggerManual
	switch {
	case manual && !c.lastRefresh.IsZero() && now.Sub(c.lastRefresh) < c.opts.MinInterval:
		return common.ErrTooFrequent
	case c.running:
		return common.ErrSyncInProgress
	case c.pending != nil:
		return common.ErrDecisionPending
	}
	c.running = true
	if manual {
		c.lastRefresh = now
	}
	return nil
}

func (c *Coordinator) end() {
	c.mu.Lock()
	c.running = false
	c.mu.Unlock()
}

// localState is everything a check reads from the local side.
type localState struct {
	dataset  *models.Dataset
	pending  []*models.PendingChange
	snapshot changes.Snapshot
}

func (c *Coordinator) loadLocal(ctx context.Context) (*localState, error) {
	// The ledger snapshot is taken first so any mutation racing the load
	// shows up as a mismatch at commit time.
	snap, err := c.ledger.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	ds, err := records.NewSQLiteRepository(c.db).LoadDataset(ctx)
	if err != nil {
		return nil, err
	}
	ls, err := metadata.NewSQLiteRepository(c.db).LastSync(ctx)
	if err != nil {
		return nil, err
	}
	ds.Metadata.LastSync = ls
	ds.Metadata.DeviceID = c.opts.DeviceID

	pending, err := c.ledger.List(ctx)
	if err != nil {
		return nil, err
	}
	return &localState{dataset: ds, pending: pending, snapshot: snap}, nil
}

func (c *Coordinator) fetchStatistics(ctx context.Context) (models.Statistics, error) {
	var stats *models.Statistics
	err := c.withRetry(ctx, "fetch statistics", func(ctx context.Context) error {
		var err error
		stats, err = c.remote.FetchStatistics(ctx)
		return err
	})
	if errors.Is(err, client.ErrNotFound) {
		// Nothing was pushed yet: an empty remote.
		return models.Statistics{}, nil
	}
	if err != nil {
		return models.Statistics{}, err
	}
	return *stats, nil
}

func (c *Coordinator) fetchDataset(ctx context.Context) (*models.Dataset, error) {
	var ds *models.Dataset
	err := c.withRetry(ctx, "fetch dataset", func(ctx context.Context) error {
		var err error
		ds, err = c.remote.FetchDataset(ctx)
		return err
	})
	if errors.Is(err, client.ErrNotFound) {
		return models.NewDataset(), nil
	}
	if err != nil {
		return nil, err
	}
	if ds == nil {
		return nil, fmt.Errorf("%w: remote returned no dataset", common.ErrInvalidDataset)
	}
	return ds, nil
}

// remoteMoved reports whether the remote was written after this replica's
// last sync.
func remoteMoved(localLast, remoteLast *time.Time) bool {
	if remoteLast == nil {
		return false
	}
	return localLast == nil || remoteLast.After(*localLast)
}

func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func (c *Coordinator) check(ctx context.Context, trigger string) (Event, error) {
	if err := c.begin(trigger); err != nil {
		return Event{}, err
	}
	defer c.end()

	started := c.opts.Now()
	log := c.log.With("trigger", trigger)
	log.Debug(ctx, "sync check started")

	fail := func(err error, authoritative string) (Event, error) {
		return c.finish(ctx, &models.SyncResult{
			Action:        "check",
			Err:           err,
			Authoritative: authoritative,
			StartedAt:     started,
		}), err
	}

	local, err := c.loadLocal(ctx)
	if err != nil {
		return fail(fmt.Errorf("load local data: %w", err), "local")
	}

	remoteStats, err := c.fetchStatistics(ctx)
	if err != nil {
		return fail(fmt.Errorf("fetch remote statistics: %w", err), "local")
	}

	localStats := comparator.Statistics(local.dataset)
	cmp := comparator.Compare(localStats, remoteStats)
	moved := remoteMoved(localStats.LastModified, remoteStats.LastModified)
	hasLocal := len(local.pending) > 0

	log.Debug(ctx, "statistics compared",
		"recommendation", cmp.Recommendation,
		"pending", len(local.pending),
		"remote_moved", moved,
	)

	if !comparator.ShouldSync(localStats.LastModified, remoteStats.LastModified, cmp) && !hasLocal {
		return c.finish(ctx, &models.SyncResult{
			Success:   true,
			Action:    string(models.RecommendSkip),
			StartedAt: started,
		}), nil
	}

	pull := cmp.Recommendation == models.RecommendPull && !hasLocal ||
		cmp.Recommendation == models.RecommendSkip && !hasLocal && moved
	push := (cmp.Recommendation == models.RecommendPush || cmp.Recommendation == models.RecommendSkip) &&
		!moved && (localStats.LastModified != nil || remoteStats.SameCounts(models.Statistics{}))

	remote, err := c.fetchDataset(ctx)
	if err != nil {
		return fail(fmt.Errorf("fetch remote dataset: %w", err), "local")
	}

	switch {
	case pull:
		return c.apply(ctx, local, remote, models.StrategyRemote, string(models.RecommendPull), started)

	case push:
		// A push replaces the remote wholesale. It goes ahead only when the
		// dataset still matches the statistics the decision was made on.
		actual := comparator.Statistics(remote)
		if actual.SameCounts(remoteStats) && sameInstant(actual.LastModified, remoteStats.LastModified) {
			return c.apply(ctx, local, nil, models.StrategyLocal, string(models.RecommendPush), started)
		}
		log.Warn(ctx, "remote statistics disagree with the remote dataset",
			"stats_resources", remoteStats.Resources,
			"dataset_resources", actual.Resources,
		)
		cmp = comparator.Compare(localStats, actual)
	}

	// Identical content means the remote already holds every pending
	// change, e.g. after a push whose local commit was lost. Only the hash
	// mode is strong enough to act on that.
	if c.cmp.Mode == comparator.EqualityHash && c.cmp.IsIdentical(local.dataset, remote) {
		return c.apply(ctx, local, remote, models.StrategyRemote, string(models.RecommendSkip), started)
	}

	d := &decision{
		local:      local.dataset,
		remote:     remote,
		comparison: cmp,
		conflict:   conflict.DetectConflict(local.dataset, remote, local.pending),
		snapshot:   local.snapshot,
	}

	c.mu.Lock()
	c.pending = d
	c.mu.Unlock()

	e := decisionEvent(d)
	log.Info(ctx, "sync decision required",
		"recommendation", cmp.Recommendation,
		"conflict", d.conflict.HasConflict,
		"items", len(d.conflict.Items),
	)
	c.publish(ctx, e)
	return e, nil
}
