// Package ledger records local mutations that the remote has not confirmed
// yet.
//
// The ledger stores intent, not state: replaying every pending change, in
// order, on top of the dataset as of the last confirmed sync reproduces the
// current local dataset (see Replay). Changes are only ever removed as a
// whole, by Clear.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gistkeeper/internal/client/models"
	"github.com/dmitrijs2005/gistkeeper/internal/client/repositories/changes"
	"github.com/dmitrijs2005/gistkeeper/internal/common"
	"github.com/dmitrijs2005/gistkeeper/internal/dbx"
	"github.com/google/uuid"
)

// Ledger is the change ledger over a changes.Repository.
type Ledger struct {
	repo  changes.Repository
	now   func() time.Time
	newID func() string
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the source of change timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithIDGenerator overrides the change id generator.
func WithIDGenerator(f func() string) Option {
	return func(l *Ledger) { l.newID = f }
}

// New returns a ledger persisted through db.
func New(db dbx.DBTX, opts ...Option) *Ledger {
	l := &Ledger{
		repo:  changes.NewSQLiteRepository(db),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// WithTx returns a ledger that shares l's clock and id generator but writes
// through tx, so a change can be recorded in the same transaction as the
// record write it describes.
func (l *Ledger) WithTx(tx dbx.DBTX) *Ledger {
	return &Ledger{
		repo:  changes.NewSQLiteRepository(tx),
		now:   l.now,
		newID: l.newID,
	}
}

// Record appends a pending change. payload is the record state after a
// create or update and is ignored for deletes.
func (l *Ledger) Record(ctx context.Context, op models.Operation, kind models.Kind, id string, payload models.Record) (*models.PendingChange, error) {
	if !op.Valid() {
		return nil, fmt.Errorf("%w: %q", common.ErrUnknownOperation, op)
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", common.ErrInvalidKind, kind)
	}

	c := &models.PendingChange{
		ID:        l.newID(),
		Operation: op,
		Kind:      kind,
		RecordID:  id,
		CreatedAt: l.now().UTC(),
	}

	if op != models.OpDelete {
		if payload == nil {
			return nil, fmt.Errorf("%w: %s %s %s", common.ErrMissingPayload, op, kind, id)
		}
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode payload: %w", err)
		}
		c.Payload = raw
	}

	if err := l.repo.Append(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// List returns every pending change, oldest first.
func (l *Ledger) List(ctx context.Context) ([]*models.PendingChange, error) {
	return l.repo.List(ctx)
}

// Count returns the number of pending changes.
func (l *Ledger) Count(ctx context.Context) (int, error) {
	return l.repo.Count(ctx)
}

// Clear drops every pending change unconditionally.
func (l *Ledger) Clear(ctx context.Context) error {
	return l.repo.Clear(ctx)
}

// Snapshot fingerprints the ledger; see changes.Snapshot.
func (l *Ledger) Snapshot(ctx context.Context) (changes.Snapshot, error) {
	return l.repo.Snapshot(ctx)
}
