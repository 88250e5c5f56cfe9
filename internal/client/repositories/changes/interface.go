// Package changes persists the pending-change ledger: an append-only,
// ordered log of local mutations not yet confirmed by the remote.
//
// The package defines a Repository contract and a SQLite implementation that
// runs over dbx.DBTX, so a caller can bind it to an open transaction and
// append a change atomically with the record write it describes.
package changes

import (
	"context"

	"github.com/dmitrijs2005/gistkeeper/internal/client/models"
)

// Repository describes the ledger operations.
type Repository interface {
	// Append adds a change at the end of the ledger. Change ids are unique.
	Append(ctx context.Context, c *models.PendingChange) error

	// List returns every change in append order.
	List(ctx context.Context) ([]*models.PendingChange, error)

	// Count returns the number of changes.
	Count(ctx context.Context) (int, error)

	// Clear removes every change.
	Clear(ctx context.Context) error

	// Snapshot identifies the current ledger state by its length and the id
	// of its last change. Two equal snapshots mean nothing was appended or
	// cleared in between.
	Snapshot(ctx context.Context) (Snapshot, error)
}

// Snapshot is a cheap fingerprint of the ledger.
type Snapshot struct {
	Count  int
	LastID string
}
