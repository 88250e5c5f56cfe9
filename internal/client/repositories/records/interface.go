// Package records provides the client-side Record Store: the four
// knowledge-base collections persisted in the local SQLite database.
//
// # Data Model
//
// Every record is stored as one row (kind, id, payload, updated_at). The
// payload is the JSON form of the concrete models type; updated_at mirrors
// the record's UpdatedAt in unix nanoseconds (NULL when absent) so it can be
// inspected without decoding.
//
// # Transactions
//
// SQLiteRepository works over a dbx.DBTX. Bound to a *sql.DB, WriteAll and
// SaveDataset open their own transaction; bound to a *sql.Tx they join the
// caller's one. The sync coordinator relies on the latter to commit all four
// kinds together with the ledger clear.
package records

import (
	"context"

	"github.com/dmitrijs2005/gistkeeper/internal/client/models"
)

// Repository describes the Record Store operations.
type Repository interface {
	// ReadAll returns every record of kind in insertion order.
	ReadAll(ctx context.Context, kind models.Kind) ([]models.Record, error)

	// WriteAll atomically replaces every record of kind with recs.
	WriteAll(ctx context.Context, kind models.Kind, recs []models.Record) error

	// Get returns one record; common.ErrorNotFound when absent.
	Get(ctx context.Context, kind models.Kind, id string) (models.Record, error)

	// Upsert inserts rec or replaces the record with the same kind and id.
	Upsert(ctx context.Context, rec models.Record) error

	// Delete removes a record; common.ErrorNotFound when absent.
	Delete(ctx context.Context, kind models.Kind, id string) error

	// LoadDataset reads all four kinds. Metadata is left empty.
	LoadDataset(ctx context.Context) (*models.Dataset, error)

	// SaveDataset atomically replaces all four kinds with the content of ds.
	SaveDataset(ctx context.Context, ds *models.Dataset) error
}
