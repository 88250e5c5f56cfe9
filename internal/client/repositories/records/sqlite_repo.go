package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gistkeeper/internal/client/models"
	"github.com/dmitrijs2005/gistkeeper/internal/common"
	"github.com/dmitrijs2005/gistkeeper/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func updatedAtColumn(rec models.Record) sql.NullInt64 {
	ts, ok := rec.LastModified()
	if !ok {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: ts.UnixNano(), Valid: true}
}

func insert(ctx context.Context, db dbx.DBTX, kind models.Kind, rec models.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode %s record %s: %w", kind, rec.RecordID(), err)
	}
	query := `INSERT INTO records (kind, id, payload, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(kind, id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`
	if _, err := db.ExecContext(ctx, query, string(kind), rec.RecordID(), payload, updatedAtColumn(rec)); err != nil {
		return fmt.Errorf("failed to upsert %s record %s: %w", kind, rec.RecordID(), err)
	}
	return nil
}

// ReadAll lists all records of a kind ordered by insertion.
func (r *SQLiteRepository) ReadAll(ctx context.Context, kind models.Kind) ([]models.Record, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", common.ErrInvalidKind, kind)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT payload FROM records WHERE kind = ? ORDER BY rowid`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to select %s: %w", kind, err)
	}
	defer rows.Close()

	result := make([]models.Record, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", kind, err)
		}
		rec, err := models.DecodeRecord(kind, payload)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s rows: %w", kind, err)
	}
	return result, nil
}

// WriteAll deletes every record of kind and inserts recs in order.
func (r *SQLiteRepository) WriteAll(ctx context.Context, kind models.Kind, recs []models.Record) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %q", common.ErrInvalidKind, kind)
	}
	return dbx.InTx(ctx, r.db, func(ctx context.Context, tx dbx.DBTX) error {
		return writeAll(ctx, tx, kind, recs)
	})
}

func writeAll(ctx context.Context, tx dbx.DBTX, kind models.Kind, recs []models.Record) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE kind = ?`, string(kind)); err != nil {
		return fmt.Errorf("failed to clear %s: %w", kind, err)
	}
	for _, rec := range recs {
		if err := insert(ctx, tx, kind, rec); err != nil {
			return err
		}
	}
	return nil
}

// Get returns a single record.
func (r *SQLiteRepository) Get(ctx context.Context, kind models.Kind, id string) (models.Record, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx, `SELECT payload FROM records WHERE kind = ? AND id = ?`, string(kind), id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s %s: %w", kind, id, common.ErrorNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	return models.DecodeRecord(kind, payload)
}

// Upsert stores rec under the kind derived from its type.
func (r *SQLiteRepository) Upsert(ctx context.Context, rec models.Record) error {
	kind, err := models.KindOf(rec)
	if err != nil {
		return err
	}
	return insert(ctx, r.db, kind, rec)
}

// Delete removes a record. It expects exactly one row to be affected.
func (r *SQLiteRepository) Delete(ctx context.Context, kind models.Kind, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM records WHERE kind = ? AND id = ?`, string(kind), id)
	if err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", kind, id, err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra != 1 {
		return fmt.Errorf("%s %s: %w", kind, id, common.ErrorNotFound)
	}
	return nil
}

// LoadDataset reads every kind into a fresh dataset.
func (r *SQLiteRepository) LoadDataset(ctx context.Context) (*models.Dataset, error) {
	ds := models.NewDataset()
	for _, kind := range models.AllKinds {
		recs, err := r.ReadAll(ctx, kind)
		if err != nil {
			return nil, err
		}
		if err := ds.SetRecords(kind, recs); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

// SaveDataset replaces all four kinds in one transaction.
func (r *SQLiteRepository) SaveDataset(ctx context.Context, ds *models.Dataset) error {
	return dbx.InTx(ctx, r.db, func(ctx context.Context, tx dbx.DBTX) error {
		for _, kind := range models.AllKinds {
			if err := writeAll(ctx, tx, kind, ds.Records(kind)); err != nil {
				return err
			}
		}
		return nil
	})
}
