package changes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gistkeeper/internal/client/models"
	"github.com/dmitrijs2005/gistkeeper/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Append(ctx context.Context, c *models.PendingChange) error {
	query := `INSERT INTO pending_changes (id, operation, kind, record_id, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	var payload []byte
	if len(c.Payload) > 0 {
		payload = c.Payload
	}

	_, err := r.db.ExecContext(ctx, query, c.ID, string(c.Operation), string(c.Kind), c.RecordID, payload, c.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to append change %s: %w", c.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]*models.PendingChange, error) {
	query := `SELECT id, operation, kind, record_id, payload, created_at FROM pending_changes ORDER BY seq`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select changes: %w", err)
	}
	defer rows.Close()

	result := make([]*models.PendingChange, 0)
	for rows.Next() {
		var (
			c         models.PendingChange
			op, kind  string
			payload   []byte
			createdAt int64
		)
		if err := rows.Scan(&c.ID, &op, &kind, &c.RecordID, &payload, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan change row: %w", err)
		}
		c.Operation = models.Operation(op)
		c.Kind = models.Kind(kind)
		if len(payload) > 0 {
			c.Payload = payload
		}
		c.CreatedAt = time.Unix(0, createdAt).UTC()
		result = append(result, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate change rows: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pending_changes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count changes: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM pending_changes`); err != nil {
		return fmt.Errorf("failed to clear changes: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Snapshot(ctx context.Context) (Snapshot, error) {
	var s Snapshot
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pending_changes`).Scan(&s.Count); err != nil {
		return Snapshot{}, fmt.Errorf("failed to count changes: %w", err)
	}
	err := r.db.QueryRowContext(ctx, `SELECT id FROM pending_changes ORDER BY seq DESC LIMIT 1`).Scan(&s.LastID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("failed to read last change: %w", err)
	}
	return s, nil
}
