package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gistkeeper/internal/common"
	"github.com/dmitrijs2005/gistkeeper/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

var _ Repository = (*SQLiteRepository)(nil)

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata[%s]: %w", key, err)
	}
	return value, nil
}

// inClause expands keys into "(?, ?, ...)" and the matching arguments.
func inClause(keys []string) (string, []any) {
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	return "(" + strings.TrimSuffix(strings.Repeat("?, ", len(keys)), ", ") + ")", args
}

func (r *SQLiteRepository) GetMany(ctx context.Context, keys ...string) (map[string][]byte, error) {
	result := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return result, nil
	}

	in, args := inClause(keys)
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM metadata WHERE key IN `+in, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata %v: %w", keys, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan metadata row: %w", err)
		}
		result[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate metadata rows: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Set(ctx context.Context, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set metadata[%s]: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	in, args := inClause(keys)
	if _, err := r.db.ExecContext(ctx, `DELETE FROM metadata WHERE key IN `+in, args...); err != nil {
		return fmt.Errorf("failed to delete metadata %v: %w", keys, err)
	}
	return nil
}

// LastSync decodes the RFC 3339 timestamp stored under common.MetaLastSync.
func (r *SQLiteRepository) LastSync(ctx context.Context) (*time.Time, error) {
	v, err := r.Get(ctx, common.MetaLastSync)
	if err != nil || v == nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339Nano, string(v))
	if err != nil {
		return nil, fmt.Errorf("failed to parse metadata[%s]: %w", common.MetaLastSync, err)
	}
	return &t, nil
}

func (r *SQLiteRepository) SetLastSync(ctx context.Context, t time.Time) error {
	return r.Set(ctx, common.MetaLastSync, []byte(t.UTC().Format(time.RFC3339Nano)))
}
