package changes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gistkeeper/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE pending_changes (
  seq        INTEGER PRIMARY KEY AUTOINCREMENT,
  id         TEXT NOT NULL UNIQUE,
  operation  TEXT NOT NULL,
  kind       TEXT NOT NULL,
  record_id  TEXT NOT NULL,
  payload    BLOB,
  created_at INTEGER NOT NULL
);`)
	require.NoError(t, err)
	return db
}

func change(id string, op models.Operation, recordID string, payload string) *models.PendingChange {
	c := &models.PendingChange{
		ID:        id,
		Operation: op,
		Kind:      models.KindQuestions,
		RecordID:  recordID,
		CreatedAt: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	if payload != "" {
		c.Payload = json.RawMessage(payload)
	}
	return c
}

func TestAppendAndList_PreservesOrder(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Append(ctx, change("c3", models.OpCreate, "q1", `{"id":"q1"}`)))
	require.NoError(t, r.Append(ctx, change("c1", models.OpUpdate, "q1", `{"id":"q1","title":"t"}`)))
	require.NoError(t, r.Append(ctx, change("c2", models.OpDelete, "q1", "")))

	got, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "c3", got[0].ID)
	assert.Equal(t, "c1", got[1].ID)
	assert.Equal(t, "c2", got[2].ID)

	assert.Equal(t, models.OpUpdate, got[1].Operation)
	assert.Equal(t, models.KindQuestions, got[1].Kind)
	assert.JSONEq(t, `{"id":"q1","title":"t"}`, string(got[1].Payload))
	assert.Nil(t, got[2].Payload)
	assert.True(t, got[0].CreatedAt.Equal(time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)))
}

func TestAppend_DuplicateIDRejected(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Append(ctx, change("dup", models.OpCreate, "q1", `{}`)))
	err := r.Append(ctx, change("dup", models.OpCreate, "q2", `{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to append change dup")
}

func TestCountAndClear(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	n, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, r.Append(ctx, change("a", models.OpCreate, "q1", `{}`)))
	require.NoError(t, r.Append(ctx, change("b", models.OpCreate, "q2", `{}`)))

	n, err = r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, r.Clear(ctx))
	got, err := r.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestSnapshot_TracksAppendsAndClears(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	empty, err := r.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, Snapshot{}, empty)

	require.NoError(t, r.Append(ctx, change("a", models.OpCreate, "q1", `{}`)))
	s1, err := r.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, Snapshot{Count: 1, LastID: "a"}, s1)

	require.NoError(t, r.Clear(ctx))
	require.NoError(t, r.Append(ctx, change("b", models.OpCreate, "q1", `{}`)))
	s2, err := r.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, s2.Count)
	assert.NotEqual(t, s1, s2, "same length, different tail")
}

func TestList_DBErrorWrapped(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT id, operation, kind, record_id, payload, created_at FROM pending_changes").
		WillReturnError(errors.New("database is locked"))

	_, err = NewSQLiteRepository(db).List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to select changes")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClear_DBErrorWrapped(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	require.NoError(t, db.Close())

	err := r.Clear(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to clear changes")
}
