package credentials

import (
	"context"
	"database/sql"
	"testing"

	"github.com/dmitrijs2005/gistkeeper/internal/client/client"
	"github.com/dmitrijs2005/gistkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gistkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	db := setupDB(t)
	s := NewStore(db)
	ctx := context.Background()

	ok, err := s.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Save(ctx, "ghp_abc123", []byte("correct horse")))

	ok, err = s.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	tok, err := s.Load(ctx, []byte("correct horse"))
	require.NoError(t, err)
	assert.Equal(t, "ghp_abc123", tok)

	raw, err := metadata.NewSQLiteRepository(db).Get(ctx, common.MetaTokenCipher)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "ghp_abc123")
}

func TestLoad_WrongPassphrase(t *testing.T) {
	s := NewStore(setupDB(t))
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, "ghp_abc123", []byte("right")))

	_, err := s.Load(ctx, []byte("wrong"))
	require.ErrorIs(t, err, client.ErrUnauthorized)
}

func TestLoad_NothingStored(t *testing.T) {
	_, err := NewStore(setupDB(t)).Load(context.Background(), []byte("x"))
	require.ErrorIs(t, err, ErrNotStored)
}

func TestSave_ReplacesPrevious(t *testing.T) {
	s := NewStore(setupDB(t))
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "old", []byte("p1")))
	require.NoError(t, s.Save(ctx, "new", []byte("p2")))

	_, err := s.Load(ctx, []byte("p1"))
	require.ErrorIs(t, err, client.ErrUnauthorized)

	tok, err := s.Load(ctx, []byte("p2"))
	require.NoError(t, err)
	assert.Equal(t, "new", tok)
}

func TestSave_EmptyToken(t *testing.T) {
	err := NewStore(setupDB(t)).Save(context.Background(), "", []byte("p"))
	require.Error(t, err)
}

func TestClear_KeepsOtherMetadata(t *testing.T) {
	db := setupDB(t)
	s := NewStore(db)
	ctx := context.Background()
	meta := metadata.NewSQLiteRepository(db)

	require.NoError(t, meta.Set(ctx, common.MetaDeviceID, []byte("laptop")))
	require.NoError(t, s.Save(ctx, "tok", []byte("p")))
	require.NoError(t, s.Clear(ctx))

	ok, err := s.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	v, err := meta.Get(ctx, common.MetaDeviceID)
	require.NoError(t, err)
	assert.Equal(t, "laptop", string(v))
}

func TestLoad_ClosedDB(t *testing.T) {
	db := setupDB(t)
	s := NewStore(db)
	require.NoError(t, db.Close())

	_, err := s.Load(context.Background(), []byte("p"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotStored)
}
