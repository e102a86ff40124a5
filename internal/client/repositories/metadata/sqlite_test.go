package metadata

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/dmitrijs2005/accountlink/internal/dbx"
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
CREATE TABLE metadata (
  key        TEXT PRIMARY KEY,
  value      BLOB NOT NULL,
  updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`)
	require.NoError(t, err)
	return db
}

func TestSetAndGet_InsertThenGet(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "session.token", []byte{0x01, 0x02}))

	v, ok, err := r.Get(ctx, "session.token")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte{0x01, 0x02}, v)
}

func TestGet_NotExists_ReportsAbsent(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	v, ok, err := r.Get(context.Background(), "absent")
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, v)
}

func TestSet_UpsertOverwritesValue(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "k", []byte("old")))
	require.NoError(t, r.Set(ctx, "k", []byte("new")))

	v, ok, err := r.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("new"), v)
}

func TestDelete_RemovesKeys_AndIsIdempotent(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "session.token", []byte{1}))
	require.NoError(t, r.Set(ctx, "session.account_id", []byte{2}))
	require.NoError(t, r.Set(ctx, "master.account_id", []byte{3}))

	require.NoError(t, r.Delete(ctx, "session.token", "session.account_id"))

	_, ok, err := r.Get(ctx, "session.token")
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = r.Get(ctx, "master.account_id")
	require.NoError(t, err)
	require.True(t, ok, "unrelated keys survive")

	require.NoError(t, r.Delete(ctx, "session.token"))
	require.NoError(t, r.Delete(ctx))
}

func TestGet_DBErrorWrapped(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	require.NoError(t, db.Close())

	v, ok, err := r.Get(context.Background(), "k")
	require.Error(t, err)
	require.False(t, ok)
	require.Nil(t, v)
	require.Contains(t, err.Error(), "failed to get metadata[k]")
}

func TestSet_DBErrorWrapped(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	require.NoError(t, db.Close())

	err := r.Set(context.Background(), "k", []byte("v"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to set metadata[k]")
}

func TestDelete_DBErrorWrapped(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	require.NoError(t, db.Close())

	err := r.Delete(context.Background(), "k")
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to delete metadata")
}

func TestTxBoundRepository_RollbackDiscardsWrites(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	require.NoError(t, NewSQLiteRepository(db).Set(ctx, "session.token", []byte("kept")))

	boom := errors.New("boom")
	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		r := NewSQLiteRepository(tx)
		require.NoError(t, r.Set(ctx, "session.token", []byte("new")))
		require.NoError(t, r.Set(ctx, "session.account_id", []byte("1002")))

		v, ok, err := r.Get(ctx, "session.token")
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, []byte("new"), v, "visible inside the transaction")
		return boom
	})
	require.ErrorIs(t, err, boom)

	r := NewSQLiteRepository(db)
	v, _, err := r.Get(ctx, "session.token")
	require.NoError(t, err)
	require.Equal(t, []byte("kept"), v)
	_, ok, err := r.Get(ctx, "session.account_id")
	require.NoError(t, err)
	require.False(t, ok)
}
