package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/kasuboski/umaru/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initSqlite(t *testing.T, ctx context.Context) *SQLite {
	t.Helper()

	store, err := New(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.Init(ctx))
	return store
}

func TestInit(t *testing.T) {
	store := initSqlite(t, context.Background())
	assert.NotNil(t, store)

	version, dirty, err := store.GetMigrationVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
}

func TestInit_Idempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")

	store, err := New(ctx, path)
	require.NoError(t, err)
	require.NoError(t, store.Init(ctx))
	require.NoError(t, store.PutEpisode(ctx, "One Piece", 1049))
	require.NoError(t, store.Close())

	reopened, err := New(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()
	require.NoError(t, reopened.Init(ctx))

	ep, err := reopened.GetEpisode(ctx, "One Piece")
	require.NoError(t, err)
	assert.Equal(t, 1049, ep)
}

func TestLedgerStorage(t *testing.T) {
	ctx := context.Background()
	store := initSqlite(t, ctx)

	all, err := store.ListEpisodes(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	_, err = store.GetEpisode(ctx, "Frieren")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.PutEpisode(ctx, "Frieren", 3))
	require.NoError(t, store.PutEpisode(ctx, "One Piece", 1049))

	ep, err := store.GetEpisode(ctx, "Frieren")
	require.NoError(t, err)
	assert.Equal(t, 3, ep)

	t.Run("upsert replaces", func(t *testing.T) {
		require.NoError(t, store.PutEpisode(ctx, "Frieren", 5))

		ep, err := store.GetEpisode(ctx, "Frieren")
		require.NoError(t, err)
		assert.Equal(t, 5, ep)
	})

	t.Run("list", func(t *testing.T) {
		all, err := store.ListEpisodes(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"Frieren": 5, "One Piece": 1049}, all)
	})
}

func TestPutEpisode_RejectsNegative(t *testing.T) {
	ctx := context.Background()
	store := initSqlite(t, ctx)

	err := store.PutEpisode(ctx, "Frieren", -1)
	assert.Error(t, err)

	_, err = store.GetEpisode(ctx, "Frieren")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
