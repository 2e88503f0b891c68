package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	mio "github.com/kasuboski/umaru/pkg/io"
	"github.com/kasuboski/umaru/pkg/io/mocks"
	"github.com/kasuboski/umaru/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestLedger_Init(t *testing.T) {
	ctx := context.Background()

	t.Run("creates empty ledger", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "last_down.json")
		l := New(path, &mio.OSFileSystem{})

		require.NoError(t, l.Init(ctx))

		b, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.JSONEq(t, `{}`, string(b))

		episodes, err := l.ListEpisodes(ctx)
		require.NoError(t, err)
		assert.Empty(t, episodes)
	})

	t.Run("loads existing ledger", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "last_down.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"One Piece": 1050, "Frieren": 12}`), 0o644))

		l := New(path, &mio.OSFileSystem{})
		require.NoError(t, l.Init(ctx))

		episodes, err := l.ListEpisodes(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"One Piece": 1050, "Frieren": 12}, episodes)
	})

	t.Run("corrupt ledger", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "last_down.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"One Piece":`), 0o644))

		err := New(path, &mio.OSFileSystem{}).Init(ctx)
		assert.Error(t, err)
	})
}

func TestLedger_PutEpisode(t *testing.T) {
	ctx := context.Background()

	t.Run("persists across reloads", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "last_down.json")
		l := New(path, &mio.OSFileSystem{})
		require.NoError(t, l.Init(ctx))

		require.NoError(t, l.PutEpisode(ctx, "One Piece", 1050))

		reloaded := New(path, &mio.OSFileSystem{})
		require.NoError(t, reloaded.Init(ctx))

		episode, err := reloaded.GetEpisode(ctx, "One Piece")
		require.NoError(t, err)
		assert.Equal(t, 1050, episode)

		_, err = reloaded.GetEpisode(ctx, "Frieren")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("write failure restores previous value", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		fs := mocks.NewMockFileIO(ctrl)

		fs.EXPECT().MkdirAll("data", gomock.Any()).Return(nil)
		fs.EXPECT().ReadFile("data/last_down.json").Return([]byte(`{"One Piece": 1}`), nil)
		fs.EXPECT().WriteFile("data/last_down.json", gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

		l := New("data/last_down.json", fs)
		require.NoError(t, l.Init(ctx))

		err := l.PutEpisode(ctx, "One Piece", 2)
		require.Error(t, err)

		episode, err := l.GetEpisode(ctx, "One Piece")
		require.NoError(t, err)
		assert.Equal(t, 1, episode)
	})
}
