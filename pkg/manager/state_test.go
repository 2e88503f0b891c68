package manager

import (
	"testing"
	"time"

	"github.com/kasuboski/umaru/pkg/machine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState(t *testing.T) {
	s := NewState()

	assert.False(t, s.Active())
	_, ok := s.LastRefresh()
	assert.False(t, ok)

	t.Run("failed cycle keeps last refresh unset", func(t *testing.T) {
		require.NoError(t, s.begin())
		assert.True(t, s.Active())

		require.NoError(t, s.finish(nil))
		assert.False(t, s.Active())

		_, ok := s.LastRefresh()
		assert.False(t, ok)
	})

	t.Run("successful cycle records time", func(t *testing.T) {
		at := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)

		require.NoError(t, s.begin())
		require.NoError(t, s.finish(&at))

		got, ok := s.LastRefresh()
		assert.True(t, ok)
		assert.Equal(t, at, got)
	})

	t.Run("cannot begin twice", func(t *testing.T) {
		require.NoError(t, s.begin())
		assert.ErrorIs(t, s.begin(), machine.ErrInvalidTransition)
		require.NoError(t, s.finish(nil))
	})
}
