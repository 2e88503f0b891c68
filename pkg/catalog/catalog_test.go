package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	fetched := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	t.Run("current season with metadata", func(t *testing.T) {
		raw := `{
			"current_season": ["One Piece", " One Punch Man ", "", "One Piece"],
			"metadata": {"One Piece": {"latest_episode": "1050", "airs": "Sunday 02:30"}}
		}`

		snapshot, err := Decode([]byte(raw), fetched)
		require.NoError(t, err)

		assert.Equal(t, []string{"One Piece", "One Punch Man"}, snapshot.Titles())
		assert.Equal(t, fetched, snapshot.FetchedAt)

		entry, ok := snapshot.Lookup("One Piece")
		require.True(t, ok)
		assert.Equal(t, "1050", entry.Metadata[LatestEpisodeKey])

		entry, ok = snapshot.Lookup("One Punch Man")
		require.True(t, ok)
		assert.Nil(t, entry.Metadata)
	})

	t.Run("empty season", func(t *testing.T) {
		snapshot, err := Decode([]byte(`{"current_season": []}`), fetched)
		require.NoError(t, err)
		assert.Equal(t, 0, snapshot.Len())
	})

	t.Run("missing current season", func(t *testing.T) {
		_, err := Decode([]byte(`{"shows": ["One Piece"]}`), fetched)
		assert.ErrorIs(t, err, ErrMissingCurrentSeason)
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := Decode([]byte(`{"current_season": [`), fetched)
		assert.Error(t, err)
	})
}

func TestEncodeDecode(t *testing.T) {
	snapshot := Snapshot{
		Entries: []Entry{
			{Title: "Frieren", Metadata: map[string]string{LatestEpisodeKey: "12"}},
			{Title: "Dandadan"},
		},
	}

	b, err := Encode(snapshot)
	require.NoError(t, err)

	decoded, err := Decode(b, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, snapshot, decoded)
}

func TestStore(t *testing.T) {
	store := NewStore()
	assert.Equal(t, 0, store.Current().Len())

	first := Snapshot{Entries: []Entry{{Title: "One Piece"}}}
	previous := store.Replace(first)
	assert.Equal(t, 0, previous.Len())
	assert.Equal(t, first, store.Current())

	second := Snapshot{Entries: []Entry{{Title: "Frieren"}, {Title: "Dandadan"}}}
	previous = store.Replace(second)
	assert.Equal(t, first, previous)
	assert.Equal(t, []string{"Frieren", "Dandadan"}, store.Current().Titles())
}

func TestNewSnapshot(t *testing.T) {
	at := time.Date(2024, 1, 7, 9, 0, 0, 0, time.UTC)

	s := NewSnapshot([]Entry{
		{Title: " Frieren "},
		{Title: ""},
		{Title: "Dandadan", Metadata: map[string]string{"airs": "Thursday"}},
		{Title: "Frieren", Metadata: map[string]string{"airs": "Friday"}},
	}, at)

	assert.Equal(t, []string{"Frieren", "Dandadan"}, s.Titles())
	assert.Nil(t, s.Entries[0].Metadata)
	assert.Equal(t, at, s.FetchedAt)
}
