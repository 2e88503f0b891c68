package reconcile

import (
	"testing"

	"github.com/kasuboski/umaru/pkg/catalog"
	"github.com/kasuboski/umaru/pkg/watchlist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshotOf(titles ...string) catalog.Snapshot {
	s := catalog.Snapshot{}
	for _, t := range titles {
		s.Entries = append(s.Entries, catalog.Entry{Title: t})
	}
	return s
}

func TestReconcile(t *testing.T) {
	r := New(DefaultMinScore)

	t.Run("closest title wins", func(t *testing.T) {
		result := r.Reconcile([]watchlist.Entry{"One Pece"}, snapshotOf("One Piece", "One Punch Man"))

		require.Len(t, result.Matches, 1)
		assert.Equal(t, watchlist.Entry("One Pece"), result.Matches[0].Query)
		assert.Equal(t, "One Piece", result.Matches[0].Entry.Title)
		assert.InDelta(t, 1-1.0/9, result.Matches[0].Score, 0.0001)
		assert.Empty(t, result.Unresolved)
	})

	t.Run("formatting differences still match exactly", func(t *testing.T) {
		result := r.Reconcile([]watchlist.Entry{"  boku no HERO academia!! "}, snapshotOf("Dr. Stone", "Boku no Hero Academia"))

		require.Len(t, result.Matches, 1)
		assert.Equal(t, "Boku no Hero Academia", result.Matches[0].Entry.Title)
		assert.Equal(t, 1.0, result.Matches[0].Score)
	})

	t.Run("metadata passes through", func(t *testing.T) {
		snapshot := catalog.Snapshot{Entries: []catalog.Entry{
			{Title: "Frieren", Metadata: map[string]string{catalog.LatestEpisodeKey: "12"}},
		}}

		result := r.Reconcile([]watchlist.Entry{"frieren"}, snapshot)
		require.Len(t, result.Matches, 1)
		assert.Equal(t, "12", result.Matches[0].Entry.Metadata[catalog.LatestEpisodeKey])
	})

	t.Run("empty watchlist", func(t *testing.T) {
		result := r.Reconcile(nil, snapshotOf("One Piece"))
		assert.Empty(t, result.Matches)
		assert.Empty(t, result.Unresolved)
	})

	t.Run("empty catalog leaves everything unresolved", func(t *testing.T) {
		result := r.Reconcile([]watchlist.Entry{"One Piece", "Frieren"}, catalog.Snapshot{})
		assert.Empty(t, result.Matches)
		assert.Equal(t, []watchlist.Entry{"One Piece", "Frieren"}, result.Unresolved)
	})

	t.Run("no shared grams is unresolved", func(t *testing.T) {
		result := r.Reconcile([]watchlist.Entry{"xyz"}, snapshotOf("One Piece"))
		assert.Empty(t, result.Matches)
		assert.Equal(t, []watchlist.Entry{"xyz"}, result.Unresolved)
	})

	t.Run("punctuation only entry is unresolved", func(t *testing.T) {
		result := r.Reconcile([]watchlist.Entry{"!!!"}, snapshotOf("One Piece"))
		assert.Empty(t, result.Matches)
		assert.Len(t, result.Unresolved, 1)
	})

	t.Run("at most one match per entry in watchlist order", func(t *testing.T) {
		entries := []watchlist.Entry{"dandadan", "one pece", "frieren"}
		result := r.Reconcile(entries, snapshotOf("Frieren", "One Piece", "Dandadan", "One Punch Man"))

		assert.Equal(t, []string{"Dandadan", "One Piece", "Frieren"}, result.Titles())
	})
}

func TestReconcile_TieBreak(t *testing.T) {
	r := New(DefaultMinScore)
	entries := []watchlist.Entry{"Frieren"}

	forward := r.Reconcile(entries, snapshotOf("Frieren A", "Frieren B"))
	require.Len(t, forward.Matches, 1)
	assert.Equal(t, "Frieren A", forward.Matches[0].Entry.Title)

	reversed := r.Reconcile(entries, snapshotOf("Frieren B", "Frieren A"))
	require.Len(t, reversed.Matches, 1)
	assert.Equal(t, "Frieren B", reversed.Matches[0].Entry.Title)

	for range 20 {
		again := r.Reconcile(entries, snapshotOf("Frieren A", "Frieren B"))
		assert.Equal(t, forward, again)
	}
}

func TestReconcile_MinScore(t *testing.T) {
	snapshot := snapshotOf("One Piece", "One Punch Man")
	entries := []watchlist.Entry{"One Pece", "One"}

	lenient := New(0).Reconcile(entries, snapshot)
	assert.Len(t, lenient.Matches, 2)

	strict := New(0.8).Reconcile(entries, snapshot)
	require.Len(t, strict.Matches, 1)
	assert.Equal(t, "One Piece", strict.Matches[0].Entry.Title)
	assert.Equal(t, []watchlist.Entry{"One"}, strict.Unresolved)
	assert.Equal(t, 0.8, New(0.8).MinScore())
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"One Piece", "one piece"},
		{"  Re:Zero  -  Starting Life ", "rezero starting life"},
		{"ＳＰＹ×ＦＡＭＩＬＹ", "spyfamily"},
		{"Kaguya-sama_wa", "kaguya sama wa"},
		{"!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestLevenshtein(t *testing.T) {
	assert.Equal(t, 0, levenshtein("", ""))
	assert.Equal(t, 3, levenshtein("", "abc"))
	assert.Equal(t, 1, levenshtein("one pece", "one piece"))
	assert.Equal(t, 3, levenshtein("kitten", "sitting"))
	assert.Equal(t, 1, levenshtein("日本", "日本語"))
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("One Piece", "one piece!"))
	assert.Greater(t, Similarity("One Pece", "One Piece"), Similarity("One Pece", "One Punch Man"))
}
