// Package reconcile maps free-text watchlist entries onto canonical catalog titles.
package reconcile

import (
	"cmp"
	"slices"

	"github.com/kasuboski/umaru/pkg/catalog"
	"github.com/kasuboski/umaru/pkg/watchlist"
)

const (
	// DefaultMinScore accepts any candidate sharing at least one n-gram with the entry
	DefaultMinScore = 0.0
	// maxCandidates bounds how many cosine candidates are re-ranked by edit distance
	maxCandidates = 50
)

// gramSizes are tried largest first; smaller grams are only used when larger ones find nothing
var gramSizes = []int{3, 2}

// Match pairs a watchlist entry with its best catalog entry
type Match struct {
	Query watchlist.Entry `json:"query"`
	Entry catalog.Entry   `json:"entry"`
	Score float64         `json:"score"`
}

// Result is the outcome of reconciling a watchlist against a snapshot.
// Matches and Unresolved both keep watchlist order.
type Result struct {
	Matches    []Match           `json:"matches"`
	Unresolved []watchlist.Entry `json:"unresolved"`
}

// Titles returns the matched canonical titles in watchlist order
func (r Result) Titles() []string {
	titles := make([]string, len(r.Matches))
	for i, m := range r.Matches {
		titles[i] = m.Entry.Title
	}
	return titles
}

type Reconciler struct {
	minScore float64
}

// New creates a reconciler that rejects best matches scoring below minScore
func New(minScore float64) Reconciler {
	return Reconciler{minScore: minScore}
}

// MinScore returns the configured acceptance threshold
func (r Reconciler) MinScore() float64 {
	return r.minScore
}

type indexedTitle struct {
	index      int
	normalized string
}

type candidate struct {
	indexedTitle
	cosine float64
	score  float64
}

// Reconcile finds the best catalog entry for every watchlist entry. It has no
// side effects and returns the same result for the same input. When several
// catalog entries share the top score the one listed first in the snapshot wins.
func (r Reconciler) Reconcile(entries []watchlist.Entry, snapshot catalog.Snapshot) Result {
	result := Result{
		Matches:    make([]Match, 0, len(entries)),
		Unresolved: make([]watchlist.Entry, 0),
	}
	if len(entries) == 0 {
		return result
	}

	titles := make([]indexedTitle, 0, len(snapshot.Entries))
	for i, e := range snapshot.Entries {
		n := Normalize(e.Title)
		if n == "" {
			continue
		}
		titles = append(titles, indexedTitle{index: i, normalized: n})
	}

	for _, entry := range entries {
		best, ok := r.bestMatch(Normalize(string(entry)), titles)
		if !ok || best.score < r.minScore {
			result.Unresolved = append(result.Unresolved, entry)
			continue
		}

		result.Matches = append(result.Matches, Match{
			Query: entry,
			Entry: snapshot.Entries[best.index],
			Score: best.score,
		})
	}

	return result
}

func (r Reconciler) bestMatch(query string, titles []indexedTitle) (candidate, bool) {
	if query == "" || len(titles) == 0 {
		return candidate{}, false
	}

	for _, size := range gramSizes {
		queryGrams := grams(query, size)
		queryNorm := vectorNorm(queryGrams)

		candidates := make([]candidate, 0)
		for _, t := range titles {
			titleGrams := grams(t.normalized, size)
			sim := cosine(queryGrams, queryNorm, titleGrams, vectorNorm(titleGrams))
			if sim <= 0 {
				continue
			}
			candidates = append(candidates, candidate{indexedTitle: t, cosine: sim})
		}
		if len(candidates) == 0 {
			continue
		}

		slices.SortStableFunc(candidates, func(a, b candidate) int {
			return cmp.Compare(b.cosine, a.cosine)
		})
		if len(candidates) > maxCandidates {
			candidates = candidates[:maxCandidates]
		}

		best := candidate{score: -1}
		for _, c := range candidates {
			c.score = editRatio(query, c.normalized)
			if c.score > best.score || (c.score == best.score && c.index < best.index) {
				best = c
			}
		}
		return best, true
	}

	return candidate{}, false
}
