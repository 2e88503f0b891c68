// Package catalog holds the shows reported by the latest successful crawl.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

// LatestEpisodeKey is the metadata key crawlers use to report the newest aired episode
const LatestEpisodeKey = "latest_episode"

var ErrMissingCurrentSeason = errors.New("snapshot has no current_season collection")

// Entry is a single show in a crawl snapshot. Metadata is passed through untouched.
type Entry struct {
	Title    string            `json:"title"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Snapshot is the complete result of one crawl. A new snapshot always replaces the previous one.
type Snapshot struct {
	Entries   []Entry   `json:"entries"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// Titles returns the canonical titles in snapshot order
func (s Snapshot) Titles() []string {
	titles := make([]string, len(s.Entries))
	for i, e := range s.Entries {
		titles[i] = e.Title
	}
	return titles
}

// Len returns the number of shows in the snapshot
func (s Snapshot) Len() int {
	return len(s.Entries)
}

// Lookup returns the entry with the given canonical title
func (s Snapshot) Lookup(title string) (Entry, bool) {
	for _, e := range s.Entries {
		if e.Title == title {
			return e, true
		}
	}
	return Entry{}, false
}

// snapshotFile is the on-disk layout written by the crawler
type snapshotFile struct {
	CurrentSeason []string                     `json:"current_season"`
	Metadata      map[string]map[string]string `json:"metadata,omitempty"`
}

// Decode parses a crawler snapshot file. See NewSnapshot for how titles are cleaned.
func Decode(b []byte, fetchedAt time.Time) (Snapshot, error) {
	var f snapshotFile
	if err := json.Unmarshal(b, &f); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if f.CurrentSeason == nil {
		return Snapshot{}, ErrMissingCurrentSeason
	}

	entries := make([]Entry, len(f.CurrentSeason))
	for i, title := range f.CurrentSeason {
		entries[i] = Entry{Title: title, Metadata: f.Metadata[strings.TrimSpace(title)]}
	}

	return NewSnapshot(entries, fetchedAt), nil
}

// NewSnapshot builds a snapshot from crawled entries. Titles are trimmed and
// blank or duplicate titles are dropped; the first occurrence keeps its position.
func NewSnapshot(entries []Entry, fetchedAt time.Time) Snapshot {
	snapshot := Snapshot{
		Entries:   make([]Entry, 0, len(entries)),
		FetchedAt: fetchedAt,
	}

	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		e.Title = strings.TrimSpace(e.Title)
		if e.Title == "" {
			continue
		}
		if _, ok := seen[e.Title]; ok {
			continue
		}
		seen[e.Title] = struct{}{}
		snapshot.Entries = append(snapshot.Entries, e)
	}

	return snapshot
}

// Encode writes a snapshot in the crawler file layout
func Encode(s Snapshot) ([]byte, error) {
	f := snapshotFile{
		CurrentSeason: s.Titles(),
	}

	for _, e := range s.Entries {
		if len(e.Metadata) == 0 {
			continue
		}
		if f.Metadata == nil {
			f.Metadata = make(map[string]map[string]string)
		}
		f.Metadata[e.Title] = e.Metadata
	}

	return json.MarshalIndent(f, "", "  ")
}

// Store publishes the current snapshot. Readers always see a complete snapshot.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// NewStore creates a store holding an empty snapshot
func NewStore() *Store {
	s := &Store{}
	s.current.Store(&Snapshot{})
	return s
}

// Current returns the published snapshot
func (s *Store) Current() Snapshot {
	return *s.current.Load()
}

// Replace publishes a new snapshot and returns the previous one
func (s *Store) Replace(snapshot Snapshot) Snapshot {
	return *s.current.Swap(&snapshot)
}
