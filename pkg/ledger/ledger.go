// Package ledger tracks the last episode acted on for each canonical show title.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/kasuboski/umaru/pkg/cache"
	"github.com/kasuboski/umaru/pkg/catalog"
	"github.com/kasuboski/umaru/pkg/logger"
	"github.com/kasuboski/umaru/pkg/reconcile"
	"github.com/kasuboski/umaru/pkg/storage"
)

var ErrNegativeEpisode = errors.New("episode must not be negative")

// Record is a single ledger entry
type Record struct {
	Title   string `json:"title"`
	Episode int    `json:"episode"`
}

// Work is a range of episodes a download subsystem still has to fetch for a show
type Work struct {
	Title string `json:"title"`
	From  int    `json:"from"`
	To    int    `json:"to"`
}

// Ledger is an in-memory view of the persisted ledger. Episodes never move backwards.
type Ledger struct {
	storage  storage.LedgerStorage
	episodes *cache.Cache[string, int]
	// unsaved holds titles whose in-memory episode failed to reach storage
	unsaved *cache.Cache[string, struct{}]
}

func New(s storage.LedgerStorage) *Ledger {
	return &Ledger{
		storage:  s,
		episodes: cache.New[string, int](),
		unsaved:  cache.New[string, struct{}](),
	}
}

// Load initializes the backend and reads every record into memory
func (l *Ledger) Load(ctx context.Context) error {
	log := logger.FromCtx(ctx)

	if err := l.storage.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize ledger storage: %w", err)
	}

	episodes, err := l.storage.ListEpisodes(ctx)
	if err != nil {
		return fmt.Errorf("failed to load ledger: %w", err)
	}

	l.episodes = cache.FromMap(episodes)
	l.unsaved = cache.New[string, struct{}]()
	log.Debugw("loaded ledger", "records", len(episodes))
	return nil
}

// Get returns the last episode recorded for title
func (l *Ledger) Get(title string) (int, bool) {
	return l.episodes.Get(title)
}

// Has reports whether title has a record
func (l *Ledger) Has(title string) bool {
	_, ok := l.episodes.Get(title)
	return ok
}

// Set records episode for title and flushes it. An episode lower than the stored
// one is ignored. Set reports whether the in-memory value changed. If the flush
// fails the in-memory value is still updated, the error is returned and the
// next Set for that title writes the in-memory value again.
func (l *Ledger) Set(ctx context.Context, title string, episode int) (bool, error) {
	if episode < 0 {
		return false, fmt.Errorf("%w: %d", ErrNegativeEpisode, episode)
	}

	log := logger.FromCtx(ctx, "title", title, "episode", episode)

	changed := l.episodes.Update(title, func(current int, exists bool) (int, bool) {
		if exists && episode <= current {
			return current, false
		}
		return episode, true
	})
	if !changed {
		if _, ok := l.unsaved.Get(title); !ok {
			log.Debug("ignoring non-increasing episode")
			return false, nil
		}
		current, _ := l.episodes.Get(title)
		log.Debugw("retrying unsaved ledger record", "stored", current)
		return false, l.flush(ctx, title, current)
	}

	return true, l.flush(ctx, title, episode)
}

// Unsaved returns the titles whose latest episode has not reached storage, sorted
func (l *Ledger) Unsaved() []string {
	titles := l.unsaved.Keys()
	slices.Sort(titles)
	return titles
}

// Retry writes every unsaved record again. Records that reach storage are no
// longer unsaved.
func (l *Ledger) Retry(ctx context.Context) error {
	var errs []error
	for _, title := range l.Unsaved() {
		current, _ := l.episodes.Get(title)
		if err := l.flush(ctx, title, current); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (l *Ledger) flush(ctx context.Context, title string, episode int) error {
	if err := l.storage.PutEpisode(ctx, title, episode); err != nil {
		l.unsaved.Set(title, struct{}{})
		logger.FromCtx(ctx).Errorw("failed to persist ledger record", "title", title, "episode", episode, "error", err)
		return fmt.Errorf("failed to persist ledger record: %w", err)
	}

	l.unsaved.Delete(title)
	return nil
}

// All returns every record sorted by title
func (l *Ledger) All() []Record {
	episodes := l.episodes.Copy()

	records := make([]Record, 0, len(episodes))
	for title, ep := range episodes {
		records = append(records, Record{Title: title, Episode: ep})
	}
	slices.SortFunc(records, func(a, b Record) int {
		return strings.Compare(a.Title, b.Title)
	})
	return records
}

// Pending returns the episodes each matched show has aired past its ledger
// record, in match order. Shows without a parsable latest episode are skipped.
func (l *Ledger) Pending(matches []reconcile.Match) []Work {
	work := make([]Work, 0)
	seen := make(map[string]struct{}, len(matches))

	for _, m := range matches {
		title := m.Entry.Title
		if _, ok := seen[title]; ok {
			continue
		}
		seen[title] = struct{}{}

		latest, ok := LatestEpisode(m.Entry)
		if !ok {
			continue
		}

		last, _ := l.Get(title)
		if latest <= last {
			continue
		}

		work = append(work, Work{Title: title, From: last + 1, To: latest})
	}

	return work
}

// LatestEpisode reads the latest aired episode from catalog metadata
func LatestEpisode(e catalog.Entry) (int, bool) {
	raw, ok := e.Metadata[catalog.LatestEpisodeKey]
	if !ok {
		return 0, false
	}

	ep, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || ep < 0 {
		return 0, false
	}
	return ep, true
}
