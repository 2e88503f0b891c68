// Package manager owns the daemon's shared state: the catalog, the watchlist,
// the reconciled set, the ledger and the service state. Every read and write of
// that state goes through the Manager's lock.
package manager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/kasuboski/umaru/pkg/catalog"
	"github.com/kasuboski/umaru/pkg/crawler"
	"github.com/kasuboski/umaru/pkg/credentials"
	mio "github.com/kasuboski/umaru/pkg/io"
	"github.com/kasuboski/umaru/pkg/ledger"
	"github.com/kasuboski/umaru/pkg/logger"
	"github.com/kasuboski/umaru/pkg/metrics"
	"github.com/kasuboski/umaru/pkg/reconcile"
	"github.com/kasuboski/umaru/pkg/watchlist"
	"github.com/oapi-codegen/nullable"
)

var ErrUnknownTitle = errors.New("title has never been seen in a catalog")

// DownloadHook receives the episodes matched shows have aired past their ledger record
type DownloadHook func(ctx context.Context, work []ledger.Work)

// Status is a consistent view of the service state
type Status struct {
	Active           bool                         `json:"active"`
	LastRefresh      nullable.Nullable[time.Time] `json:"lastRefresh"`
	CatalogSize      int                          `json:"catalogSize"`
	CatalogFetchedAt nullable.Nullable[time.Time] `json:"catalogFetchedAt"`
	WatchlistSize    int                          `json:"watchlistSize"`
	Matched          int                          `json:"matched"`
	Unresolved       int                          `json:"unresolved"`
}

type Manager struct {
	mu        sync.RWMutex
	refreshMu sync.Mutex

	state      *State
	catalog    *catalog.Store
	entries    []watchlist.Entry
	reconciled reconcile.Result

	crawler     crawler.Crawler
	watchlist   *watchlist.Store
	ledger      *ledger.Ledger
	credentials credentials.Store
	reconciler  reconcile.Reconciler

	fs           mio.FileIO
	snapshotPath string
	metrics      *metrics.Metrics
	onPending    DownloadHook
	now          func() time.Time
}

// Option configures optional Manager collaborators
type Option func(*Manager)

// WithSnapshotCache persists every accepted snapshot to path and warms the catalog from it on Start
func WithSnapshotCache(path string, fs mio.FileIO) Option {
	return func(m *Manager) {
		m.snapshotPath = path
		m.fs = fs
	}
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) {
		m.metrics = mt
	}
}

func WithDownloadHook(hook DownloadHook) Option {
	return func(m *Manager) {
		m.onPending = hook
	}
}

// WithClock overrides the time source used for refresh timestamps
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

func New(c crawler.Crawler, w *watchlist.Store, l *ledger.Ledger, creds credentials.Store, r reconcile.Reconciler, opts ...Option) *Manager {
	m := &Manager{
		state:       NewState(),
		catalog:     catalog.NewStore(),
		entries:     make([]watchlist.Entry, 0),
		reconciled:  r.Reconcile(nil, catalog.Snapshot{}),
		crawler:     c,
		watchlist:   w,
		ledger:      l,
		credentials: creds,
		reconciler:  r,
		metrics:     metrics.New(),
		onPending:   logPending,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Start loads persisted state. Errors here mean the daemon cannot run.
func (m *Manager) Start(ctx context.Context) error {
	log := logger.FromCtx(ctx)

	if err := m.ledger.Load(ctx); err != nil {
		return err
	}

	entries, err := m.watchlist.Load(ctx)
	if err != nil {
		return err
	}

	snapshot, ok := m.loadSnapshotCache(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = entries
	if ok {
		m.catalog.Replace(snapshot)
		log.Infow("warmed catalog from cache", "shows", snapshot.Len())
	}
	m.reconcileLocked()

	return nil
}

func (m *Manager) loadSnapshotCache(ctx context.Context) (catalog.Snapshot, bool) {
	if m.snapshotPath == "" {
		return catalog.Snapshot{}, false
	}
	log := logger.FromCtx(ctx, "path", m.snapshotPath)

	b, err := m.fs.ReadFile(m.snapshotPath)
	if errors.Is(err, os.ErrNotExist) {
		return catalog.Snapshot{}, false
	}
	if err != nil {
		log.Warnw("failed to read snapshot cache", "error", err)
		return catalog.Snapshot{}, false
	}

	fetchedAt := time.Time{}
	if info, err := m.fs.Stat(m.snapshotPath); err == nil {
		fetchedAt = info.ModTime()
	}

	snapshot, err := catalog.Decode(b, fetchedAt)
	if err != nil {
		log.Warnw("ignoring unreadable snapshot cache", "error", err)
		return catalog.Snapshot{}, false
	}
	return snapshot, true
}

// TriggerRefreshCycle runs a refresh cycle, waiting for any cycle already in flight to finish first
func (m *Manager) TriggerRefreshCycle(ctx context.Context) error {
	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()
	return m.refresh(ctx)
}

// TryRefresh runs a refresh cycle unless one is already in flight. It reports whether a cycle ran.
func (m *Manager) TryRefresh(ctx context.Context) (bool, error) {
	if !m.refreshMu.TryLock() {
		logger.FromCtx(ctx).Debug("refresh already in flight, skipping")
		m.metrics.RefreshCycles.WithLabelValues(metrics.OutcomeSkipped).Inc()
		return false, nil
	}
	defer m.refreshMu.Unlock()
	return true, m.refresh(ctx)
}

// refresh crawls without holding the state lock and then applies the snapshot,
// reconciliation and refresh time in one critical section
func (m *Manager) refresh(ctx context.Context) error {
	log := logger.FromCtx(ctx)
	start := time.Now()

	m.mu.Lock()
	err := m.state.begin()
	m.mu.Unlock()
	if err != nil {
		return err
	}

	log.Info("refreshing catalog")
	snapshot, err := m.crawler.Crawl(ctx)
	m.metrics.RefreshDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		m.mu.Lock()
		finishErr := m.state.finish(nil)
		m.mu.Unlock()

		var failure *crawler.Failure
		if !errors.As(err, &failure) {
			err = &crawler.Failure{Kind: "unknown", Err: err}
		}
		log.Errorw("crawl failed, keeping previous catalog", "error", err)
		m.metrics.RefreshCycles.WithLabelValues(metrics.OutcomeFailure).Inc()
		return errors.Join(err, finishErr)
	}

	refreshedAt := m.now()

	m.mu.Lock()
	m.catalog.Replace(snapshot)
	m.reconcileLocked()
	pending := m.ledger.Pending(m.reconciled.Matches)
	err = m.state.finish(&refreshedAt)
	m.mu.Unlock()

	m.metrics.RefreshCycles.WithLabelValues(metrics.OutcomeSuccess).Inc()
	m.metrics.PendingEpisodes.Set(float64(countEpisodes(pending)))
	log.Infow("catalog refreshed",
		"shows", snapshot.Len(),
		"took", time.Since(start))

	m.persistSnapshot(ctx, snapshot)

	m.mu.Lock()
	if retryErr := m.ledger.Retry(ctx); retryErr != nil {
		log.Warnw("ledger records still unsaved", "titles", m.ledger.Unsaved(), "error", retryErr)
	}
	m.mu.Unlock()

	if len(pending) > 0 && m.onPending != nil {
		m.onPending(ctx, pending)
	}

	return err
}

// reconcileLocked recomputes the reconciled set. Callers must hold the write lock.
func (m *Manager) reconcileLocked() {
	snapshot := m.catalog.Current()
	m.reconciled = m.reconciler.Reconcile(m.entries, snapshot)

	m.metrics.CatalogSize.Set(float64(snapshot.Len()))
	m.metrics.Matched.Set(float64(len(m.reconciled.Matches)))
	m.metrics.Unresolved.Set(float64(len(m.reconciled.Unresolved)))
}

func (m *Manager) persistSnapshot(ctx context.Context, snapshot catalog.Snapshot) {
	if m.snapshotPath == "" {
		return
	}
	log := logger.FromCtx(ctx, "path", m.snapshotPath)

	b, err := catalog.Encode(snapshot)
	if err != nil {
		log.Errorw("failed to encode snapshot cache", "error", err)
		return
	}

	if err := m.fs.MkdirAll(filepath.Dir(m.snapshotPath), 0o755); err != nil {
		log.Errorw("failed to create snapshot cache directory", "error", err)
		return
	}
	if err := m.fs.WriteFile(m.snapshotPath, b, 0o644); err != nil {
		log.Errorw("failed to write snapshot cache", "error", err)
	}
}

// Status returns the service state together with the catalog and reconciliation counts
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := m.catalog.Current()
	status := Status{
		Active:           m.state.Active(),
		LastRefresh:      nullable.NewNullNullable[time.Time](),
		CatalogSize:      snapshot.Len(),
		CatalogFetchedAt: nullable.NewNullNullable[time.Time](),
		WatchlistSize:    len(m.entries),
		Matched:          len(m.reconciled.Matches),
		Unresolved:       len(m.reconciled.Unresolved),
	}

	if at, ok := m.state.LastRefresh(); ok {
		status.LastRefresh.Set(at)
	}
	if !snapshot.FetchedAt.IsZero() {
		status.CatalogFetchedAt.Set(snapshot.FetchedAt)
	}

	return status
}

// Watchlist re-reads the watchlist file. When the entries changed the
// reconciled set is recomputed against the current catalog.
func (m *Manager) Watchlist(ctx context.Context) ([]watchlist.Entry, error) {
	entries, err := m.watchlist.Load(ctx)
	if err != nil {
		logger.FromCtx(ctx).Errorw("failed to read watchlist", "error", err)
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !slices.Equal(entries, m.entries) {
		m.entries = entries
		m.reconcileLocked()
	}

	return slices.Clone(entries), nil
}

// ReloadWatchlist picks up out-of-band edits to the watchlist file
func (m *Manager) ReloadWatchlist(ctx context.Context) {
	entries, err := m.Watchlist(ctx)
	if err != nil {
		return
	}
	logger.FromCtx(ctx).Infow("watchlist reloaded", "entries", len(entries))
}

// Catalog returns the current snapshot
func (m *Manager) Catalog() catalog.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.catalog.Current()
}

// Reconciled returns the current reconciled set
func (m *Manager) Reconciled() reconcile.Result {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return reconcile.Result{
		Matches:    slices.Clone(m.reconciled.Matches),
		Unresolved: slices.Clone(m.reconciled.Unresolved),
	}
}

// Login replaces the stored credentials
func (m *Manager) Login(ctx context.Context, id, secret string) error {
	if err := m.credentials.Save(ctx, credentials.Credentials{ID: id, Secret: secret}); err != nil {
		logger.FromCtx(ctx).Errorw("failed to store credentials", "error", err)
		return err
	}
	return nil
}

// RecordEpisode marks episode as processed for a show. The title must be in the
// current catalog or already have a ledger record.
func (m *Manager) RecordEpisode(ctx context.Context, title string, episode int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.catalog.Current().Lookup(title); !ok && !m.ledger.Has(title) {
		return false, fmt.Errorf("%w: %q", ErrUnknownTitle, title)
	}

	changed, err := m.ledger.Set(ctx, title, episode)
	if changed {
		m.metrics.PendingEpisodes.Set(float64(countEpisodes(m.ledger.Pending(m.reconciled.Matches))))
	}
	return changed, err
}

// Ledger returns every ledger record
func (m *Manager) Ledger() []ledger.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ledger.All()
}

// Pending returns the outstanding episodes for the reconciled shows
func (m *Manager) Pending() []ledger.Work {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ledger.Pending(m.reconciled.Matches)
}

func countEpisodes(work []ledger.Work) int {
	n := 0
	for _, w := range work {
		n += w.To - w.From + 1
	}
	return n
}

func logPending(ctx context.Context, work []ledger.Work) {
	log := logger.FromCtx(ctx)
	for _, w := range work {
		log.Infow("new episodes available",
			"title", w.Title,
			"from", w.From,
			"to", w.To)
	}
}
