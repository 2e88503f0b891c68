package manager

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/kasuboski/umaru/pkg/catalog"
	"github.com/kasuboski/umaru/pkg/crawler"
	crawlerMocks "github.com/kasuboski/umaru/pkg/crawler/mocks"
	"github.com/kasuboski/umaru/pkg/credentials"
	credentialMocks "github.com/kasuboski/umaru/pkg/credentials/mocks"
	mio "github.com/kasuboski/umaru/pkg/io"
	"github.com/kasuboski/umaru/pkg/ledger"
	"github.com/kasuboski/umaru/pkg/reconcile"
	"github.com/kasuboski/umaru/pkg/storage/file"
	"github.com/kasuboski/umaru/pkg/watchlist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var refreshedAt = time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)

type fixture struct {
	manager     *Manager
	crawler     *crawlerMocks.MockCrawler
	credentials *credentialMocks.MockStore
	dir         string
}

func newFixture(t *testing.T, watch string, opts ...Option) fixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	dir := t.TempDir()
	fs := &mio.OSFileSystem{}

	watchPath := filepath.Join(dir, "watchlist.txt")
	if watch != "" {
		require.NoError(t, os.WriteFile(watchPath, []byte(watch), 0o644))
	}

	c := crawlerMocks.NewMockCrawler(ctrl)
	creds := credentialMocks.NewMockStore(ctrl)

	opts = append([]Option{WithClock(func() time.Time { return refreshedAt })}, opts...)
	m := New(
		c,
		watchlist.New(watchPath, fs),
		ledger.New(file.New(filepath.Join(dir, "last_down.json"), fs)),
		creds,
		reconcile.New(reconcile.DefaultMinScore),
		opts...,
	)
	require.NoError(t, m.Start(context.Background()))

	return fixture{manager: m, crawler: c, credentials: creds, dir: dir}
}

func snapshotOf(titles ...string) catalog.Snapshot {
	entries := make([]catalog.Entry, len(titles))
	for i, title := range titles {
		entries[i] = catalog.Entry{Title: title}
	}
	return catalog.NewSnapshot(entries, refreshedAt)
}

func TestManager_Start(t *testing.T) {
	t.Run("empty watchlist", func(t *testing.T) {
		f := newFixture(t, "")

		status := f.manager.Status()
		assert.False(t, status.Active)
		assert.True(t, status.LastRefresh.IsNull())
		assert.Equal(t, 0, status.CatalogSize)

		entries, err := f.manager.Watchlist(context.Background())
		require.NoError(t, err)
		assert.Empty(t, entries)

		_, err = os.Stat(filepath.Join(f.dir, "watchlist.txt"))
		assert.NoError(t, err, "missing watchlist must be created")
	})

	t.Run("warms catalog from snapshot cache", func(t *testing.T) {
		dir := t.TempDir()
		cache := filepath.Join(dir, "data.json")
		require.NoError(t, os.WriteFile(cache, []byte(`{"current_season":["One Piece","One Punch Man"]}`), 0o644))

		f := newFixture(t, "One Pece\n", WithSnapshotCache(cache, &mio.OSFileSystem{}))

		assert.Equal(t, 2, f.manager.Status().CatalogSize)
		assert.Equal(t, []string{"One Piece"}, f.manager.Reconciled().Titles())
	})

	t.Run("unreadable snapshot cache is ignored", func(t *testing.T) {
		cache := filepath.Join(t.TempDir(), "data.json")
		require.NoError(t, os.WriteFile(cache, []byte(`not json`), 0o644))

		f := newFixture(t, "", WithSnapshotCache(cache, &mio.OSFileSystem{}))
		assert.Equal(t, 0, f.manager.Status().CatalogSize)
	})
}

func TestManager_TriggerRefreshCycle(t *testing.T) {
	ctx := context.Background()

	t.Run("success reconciles and records refresh", func(t *testing.T) {
		cache := filepath.Join(t.TempDir(), "data.json")

		var pending []ledger.Work
		f := newFixture(t, "One Pece\n",
			WithSnapshotCache(cache, &mio.OSFileSystem{}),
			WithDownloadHook(func(_ context.Context, work []ledger.Work) { pending = work }),
		)

		snapshot := catalog.NewSnapshot([]catalog.Entry{
			{Title: "One Piece", Metadata: map[string]string{catalog.LatestEpisodeKey: "3"}},
			{Title: "One Punch Man"},
		}, refreshedAt)
		f.crawler.EXPECT().Crawl(gomock.Any()).Return(snapshot, nil)

		require.NoError(t, f.manager.TriggerRefreshCycle(ctx))

		status := f.manager.Status()
		assert.False(t, status.Active)
		last, err := status.LastRefresh.Get()
		require.NoError(t, err)
		assert.Equal(t, refreshedAt, last)
		assert.Equal(t, 2, status.CatalogSize)
		assert.Equal(t, 1, status.Matched)

		result := f.manager.Reconciled()
		require.Len(t, result.Matches, 1)
		assert.Equal(t, watchlist.Entry("One Pece"), result.Matches[0].Query)
		assert.Equal(t, "One Piece", result.Matches[0].Entry.Title)

		assert.Equal(t, []ledger.Work{{Title: "One Piece", From: 1, To: 3}}, pending)

		b, err := os.ReadFile(cache)
		require.NoError(t, err)
		cached, err := catalog.Decode(b, time.Time{})
		require.NoError(t, err)
		assert.Equal(t, []string{"One Piece", "One Punch Man"}, cached.Titles())
	})

	t.Run("activity is set while crawling", func(t *testing.T) {
		f := newFixture(t, "")

		f.crawler.EXPECT().Crawl(gomock.Any()).DoAndReturn(func(context.Context) (catalog.Snapshot, error) {
			assert.True(t, f.manager.Status().Active)
			return snapshotOf("Frieren"), nil
		})

		require.NoError(t, f.manager.TriggerRefreshCycle(ctx))
		assert.False(t, f.manager.Status().Active)
	})

	t.Run("crawl failure keeps previous state", func(t *testing.T) {
		f := newFixture(t, "One Pece\n")

		gomock.InOrder(
			f.crawler.EXPECT().Crawl(gomock.Any()).Return(snapshotOf("One Piece", "One Punch Man"), nil),
			f.crawler.EXPECT().Crawl(gomock.Any()).Return(catalog.Snapshot{}, &crawler.Failure{Kind: crawler.KindExec, Err: errors.New("exit status 1")}),
		)

		require.NoError(t, f.manager.TriggerRefreshCycle(ctx))
		before := f.manager.Status()

		err := f.manager.TriggerRefreshCycle(ctx)
		var failure *crawler.Failure
		require.True(t, errors.As(err, &failure))

		after := f.manager.Status()
		assert.False(t, after.Active)
		assert.Equal(t, before.LastRefresh, after.LastRefresh)
		assert.Equal(t, []string{"One Piece", "One Punch Man"}, f.manager.Catalog().Titles())
		assert.Equal(t, []string{"One Piece"}, f.manager.Reconciled().Titles())
	})

	t.Run("plain errors are reported as crawl failures", func(t *testing.T) {
		f := newFixture(t, "")
		f.crawler.EXPECT().Crawl(gomock.Any()).Return(catalog.Snapshot{}, errors.New("boom"))

		err := f.manager.TriggerRefreshCycle(ctx)
		var failure *crawler.Failure
		assert.True(t, errors.As(err, &failure))
		assert.True(t, f.manager.Status().LastRefresh.IsNull())
	})

	t.Run("empty snapshot leaves ledger untouched", func(t *testing.T) {
		hookCalled := false
		f := newFixture(t, "One Piece\n", WithDownloadHook(func(context.Context, []ledger.Work) { hookCalled = true }))
		f.crawler.EXPECT().Crawl(gomock.Any()).Return(snapshotOf(), nil)

		require.NoError(t, f.manager.TriggerRefreshCycle(ctx))

		result := f.manager.Reconciled()
		assert.Empty(t, result.Matches)
		assert.Equal(t, []watchlist.Entry{"One Piece"}, result.Unresolved)
		assert.Empty(t, f.manager.Ledger())
		assert.False(t, hookCalled)
	})
}

func TestManager_TryRefresh(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")

	started := make(chan struct{})
	release := make(chan struct{})
	f.crawler.EXPECT().Crawl(gomock.Any()).DoAndReturn(func(context.Context) (catalog.Snapshot, error) {
		close(started)
		<-release
		return snapshotOf("Frieren"), nil
	}).Times(1)

	done := make(chan error)
	go func() { done <- f.manager.TriggerRefreshCycle(ctx) }()
	<-started

	ran, err := f.manager.TryRefresh(ctx)
	assert.NoError(t, err)
	assert.False(t, ran, "a cycle in flight must suppress a new one")

	close(release)
	require.NoError(t, <-done)
}

func TestManager_StatusNeverSeesHalfRefresh(t *testing.T) {
	ctx := context.Background()
	// "zzz" shares no n-gram with the first snapshot so it only matches after the second
	f := newFixture(t, "One Pece\nzzz\n")

	gomock.InOrder(
		f.crawler.EXPECT().Crawl(gomock.Any()).Return(snapshotOf("One Piece", "Dandadan"), nil),
		f.crawler.EXPECT().Crawl(gomock.Any()).Return(snapshotOf("One Piece", "Dandadan", "Zzz"), nil),
	)
	require.NoError(t, f.manager.TriggerRefreshCycle(ctx))

	pre := f.manager.Status()
	require.Equal(t, 2, pre.CatalogSize)
	require.Equal(t, 1, pre.Matched)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				s := f.manager.Status()
				pair := [2]int{s.CatalogSize, s.Matched}
				if pair != [2]int{2, 1} && pair != [2]int{3, 2} {
					t.Errorf("observed mixed state %v", pair)
					return
				}
			}
		}()
	}

	require.NoError(t, f.manager.TriggerRefreshCycle(ctx))
	close(stop)
	wg.Wait()

	post := f.manager.Status()
	assert.Equal(t, 3, post.CatalogSize)
	assert.Equal(t, 2, post.Matched)
}

func TestManager_Watchlist(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "One Pece\n")
	f.crawler.EXPECT().Crawl(gomock.Any()).Return(snapshotOf("One Piece", "Frieren"), nil)
	require.NoError(t, f.manager.TriggerRefreshCycle(ctx))
	require.Equal(t, []string{"One Piece"}, f.manager.Reconciled().Titles())

	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "watchlist.txt"), []byte("One Pece\n\nFrieren\n"), 0o644))
	f.manager.ReloadWatchlist(ctx)

	entries, err := f.manager.Watchlist(ctx)
	require.NoError(t, err)
	assert.Equal(t, []watchlist.Entry{"One Pece", "Frieren"}, entries)
	assert.Equal(t, []string{"One Piece", "Frieren"}, f.manager.Reconciled().Titles())
	assert.Equal(t, 2, f.manager.Status().WatchlistSize)
}

func TestManager_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("saves credentials", func(t *testing.T) {
		f := newFixture(t, "")
		f.credentials.EXPECT().Save(gomock.Any(), credentials.Credentials{ID: "alice", Secret: "secret1"}).Return(nil)

		assert.NoError(t, f.manager.Login(ctx, "alice", "secret1"))
	})

	t.Run("store failure", func(t *testing.T) {
		f := newFixture(t, "")
		f.credentials.EXPECT().Save(gomock.Any(), gomock.Any()).Return(errors.New("read-only file system"))

		assert.ErrorContains(t, f.manager.Login(ctx, "alice", "secret1"), "read-only")
	})
}

func TestManager_RecordEpisode(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "Frieren\n")

	_, err := f.manager.RecordEpisode(ctx, "Frieren", 1)
	assert.ErrorIs(t, err, ErrUnknownTitle)

	snapshot := catalog.NewSnapshot([]catalog.Entry{
		{Title: "Frieren", Metadata: map[string]string{catalog.LatestEpisodeKey: "5"}},
	}, refreshedAt)
	f.crawler.EXPECT().Crawl(gomock.Any()).Return(snapshot, nil)
	require.NoError(t, f.manager.TriggerRefreshCycle(ctx))

	changed, err := f.manager.RecordEpisode(ctx, "Frieren", 3)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = f.manager.RecordEpisode(ctx, "Frieren", 2)
	require.NoError(t, err)
	assert.False(t, changed)

	assert.Equal(t, []ledger.Record{{Title: "Frieren", Episode: 3}}, f.manager.Ledger())
	assert.Equal(t, []ledger.Work{{Title: "Frieren", From: 4, To: 5}}, f.manager.Pending())
}

func TestManager_RefreshRetriesUnsavedLedger(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "Frieren\n")

	snapshot := catalog.NewSnapshot([]catalog.Entry{{Title: "Frieren"}}, refreshedAt)
	f.crawler.EXPECT().Crawl(gomock.Any()).Return(snapshot, nil).Times(2)
	require.NoError(t, f.manager.TriggerRefreshCycle(ctx))

	// a directory in place of the ledger file makes every write fail
	ledgerPath := filepath.Join(f.dir, "last_down.json")
	require.NoError(t, os.Remove(ledgerPath))
	require.NoError(t, os.Mkdir(ledgerPath, 0o755))

	changed, err := f.manager.RecordEpisode(ctx, "Frieren", 3)
	assert.Error(t, err)
	assert.True(t, changed)
	assert.Equal(t, []ledger.Record{{Title: "Frieren", Episode: 3}}, f.manager.Ledger())

	require.NoError(t, os.Remove(ledgerPath))
	require.NoError(t, f.manager.TriggerRefreshCycle(ctx))

	reloaded := ledger.New(file.New(ledgerPath, &mio.OSFileSystem{}))
	require.NoError(t, reloaded.Load(ctx))
	episode, ok := reloaded.Get("Frieren")
	require.True(t, ok)
	assert.Equal(t, 3, episode)
}
