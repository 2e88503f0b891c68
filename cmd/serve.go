package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kasuboski/umaru/pkg/credentials"
	"github.com/kasuboski/umaru/pkg/crawler"
	"github.com/kasuboski/umaru/pkg/dispatcher"
	mio "github.com/kasuboski/umaru/pkg/io"
	"github.com/kasuboski/umaru/pkg/ledger"
	"github.com/kasuboski/umaru/pkg/logger"
	"github.com/kasuboski/umaru/pkg/manager"
	"github.com/kasuboski/umaru/pkg/metrics"
	"github.com/kasuboski/umaru/pkg/reconcile"
	"github.com/kasuboski/umaru/pkg/watchlist"
	"github.com/kasuboski/umaru/server"
	"golang.org/x/sync/errgroup"

	"github.com/spf13/cobra"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "start the umaru daemon",
	Long: `start the umaru daemon: the refresh scheduler, the command listener,
the watchlist watcher and the http api`,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.Get()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx = logger.WithCtx(ctx, log)

		cfg, err := loadConfig()
		if err != nil {
			log.Fatalw("invalid configuration", "error", err)
		}

		source, err := cfg.Status.SourceLocation()
		if err != nil {
			log.Fatalw("failed to load source time zone", "error", err)
		}

		fs := &mio.OSFileSystem{}

		lock, err := lockDataDir(cfg, fs)
		if err != nil {
			log.Fatalw("failed to lock data directory", "dir", cfg.Data.Dir, "error", err)
		}
		defer lock.Unlock()

		store, err := newLedgerStorage(ctx, cfg.Ledger, fs)
		if err != nil {
			log.Fatalw("failed to create ledger storage", "error", err)
		}
		defer store.Close()

		crawl, err := newCrawler(cfg, fs)
		if err != nil {
			log.Fatalw("failed to create crawler", "error", err)
		}

		mt := metrics.New()
		opts := []manager.Option{manager.WithMetrics(mt)}
		if cachesSnapshot(crawler.Kind(cfg.Crawler.Kind)) {
			opts = append(opts, manager.WithSnapshotCache(cfg.Data.Snapshot, fs))
		}

		mgr := manager.New(
			crawl,
			watchlist.New(cfg.Data.Watchlist, fs),
			ledger.New(store),
			credentials.NewFileStore(cfg.Data.Credentials, fs),
			reconcile.New(cfg.Reconcile.MinScore),
			opts...,
		)
		if err := mgr.Start(ctx); err != nil {
			log.Fatalw("failed to start manager", "error", err)
		}

		dispatchOpts := []dispatcher.Option{
			dispatcher.WithBufferSize(cfg.Server.BufferSize),
			dispatcher.WithReadTimeout(cfg.Server.ReadTimeout),
			dispatcher.WithMaxConnections(cfg.Server.MaxConnections),
			dispatcher.WithSourceLocation(source),
			dispatcher.WithMetrics(mt),
		}
		if cfg.Data.ConnectionLog != "" {
			dispatchOpts = append(dispatchOpts, dispatcher.WithConnLog(dispatcher.NewConnLog(cfg.Data.ConnectionLog, fs)))
		}
		d := dispatcher.New(mgr, dispatchOpts...)

		scheduler := manager.NewScheduler(mgr, cfg.Scheduler.Interval, cfg.Scheduler.Heartbeat)

		watcher, err := watchlist.NewWatcher(cfg.Data.Watchlist, watchlist.DefaultSettle)
		if err != nil {
			log.Fatalw("failed to watch watchlist", "error", err)
		}

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return d.ListenAndServe(ctx, cfg.Server.Address)
		})
		g.Go(func() error {
			return scheduler.Run(ctx)
		})
		g.Go(func() error {
			return watcher.Run(ctx, mgr.ReloadWatchlist)
		})
		if cfg.Server.HTTPAddress != "" {
			g.Go(func() error {
				return server.New(log, mgr, mt.Handler()).Serve(ctx, cfg.Server.HTTPAddress)
			})
		}

		if err := g.Wait(); err != nil {
			log.Errorw("umaru stopped", "error", err)
			return
		}
		log.Info("umaru stopped")
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
