package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/kasuboski/umaru/config"
	"github.com/kasuboski/umaru/pkg/catalog"
	"github.com/kasuboski/umaru/pkg/crawler"
	mio "github.com/kasuboski/umaru/pkg/io"
	"github.com/kasuboski/umaru/pkg/logger"
	"github.com/kasuboski/umaru/pkg/reconcile"
	"github.com/kasuboski/umaru/pkg/watchlist"

	"github.com/spf13/cobra"
)

// reconcileCmd matches the watchlist against the last saved snapshot without a daemon
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Match the watchlist against the saved catalog snapshot",
	Long:  `Match every watchlist entry against the last catalog snapshot on disk and print the best title for each`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.Get()
		ctx := logger.WithCtx(context.Background(), log)

		cfg, err := loadConfig()
		if err != nil {
			log.Fatalw("invalid configuration", "error", err)
		}

		result, _, err := reconcileOffline(ctx, cfg, &mio.OSFileSystem{})
		if err != nil {
			log.Fatalw("failed to reconcile", "error", err)
		}

		rows := make([][]string, 0, len(result.Matches)+len(result.Unresolved))
		for _, m := range result.Matches {
			rows = append(rows, []string{string(m.Query), m.Entry.Title, strconv.FormatFloat(m.Score, 'f', 3, 64)})
		}
		for _, u := range result.Unresolved {
			rows = append(rows, []string{string(u), "-", "-"})
		}

		fmt.Fprintln(os.Stdout, renderTable([]string{"Watchlist", "Title", "Score"}, rows, 2))
	},
}

// reconcileOffline reads the watchlist and the saved snapshot and reconciles them
func reconcileOffline(ctx context.Context, cfg config.Config, fs mio.FileIO) (reconcile.Result, catalog.Snapshot, error) {
	entries, err := watchlist.New(cfg.Data.Watchlist, fs).Load(ctx)
	if err != nil {
		return reconcile.Result{}, catalog.Snapshot{}, err
	}

	snapshot, err := crawler.NewFileCrawler(cfg.Data.Snapshot, fs).Crawl(ctx)
	if err != nil {
		return reconcile.Result{}, catalog.Snapshot{}, err
	}

	return reconcile.New(cfg.Reconcile.MinScore).Reconcile(entries, snapshot), snapshot, nil
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}
