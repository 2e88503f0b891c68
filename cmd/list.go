package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/kasuboski/umaru/config"
	"github.com/kasuboski/umaru/pkg/catalog"
	"github.com/kasuboski/umaru/pkg/crawler"
	mio "github.com/kasuboski/umaru/pkg/io"
	"github.com/kasuboski/umaru/pkg/ledger"
	"github.com/kasuboski/umaru/pkg/logger"
	"github.com/spf13/cobra"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "list saved state",
	Long:  `list the catalog, ledger or pending episodes from the files on disk`,
}

var listCatalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the shows in the saved catalog snapshot",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.Get()
		ctx := logger.WithCtx(context.Background(), log)

		cfg, err := loadConfig()
		if err != nil {
			log.Fatalw("invalid configuration", "error", err)
		}

		snapshot, err := crawler.NewFileCrawler(cfg.Data.Snapshot, &mio.OSFileSystem{}).Crawl(ctx)
		if err != nil {
			log.Fatalw("failed to read catalog", "error", err)
		}

		rows := make([][]string, 0, snapshot.Len())
		for _, e := range snapshot.Entries {
			rows = append(rows, []string{e.Title, e.Metadata[catalog.LatestEpisodeKey]})
		}
		fmt.Fprintln(os.Stdout, renderTable([]string{"Title", "Latest"}, rows, 1))
		fmt.Fprintf(os.Stdout, "%d shows, fetched %s\n", snapshot.Len(), humanize.Time(snapshot.FetchedAt))
	},
}

var listLedgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "List the last episode processed for each show",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.Get()
		ctx := logger.WithCtx(context.Background(), log)

		cfg, err := loadConfig()
		if err != nil {
			log.Fatalw("invalid configuration", "error", err)
		}

		l, closeFn, err := openLedger(ctx, cfg, &mio.OSFileSystem{})
		if err != nil {
			log.Fatalw("failed to open ledger", "error", err)
		}
		defer closeFn()

		records := l.All()
		rows := make([][]string, 0, len(records))
		for _, r := range records {
			rows = append(rows, []string{r.Title, strconv.Itoa(r.Episode)})
		}
		fmt.Fprintln(os.Stdout, renderTable([]string{"Title", "Episode"}, rows, 1))
	},
}

var listPendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List matched shows with episodes past their ledger record",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.Get()
		ctx := logger.WithCtx(context.Background(), log)

		cfg, err := loadConfig()
		if err != nil {
			log.Fatalw("invalid configuration", "error", err)
		}

		fs := &mio.OSFileSystem{}
		result, _, err := reconcileOffline(ctx, cfg, fs)
		if err != nil {
			log.Fatalw("failed to reconcile", "error", err)
		}

		l, closeFn, err := openLedger(ctx, cfg, fs)
		if err != nil {
			log.Fatalw("failed to open ledger", "error", err)
		}
		defer closeFn()

		work := l.Pending(result.Matches)
		rows := make([][]string, 0, len(work))
		for _, w := range work {
			rows = append(rows, []string{w.Title, strconv.Itoa(w.From), strconv.Itoa(w.To)})
		}
		fmt.Fprintln(os.Stdout, renderTable([]string{"Title", "From", "To"}, rows, 1, 2))
	},
}

// openLedger loads the configured ledger backend. The returned func closes the backend.
func openLedger(ctx context.Context, cfg config.Config, fs mio.FileIO) (*ledger.Ledger, func() error, error) {
	store, err := newLedgerStorage(ctx, cfg.Ledger, fs)
	if err != nil {
		return nil, nil, err
	}

	l := ledger.New(store)
	if err := l.Load(ctx); err != nil {
		store.Close()
		return nil, nil, err
	}
	return l, store.Close, nil
}

func init() {
	listCmd.AddCommand(listCatalogCmd)
	listCmd.AddCommand(listLedgerCmd)
	listCmd.AddCommand(listPendingCmd)
	rootCmd.AddCommand(listCmd)
}
