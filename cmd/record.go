package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/kasuboski/umaru/pkg/crawler"
	mio "github.com/kasuboski/umaru/pkg/io"
	"github.com/kasuboski/umaru/pkg/logger"
	"github.com/kasuboski/umaru/pkg/manager"
	"github.com/spf13/cobra"
)

// recordCmd advances a ledger record while the daemon is stopped. A running
// daemon holds the data directory lock; use PUT /api/v1/ledger/{title} instead.
var recordCmd = &cobra.Command{
	Use:   "record <title> <episode>",
	Short: "Record the last episode processed for a show",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.Get()
		ctx := logger.WithCtx(context.Background(), log)

		title := args[0]
		episode, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatalw("episode must be a number", "episode", args[1])
		}

		cfg, err := loadConfig()
		if err != nil {
			log.Fatalw("invalid configuration", "error", err)
		}

		fs := &mio.OSFileSystem{}
		lock, err := lockDataDir(cfg, fs)
		if err != nil {
			log.Fatalw("failed to lock data directory", "error", err)
		}
		defer lock.Unlock()

		l, closeFn, err := openLedger(ctx, cfg, fs)
		if err != nil {
			log.Fatalw("failed to open ledger", "error", err)
		}
		defer closeFn()

		if !l.Has(title) {
			snapshot, err := crawler.NewFileCrawler(cfg.Data.Snapshot, fs).Crawl(ctx)
			if err != nil && !errors.Is(err, os.ErrNotExist) {
				log.Fatalw("failed to read catalog", "error", err)
			}
			if _, ok := snapshot.Lookup(title); !ok {
				log.Fatalw("cannot record episode", "title", title, "error", manager.ErrUnknownTitle)
			}
		}

		advanced, err := l.Set(ctx, title, episode)
		if err != nil {
			log.Fatalw("failed to record episode", "error", err)
		}
		if !advanced {
			current, _ := l.Get(title)
			fmt.Fprintf(os.Stdout, "%s is already at episode %d\n", title, current)
			return
		}
		fmt.Fprintf(os.Stdout, "%s recorded at episode %d\n", title, episode)
	},
}

func init() {
	rootCmd.AddCommand(recordCmd)
}
