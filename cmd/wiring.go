package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/kasuboski/umaru/config"
	"github.com/kasuboski/umaru/pkg/crawler"
	mhttp "github.com/kasuboski/umaru/pkg/http"
	mio "github.com/kasuboski/umaru/pkg/io"
	"github.com/kasuboski/umaru/pkg/storage"
	"github.com/kasuboski/umaru/pkg/storage/file"
	"github.com/kasuboski/umaru/pkg/storage/sqlite"
	"github.com/spf13/viper"
)

const lockFile = "umaru.lock"

var errLocked = errors.New("data directory is locked by another umaru process")

// loadConfig reads and validates the configuration
func loadConfig() (config.Config, error) {
	cfg, err := config.New(viper.GetViper())
	if err != nil {
		return cfg, fmt.Errorf("failed to read configurations: %w", err)
	}
	return cfg, cfg.Validate()
}

// lockDataDir takes the exclusive lock that keeps two processes from writing the same data files
func lockDataDir(cfg config.Config, fs mio.FileIO) (*flock.Flock, error) {
	if err := fs.MkdirAll(cfg.Data.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	lock := flock.New(filepath.Join(cfg.Data.Dir, lockFile))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, errLocked
	}
	return lock, nil
}

func newLedgerStorage(ctx context.Context, cfg config.Ledger, fs mio.FileIO) (storage.LedgerStorage, error) {
	switch storage.Backend(cfg.Backend) {
	case storage.BackendFile:
		return file.New(cfg.FilePath, fs), nil
	case storage.BackendSQLite:
		db, err := sqlite.New(ctx, cfg.FilePath)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.Backend)
	}
}

func newCrawler(cfg config.Config, fs mio.FileIO) (crawler.Crawler, error) {
	c := cfg.Crawler
	switch crawler.Kind(c.Kind) {
	case crawler.KindExec:
		return crawler.NewExecCrawler(c.Command, c.Args, c.WorkDir, cfg.Data.Snapshot, fs), nil
	case crawler.KindFile:
		return crawler.NewFileCrawler(cfg.Data.Snapshot, fs), nil
	case crawler.KindSchedule:
		client := mhttp.NewRateLimitedHTTPClient(
			mhttp.WithRequestsPerSecond(c.RequestsPerSecond),
			mhttp.WithMaxRetries(c.MaxRetries),
		)
		return crawler.NewScheduleCrawler(client, c.URL, crawler.Selectors{
			Item:    c.ItemSelector,
			Title:   c.TitleSelector,
			Episode: c.EpisodeSelector,
		}), nil
	default:
		return nil, fmt.Errorf("unknown crawler kind %q", c.Kind)
	}
}

// cachesSnapshot reports whether the manager should write each fetched catalog to
// the snapshot path. The exec and file crawlers already own that file.
func cachesSnapshot(kind crawler.Kind) bool {
	return kind == crawler.KindSchedule
}

// renderTable lays rows out under headers. Columns listed in right are right aligned.
func renderTable(headers []string, rows [][]string, right ...int) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(headers))
		for i := range headers {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, len(right))
	for _, col := range right {
		configs = append(configs, table.ColumnConfig{
			Number:      col + 1,
			Align:       text.AlignRight,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}
