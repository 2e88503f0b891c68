package crawler

import (
	"context"
	"fmt"
	"time"

	"github.com/kasuboski/umaru/pkg/catalog"
	mio "github.com/kasuboski/umaru/pkg/io"
)

// FileCrawler re-reads a snapshot that something else already wrote
type FileCrawler struct {
	path string
	fs   mio.FileIO
}

func NewFileCrawler(path string, fs mio.FileIO) *FileCrawler {
	return &FileCrawler{path: path, fs: fs}
}

func (c *FileCrawler) Crawl(ctx context.Context) (catalog.Snapshot, error) {
	b, err := c.fs.ReadFile(c.path)
	if err != nil {
		return catalog.Snapshot{}, fail(KindFile, fmt.Errorf("failed to read snapshot: %w", err))
	}

	fetchedAt := time.Now()
	if info, err := c.fs.Stat(c.path); err == nil {
		fetchedAt = info.ModTime()
	}

	snapshot, err := catalog.Decode(b, fetchedAt)
	if err != nil {
		return catalog.Snapshot{}, fail(KindFile, err)
	}
	return snapshot, nil
}
