// Package file stores the download ledger as a JSON object of title to episode.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sync"

	mio "github.com/kasuboski/umaru/pkg/io"
	"github.com/kasuboski/umaru/pkg/logger"
	"github.com/kasuboski/umaru/pkg/storage"
)

var _ storage.LedgerStorage = (*Ledger)(nil)

// Ledger keeps a copy of the file contents and rewrites the whole file on every put
type Ledger struct {
	path string
	fs   mio.FileIO

	mu       sync.Mutex
	episodes map[string]int
}

func New(path string, fs mio.FileIO) *Ledger {
	return &Ledger{
		path:     path,
		fs:       fs,
		episodes: make(map[string]int),
	}
}

// Init creates an empty ledger file if none exists and loads the current contents
func (l *Ledger) Init(ctx context.Context) error {
	log := logger.FromCtx(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.fs.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create ledger directory: %w", err)
	}

	b, err := l.fs.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		log.Debugw("ledger does not exist, creating", "path", l.path)
		l.episodes = make(map[string]int)
		return l.flush()
	}
	if err != nil {
		return fmt.Errorf("failed to read ledger: %w", err)
	}

	episodes := make(map[string]int)
	if len(b) > 0 {
		if err := json.Unmarshal(b, &episodes); err != nil {
			return fmt.Errorf("failed to decode ledger %s: %w", l.path, err)
		}
	}

	l.episodes = episodes
	return nil
}

// ListEpisodes returns a copy of every stored record
func (l *Ledger) ListEpisodes(ctx context.Context) (map[string]int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return maps.Clone(l.episodes), nil
}

// GetEpisode returns the stored episode for title
func (l *Ledger) GetEpisode(ctx context.Context, title string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	episode, ok := l.episodes[title]
	if !ok {
		return 0, storage.ErrNotFound
	}
	return episode, nil
}

// PutEpisode stores episode for title and rewrites the file. On failure the
// previous value is restored so the file and the copy stay in sync.
func (l *Ledger) PutEpisode(ctx context.Context, title string, episode int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	previous, existed := l.episodes[title]
	l.episodes[title] = episode

	if err := l.flush(); err != nil {
		if existed {
			l.episodes[title] = previous
		} else {
			delete(l.episodes, title)
		}
		return err
	}

	return nil
}

func (l *Ledger) Close() error {
	return nil
}

func (l *Ledger) flush() error {
	b, err := json.MarshalIndent(l.episodes, "", "  ")
	if err != nil {
		return err
	}

	if err := l.fs.WriteFile(l.path, b, 0o644); err != nil {
		return fmt.Errorf("failed to write ledger: %w", err)
	}
	return nil
}
