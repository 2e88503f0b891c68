package watchlist

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	mio "github.com/kasuboski/umaru/pkg/io"
	"github.com/kasuboski/umaru/pkg/logger"
)

// Entry is a free-text title as typed by the user
type Entry string

// Store reads the user's newline-delimited watchlist file. The file is edited
// out-of-band; the store never writes entries.
type Store struct {
	path string
	fs   mio.FileIO
}

func New(path string, fs mio.FileIO) *Store {
	return &Store{
		path: path,
		fs:   fs,
	}
}

// Path returns the location of the watchlist file
func (s *Store) Path() string {
	return s.path
}

// Init creates an empty watchlist file if one does not exist
func (s *Store) Init(ctx context.Context) error {
	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create watchlist directory: %w", err)
	}
	if err := s.fs.EnsureFile(s.path, 0o644); err != nil {
		return fmt.Errorf("failed to create watchlist: %w", err)
	}
	return nil
}

// Load reads all entries in file order. A missing file is created empty.
func (s *Store) Load(ctx context.Context) ([]Entry, error) {
	log := logger.FromCtx(ctx)

	if err := s.Init(ctx); err != nil {
		return nil, err
	}

	b, err := s.fs.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read watchlist: %w", err)
	}

	entries := Parse(string(b))
	log.Debugw("loaded watchlist", "path", s.path, "entries", len(entries))
	return entries, nil
}

// Parse splits watchlist file contents into entries, skipping blank lines
func Parse(contents string) []Entry {
	entries := make([]Entry, 0)
	for _, line := range strings.Split(contents, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		entries = append(entries, Entry(line))
	}
	return entries
}

// Strings converts entries to plain strings
func Strings(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = string(e)
	}
	return out
}
