package storage

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found in storage")

// LedgerStorage persists the last episode processed per canonical show title.
// Implementations only store what they are given; monotonicity is enforced by
// the ledger that sits in front of them.
type LedgerStorage interface {
	Init(ctx context.Context) error
	ListEpisodes(ctx context.Context) (map[string]int, error)
	GetEpisode(ctx context.Context, title string) (int, error)
	PutEpisode(ctx context.Context, title string, episode int) error
	Close() error
}

// Backend names a LedgerStorage implementation
type Backend string

const (
	BackendFile   Backend = "file"
	BackendSQLite Backend = "sqlite"
)
