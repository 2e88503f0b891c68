// Package credentials persists the account the daemon was last logged in with.
// The file store keeps the secret in plain text and is not a security boundary.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	mio "github.com/kasuboski/umaru/pkg/io"
	"github.com/pelletier/go-toml/v2"
)

//go:generate go run go.uber.org/mock/mockgen -package mocks -destination mocks/store.go github.com/kasuboski/umaru/pkg/credentials Store

var (
	ErrNoCredentials = errors.New("no credentials stored")
	ErrMissingID     = errors.New("credential id is required")
)

type Credentials struct {
	ID     string `toml:"id" json:"id"`
	Secret string `toml:"secret" json:"-"`
}

// Store saves a single credential pair, replacing the previous one
type Store interface {
	Save(ctx context.Context, c Credentials) error
	Load(ctx context.Context) (Credentials, error)
}

// FileStore writes credentials to a TOML document
type FileStore struct {
	path string
	fs   mio.FileIO
}

func NewFileStore(path string, fs mio.FileIO) *FileStore {
	return &FileStore{path: path, fs: fs}
}

func (s *FileStore) Save(ctx context.Context, c Credentials) error {
	if c.ID == "" {
		return ErrMissingID
	}

	b, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}

	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create credentials directory: %w", err)
	}

	if err := s.fs.WriteFile(s.path, b, 0o600); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	return nil
}

func (s *FileStore) Load(ctx context.Context) (Credentials, error) {
	var c Credentials

	b, err := s.fs.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return c, ErrNoCredentials
	}
	if err != nil {
		return c, fmt.Errorf("failed to read credentials: %w", err)
	}

	if err := toml.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("failed to decode credentials: %w", err)
	}
	if c.ID == "" {
		return c, ErrNoCredentials
	}
	return c, nil
}
