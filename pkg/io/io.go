package io

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var (
	_ FileIO = (*OSFileSystem)(nil)
)

// OSFileSystem is the default implementation of FileIO using the os package
type OSFileSystem struct{}

// Stat is a wrapper around os.Stat
func (o *OSFileSystem) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

// ReadFile is a wrapper around os.ReadFile
func (o *OSFileSystem) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

// WriteFile replaces the contents of name. The data is written to a temporary
// file in the same directory and renamed over the target so readers never
// observe a partially written file.
func (o *OSFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(name)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(name)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	_, err = tmp.Write(data)
	if err == nil {
		err = tmp.Sync()
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Chmod(tmpName, perm)
	}
	if err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	if err := os.Rename(tmpName, name); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}

	return nil
}

// AppendFile appends data to name, creating it if needed
func (o *OSFileSystem) AppendFile(name string, data []byte, perm os.FileMode) error {
	f, err := os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, perm)
	if err != nil {
		return err
	}

	_, err = f.Write(data)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	return err
}

// EnsureFile creates an empty file at name if nothing exists there yet
func (o *OSFileSystem) EnsureFile(name string, perm os.FileMode) error {
	_, err := o.Stat(name)
	if err == nil {
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	f, err := os.OpenFile(name, os.O_CREATE|os.O_EXCL|os.O_WRONLY, perm)
	if errors.Is(err, os.ErrExist) {
		return nil
	}
	if err != nil {
		return err
	}
	return f.Close()
}

// Rename is a wrapper around os.Rename
func (o *OSFileSystem) Rename(source, target string) error {
	return os.Rename(source, target)
}

// Remove is a wrapper around os.Remove that ignores missing files
func (o *OSFileSystem) Remove(name string) error {
	err := os.Remove(name)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// MkdirAll is a wrapper around os.MkdirAll
func (o *OSFileSystem) MkdirAll(path string, mode os.FileMode) error {
	return os.MkdirAll(path, mode)
}

// FileExists reports whether anything exists at path
func (o *OSFileSystem) FileExists(path string) bool {
	_, err := o.Stat(path)
	return err == nil
}
