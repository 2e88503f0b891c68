package io

import (
	"os"
)

// FileIO is an interface for the file operations the daemon's stores need
type FileIO interface {
	Stat(name string) (os.FileInfo, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm os.FileMode) error
	AppendFile(name string, data []byte, perm os.FileMode) error
	EnsureFile(name string, perm os.FileMode) error
	Rename(source, target string) error
	Remove(name string) error
	MkdirAll(name string, perm os.FileMode) error
}
