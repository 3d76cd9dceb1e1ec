// Package store implements the key-value backends a kite.Tracker persists in.
package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/etnz/kite"
)

// File stores each key as a human readable JSON file in a folder, so that the
// folder can live in a private git repository.
type File struct {
	dir string
}

// NewFile returns a store rooted at dir. The folder is created on first write.
func NewFile(dir string) *File { return &File{dir: dir} }

// path returns the file holding key.
func (f *File) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(f.dir, key+".json"), nil
}

// Get reads the value of key.
func (f *File) Get(_ context.Context, key string) ([]byte, error) {
	file, err := f.path(key)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(file)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%q: %w", key, kite.ErrNotFound)
	}
	return content, err
}

// Set replaces the value of key. The file is written aside and renamed so a
// crash never leaves a truncated value behind.
func (f *File) Set(_ context.Context, key string, value []byte) error {
	file, err := f.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(f.dir, "."+key+"-*")
	if err != nil {
		return err
	}
	_, err = tmp.Write(value)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), file)
}
