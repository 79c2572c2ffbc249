package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore saves uploaded files to disk under a base directory.
type LocalStore struct {
	basePath string
}

// NewLocalStore creates the base directory if missing.
func NewLocalStore(basePath string) (*LocalStore, error) {
	if strings.TrimSpace(basePath) == "" {
		return nil, fmt.Errorf("storage base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &LocalStore{basePath: basePath}, nil
}

// Path returns the absolute location of a stored object.
func (s *LocalStore) Path(key string) string {
	return filepath.Join(s.basePath, filepath.FromSlash(key))
}

// Save writes an object under the base directory.
func (s *LocalStore) Save(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	target := s.Path(key)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create object dir: %w", err)
	}
	out, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer out.Close()
	if _, err := io.Copy(out, r); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// Open returns a reader for a stored object.
func (s *LocalStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(s.Path(key))
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}

// Delete unlinks the object file. A missing file is an error: the caller must
// not drop the record when the backing file cannot be confirmed removed.
func (s *LocalStore) Delete(_ context.Context, key string) error {
	target := s.Path(key)
	if err := os.Remove(target); err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	// Clean up the per-document directory when empty.
	_ = os.Remove(filepath.Dir(target))
	return nil
}
