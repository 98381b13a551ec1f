package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

type fileStore struct {
	dir string
}

// NewFileStore creates a blob store backed by a directory on the local
// filesystem. The directory is created if it does not exist.
func NewFileStore(dir string) (BlobStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob directory: %w", err)
	}
	return &fileStore{dir: dir}, nil
}

// Put writes the blob atomically via a temp file and rename, so a crash
// mid-save never corrupts the previous snapshot.
func (s *fileStore) Put(_ context.Context, name string, data []byte) error {
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write blob %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("commit blob %s: %w", name, err)
	}
	return nil
}

func (s *fileStore) Get(_ context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", name, err)
	}
	return data, nil
}
