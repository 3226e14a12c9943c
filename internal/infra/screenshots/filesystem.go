// Package screenshots stores correction screenshots keyed by correction
// UUID, either on the local filesystem or in an S3-compatible bucket.
package screenshots

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pagelint/pagelint/internal/domain/reports"
)

// FileStore keeps screenshots as <uuid>.png files under a single
// directory.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(uuid string) string {
	return filepath.Join(s.dir, uuid+".png")
}

func (s *FileStore) Save(_ context.Context, uuid string, png []byte) error {
	return os.WriteFile(s.path(uuid), png, 0o644)
}

func (s *FileStore) Get(_ context.Context, uuid string) ([]byte, error) {
	b, err := os.ReadFile(s.path(uuid))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, reports.ErrNotFound
	}
	return b, err
}

func (s *FileStore) Remove(_ context.Context, uuid string) error {
	err := os.Remove(s.path(uuid))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
