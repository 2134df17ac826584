package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileStore keeps one gob file per key under dir.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) filename(key string) string {
	safe := strings.NewReplacer("/", "_", ":", "_", "\\", "_").Replace(key)
	return filepath.Join(s.dir, fmt.Sprintf("%s_%s.gob", safe, cacheVersion))
}

func (s *FileStore) Load(_ context.Context, key string) (*Snapshot, error) {
	data, err := os.ReadFile(s.filename(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decode(data)
}

// Save writes to a temporary file first so readers never see a partial
// snapshot.
func (s *FileStore) Save(_ context.Context, key string, snap *Snapshot) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}

	data, err := encode(snap)
	if err != nil {
		return err
	}

	target := s.filename(key)
	tmp, err := os.CreateTemp(s.dir, filepath.Base(target)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), target)
}

func (s *FileStore) Close() error { return nil }
