package infrastructure

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"project_amharicAI/internal/interfaces"
)

// DiskStorage keeps uploads as flat files under one directory.
type DiskStorage struct {
	dir string
}

var _ interfaces.FileStorage = (*DiskStorage)(nil)

func NewDiskStorage(dir string) (*DiskStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStorage{dir: dir}, nil
}

func (s *DiskStorage) Save(name string, r io.Reader) (string, error) {
	path := s.path(name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	return path, nil
}

// Remove deletes a stored file. A missing file is not an error.
func (s *DiskStorage) Remove(name string) error {
	err := os.Remove(s.path(name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}

func (s *DiskStorage) path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name))
}
