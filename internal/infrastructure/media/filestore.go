package media

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileStore abstracts raw photo byte storage. Stored files are served
// read-only from the uploads directory.
type FileStore interface {
	Save(ctx context.Context, name string, data []byte) error
	Delete(ctx context.Context, name string) error
}

// ErrFileExists is returned when Save would overwrite an existing file.
var ErrFileExists = errors.New("media: file already exists")

// LocalFileStore keeps photos in a single directory on disk.
// Files are written once and never overwritten.
type LocalFileStore struct {
	dir string
}

// NewLocalFileStore creates dir if needed and returns a store rooted there.
func NewLocalFileStore(dir string) (*LocalFileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("uploads directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads directory %s: %w", dir, err)
	}
	return &LocalFileStore{dir: dir}, nil
}

// Dir returns the directory photos are stored in.
func (s *LocalFileStore) Dir() string {
	return s.dir
}

func (s *LocalFileStore) Save(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.path(name)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%w: %s", ErrFileExists, name)
	}
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("close %s: %w", name, err)
	}
	return nil
}

// Delete removes name; a missing file is not an error.
func (s *LocalFileStore) Delete(_ context.Context, name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}

// path rejects anything that is not a bare file name.
func (s *LocalFileStore) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	return filepath.Join(s.dir, name), nil
}
