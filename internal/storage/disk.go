package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// DiskStore is a FileStore over an afero filesystem rooted at a single
// directory. Production wiring passes the OS filesystem; tests pass a
// memory-backed one.
type DiskStore struct {
	fs   afero.Fs
	root string
}

// NewDiskStore creates a DiskStore rooted at root, creating the
// directory if needed.
func NewDiskStore(fs afero.Fs, root string) (*DiskStore, error) {
	if err := fs.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create root %s: %v", ErrIO, root, err)
	}
	return &DiskStore{fs: fs, root: root}, nil
}

// Ensure DiskStore implements FileStore.
var _ FileStore = (*DiskStore)(nil)

// SaveFile copies the local file at path into the store under name.
func (s *DiskStore) SaveFile(ctx context.Context, localPath, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	src, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrIO, localPath, err)
	}
	defer func() { _ = src.Close() }()

	target, err := s.path(name)
	if err != nil {
		return err
	}
	if err := s.fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("%w: create dir for %s: %v", ErrIO, name, err)
	}

	dst, err := s.fs.Create(target)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrIO, name, err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return fmt.Errorf("%w: write %s: %v", ErrIO, name, err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", ErrIO, name, err)
	}
	return nil
}

// ReadFile opens the named object for reading.
func (s *DiskStore) ReadFile(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	target, err := s.path(name)
	if err != nil {
		return nil, err
	}

	f, err := s.fs.Open(target)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, name)
		}
		return nil, fmt.Errorf("%w: open %s: %v", ErrIO, name, err)
	}
	return f, nil
}

// DeleteFile removes the named object.
func (s *DiskStore) DeleteFile(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target, err := s.path(name)
	if err != nil {
		return err
	}

	if err := s.fs.Remove(target); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrObjectNotFound, name)
		}
		return fmt.Errorf("%w: remove %s: %v", ErrIO, name, err)
	}
	return nil
}

// path resolves an object name inside the root, rejecting names that
// would escape it.
func (s *DiskStore) path(name string) (string, error) {
	cleaned := filepath.Clean("/" + name)
	if cleaned == "/" || strings.Contains(name, "..") {
		return "", fmt.Errorf("%w: invalid object name %q", ErrIO, name)
	}
	return filepath.Join(s.root, cleaned), nil
}
