// Package storage is the narrow object-storage collaborator holding
// uploaded resume files. Failures of any backend surface uniformly as
// ErrIO so callers can treat them as transient I/O trouble.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Common storage errors.
var (
	// ErrIO wraps any storage or network failure. Callers translate it
	// into job failures or per-entity skips; it never means "unsupported".
	ErrIO = errors.New("storage I/O failure")

	// ErrObjectNotFound indicates the named object does not exist. It
	// wraps ErrIO: a missing object is still an I/O-class failure for
	// extraction and export purposes.
	ErrObjectNotFound = fmt.Errorf("%w: object not found", ErrIO)
)

// FileStore is the object-storage contract this service consumes.
type FileStore interface {
	// SaveFile uploads the local file at path under the given object
	// name, replacing any existing object.
	SaveFile(ctx context.Context, localPath, name string) error

	// ReadFile opens the named object for reading. The caller owns the
	// returned stream and must close it.
	ReadFile(ctx context.Context, name string) (io.ReadCloser, error)

	// DeleteFile removes the named object. Deleting a missing object
	// returns ErrObjectNotFound.
	DeleteFile(ctx context.Context, name string) error
}
