package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*DiskStore, afero.Fs) {
	t.Helper()

	fs := afero.NewMemMapFs()
	store, err := NewDiskStore(fs, "/objects")
	require.NoError(t, err)
	return store, fs
}

func TestDiskStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	ctx := context.Background()

	local := filepath.Join(t.TempDir(), "upload.pdf")
	require.NoError(t, os.WriteFile(local, []byte("resume bytes"), 0o644))

	require.NoError(t, store.SaveFile(ctx, local, "resumes/jane.pdf"))

	rc, err := store.ReadFile(ctx, "resumes/jane.pdf")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "resume bytes", string(data))

	require.NoError(t, store.DeleteFile(ctx, "resumes/jane.pdf"))
	_, err = store.ReadFile(ctx, "resumes/jane.pdf")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestDiskStoreSaveReplacesExisting(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	ctx := context.Background()
	dir := t.TempDir()

	v1 := filepath.Join(dir, "v1.pdf")
	v2 := filepath.Join(dir, "v2.pdf")
	require.NoError(t, os.WriteFile(v1, []byte("first"), 0o644))
	require.NoError(t, os.WriteFile(v2, []byte("second"), 0o644))

	require.NoError(t, store.SaveFile(ctx, v1, "jane.pdf"))
	require.NoError(t, store.SaveFile(ctx, v2, "jane.pdf"))

	rc, err := store.ReadFile(ctx, "jane.pdf")
	require.NoError(t, err)
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestDiskStoreMissingObject(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.ReadFile(ctx, "never-saved.pdf")
	assert.ErrorIs(t, err, ErrObjectNotFound)
	assert.ErrorIs(t, err, ErrIO, "a missing object is an I/O-class failure")

	assert.ErrorIs(t, store.DeleteFile(ctx, "never-saved.pdf"), ErrObjectNotFound)
}

func TestDiskStoreRejectsEscapingNames(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"../outside.pdf", "a/../../etc/passwd", ""} {
		_, err := store.ReadFile(ctx, name)
		assert.ErrorIs(t, err, ErrIO, "name %q must be rejected", name)
		assert.NotErrorIs(t, err, ErrObjectNotFound)
	}
}

func TestDiskStoreMissingLocalFile(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	err := store.SaveFile(context.Background(), "/does/not/exist.pdf", "jane.pdf")
	assert.ErrorIs(t, err, ErrIO)
}

func TestDiskStoreHonorsContextCancellation(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.ReadFile(ctx, "jane.pdf")
	assert.ErrorIs(t, err, context.Canceled)
}
