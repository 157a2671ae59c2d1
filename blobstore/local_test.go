package blobstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func testStoreLifecycle(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	// 1. Put
	blobName := "backups/a/data-001.bin"
	data := []byte("hello world, this is a test blob for lexigo")
	require.NoError(t, store.Put(ctx, blobName, data))

	// 2. Get
	got, err := store.Get(ctx, blobName)
	require.NoError(t, err)
	require.Equal(t, data, got)

	// Returned slices are independent copies
	got[0] = 'X'
	again, err := store.Get(ctx, blobName)
	require.NoError(t, err)
	require.Equal(t, data, again)

	// 3. Overwrite
	require.NoError(t, store.Put(ctx, blobName, []byte("v2")))
	got, err = store.Get(ctx, blobName)
	require.NoError(t, err)
	require.Equal(t, "v2", string(got))

	// 4. List
	require.NoError(t, store.Put(ctx, "backups/a/data-002.bin", nil))
	require.NoError(t, store.Put(ctx, "other/x", []byte("x")))

	names, err := store.List(ctx, "backups/")
	require.NoError(t, err)
	require.Equal(t, []string{"backups/a/data-001.bin", "backups/a/data-002.bin"}, names)

	all, err := store.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)

	// 5. Delete
	require.NoError(t, store.Delete(ctx, blobName))
	require.NoError(t, store.Delete(ctx, blobName), "deleting a missing blob is not an error")

	_, err = store.Get(ctx, blobName)
	require.ErrorIs(t, err, ErrNotFound)

	names, err = store.List(ctx, "backups/")
	require.NoError(t, err)
	require.Equal(t, []string{"backups/a/data-002.bin"}, names)
}

func TestLocalStore_Lifecycle(t *testing.T) {
	tmpDir := t.TempDir()
	testStoreLifecycle(t, NewLocalStore(tmpDir))

	// Verify file layout on disk
	_, err := os.Stat(filepath.Join(tmpDir, "backups", "a", "data-002.bin"))
	require.NoError(t, err)
}

func TestLocalStore_NoTempFilesLeft(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewLocalStore(tmpDir)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "f.bin", []byte("data")))

	entries, err := os.ReadDir(tmpDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "f.bin", entries[0].Name())
}

func TestLocalStore_ListMissingRoot(t *testing.T) {
	store := NewLocalStore(filepath.Join(t.TempDir(), "missing"))

	names, err := store.List(context.Background(), "")
	require.NoError(t, err)
	require.Empty(t, names)
}

func TestLocalStore_CanceledContext(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, store.Put(ctx, "x", nil), context.Canceled)
	_, err := store.Get(ctx, "x")
	require.ErrorIs(t, err, context.Canceled)
}

func TestMemoryStore_Lifecycle(t *testing.T) {
	store := NewMemoryStore()
	testStoreLifecycle(t, store)
	require.Equal(t, 2, store.Len())
}
