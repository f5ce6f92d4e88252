package storage

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/amaracantik180418/code-wiz-2000/interfaces"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, testLogger())
	require.NoError(t, err)
	require.Equal(t, "file://"+dir, store.LocationURI())

	ctx := context.Background()

	_, err = store.Fetch(ctx, interfaces.SnapshotLatest)
	require.ErrorIs(t, err, interfaces.ErrSnapshotNotFound)

	payload := []byte(`{"version":1}`)
	require.NoError(t, store.Store(ctx, interfaces.SnapshotLatest, payload))

	data, err := store.Fetch(ctx, interfaces.SnapshotLatest)
	require.NoError(t, err)
	require.Equal(t, payload, data)

	// Overwrite replaces the previous content.
	updated := []byte(`{"version":1,"phases":[]}`)
	require.NoError(t, store.Store(ctx, interfaces.SnapshotLatest, updated))

	data, err = store.Fetch(ctx, interfaces.SnapshotLatest)
	require.NoError(t, err)
	require.Equal(t, updated, data)

	// Labels map to separate files.
	require.NoError(t, store.Store(ctx, interfaces.PhaseSnapshotLabel(3), payload))
	_, err = os.Stat(filepath.Join(dir, "phase-000003.json"))
	require.NoError(t, err)

	data, err = store.Fetch(ctx, interfaces.PhaseSnapshotLabel(3))
	require.NoError(t, err)
	require.Equal(t, payload, data)
}

func TestFileStoreCreatesBaseDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "snapshots")
	_, err := NewFileStore(dir, testLogger())
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestFileStoreLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, testLogger())
	require.NoError(t, err)

	require.NoError(t, store.Store(context.Background(), interfaces.SnapshotLatest, []byte("x")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "latest.json", entries[0].Name())
}
