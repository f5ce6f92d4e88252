package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/amaracantik180418/code-wiz-2000/interfaces"
)

// FileStore persists registry snapshots in a local directory, one file per
// label.
type FileStore struct {
	baseDir     string
	log         *slog.Logger
	locationURI string
}

// NewFileStore creates a file snapshot store rooted at baseDir, creating
// the directory if needed.
func NewFileStore(baseDir string, log *slog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	return &FileStore{
		baseDir:     baseDir,
		log:         log,
		locationURI: fmt.Sprintf("file://%s", baseDir),
	}, nil
}

// Fetch reads the snapshot stored under the label. Returns
// ErrSnapshotNotFound if no snapshot exists.
func (s *FileStore) Fetch(ctx context.Context, label interfaces.SnapshotLabel) ([]byte, error) {
	path := s.snapshotPath(label)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, interfaces.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	s.log.Debug("Fetched snapshot from file",
		slog.String("path", path),
		slog.Int("size", len(data)))

	return data, nil
}

// Store writes the snapshot under the label. The write goes through a
// temporary file and rename so a crash never leaves a torn snapshot behind.
func (s *FileStore) Store(ctx context.Context, label interfaces.SnapshotLabel, data []byte) error {
	path := s.snapshotPath(label)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to finalize snapshot file: %w", err)
	}

	s.log.Debug("Stored snapshot to file",
		slog.String("path", path),
		slog.Int("size", len(data)))

	return nil
}

// LocationURI returns the URI identifying this store.
func (s *FileStore) LocationURI() string {
	return s.locationURI
}

func (s *FileStore) snapshotPath(label interfaces.SnapshotLabel) string {
	return filepath.Join(s.baseDir, string(label)+".json")
}
