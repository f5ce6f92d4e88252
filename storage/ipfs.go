package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	shell "github.com/ipfs/go-ipfs-api"

	"github.com/amaracantik180418/code-wiz-2000/interfaces"
)

// IPFSStore persists registry snapshots on an IPFS node. Labels map to
// paths in the node's mutable files API, so 'latest' stays addressable by a
// stable name while the underlying content changes.
type IPFSStore struct {
	shell       *shell.Shell
	host        string
	port        string
	basePath    string
	log         *slog.Logger
	locationURI string
}

// NewIPFSStore creates an IPFS snapshot store connected to the node's API
// at host:port. Snapshots are placed under basePath in the node's MFS.
func NewIPFSStore(host, port, basePath string, log *slog.Logger) (*IPFSStore, error) {
	apiURL := fmt.Sprintf("%s:%s", host, port)

	if basePath == "" {
		basePath = "/registry-snapshots"
	}
	basePath = "/" + strings.Trim(basePath, "/")

	return &IPFSStore{
		shell:       shell.NewShell(apiURL),
		host:        host,
		port:        port,
		basePath:    basePath,
		log:         log,
		locationURI: fmt.Sprintf("ipfs://%s%s", apiURL, basePath),
	}, nil
}

// Fetch retrieves the snapshot stored under the label. Returns
// ErrSnapshotNotFound if no file exists at the label's path and
// ErrBackendUnavailable if the node cannot be reached.
func (s *IPFSStore) Fetch(ctx context.Context, label interfaces.SnapshotLabel) ([]byte, error) {
	start := time.Now()
	path := s.filePath(label)

	if !s.shell.IsUp() {
		s.log.Warn("IPFS node unavailable",
			slog.String("host", s.host),
			slog.String("port", s.port))
		return nil, interfaces.ErrBackendUnavailable
	}

	reader, err := s.shell.FilesRead(ctx, path)
	if err != nil {
		if strings.Contains(err.Error(), "does not exist") || strings.Contains(err.Error(), "file does not exist") {
			s.log.Debug("Snapshot not found in IPFS",
				slog.String("path", path),
				slog.Duration("duration", time.Since(start)))
			return nil, interfaces.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to read snapshot from IPFS: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read IPFS response: %w", err)
	}

	s.log.Debug("Fetched snapshot from IPFS",
		slog.String("path", path),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))

	return data, nil
}

// Store writes the snapshot under the label's path, creating parents and
// truncating any previous content.
func (s *IPFSStore) Store(ctx context.Context, label interfaces.SnapshotLabel, data []byte) error {
	start := time.Now()
	path := s.filePath(label)

	if !s.shell.IsUp() {
		return interfaces.ErrBackendUnavailable
	}

	err := s.shell.FilesWrite(ctx, path, bytes.NewReader(data),
		shell.FilesWrite.Create(true),
		shell.FilesWrite.Parents(true),
		shell.FilesWrite.Truncate(true))
	if err != nil {
		return fmt.Errorf("failed to write snapshot to IPFS: %w", err)
	}

	s.log.Debug("Stored snapshot to IPFS",
		slog.String("path", path),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))

	return nil
}

// LocationURI returns the URI identifying this store.
func (s *IPFSStore) LocationURI() string {
	return s.locationURI
}

func (s *IPFSStore) filePath(label interfaces.SnapshotLabel) string {
	return s.basePath + "/" + string(label) + ".json"
}
