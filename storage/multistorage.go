package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/amaracantik180418/code-wiz-2000/interfaces"
)

// MultiStore fans snapshot writes out to several stores and serves reads
// from the first store that has the requested label. It provides redundancy
// for the durable registry record: losing any single backend loses nothing
// as long as one other backend survives.
type MultiStore struct {
	stores []interfaces.SnapshotStore
	log    *slog.Logger
}

// NewMultiStore creates a multi-store over the given backends.
func NewMultiStore(stores []interfaces.SnapshotStore, log *slog.Logger) *MultiStore {
	return &MultiStore{stores: stores, log: log}
}

// Fetch returns the snapshot from the first store that has it. Returns
// ErrSnapshotNotFound only when every store misses.
func (m *MultiStore) Fetch(ctx context.Context, label interfaces.SnapshotLabel) ([]byte, error) {
	for _, store := range m.stores {
		data, err := store.Fetch(ctx, label)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, interfaces.ErrSnapshotNotFound) {
			m.log.Warn("Snapshot store fetch failed",
				slog.String("locationURI", store.LocationURI()),
				slog.String("label", string(label)),
				"err", err)
		}
	}
	return nil, interfaces.ErrSnapshotNotFound
}

// Store writes the snapshot to every store. It succeeds when at least one
// store accepts the write and reports the stores that failed.
func (m *MultiStore) Store(ctx context.Context, label interfaces.SnapshotLabel, data []byte) error {
	var failed []string
	stored := 0

	for _, store := range m.stores {
		if err := store.Store(ctx, label, data); err != nil {
			m.log.Warn("Snapshot store write failed",
				slog.String("locationURI", store.LocationURI()),
				slog.String("label", string(label)),
				"err", err)
			failed = append(failed, store.LocationURI())
			continue
		}
		stored++
	}

	if stored == 0 {
		return fmt.Errorf("snapshot write failed on all %d stores", len(m.stores))
	}
	if len(failed) > 0 {
		m.log.Warn("Snapshot stored with degraded redundancy",
			slog.String("label", string(label)),
			slog.Int("stored", stored),
			slog.String("failed", strings.Join(failed, ",")))
	}
	return nil
}

// LocationURI returns a comma-joined list of the member store URIs.
func (m *MultiStore) LocationURI() string {
	uris := make([]string, 0, len(m.stores))
	for _, store := range m.stores {
		uris = append(uris, store.LocationURI())
	}
	return strings.Join(uris, ",")
}
