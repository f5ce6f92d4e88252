package storage

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	vault "github.com/hashicorp/vault/api"

	"github.com/amaracantik180418/code-wiz-2000/interfaces"
)

// VaultStore persists registry snapshots in HashiCorp Vault's KV v2 store.
// Snapshot bytes are base64-encoded into the secret payload.
type VaultStore struct {
	client      *vault.Client
	mountPath   string
	dataPath    string
	log         *slog.Logger
	locationURI string
}

// NewVaultStore creates a Vault snapshot store.
//
// Parameters:
//   - address: Vault server address (e.g. https://vault.example.com:8200)
//   - token: Vault token used for authentication
//   - mountPath: KV v2 mount path (e.g. "secret")
//   - dataPath: path within the mount (e.g. "registry")
//   - log: structured logger
func NewVaultStore(address, token, mountPath, dataPath string, log *slog.Logger) (*VaultStore, error) {
	config := vault.DefaultConfig()
	config.Address = address
	config.Timeout = 30 * time.Second

	client, err := vault.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	if token != "" {
		client.SetToken(token)
	}

	mountPath = strings.TrimSuffix(mountPath, "/")
	dataPath = strings.Trim(dataPath, "/")

	return &VaultStore{
		client:      client,
		mountPath:   mountPath,
		dataPath:    dataPath,
		log:         log,
		locationURI: fmt.Sprintf("vault://%s/%s/%s", address, mountPath, dataPath),
	}, nil
}

// Fetch retrieves the snapshot stored under the label. Returns
// ErrSnapshotNotFound if the secret does not exist.
func (s *VaultStore) Fetch(ctx context.Context, label interfaces.SnapshotLabel) ([]byte, error) {
	start := time.Now()
	path := s.secretPath(label)

	secret, err := s.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot from Vault: %w", err)
	}
	if secret == nil || secret.Data == nil {
		return nil, interfaces.ErrSnapshotNotFound
	}

	// KV v2 wraps the payload in a 'data' map.
	inner, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, interfaces.ErrSnapshotNotFound
	}
	encoded, ok := inner["snapshot"].(string)
	if !ok {
		return nil, fmt.Errorf("vault secret at %s has no snapshot field", path)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode snapshot payload: %w", err)
	}

	s.log.Debug("Fetched snapshot from Vault",
		slog.String("path", path),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))

	return data, nil
}

// Store writes the snapshot under the label.
func (s *VaultStore) Store(ctx context.Context, label interfaces.SnapshotLabel, data []byte) error {
	start := time.Now()
	path := s.secretPath(label)

	payload := map[string]interface{}{
		"data": map[string]interface{}{
			"snapshot": base64.StdEncoding.EncodeToString(data),
		},
	}

	if _, err := s.client.Logical().WriteWithContext(ctx, path, payload); err != nil {
		return fmt.Errorf("failed to store snapshot to Vault: %w", err)
	}

	s.log.Debug("Stored snapshot to Vault",
		slog.String("path", path),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))

	return nil
}

// LocationURI returns the URI identifying this store.
func (s *VaultStore) LocationURI() string {
	return s.locationURI
}

func (s *VaultStore) secretPath(label interfaces.SnapshotLabel) string {
	return fmt.Sprintf("%s/data/%s/%s", s.mountPath, s.dataPath, label)
}
