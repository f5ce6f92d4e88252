package storage

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/amaracantik180418/code-wiz-2000/interfaces"
)

// StoreFactory creates snapshot stores from location URIs and assembles
// multi-store configurations for redundant persistence.
type StoreFactory struct {
	log *slog.Logger
}

// NewStoreFactory creates a factory for snapshot stores.
func NewStoreFactory(log *slog.Logger) *StoreFactory {
	return &StoreFactory{log: log}
}

// StoreFor creates a snapshot store from a location URI.
//
// Supported schemes:
//   - file://  - local filesystem directory
//   - s3://    - Amazon S3 or compatible object storage
//   - ipfs://  - IPFS node (mutable files API)
//   - vault:// - HashiCorp Vault KV v2
//
// Returns ErrInvalidLocationURI for malformed URIs or unknown schemes.
func (f *StoreFactory) StoreFor(locationURI string) (interfaces.SnapshotStore, error) {
	u, err := url.Parse(locationURI)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidLocationURI, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "file":
		return f.createFileStore(u)
	case "s3":
		return f.createS3Store(u)
	case "ipfs":
		return f.createIPFSStore(u)
	case "vault":
		return f.createVaultStore(u)
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", interfaces.ErrInvalidLocationURI, u.Scheme)
	}
}

// MultiStoreFor creates a multi-store from a list of location URIs. URIs
// that fail to produce a store are skipped with a warning; at least one
// valid store is required.
func (f *StoreFactory) MultiStoreFor(locationURIs []string) (interfaces.SnapshotStore, error) {
	stores := make([]interfaces.SnapshotStore, 0, len(locationURIs))

	for _, uri := range locationURIs {
		store, err := f.StoreFor(uri)
		if err != nil {
			f.log.Warn("Failed to create snapshot store",
				slog.String("locationURI", uri),
				"err", err)
			continue
		}
		stores = append(stores, store)
	}

	if len(stores) == 0 {
		return nil, fmt.Errorf("no valid snapshot stores created")
	}
	if len(stores) == 1 {
		return stores[0], nil
	}

	return NewMultiStore(stores, f.log), nil
}

// createFileStore builds a file store from a file://path URI.
func (f *StoreFactory) createFileStore(u *url.URL) (interfaces.SnapshotStore, error) {
	dir := u.Path
	if u.Host != "" {
		// file://relative/dir parses the first segment as host.
		dir = u.Host + u.Path
	}
	if dir == "" {
		return nil, fmt.Errorf("%w: file URI has no path", interfaces.ErrInvalidLocationURI)
	}
	return NewFileStore(dir, f.log)
}

// createS3Store builds an S3 store from a URI of the form
// s3://bucket/prefix?region=us-east-1&endpoint=...&access_key=...&secret_key=...
func (f *StoreFactory) createS3Store(u *url.URL) (interfaces.SnapshotStore, error) {
	bucket := u.Host
	if bucket == "" {
		return nil, fmt.Errorf("%w: s3 URI has no bucket", interfaces.ErrInvalidLocationURI)
	}

	q := u.Query()
	region := q.Get("region")
	if region == "" {
		region = "us-east-1"
	}

	accessKey := q.Get("access_key")
	secretKey := q.Get("secret_key")
	if u.User != nil {
		accessKey = u.User.Username()
		if pw, ok := u.User.Password(); ok {
			secretKey = pw
		}
	}

	return NewS3Store(bucket, strings.TrimPrefix(u.Path, "/"), region, q.Get("endpoint"), accessKey, secretKey, f.log)
}

// createIPFSStore builds an IPFS store from a URI of the form
// ipfs://host:port/base/path
func (f *StoreFactory) createIPFSStore(u *url.URL) (interfaces.SnapshotStore, error) {
	host := u.Hostname()
	if host == "" {
		return nil, fmt.Errorf("%w: ipfs URI has no host", interfaces.ErrInvalidLocationURI)
	}

	port := u.Port()
	if port == "" {
		port = "5001"
	}

	return NewIPFSStore(host, port, u.Path, f.log)
}

// createVaultStore builds a Vault store from a URI of the form
// vault://host:8200/mount/data/path?token=...&scheme=https
func (f *StoreFactory) createVaultStore(u *url.URL) (interfaces.SnapshotStore, error) {
	if u.Host == "" {
		return nil, fmt.Errorf("%w: vault URI has no host", interfaces.ErrInvalidLocationURI)
	}

	parts := strings.SplitN(strings.Trim(u.Path, "/"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("%w: vault URI path must be /mount/data-path", interfaces.ErrInvalidLocationURI)
	}

	q := u.Query()
	scheme := q.Get("scheme")
	if scheme == "" {
		scheme = "https"
	}

	address := fmt.Sprintf("%s://%s", scheme, u.Host)
	return NewVaultStore(address, q.Get("token"), parts[0], parts[1], f.log)
}
