// Package storage provides the durable record of the registry: snapshot
// stores that persist the engine's exported state under stable labels.
//
// A SnapshotStore keeps one object per label. The registry server writes
// the 'latest' label after every applied mutation and archives each sealed
// phase under its own label; sealed phases never change, so the archives
// are stable once written.
//
// Stores are created from location URIs through StoreFactory:
//
//   - file:///var/lib/registry            - local filesystem
//   - s3://bucket/prefix?region=eu-west-1 - Amazon S3 or compatible
//   - ipfs://127.0.0.1:5001/registry      - IPFS mutable files API
//   - vault://vault:8200/secret/registry  - HashiCorp Vault KV v2
//
// MultiStore fans writes out to several backends and reads from the first
// one holding the label, so the record survives the loss of any single
// backend.
package storage
