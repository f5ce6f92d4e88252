// Package registry implements the phased commitment registry: a sequence
// of discrete registration epochs, each accepting at most one fee-paying
// commitment per participant, explicitly sealed by a privileged controller,
// with collected fees forwarded to a treasury.
//
// # Engine
//
// PhasedRegistry is the authoritative state machine. Its two mutators,
// RegisterCommitment and SealCurrentPhase, are serialized and atomic: every
// call either fully applies or rejects with one of the sentinel errors in
// the interfaces package. The current phase index only ever increases, by
// exactly one per successful seal; sealed phases are frozen forever and
// are never deleted.
//
// Fee handling couples record insertion with fund forwarding. The engine
// forwards the paid amount through its TreasurySink before inserting the
// commitment record, so a failed transfer never leaves a registration
// behind and a rejected registration never retains funds.
//
// # On-chain client
//
// OnchainRegistryClient exposes the same operations against the deployed
// registry contract, bound through its compiled artifact (ABI plus creation
// bytecode). State-modifying operations require transaction options set
// with SetTransactOpts; RegisterCommitment attaches the exact registration
// fee as transaction value. DeployRegistry deploys a fresh contract with
// the three creation-time configuration values.
//
// # Snapshots
//
// ExportSnapshot and RestoreSnapshot round-trip the full engine state as
// versioned JSON. PersistLatest and PersistSealed write snapshots to a
// SnapshotStore from the storage package.
package registry
