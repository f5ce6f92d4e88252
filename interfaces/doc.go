// Package interfaces defines the contracts between the components of the
// phased commitment registry without pulling in their implementations.
//
// The central contract is CommitmentRegistry: a sequence of discrete
// registration phases, each accepting at most one fee-paying commitment per
// participant, explicitly sealed by a privileged controller. The engine in
// the registry package implements it directly; OnchainRegistry is the
// transaction-returning shape of the same operations implemented by the
// client for the deployed contract.
//
// Supporting contracts:
//
//   - TreasurySink receives registration fees. Record insertion and fee
//     forwarding succeed or fail together.
//   - SnapshotStore persists registry snapshots; implementations live in
//     the storage package and are selected by location URI.
//
// The error variables in this package form the complete rejection taxonomy
// of the engine. Callers are expected to match them with errors.Is.
package interfaces
