// Package interfaces defines the core types and contracts of the phased
// commitment registry. It provides the boundary between components without
// implementation details.
package interfaces

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Address identifies a participant, controller or treasury account.
type Address [20]byte

// NewAddressFromBytes creates an address from a raw 20-byte slice.
func NewAddressFromBytes(addr []byte) (Address, error) {
	if len(addr) != 20 {
		return Address{}, errors.New("invalid address length: must be 20 bytes")
	}

	var res Address
	copy(res[:], addr)
	return res, nil
}

// NewAddressFromHex creates an address from a 40-character hex string,
// with or without a 0x prefix.
func NewAddressFromHex(addr string) (Address, error) {
	clean := strings.TrimPrefix(addr, "0x")
	if len(clean) != 40 {
		return Address{}, errors.New("invalid address length: hex string must be 40 characters")
	}

	addrBytes, err := hex.DecodeString(clean)
	if err != nil {
		return Address{}, fmt.Errorf("invalid hex format: %w", err)
	}

	return NewAddressFromBytes(addrBytes)
}

// String returns the hex string representation of the address.
func (addr Address) String() string {
	return hex.EncodeToString(addr[:])
}

// Bytes returns the raw 20-byte address.
func (addr Address) Bytes() []byte {
	return addr[:]
}

// Equal compares two addresses for equality.
func (addr Address) Equal(other Address) bool {
	return addr == other
}

// MarshalJSON encodes the address as a hex string.
func (addr Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(addr.String())
}

// UnmarshalJSON decodes the address from a hex string.
func (addr *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	parsed, err := NewAddressFromHex(s)
	if err != nil {
		return err
	}
	*addr = parsed
	return nil
}

// CommitmentHash is the caller-supplied opaque digest bound to one
// participant within one phase. The registry never interprets it; reveal
// and preimage verification happen elsewhere.
type CommitmentHash [32]byte

// NewCommitmentHashFromHex creates a commitment hash from a 64-character
// hex string, with or without a 0x prefix.
func NewCommitmentHashFromHex(s string) (CommitmentHash, error) {
	clean := strings.TrimPrefix(s, "0x")
	if len(clean) != 64 {
		return CommitmentHash{}, errors.New("invalid commitment length: hex string must be 64 characters")
	}

	raw, err := hex.DecodeString(clean)
	if err != nil {
		return CommitmentHash{}, fmt.Errorf("invalid hex format: %w", err)
	}

	var res CommitmentHash
	copy(res[:], raw)
	return res, nil
}

// String returns the hex string representation of the commitment hash.
func (h CommitmentHash) String() string {
	return hex.EncodeToString(h[:])
}

// MarshalJSON encodes the commitment hash as a hex string.
func (h CommitmentHash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

// UnmarshalJSON decodes the commitment hash from a hex string.
func (h *CommitmentHash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	parsed, err := NewCommitmentHashFromHex(s)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// SnapshotLabel names a stored registry snapshot within a snapshot store.
type SnapshotLabel string

// SnapshotLatest is the label continuously overwritten after every applied
// mutation. Sealed phases are additionally archived under their own label.
const SnapshotLatest SnapshotLabel = "latest"

// PhaseSnapshotLabel returns the archive label for a sealed phase.
func PhaseSnapshotLabel(index uint64) SnapshotLabel {
	return SnapshotLabel(fmt.Sprintf("phase-%06d", index))
}
