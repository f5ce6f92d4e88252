package interfaces

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
)

// RegistryConfig holds the three creation-time values of a registry plus
// the controller authority. It is immutable for the registry's lifetime;
// no operation rewrites any of its fields.
type RegistryConfig struct {
	// Treasury receives every registration fee.
	Treasury Address

	// PhaseDuration is the minimum interval a phase must remain open
	// before it may be sealed.
	PhaseDuration time.Duration

	// RegistrationFee is the exact payment required per commitment, in
	// the smallest native currency unit.
	RegistrationFee *big.Int

	// Controller is the only address authorized to seal phases.
	Controller Address
}

// CommitmentRecord is one participant's registration within one phase.
type CommitmentRecord struct {
	Participant    Address        `json:"participant"`
	CommitmentHash CommitmentHash `json:"commitment_hash"`
	PhaseIndex     uint64         `json:"phase_index"`
	PaidAmount     *big.Int       `json:"paid_amount"`
}

// SealReceipt reports the result of a successful seal: the phase that was
// closed and the phase that opened in its place.
type SealReceipt struct {
	SealedIndex uint64 `json:"sealed_index"`
	NextIndex   uint64 `json:"next_index"`
}

// PhaseInfo is a read-only view of one phase.
type PhaseInfo struct {
	Index           uint64    `json:"index"`
	StartTimestamp  time.Time `json:"start_timestamp"`
	Sealed          bool      `json:"sealed"`
	RegistrantCount uint64    `json:"registrant_count"`
}

// CommitmentRegistry is the engine contract: a sequence of registration
// phases, each accepting at most one fee-paying commitment per participant,
// closed only by the controller. Mutators are atomic; a rejected call never
// commits partial state.
type CommitmentRegistry interface {
	// RegisterCommitment inserts the participant's commitment into the
	// current phase. The paid amount must equal the registration fee
	// exactly and is forwarded to the treasury in the same atomic step.
	RegisterCommitment(participant Address, commitment CommitmentHash, paid *big.Int) (*CommitmentRecord, error)

	// SealCurrentPhase closes the current phase and opens the next one.
	// Only the controller may call it, and only once the minimum phase
	// duration has elapsed.
	SealCurrentPhase(caller Address) (SealReceipt, error)

	// GetCommitment returns the stored hash for the participant in the
	// given phase. The second result reports presence; a zero hash is
	// never used as an absence sentinel.
	GetCommitment(phaseIndex uint64, participant Address) (CommitmentHash, bool, error)

	// CurrentPhaseIndex returns the index of the open phase.
	CurrentPhaseIndex() (uint64, error)

	// PhaseRegistrantCount returns the number of commitments in the given
	// phase. Phases that do not exist yet count as empty, not as errors.
	PhaseRegistrantCount(phaseIndex uint64) (uint64, error)
}

// OnchainRegistry is the transaction-returning shape of the same contract,
// implemented by the client for the deployed registry contract. Mutators
// return the pending transaction; the caller decides whether to wait for
// inclusion.
type OnchainRegistry interface {
	RegisterCommitment(commitment CommitmentHash) (*types.Transaction, error)
	SealCurrentPhase() (*types.Transaction, error)
	GetCommitment(phaseIndex uint64, participant Address) (CommitmentHash, bool, error)
	CurrentPhaseIndex() (uint64, error)
	PhaseRegistrantCount(phaseIndex uint64) (uint64, error)
	RegistrationFee() (*big.Int, error)
}

// TreasurySink forwards registration fees to their recipient. The engine
// calls Forward before recording a commitment; a Forward error aborts the
// registration with no state change.
type TreasurySink interface {
	Forward(recipient Address, amount *big.Int) error
}

// SnapshotStore persists registry snapshots under stable labels.
type SnapshotStore interface {
	// Fetch retrieves the snapshot stored under the label, or
	// ErrSnapshotNotFound.
	Fetch(ctx context.Context, label SnapshotLabel) ([]byte, error)

	// Store saves the snapshot under the label, overwriting any previous
	// content.
	Store(ctx context.Context, label SnapshotLabel, data []byte) error

	// LocationURI returns the URI this store was created from.
	LocationURI() string
}
