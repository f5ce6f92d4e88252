package interfaces

import "errors"

// Registry engine error taxonomy. Every rejected mutation returns exactly
// one of these, and never commits partial state.
var (
	// ErrUnauthorized is returned when a caller other than the configured
	// controller attempts to seal the current phase.
	ErrUnauthorized = errors.New("caller is not the registry controller")

	// ErrIncorrectFee is returned when the paid amount differs from the
	// configured registration fee. Under- and over-payment are both
	// rejected; there is no change-making and no partial credit.
	ErrIncorrectFee = errors.New("paid amount does not match the registration fee")

	// ErrDuplicateRegistration is returned when the participant already
	// holds a commitment in the current phase.
	ErrDuplicateRegistration = errors.New("participant already registered in this phase")

	// ErrPhaseSealed is returned when a write targets a closed phase.
	ErrPhaseSealed = errors.New("phase is sealed")

	// ErrPhaseNotYetDue is returned when a seal is attempted before the
	// minimum phase duration has elapsed.
	ErrPhaseNotYetDue = errors.New("phase has not been open for the minimum duration")
)

// Snapshot storage errors.
var (
	// ErrSnapshotNotFound is returned when no snapshot exists under the
	// requested label.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrBackendUnavailable is returned when a snapshot backend cannot be
	// reached.
	ErrBackendUnavailable = errors.New("snapshot backend unavailable")

	// ErrInvalidLocationURI is returned when a backend location URI cannot
	// be parsed or uses an unsupported scheme.
	ErrInvalidLocationURI = errors.New("invalid backend location URI")
)
