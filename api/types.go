// Package api defines the HTTP wire types and routes shared by the
// registry server and its clients.
package api

import (
	"math/big"

	"github.com/amaracantik180418/code-wiz-2000/interfaces"
)

// API routes. Phase-scoped reads interpolate the phase index and the
// participant address into the path.
const (
	RegisterPath   = "/api/registry/commitments"
	SealPath       = "/api/registry/seal"
	PhasePath      = "/api/registry/phase"
	CommitmentPath = "/api/registry/phases/{index}/commitments/{participant}"
	CountPath      = "/api/registry/phases/{index}/registrants"
	TreasuryPath   = "/api/registry/treasury"
)

// RegisterRequest submits one commitment for the current phase. The paid
// amount travels as a decimal string in the smallest native unit; the
// transport is responsible for supplying the true paid value, mirroring the
// value attached to an on-chain transaction.
type RegisterRequest struct {
	Participant    interfaces.Address        `json:"participant"`
	CommitmentHash interfaces.CommitmentHash `json:"commitment_hash"`
	PaidAmount     string                    `json:"paid_amount"`
}

// PaidAmountInt parses the paid amount. The second result is false for
// amounts that are not valid non-negative decimal integers.
func (r *RegisterRequest) PaidAmountInt() (*big.Int, bool) {
	amount, ok := new(big.Int).SetString(r.PaidAmount, 10)
	if !ok || amount.Sign() < 0 {
		return nil, false
	}
	return amount, true
}

// RegisterResponse echoes the stored commitment record.
type RegisterResponse struct {
	Participant    interfaces.Address        `json:"participant"`
	CommitmentHash interfaces.CommitmentHash `json:"commitment_hash"`
	PhaseIndex     uint64                    `json:"phase_index"`
	PaidAmount     string                    `json:"paid_amount"`
}

// SealRequest asks to seal the current phase on behalf of the caller.
type SealRequest struct {
	Caller interfaces.Address `json:"caller"`
}

// SealResponse reports the sealed phase and its successor.
type SealResponse struct {
	SealedIndex uint64 `json:"sealed_index"`
	NextIndex   uint64 `json:"next_index"`
}

// PhaseResponse reports the index of the open phase.
type PhaseResponse struct {
	CurrentPhaseIndex uint64 `json:"current_phase_index"`
}

// CommitmentResponse returns a stored commitment hash. Absence is an HTTP
// 404, never a zero hash.
type CommitmentResponse struct {
	PhaseIndex     uint64                    `json:"phase_index"`
	Participant    interfaces.Address        `json:"participant"`
	CommitmentHash interfaces.CommitmentHash `json:"commitment_hash"`
}

// CountResponse reports a phase's registrant count. Phases that do not
// exist yet report zero.
type CountResponse struct {
	PhaseIndex      uint64 `json:"phase_index"`
	RegistrantCount uint64 `json:"registrant_count"`
}

// TreasuryResponse reports the cumulative amount forwarded to the treasury.
type TreasuryResponse struct {
	Treasury       interfaces.Address `json:"treasury"`
	TotalForwarded string             `json:"total_forwarded"`
}

// ErrorResponse is the JSON body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
}
