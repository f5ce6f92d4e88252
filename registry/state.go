package registry

import (
	"time"

	"github.com/amaracantik180418/code-wiz-2000/interfaces"
)

// phase is the mutable record of one registration epoch. A phase accepts
// commitments only while it is the current phase and not sealed; sealing is
// one-way and freezes the commitment set forever.
type phase struct {
	index          uint64
	startTimestamp time.Time
	sealed         bool
	commitments    map[interfaces.Address]*interfaces.CommitmentRecord
}

func newPhase(index uint64, start time.Time) *phase {
	return &phase{
		index:          index,
		startTimestamp: start,
		commitments:    make(map[interfaces.Address]*interfaces.CommitmentRecord),
	}
}

func (p *phase) info() interfaces.PhaseInfo {
	return interfaces.PhaseInfo{
		Index:           p.index,
		StartTimestamp:  p.startTimestamp,
		Sealed:          p.sealed,
		RegistrantCount: uint64(len(p.commitments)),
	}
}
