package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/amaracantik180418/code-wiz-2000/interfaces"
)

// snapshotVersion guards the wire format of exported snapshots.
const snapshotVersion = 1

type snapshotCommitment struct {
	Participant    interfaces.Address        `json:"participant"`
	CommitmentHash interfaces.CommitmentHash `json:"commitment_hash"`
	PaidAmount     string                    `json:"paid_amount"`
}

type snapshotPhase struct {
	Index          uint64               `json:"index"`
	StartTimestamp time.Time            `json:"start_timestamp"`
	Sealed         bool                 `json:"sealed"`
	Commitments    []snapshotCommitment `json:"commitments"`
}

type registrySnapshot struct {
	Version           int             `json:"version"`
	CurrentPhaseIndex uint64          `json:"current_phase_index"`
	TotalForwarded    string          `json:"total_forwarded"`
	Phases            []snapshotPhase `json:"phases"`
}

// ExportSnapshot serializes the full registry state. The output is
// deterministic for a given state so identical states produce identical
// snapshots.
func (r *PhasedRegistry) ExportSnapshot() ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := registrySnapshot{
		Version:           snapshotVersion,
		CurrentPhaseIndex: r.current,
		TotalForwarded:    r.forwarded.String(),
		Phases:            make([]snapshotPhase, 0, len(r.phases)),
	}

	for _, p := range r.phases {
		sp := snapshotPhase{
			Index:          p.index,
			StartTimestamp: p.startTimestamp,
			Sealed:         p.sealed,
			Commitments:    make([]snapshotCommitment, 0, len(p.commitments)),
		}
		for _, record := range p.commitments {
			sp.Commitments = append(sp.Commitments, snapshotCommitment{
				Participant:    record.Participant,
				CommitmentHash: record.CommitmentHash,
				PaidAmount:     record.PaidAmount.String(),
			})
		}
		sort.Slice(sp.Commitments, func(i, j int) bool {
			return sp.Commitments[i].Participant.String() < sp.Commitments[j].Participant.String()
		})
		snap.Phases = append(snap.Phases, sp)
	}

	return json.Marshal(snap)
}

// RestoreSnapshot replaces the registry state with a previously exported
// snapshot. The snapshot must describe a state the engine itself could have
// produced: contiguous phase indices, every phase but the last sealed, and
// the current index pointing at the last phase.
func (r *PhasedRegistry) RestoreSnapshot(data []byte) error {
	var snap registrySnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("could not parse snapshot: %w", err)
	}

	if snap.Version != snapshotVersion {
		return fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}
	if len(snap.Phases) == 0 {
		return fmt.Errorf("snapshot has no phases")
	}
	if snap.CurrentPhaseIndex != uint64(len(snap.Phases)-1) {
		return fmt.Errorf("snapshot current phase index %d does not match phase count %d", snap.CurrentPhaseIndex, len(snap.Phases))
	}

	forwarded, ok := new(big.Int).SetString(snap.TotalForwarded, 10)
	if !ok {
		return fmt.Errorf("invalid forwarded total %q", snap.TotalForwarded)
	}

	phases := make([]*phase, 0, len(snap.Phases))
	for i, sp := range snap.Phases {
		if sp.Index != uint64(i) {
			return fmt.Errorf("snapshot phase indices are not contiguous: got %d at position %d", sp.Index, i)
		}
		if sp.Sealed == (i == len(snap.Phases)-1) {
			return fmt.Errorf("snapshot phase %d has invalid sealed state", sp.Index)
		}

		p := newPhase(sp.Index, sp.StartTimestamp)
		p.sealed = sp.Sealed
		for _, sc := range sp.Commitments {
			if _, exists := p.commitments[sc.Participant]; exists {
				return fmt.Errorf("snapshot phase %d has duplicate participant %s", sp.Index, sc.Participant)
			}
			paid, ok := new(big.Int).SetString(sc.PaidAmount, 10)
			if !ok {
				return fmt.Errorf("invalid paid amount %q in phase %d", sc.PaidAmount, sp.Index)
			}
			p.commitments[sc.Participant] = &interfaces.CommitmentRecord{
				Participant:    sc.Participant,
				CommitmentHash: sc.CommitmentHash,
				PhaseIndex:     sp.Index,
				PaidAmount:     paid,
			}
		}
		phases = append(phases, p)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.phases = phases
	r.current = snap.CurrentPhaseIndex
	r.forwarded = forwarded

	return nil
}

// PersistLatest writes the current state under the 'latest' label.
func PersistLatest(ctx context.Context, r *PhasedRegistry, store interfaces.SnapshotStore) error {
	data, err := r.ExportSnapshot()
	if err != nil {
		return err
	}
	return store.Store(ctx, interfaces.SnapshotLatest, data)
}

// PersistSealed archives the state under the sealed phase's own label in
// addition to refreshing 'latest'. Sealed phases never change again, so the
// archive is stable from this point on.
func PersistSealed(ctx context.Context, r *PhasedRegistry, store interfaces.SnapshotStore, sealedIndex uint64) error {
	data, err := r.ExportSnapshot()
	if err != nil {
		return err
	}
	if err := store.Store(ctx, interfaces.PhaseSnapshotLabel(sealedIndex), data); err != nil {
		return err
	}
	return store.Store(ctx, interfaces.SnapshotLatest, data)
}
