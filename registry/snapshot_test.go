package registry

import (
	"context"
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/amaracantik180418/code-wiz-2000/interfaces"
)

func populatedRegistry(t *testing.T) *PhasedRegistry {
	t.Helper()
	r, _ := newTestRegistry(t, 100, 0)

	for phase := 0; phase < 2; phase++ {
		for i := 0; i < 3; i++ {
			_, err := r.RegisterCommitment(testAddr(byte(i+1)), testHash(byte(phase*16+i+1)), big.NewInt(100))
			require.NoError(t, err)
		}
		_, err := r.SealCurrentPhase(testController)
		require.NoError(t, err)
	}
	_, err := r.RegisterCommitment(testAddr(0x01), testHash(0x77), big.NewInt(100))
	require.NoError(t, err)
	return r
}

func TestSnapshotRoundTrip(t *testing.T) {
	r := populatedRegistry(t)

	data, err := r.ExportSnapshot()
	require.NoError(t, err)

	restored, _ := newTestRegistry(t, 100, 0)
	require.NoError(t, restored.RestoreSnapshot(data))

	index, err := restored.CurrentPhaseIndex()
	require.NoError(t, err)
	require.Equal(t, uint64(2), index)

	stored, present, err := restored.GetCommitment(1, testAddr(0x02))
	require.NoError(t, err)
	require.True(t, present)
	require.Equal(t, testHash(0x12), stored)

	count, err := restored.PhaseRegistrantCount(2)
	require.NoError(t, err)
	require.Equal(t, uint64(1), count)

	require.Equal(t, r.TotalForwarded(), restored.TotalForwarded())

	roundTripped, err := restored.ExportSnapshot()
	require.NoError(t, err)
	require.Equal(t, data, roundTripped, "export must be deterministic across a restore")
}

func TestRestoredRegistryKeepsWorking(t *testing.T) {
	r := populatedRegistry(t)
	data, err := r.ExportSnapshot()
	require.NoError(t, err)

	restored, sink := newTestRegistry(t, 100, 0)
	require.NoError(t, restored.RestoreSnapshot(data))

	_, err = restored.RegisterCommitment(testAddr(0x01), testHash(0x88), big.NewInt(100))
	require.ErrorIs(t, err, interfaces.ErrDuplicateRegistration, "restored phase membership must be enforced")

	_, err = restored.RegisterCommitment(testAddr(0x09), testHash(0x99), big.NewInt(100))
	require.NoError(t, err)

	receipt, err := restored.SealCurrentPhase(testController)
	require.NoError(t, err)
	require.Equal(t, uint64(2), receipt.SealedIndex)
	require.Equal(t, uint64(3), receipt.NextIndex)

	// The restored forwarded total keeps growing from where it left off,
	// while the fresh sink only saw the post-restore registration.
	require.Equal(t, int64(800), restored.TotalForwarded().Int64())
	require.Equal(t, int64(100), sink.TotalFor(testTreasury).Int64())
}

func TestRestoreSnapshotRejectsInvalid(t *testing.T) {
	r := populatedRegistry(t)
	valid, err := r.ExportSnapshot()
	require.NoError(t, err)

	mutate := func(t *testing.T, f func(*registrySnapshot)) []byte {
		t.Helper()
		var snap registrySnapshot
		require.NoError(t, json.Unmarshal(valid, &snap))
		f(&snap)
		data, err := json.Marshal(snap)
		require.NoError(t, err)
		return data
	}

	cases := []struct {
		name string
		data []byte
	}{
		{"not json", []byte("not json")},
		{"wrong version", mutate(t, func(s *registrySnapshot) { s.Version = 99 })},
		{"no phases", mutate(t, func(s *registrySnapshot) { s.Phases = nil; s.CurrentPhaseIndex = 0 })},
		{"current index mismatch", mutate(t, func(s *registrySnapshot) { s.CurrentPhaseIndex = 7 })},
		{"gap in indices", mutate(t, func(s *registrySnapshot) { s.Phases[1].Index = 5 })},
		{"current phase sealed", mutate(t, func(s *registrySnapshot) { s.Phases[2].Sealed = true })},
		{"past phase unsealed", mutate(t, func(s *registrySnapshot) { s.Phases[0].Sealed = false })},
		{"bad forwarded total", mutate(t, func(s *registrySnapshot) { s.TotalForwarded = "abc" })},
		{"bad paid amount", mutate(t, func(s *registrySnapshot) { s.Phases[0].Commitments[0].PaidAmount = "xyz" })},
		{"duplicate participant", mutate(t, func(s *registrySnapshot) {
			s.Phases[0].Commitments = append(s.Phases[0].Commitments, s.Phases[0].Commitments[0])
		})},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fresh, _ := newTestRegistry(t, 100, 0)
			require.Error(t, fresh.RestoreSnapshot(tc.data))

			// A failed restore leaves the registry untouched.
			index, err := fresh.CurrentPhaseIndex()
			require.NoError(t, err)
			require.Equal(t, uint64(0), index)
		})
	}
}

type recordingStore struct {
	stored map[interfaces.SnapshotLabel][]byte
}

func newRecordingStore() *recordingStore {
	return &recordingStore{stored: make(map[interfaces.SnapshotLabel][]byte)}
}

func (s *recordingStore) Fetch(ctx context.Context, label interfaces.SnapshotLabel) ([]byte, error) {
	data, ok := s.stored[label]
	if !ok {
		return nil, interfaces.ErrSnapshotNotFound
	}
	return data, nil
}

func (s *recordingStore) Store(ctx context.Context, label interfaces.SnapshotLabel, data []byte) error {
	s.stored[label] = data
	return nil
}

func (s *recordingStore) LocationURI() string { return "test://recording" }

func TestPersistLatest(t *testing.T) {
	r := populatedRegistry(t)
	store := newRecordingStore()

	require.NoError(t, PersistLatest(context.Background(), r, store))

	data, ok := store.stored[interfaces.SnapshotLatest]
	require.True(t, ok)

	restored, _ := newTestRegistry(t, 100, 0)
	require.NoError(t, restored.RestoreSnapshot(data))
}

func TestPersistSealed(t *testing.T) {
	r := populatedRegistry(t)
	store := newRecordingStore()

	require.NoError(t, PersistSealed(context.Background(), r, store, 1))

	archived, ok := store.stored[interfaces.PhaseSnapshotLabel(1)]
	require.True(t, ok)
	latest, ok := store.stored[interfaces.SnapshotLatest]
	require.True(t, ok)
	require.Equal(t, archived, latest)
	require.Equal(t, interfaces.SnapshotLabel("phase-000001"), interfaces.PhaseSnapshotLabel(1))
}

func TestSnapshotTimestampsSurvive(t *testing.T) {
	r, _ := newTestRegistry(t, 100, time.Hour)
	started := time.Now().UTC().Truncate(time.Second)
	r.setClock(func() time.Time { return started })

	// Reopen phase 0 with the pinned clock so the exported timestamp is known.
	r.phases[0].startTimestamp = started

	data, err := r.ExportSnapshot()
	require.NoError(t, err)

	restored, _ := newTestRegistry(t, 100, time.Hour)
	require.NoError(t, restored.RestoreSnapshot(data))

	info, ok := restored.PhaseInfo(0)
	require.True(t, ok)
	require.True(t, info.StartTimestamp.Equal(started))
}
