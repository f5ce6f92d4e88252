package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/amaracantik180418/code-wiz-2000/api"
	"github.com/amaracantik180418/code-wiz-2000/interfaces"
	"github.com/amaracantik180418/code-wiz-2000/metrics"
	"github.com/amaracantik180418/code-wiz-2000/registry"
)

// Prometheus collectors register globally, so the whole test binary shares
// one set.
var testMetrics = metrics.NewRegistryMetrics("registry_test")

var (
	testTreasury   = testAddr(0xaa)
	testController = testAddr(0xcc)
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testAddr(b byte) interfaces.Address {
	var addr interfaces.Address
	for i := range addr {
		addr[i] = b
	}
	return addr
}

func testHash(b byte) interfaces.CommitmentHash {
	var h interfaces.CommitmentHash
	for i := range h {
		h[i] = b
	}
	return h
}

// signalStore records snapshot writes and signals each one, so tests can
// wait for the handler's background persistence.
type signalStore struct {
	mu     sync.Mutex
	stored map[interfaces.SnapshotLabel][]byte
	writes chan interfaces.SnapshotLabel
}

func newSignalStore() *signalStore {
	return &signalStore{
		stored: make(map[interfaces.SnapshotLabel][]byte),
		writes: make(chan interfaces.SnapshotLabel, 16),
	}
}

func (s *signalStore) Fetch(ctx context.Context, label interfaces.SnapshotLabel) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.stored[label]
	if !ok {
		return nil, interfaces.ErrSnapshotNotFound
	}
	return data, nil
}

func (s *signalStore) Store(ctx context.Context, label interfaces.SnapshotLabel, data []byte) error {
	s.mu.Lock()
	s.stored[label] = data
	s.mu.Unlock()
	s.writes <- label
	return nil
}

func (s *signalStore) LocationURI() string { return "test://signal" }

func (s *signalStore) waitForWrite(t *testing.T) interfaces.SnapshotLabel {
	t.Helper()
	select {
	case label := <-s.writes:
		return label
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for snapshot write")
		return ""
	}
}

type testSetup struct {
	engine *registry.PhasedRegistry
	sink   *registry.LedgerSink
	store  *signalStore
	ts     *httptest.Server
}

func newTestSetup(t *testing.T, fee int64, duration time.Duration, store *signalStore) *testSetup {
	t.Helper()

	sink := registry.NewLedgerSink(testLogger())
	engine, err := registry.NewPhasedRegistry(interfaces.RegistryConfig{
		Treasury:        testTreasury,
		Controller:      testController,
		PhaseDuration:   duration,
		RegistrationFee: big.NewInt(fee),
	}, sink, testLogger())
	require.NoError(t, err)

	var snapStore interfaces.SnapshotStore
	if store != nil {
		snapStore = store
	}
	handler := NewHandler(engine, snapStore, testMetrics, testLogger())

	srv, err := New(&HTTPServerConfig{
		ListenAddr:               "127.0.0.1:0",
		Log:                      testLogger(),
		DrainDuration:            time.Millisecond,
		GracefulShutdownDuration: time.Second,
	}, handler)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.getRouter())
	t.Cleanup(ts.Close)

	return &testSetup{engine: engine, sink: sink, store: store, ts: ts}
}

func (s *testSetup) postJSON(t *testing.T, path string, body interface{}) *http.Response {
	t.Helper()
	encoded, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(s.ts.URL+path, "application/json", bytes.NewReader(encoded))
	require.NoError(t, err)
	return resp
}

func (s *testSetup) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(s.ts.URL + path)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func registerBody(participant interfaces.Address, commitment interfaces.CommitmentHash, paid string) api.RegisterRequest {
	return api.RegisterRequest{
		Participant:    participant,
		CommitmentHash: commitment,
		PaidAmount:     paid,
	}
}

func TestHandleRegister(t *testing.T) {
	s := newTestSetup(t, 100, time.Hour, nil)
	participant := testAddr(0x01)
	commitment := testHash(0x11)

	resp := s.postJSON(t, api.RegisterPath, registerBody(participant, commitment, "100"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[api.RegisterResponse](t, resp)
	require.Equal(t, participant, body.Participant)
	require.Equal(t, commitment, body.CommitmentHash)
	require.Equal(t, uint64(0), body.PhaseIndex)
	require.Equal(t, "100", body.PaidAmount)

	require.Equal(t, int64(100), s.sink.TotalFor(testTreasury).Int64())
}

func TestHandleRegisterRejections(t *testing.T) {
	s := newTestSetup(t, 100, time.Hour, nil)
	participant := testAddr(0x01)

	resp := s.postJSON(t, api.RegisterPath, registerBody(participant, testHash(0x11), "99"))
	require.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
	resp.Body.Close()

	resp = s.postJSON(t, api.RegisterPath, registerBody(participant, testHash(0x11), "-5"))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = s.postJSON(t, api.RegisterPath, registerBody(participant, testHash(0x11), "not-a-number"))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = s.postJSON(t, api.RegisterPath, registerBody(participant, testHash(0x11), "100"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = s.postJSON(t, api.RegisterPath, registerBody(participant, testHash(0x22), "100"))
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	errBody := decodeBody[api.ErrorResponse](t, resp)
	require.NotEmpty(t, errBody.Error)

	// Only the one accepted registration collected a fee.
	require.Equal(t, int64(100), s.sink.TotalFor(testTreasury).Int64())
}

func TestHandleRegisterMalformedBody(t *testing.T) {
	s := newTestSetup(t, 100, time.Hour, nil)

	resp, err := http.Post(s.ts.URL+api.RegisterPath, "application/json", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestHandleSeal(t *testing.T) {
	s := newTestSetup(t, 100, 0, nil)

	resp := s.postJSON(t, api.SealPath, api.SealRequest{Caller: testAddr(0x01)})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = s.postJSON(t, api.SealPath, api.SealRequest{Caller: testController})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[api.SealResponse](t, resp)
	require.Equal(t, uint64(0), body.SealedIndex)
	require.Equal(t, uint64(1), body.NextIndex)

	phase := decodeBody[api.PhaseResponse](t, s.get(t, api.PhasePath))
	require.Equal(t, uint64(1), phase.CurrentPhaseIndex)
}

func TestHandleSealNotYetDue(t *testing.T) {
	s := newTestSetup(t, 100, time.Hour, nil)

	resp := s.postJSON(t, api.SealPath, api.SealRequest{Caller: testController})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	phase := decodeBody[api.PhaseResponse](t, s.get(t, api.PhasePath))
	require.Equal(t, uint64(0), phase.CurrentPhaseIndex)
}

func TestHandleCommitment(t *testing.T) {
	s := newTestSetup(t, 100, time.Hour, nil)
	participant := testAddr(0x01)
	commitment := testHash(0x11)

	resp := s.postJSON(t, api.RegisterPath, registerBody(participant, commitment, "100"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = s.get(t, "/api/registry/phases/0/commitments/"+participant.String())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[api.CommitmentResponse](t, resp)
	require.Equal(t, commitment, body.CommitmentHash)
	require.Equal(t, uint64(0), body.PhaseIndex)

	// Unknown participant, unknown phase, malformed parameters.
	resp = s.get(t, "/api/registry/phases/0/commitments/"+testAddr(0x02).String())
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = s.get(t, "/api/registry/phases/9/commitments/"+participant.String())
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = s.get(t, "/api/registry/phases/abc/commitments/"+participant.String())
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = s.get(t, "/api/registry/phases/0/commitments/nothex")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestHandleCount(t *testing.T) {
	s := newTestSetup(t, 100, time.Hour, nil)

	for i := 0; i < 3; i++ {
		resp := s.postJSON(t, api.RegisterPath, registerBody(testAddr(byte(i+1)), testHash(byte(i+1)), "100"))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	body := decodeBody[api.CountResponse](t, s.get(t, "/api/registry/phases/0/registrants"))
	require.Equal(t, uint64(3), body.RegistrantCount)

	// Phases that do not exist yet read as empty.
	body = decodeBody[api.CountResponse](t, s.get(t, "/api/registry/phases/5/registrants"))
	require.Equal(t, uint64(0), body.RegistrantCount)
}

func TestHandleTreasury(t *testing.T) {
	s := newTestSetup(t, 100, time.Hour, nil)

	body := decodeBody[api.TreasuryResponse](t, s.get(t, api.TreasuryPath))
	require.Equal(t, testTreasury, body.Treasury)
	require.Equal(t, "0", body.TotalForwarded)

	resp := s.postJSON(t, api.RegisterPath, registerBody(testAddr(0x01), testHash(0x11), "100"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	body = decodeBody[api.TreasuryResponse](t, s.get(t, api.TreasuryPath))
	require.Equal(t, "100", body.TotalForwarded)
}

func TestSnapshotPersistence(t *testing.T) {
	store := newSignalStore()
	s := newTestSetup(t, 100, 0, store)

	resp := s.postJSON(t, api.RegisterPath, registerBody(testAddr(0x01), testHash(0x11), "100"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	require.Equal(t, interfaces.SnapshotLatest, store.waitForWrite(t))

	resp = s.postJSON(t, api.SealPath, api.SealRequest{Caller: testController})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Sealing archives the phase label first, then refreshes latest.
	require.Equal(t, interfaces.PhaseSnapshotLabel(0), store.waitForWrite(t))
	require.Equal(t, interfaces.SnapshotLatest, store.waitForWrite(t))

	// The archived snapshot restores into a working registry.
	data, err := store.Fetch(context.Background(), interfaces.SnapshotLatest)
	require.NoError(t, err)

	sink := registry.NewLedgerSink(testLogger())
	restored, err := registry.NewPhasedRegistry(interfaces.RegistryConfig{
		Treasury:        testTreasury,
		Controller:      testController,
		RegistrationFee: big.NewInt(100),
	}, sink, testLogger())
	require.NoError(t, err)
	require.NoError(t, restored.RestoreSnapshot(data))

	index, err := restored.CurrentPhaseIndex()
	require.NoError(t, err)
	require.Equal(t, uint64(1), index)
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestSetup(t, 100, time.Hour, nil)

	resp := s.get(t, "/livez")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = s.get(t, "/readyz")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = s.get(t, "/drain")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = s.get(t, "/readyz")
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	resp.Body.Close()

	resp = s.get(t, "/undrain")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = s.get(t, "/readyz")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}
