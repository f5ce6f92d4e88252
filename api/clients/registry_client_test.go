package clients

import (
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/amaracantik180418/code-wiz-2000/api"
	"github.com/amaracantik180418/code-wiz-2000/interfaces"
)

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

// fakeServer serves canned registry API responses for client tests.
func fakeServer(t *testing.T) (*httptest.Server, *RegistryClient) {
	t.Helper()

	registered := testAddr(0x01)
	commitment := testHash(0x11)

	mux := chi.NewRouter()
	mux.Post(api.RegisterPath, func(w http.ResponseWriter, r *http.Request) {
		var req api.RegisterRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		if req.PaidAmount != "100" {
			w.WriteHeader(http.StatusPaymentRequired)
			json.NewEncoder(w).Encode(api.ErrorResponse{Error: "paid amount does not match the registration fee"})
			return
		}
		json.NewEncoder(w).Encode(api.RegisterResponse{
			Participant:    req.Participant,
			CommitmentHash: req.CommitmentHash,
			PhaseIndex:     2,
			PaidAmount:     req.PaidAmount,
		})
	})
	mux.Post(api.SealPath, func(w http.ResponseWriter, r *http.Request) {
		var req api.SealRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		if !req.Caller.Equal(testAddr(0xcc)) {
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(api.ErrorResponse{Error: "caller is not the controller"})
			return
		}
		json.NewEncoder(w).Encode(api.SealResponse{SealedIndex: 2, NextIndex: 3})
	})
	mux.Get(api.PhasePath, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(api.PhaseResponse{CurrentPhaseIndex: 2})
	})
	mux.Get(api.CommitmentPath, func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "participant") != registered.String() {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(api.ErrorResponse{Error: "no commitment for participant in this phase"})
			return
		}
		json.NewEncoder(w).Encode(api.CommitmentResponse{
			PhaseIndex:     2,
			Participant:    registered,
			CommitmentHash: commitment,
		})
	})
	mux.Get(api.CountPath, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(api.CountResponse{PhaseIndex: 2, RegistrantCount: 7})
	})
	mux.Get(api.TreasuryPath, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(api.TreasuryResponse{Treasury: testAddr(0xaa), TotalForwarded: "700"})
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	return ts, &RegistryClient{ServerAddr: ts.URL}
}

func TestClientRegisterCommitment(t *testing.T) {
	_, client := fakeServer(t)

	resp, err := client.RegisterCommitment(testAddr(0x01), testHash(0x11), big.NewInt(100))
	require.NoError(t, err)
	require.Equal(t, uint64(2), resp.PhaseIndex)
	require.Equal(t, testHash(0x11), resp.CommitmentHash)

	_, err = client.RegisterCommitment(testAddr(0x01), testHash(0x11), big.NewInt(99))
	require.Error(t, err)

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	require.Equal(t, http.StatusPaymentRequired, reqErr.StatusCode)
	require.Contains(t, reqErr.Message, "registration fee")
}

func TestClientSealCurrentPhase(t *testing.T) {
	_, client := fakeServer(t)

	resp, err := client.SealCurrentPhase(testAddr(0xcc))
	require.NoError(t, err)
	require.Equal(t, uint64(2), resp.SealedIndex)
	require.Equal(t, uint64(3), resp.NextIndex)

	_, err = client.SealCurrentPhase(testAddr(0x01))
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	require.Equal(t, http.StatusForbidden, reqErr.StatusCode)
}

func TestClientReads(t *testing.T) {
	_, client := fakeServer(t)

	index, err := client.CurrentPhaseIndex()
	require.NoError(t, err)
	require.Equal(t, uint64(2), index)

	hash, present, err := client.GetCommitment(2, testAddr(0x01))
	require.NoError(t, err)
	require.True(t, present)
	require.Equal(t, testHash(0x11), hash)

	// A 404 means absent, not failed.
	_, present, err = client.GetCommitment(2, testAddr(0x09))
	require.NoError(t, err)
	require.False(t, present)

	count, err := client.PhaseRegistrantCount(2)
	require.NoError(t, err)
	require.Equal(t, uint64(7), count)

	treasury, err := client.TreasuryTotal()
	require.NoError(t, err)
	require.Equal(t, testAddr(0xaa), treasury.Treasury)
	require.Equal(t, "700", treasury.TotalForwarded)
}

func TestClientServerUnreachable(t *testing.T) {
	client := &RegistryClient{ServerAddr: "http://127.0.0.1:0"}

	_, err := client.CurrentPhaseIndex()
	require.Error(t, err)
}
