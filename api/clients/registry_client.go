// Package clients provides HTTP clients for the registry server API.
package clients

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"

	"github.com/stretchr/testify/mock"

	"github.com/amaracantik180418/code-wiz-2000/api"
	"github.com/amaracantik180418/code-wiz-2000/interfaces"
)

// RegistryClient talks to the registry server's HTTP API.
type RegistryClient struct {
	// ServerAddr is the base URL of the registry server.
	ServerAddr string

	// HTTPClient overrides the client used for requests. Defaults to
	// http.DefaultClient.
	HTTPClient *http.Client
}

func (c *RegistryClient) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// RegisterCommitment submits a commitment with the paid amount for the
// current phase.
func (c *RegistryClient) RegisterCommitment(participant interfaces.Address, commitment interfaces.CommitmentHash, paid *big.Int) (*api.RegisterResponse, error) {
	reqBody := api.RegisterRequest{
		Participant:    participant,
		CommitmentHash: commitment,
		PaidAmount:     paid.String(),
	}

	var resp api.RegisterResponse
	if err := c.post(api.RegisterPath, reqBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SealCurrentPhase asks the server to seal the current phase on behalf of
// the caller.
func (c *RegistryClient) SealCurrentPhase(caller interfaces.Address) (*api.SealResponse, error) {
	var resp api.SealResponse
	if err := c.post(api.SealPath, api.SealRequest{Caller: caller}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CurrentPhaseIndex reads the index of the open phase.
func (c *RegistryClient) CurrentPhaseIndex() (uint64, error) {
	var resp api.PhaseResponse
	if err := c.get(api.PhasePath, &resp); err != nil {
		return 0, err
	}
	return resp.CurrentPhaseIndex, nil
}

// GetCommitment reads the stored hash for a participant in a phase. The
// second result is false when the participant never registered there.
func (c *RegistryClient) GetCommitment(phaseIndex uint64, participant interfaces.Address) (interfaces.CommitmentHash, bool, error) {
	path := fmt.Sprintf("/api/registry/phases/%d/commitments/%s", phaseIndex, participant)

	var resp api.CommitmentResponse
	err := c.get(path, &resp)
	if err != nil {
		var reqErr *RequestError
		if errors.As(err, &reqErr) && reqErr.StatusCode == http.StatusNotFound {
			return interfaces.CommitmentHash{}, false, nil
		}
		return interfaces.CommitmentHash{}, false, err
	}
	return resp.CommitmentHash, true, nil
}

// PhaseRegistrantCount reads the registrant count of a phase.
func (c *RegistryClient) PhaseRegistrantCount(phaseIndex uint64) (uint64, error) {
	var resp api.CountResponse
	if err := c.get(fmt.Sprintf("/api/registry/phases/%d/registrants", phaseIndex), &resp); err != nil {
		return 0, err
	}
	return resp.RegistrantCount, nil
}

// TreasuryTotal reads the cumulative amount forwarded to the treasury.
func (c *RegistryClient) TreasuryTotal() (*api.TreasuryResponse, error) {
	var resp api.TreasuryResponse
	if err := c.get(api.TreasuryPath, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RequestError carries the HTTP status and server-provided message of a
// failed API call.
type RequestError struct {
	StatusCode int
	Message    string
}

// Error returns the server-provided message.
func (e *RequestError) Error() string {
	return fmt.Sprintf("registry server returned %d: %s", e.StatusCode, e.Message)
}

func (c *RegistryClient) post(path string, body interface{}, out interface{}) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return err
	}

	resp, err := c.httpClient().Post(c.ServerAddr+path, "application/json", bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("could not request registry server: %w", err)
	}
	defer resp.Body.Close()

	return decodeResponse(resp, out)
}

func (c *RegistryClient) get(path string, out interface{}) error {
	resp, err := c.httpClient().Get(c.ServerAddr + path)
	if err != nil {
		return fmt.Errorf("could not request registry server: %w", err)
	}
	defer resp.Body.Close()

	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out interface{}) error {
	if resp.StatusCode != http.StatusOK {
		bodyBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			return &RequestError{StatusCode: resp.StatusCode, Message: "unreadable error body"}
		}

		var errResp api.ErrorResponse
		if err := json.Unmarshal(bodyBytes, &errResp); err != nil || errResp.Error == "" {
			return &RequestError{StatusCode: resp.StatusCode, Message: string(bodyBytes)}
		}
		return &RequestError{StatusCode: resp.StatusCode, Message: errResp.Error}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("could not parse registry server response: %w", err)
	}
	return nil
}

// MockRegistryClient implements a mock of the client surface for tests of
// code built on top of it.
type MockRegistryClient struct {
	mock.Mock
}

// RegisterCommitment mocks the RegisterCommitment method.
func (m *MockRegistryClient) RegisterCommitment(participant interfaces.Address, commitment interfaces.CommitmentHash, paid *big.Int) (*api.RegisterResponse, error) {
	args := m.Called(participant, commitment, paid)
	return args.Get(0).(*api.RegisterResponse), args.Error(1)
}

// SealCurrentPhase mocks the SealCurrentPhase method.
func (m *MockRegistryClient) SealCurrentPhase(caller interfaces.Address) (*api.SealResponse, error) {
	args := m.Called(caller)
	return args.Get(0).(*api.SealResponse), args.Error(1)
}

// CurrentPhaseIndex mocks the CurrentPhaseIndex method.
func (m *MockRegistryClient) CurrentPhaseIndex() (uint64, error) {
	args := m.Called()
	return args.Get(0).(uint64), args.Error(1)
}

// GetCommitment mocks the GetCommitment method.
func (m *MockRegistryClient) GetCommitment(phaseIndex uint64, participant interfaces.Address) (interfaces.CommitmentHash, bool, error) {
	args := m.Called(phaseIndex, participant)
	return args.Get(0).(interfaces.CommitmentHash), args.Bool(1), args.Error(2)
}

// PhaseRegistrantCount mocks the PhaseRegistrantCount method.
func (m *MockRegistryClient) PhaseRegistrantCount(phaseIndex uint64) (uint64, error) {
	args := m.Called(phaseIndex)
	return args.Get(0).(uint64), args.Error(1)
}
