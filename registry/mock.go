package registry

import (
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/mock"

	"github.com/amaracantik180418/code-wiz-2000/interfaces"
)

// MockRegistry mocks the interfaces.OnchainRegistry interface for tests
// that do not want a blockchain connection.
type MockRegistry struct {
	mock.Mock
}

// RegisterCommitment mocks the RegisterCommitment method.
func (m *MockRegistry) RegisterCommitment(commitment interfaces.CommitmentHash) (*types.Transaction, error) {
	args := m.Called(commitment)
	return args.Get(0).(*types.Transaction), args.Error(1)
}

// SealCurrentPhase mocks the SealCurrentPhase method.
func (m *MockRegistry) SealCurrentPhase() (*types.Transaction, error) {
	args := m.Called()
	return args.Get(0).(*types.Transaction), args.Error(1)
}

// GetCommitment mocks the GetCommitment method.
func (m *MockRegistry) GetCommitment(phaseIndex uint64, participant interfaces.Address) (interfaces.CommitmentHash, bool, error) {
	args := m.Called(phaseIndex, participant)
	return args.Get(0).(interfaces.CommitmentHash), args.Bool(1), args.Error(2)
}

// CurrentPhaseIndex mocks the CurrentPhaseIndex method.
func (m *MockRegistry) CurrentPhaseIndex() (uint64, error) {
	args := m.Called()
	return args.Get(0).(uint64), args.Error(1)
}

// PhaseRegistrantCount mocks the PhaseRegistrantCount method.
func (m *MockRegistry) PhaseRegistrantCount(phaseIndex uint64) (uint64, error) {
	args := m.Called(phaseIndex)
	return args.Get(0).(uint64), args.Error(1)
}

// RegistrationFee mocks the RegistrationFee method.
func (m *MockRegistry) RegistrationFee() (*big.Int, error) {
	args := m.Called()
	return args.Get(0).(*big.Int), args.Error(1)
}

// MockRegistryFactory mocks a factory handing out OnchainRegistry clients.
type MockRegistryFactory struct {
	mock.Mock
}

// RegistryFor mocks the RegistryFor method.
func (m *MockRegistryFactory) RegistryFor(address interfaces.Address) (interfaces.OnchainRegistry, error) {
	args := m.Called(address)
	return args.Get(0).(interfaces.OnchainRegistry), args.Error(1)
}
