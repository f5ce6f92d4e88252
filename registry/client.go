package registry

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/amaracantik180418/code-wiz-2000/interfaces"
)

// ErrNoTransactOpts is returned when a transaction is attempted without
// first setting transaction options.
var ErrNoTransactOpts = errors.New("no authorized transactor available")

// ErrNoBytecode is returned when deployment is attempted from an artifact
// that carries no creation bytecode.
var ErrNoBytecode = errors.New("artifact has no creation bytecode")

// OnchainRegistryClient implements interfaces.OnchainRegistry against a
// deployed registry contract. It binds the contract through its artifact
// ABI; state-changing calls require transaction options set up front.
type OnchainRegistryClient struct {
	contract *bind.BoundContract
	artifact *Artifact
	client   bind.ContractBackend
	address  common.Address
	auth     *bind.TransactOpts
}

// NewOnchainRegistryClient creates a client for the registry contract at
// the given address.
func NewOnchainRegistryClient(client bind.ContractBackend, artifact *Artifact, address common.Address) (*OnchainRegistryClient, error) {
	if artifact == nil {
		return nil, errors.New("contract artifact is required")
	}

	contract := bind.NewBoundContract(address, artifact.ABI, client, client, client)

	return &OnchainRegistryClient{
		contract: contract,
		artifact: artifact,
		client:   client,
		address:  address,
	}, nil
}

// SetTransactOpts sets the transaction options required for functions that
// modify state. This must be called before RegisterCommitment or
// SealCurrentPhase.
func (c *OnchainRegistryClient) SetTransactOpts(auth *bind.TransactOpts) {
	c.auth = auth
}

// Address returns the contract address this client is bound to.
func (c *OnchainRegistryClient) Address() common.Address {
	return c.address
}

// RegisterCommitment submits the commitment with the exact registration fee
// attached as transaction value. The contract reverts on anything but the
// exact fee, so the fee is read from the contract rather than supplied by
// the caller.
func (c *OnchainRegistryClient) RegisterCommitment(commitment interfaces.CommitmentHash) (*types.Transaction, error) {
	if c.auth == nil {
		return nil, ErrNoTransactOpts
	}

	fee, err := c.RegistrationFee()
	if err != nil {
		return nil, fmt.Errorf("could not read registration fee: %w", err)
	}

	opts := *c.auth
	opts.Value = fee

	return c.contract.Transact(&opts, "registerCommitment", [32]byte(commitment))
}

// SealCurrentPhase submits the seal transaction. The contract enforces the
// controller and duration preconditions.
func (c *OnchainRegistryClient) SealCurrentPhase() (*types.Transaction, error) {
	if c.auth == nil {
		return nil, ErrNoTransactOpts
	}

	return c.contract.Transact(c.auth, "sealCurrentPhase")
}

// GetCommitment reads the stored hash for a participant in a phase. The
// second result reports presence as returned by the contract.
func (c *OnchainRegistryClient) GetCommitment(phaseIndex uint64, participant interfaces.Address) (interfaces.CommitmentHash, bool, error) {
	opts := &bind.CallOpts{Context: context.Background()}

	var out []interface{}
	err := c.contract.Call(opts, &out, "getCommitment", new(big.Int).SetUint64(phaseIndex), common.Address(participant))
	if err != nil {
		return interfaces.CommitmentHash{}, false, err
	}
	if len(out) != 2 {
		return interfaces.CommitmentHash{}, false, fmt.Errorf("unexpected getCommitment result arity %d", len(out))
	}

	hash, ok := out[0].([32]byte)
	if !ok {
		return interfaces.CommitmentHash{}, false, errors.New("unexpected getCommitment hash type")
	}
	present, ok := out[1].(bool)
	if !ok {
		return interfaces.CommitmentHash{}, false, errors.New("unexpected getCommitment presence type")
	}

	return interfaces.CommitmentHash(hash), present, nil
}

// CurrentPhaseIndex reads the index of the open phase.
func (c *OnchainRegistryClient) CurrentPhaseIndex() (uint64, error) {
	opts := &bind.CallOpts{Context: context.Background()}

	var out []interface{}
	if err := c.contract.Call(opts, &out, "currentPhaseIndex"); err != nil {
		return 0, err
	}
	if len(out) != 1 {
		return 0, fmt.Errorf("unexpected currentPhaseIndex result arity %d", len(out))
	}

	index, ok := out[0].(*big.Int)
	if !ok {
		return 0, errors.New("unexpected currentPhaseIndex result type")
	}
	return index.Uint64(), nil
}

// PhaseRegistrantCount reads the number of commitments in a phase. The
// contract returns 0 for phases that do not exist yet.
func (c *OnchainRegistryClient) PhaseRegistrantCount(phaseIndex uint64) (uint64, error) {
	opts := &bind.CallOpts{Context: context.Background()}

	var out []interface{}
	if err := c.contract.Call(opts, &out, "getPhaseRegistrantCount", new(big.Int).SetUint64(phaseIndex)); err != nil {
		return 0, err
	}
	if len(out) != 1 {
		return 0, fmt.Errorf("unexpected getPhaseRegistrantCount result arity %d", len(out))
	}

	count, ok := out[0].(*big.Int)
	if !ok {
		return 0, errors.New("unexpected getPhaseRegistrantCount result type")
	}
	return count.Uint64(), nil
}

// RegistrationFee reads the exact payment the contract requires per
// commitment.
func (c *OnchainRegistryClient) RegistrationFee() (*big.Int, error) {
	opts := &bind.CallOpts{Context: context.Background()}

	var out []interface{}
	if err := c.contract.Call(opts, &out, "registrationFee"); err != nil {
		return nil, err
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("unexpected registrationFee result arity %d", len(out))
	}

	fee, ok := out[0].(*big.Int)
	if !ok {
		return nil, errors.New("unexpected registrationFee result type")
	}
	return fee, nil
}

// DeployRegistry deploys the registry contract with its three creation-time
// configuration values and returns a client bound to the new address. The
// deployer becomes the controller.
func DeployRegistry(auth *bind.TransactOpts, backend bind.ContractBackend, artifact *Artifact, treasury common.Address, phaseDurationSeconds uint64, registrationFee *big.Int) (common.Address, *types.Transaction, *OnchainRegistryClient, error) {
	if artifact == nil || len(artifact.Bytecode) == 0 {
		return common.Address{}, nil, nil, ErrNoBytecode
	}

	address, tx, _, err := bind.DeployContract(auth, artifact.ABI, artifact.Bytecode, backend,
		treasury, new(big.Int).SetUint64(phaseDurationSeconds), registrationFee)
	if err != nil {
		return common.Address{}, nil, nil, fmt.Errorf("could not deploy registry contract: %w", err)
	}

	client, err := NewOnchainRegistryClient(backend, artifact, address)
	if err != nil {
		return common.Address{}, nil, nil, err
	}
	client.SetTransactOpts(auth)

	return address, tx, client, nil
}

// RegistryFactory creates OnchainRegistry clients for different contract
// addresses sharing one backend and artifact.
type RegistryFactory struct {
	client   bind.ContractBackend
	artifact *Artifact
}

// NewRegistryFactory creates a new factory for registry clients.
func NewRegistryFactory(client bind.ContractBackend, artifact *Artifact) *RegistryFactory {
	return &RegistryFactory{client: client, artifact: artifact}
}

// RegistryFor returns an OnchainRegistry client for the given contract
// address.
func (f *RegistryFactory) RegistryFor(address interfaces.Address) (interfaces.OnchainRegistry, error) {
	return NewOnchainRegistryClient(f.client, f.artifact, common.Address(address))
}
