package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/urfave/cli/v2"

	"github.com/amaracantik180418/code-wiz-2000/cmd/flags"
	"github.com/amaracantik180418/code-wiz-2000/interfaces"
	"github.com/amaracantik180418/code-wiz-2000/registry"
)

var flagCommitment = &cli.StringFlag{
	Name:     "commitment",
	Required: true,
	Usage:    "Commitment hash to register. 64-char hex string, 0x prefix optional",
}

var flagPhase = &cli.Uint64Flag{
	Name:  "phase",
	Value: 0,
	Usage: "Phase index to query",
}

var flagParticipant = &cli.StringFlag{
	Name:     "participant",
	Required: true,
	Usage:    "Participant address to query. 40-char hex string",
}

var flagTreasury = &cli.StringFlag{
	Name:     "treasury",
	Required: true,
	Usage:    "Treasury address receiving all registration fees",
}

var flagPhaseDuration = &cli.Uint64Flag{
	Name:  "phase-duration-seconds",
	Value: 259200,
	Usage: "Minimum seconds a phase must stay open before sealing",
}

var flagRegistrationFee = &cli.StringFlag{
	Name:  "registration-fee",
	Value: "1000000000000000",
	Usage: "Exact fee per commitment, decimal, in the smallest native unit",
}

func main() {
	app := &cli.App{
		Name:  "registry-client",
		Usage: "Deploy and interact with the phased commitment registry contract",
		Flags: []cli.Flag{
			flags.RPCAddrFlag,
			flags.ArtifactFlag,
			flags.PrivateKeyFlag,
			flags.ChainIDFlag,
		},
		Commands: []*cli.Command{
			{
				Name:  "deploy",
				Usage: "Deploy a new registry contract; the deployer becomes controller",
				Flags: []cli.Flag{
					flagTreasury,
					flagPhaseDuration,
					flagRegistrationFee,
				},
				Action: func(cCtx *cli.Context) error {
					c, err := newClient(cCtx, true)
					if err != nil {
						return err
					}
					return c.Deploy(cCtx)
				},
			},
			{
				Name:  "register",
				Usage: "Register a commitment in the current phase, paying the exact fee",
				Flags: []cli.Flag{
					flags.ContractAddrFlag,
					flagCommitment,
				},
				Action: func(cCtx *cli.Context) error {
					c, err := newClient(cCtx, true)
					if err != nil {
						return err
					}
					return c.Register(cCtx)
				},
			},
			{
				Name:  "seal",
				Usage: "Seal the current phase and open the next (controller only)",
				Flags: []cli.Flag{
					flags.ContractAddrFlag,
				},
				Action: func(cCtx *cli.Context) error {
					c, err := newClient(cCtx, true)
					if err != nil {
						return err
					}
					return c.Seal(cCtx)
				},
			},
			{
				Name:  "phase",
				Usage: "Print the current phase index",
				Flags: []cli.Flag{
					flags.ContractAddrFlag,
				},
				Action: func(cCtx *cli.Context) error {
					c, err := newClient(cCtx, false)
					if err != nil {
						return err
					}
					return c.Phase(cCtx)
				},
			},
			{
				Name:  "commitment",
				Usage: "Print a participant's commitment hash in a phase",
				Flags: []cli.Flag{
					flags.ContractAddrFlag,
					flagPhase,
					flagParticipant,
				},
				Action: func(cCtx *cli.Context) error {
					c, err := newClient(cCtx, false)
					if err != nil {
						return err
					}
					return c.Commitment(cCtx)
				},
			},
			{
				Name:  "count",
				Usage: "Print a phase's registrant count",
				Flags: []cli.Flag{
					flags.ContractAddrFlag,
					flagPhase,
				},
				Action: func(cCtx *cli.Context) error {
					c, err := newClient(cCtx, false)
					if err != nil {
						return err
					}
					return c.Count(cCtx)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// Client bundles the RPC connection, the contract artifact and the signing
// identity for one invocation.
type Client struct {
	eth      *ethclient.Client
	artifact *registry.Artifact
	auth     *bind.TransactOpts
}

func newClient(cCtx *cli.Context, needSigner bool) (*Client, error) {
	eth, err := ethclient.Dial(cCtx.String(flags.RPCAddrFlag.Name))
	if err != nil {
		return nil, fmt.Errorf("could not dial RPC: %w", err)
	}

	artifact, err := registry.LoadArtifact(cCtx.String(flags.ArtifactFlag.Name))
	if err != nil {
		return nil, fmt.Errorf("could not load contract artifact: %w", err)
	}

	c := &Client{eth: eth, artifact: artifact}

	if needSigner {
		keyHex := cCtx.String(flags.PrivateKeyFlag.Name)
		if keyHex == "" {
			return nil, fmt.Errorf("private-key is required for this command")
		}

		key, err := crypto.HexToECDSA(keyHex)
		if err != nil {
			return nil, fmt.Errorf("could not parse private key: %w", err)
		}

		auth, err := bind.NewKeyedTransactorWithChainID(key, big.NewInt(cCtx.Int64(flags.ChainIDFlag.Name)))
		if err != nil {
			return nil, fmt.Errorf("could not create transactor: %w", err)
		}
		c.auth = auth
	}

	return c, nil
}

func (c *Client) registryFor(cCtx *cli.Context) (*registry.OnchainRegistryClient, error) {
	addr, err := interfaces.NewAddressFromHex(cCtx.String(flags.ContractAddrFlag.Name))
	if err != nil {
		return nil, fmt.Errorf("could not parse registry contract address: %w", err)
	}

	client, err := registry.NewOnchainRegistryClient(c.eth, c.artifact, common.Address(addr))
	if err != nil {
		return nil, err
	}
	if c.auth != nil {
		client.SetTransactOpts(c.auth)
	}
	return client, nil
}

// Deploy creates a new registry contract and waits for it to be mined.
func (c *Client) Deploy(cCtx *cli.Context) error {
	treasury, err := interfaces.NewAddressFromHex(cCtx.String(flagTreasury.Name))
	if err != nil {
		return fmt.Errorf("could not parse treasury address: %w", err)
	}

	fee, ok := new(big.Int).SetString(cCtx.String(flagRegistrationFee.Name), 10)
	if !ok || fee.Sign() < 0 {
		return fmt.Errorf("registration-fee must be a non-negative decimal integer")
	}

	address, tx, _, err := registry.DeployRegistry(c.auth, c.eth, c.artifact,
		common.Address(treasury), cCtx.Uint64(flagPhaseDuration.Name), fee)
	if err != nil {
		return err
	}

	if _, err := bind.WaitDeployed(context.Background(), c.eth, tx); err != nil {
		return fmt.Errorf("deployment not mined: %w", err)
	}

	printJSON(map[string]string{
		"contract_address": address.Hex(),
		"transaction":      tx.Hash().Hex(),
		"controller":       c.auth.From.Hex(),
	})
	return nil
}

// Register submits a commitment with the exact fee attached and waits for
// the receipt.
func (c *Client) Register(cCtx *cli.Context) error {
	reg, err := c.registryFor(cCtx)
	if err != nil {
		return err
	}

	commitment, err := interfaces.NewCommitmentHashFromHex(cCtx.String(flagCommitment.Name))
	if err != nil {
		return fmt.Errorf("could not parse commitment hash: %w", err)
	}

	tx, err := reg.RegisterCommitment(commitment)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	receipt, err := bind.WaitMined(context.Background(), c.eth, tx)
	if err != nil {
		return fmt.Errorf("registration not mined: %w", err)
	}
	if receipt.Status != 1 {
		return fmt.Errorf("registration transaction reverted: %s", tx.Hash().Hex())
	}

	printJSON(map[string]string{
		"transaction": tx.Hash().Hex(),
		"participant": c.auth.From.Hex(),
		"commitment":  commitment.String(),
	})
	return nil
}

// Seal closes the current phase and waits for the receipt.
func (c *Client) Seal(cCtx *cli.Context) error {
	reg, err := c.registryFor(cCtx)
	if err != nil {
		return err
	}

	tx, err := reg.SealCurrentPhase()
	if err != nil {
		return fmt.Errorf("seal failed: %w", err)
	}

	receipt, err := bind.WaitMined(context.Background(), c.eth, tx)
	if err != nil {
		return fmt.Errorf("seal not mined: %w", err)
	}
	if receipt.Status != 1 {
		return fmt.Errorf("seal transaction reverted: %s", tx.Hash().Hex())
	}

	index, err := reg.CurrentPhaseIndex()
	if err != nil {
		return fmt.Errorf("could not read phase index after seal: %w", err)
	}

	printJSON(map[string]interface{}{
		"transaction":         tx.Hash().Hex(),
		"current_phase_index": index,
	})
	return nil
}

// Phase prints the current phase index.
func (c *Client) Phase(cCtx *cli.Context) error {
	reg, err := c.registryFor(cCtx)
	if err != nil {
		return err
	}

	index, err := reg.CurrentPhaseIndex()
	if err != nil {
		return fmt.Errorf("phase query failed: %w", err)
	}

	printJSON(map[string]interface{}{"current_phase_index": index})
	return nil
}

// Commitment prints a participant's stored hash, or reports absence.
func (c *Client) Commitment(cCtx *cli.Context) error {
	reg, err := c.registryFor(cCtx)
	if err != nil {
		return err
	}

	participant, err := interfaces.NewAddressFromHex(cCtx.String(flagParticipant.Name))
	if err != nil {
		return fmt.Errorf("could not parse participant address: %w", err)
	}

	phaseIndex := cCtx.Uint64(flagPhase.Name)
	hash, present, err := reg.GetCommitment(phaseIndex, participant)
	if err != nil {
		return fmt.Errorf("commitment query failed: %w", err)
	}

	out := map[string]interface{}{
		"phase_index": phaseIndex,
		"participant": participant.String(),
		"present":     present,
	}
	if present {
		out["commitment_hash"] = hash.String()
	}
	printJSON(out)
	return nil
}

// Count prints a phase's registrant count.
func (c *Client) Count(cCtx *cli.Context) error {
	reg, err := c.registryFor(cCtx)
	if err != nil {
		return err
	}

	phaseIndex := cCtx.Uint64(flagPhase.Name)
	count, err := reg.PhaseRegistrantCount(phaseIndex)
	if err != nil {
		return fmt.Errorf("count query failed: %w", err)
	}

	printJSON(map[string]interface{}{
		"phase_index":      phaseIndex,
		"registrant_count": count,
	})
	return nil
}

func printJSON(v interface{}) {
	encoded, _ := json.Marshal(v)
	fmt.Println(string(encoded))
}
