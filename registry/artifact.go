package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Artifact is the compiled interface of the registry contract: its ABI and
// creation bytecode. Compilation happens outside this project; the artifact
// file is produced by solc or a hardhat-style toolchain.
type Artifact struct {
	ABI      abi.ABI
	Bytecode []byte
}

// rawArtifact covers both solc combined-json ("abi"/"bin") and
// hardhat-style ("abi"/"bytecode") artifact layouts.
type rawArtifact struct {
	ABI      json.RawMessage `json:"abi"`
	Bytecode string          `json:"bytecode"`
	Bin      string          `json:"bin"`
}

// LoadArtifact reads and parses a contract artifact file.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read artifact file: %w", err)
	}
	return ParseArtifact(data)
}

// ParseArtifact parses a JSON contract artifact. The bytecode may be empty
// for artifacts only used to talk to an already deployed contract.
func ParseArtifact(data []byte) (*Artifact, error) {
	var raw rawArtifact
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("could not parse artifact JSON: %w", err)
	}

	if len(raw.ABI) == 0 {
		return nil, errors.New("artifact has no abi field")
	}

	parsedABI, err := abi.JSON(strings.NewReader(string(raw.ABI)))
	if err != nil {
		return nil, fmt.Errorf("could not parse contract ABI: %w", err)
	}

	bytecodeHex := raw.Bytecode
	if bytecodeHex == "" {
		bytecodeHex = raw.Bin
	}

	artifact := &Artifact{ABI: parsedABI}
	if bytecodeHex != "" {
		artifact.Bytecode = common.FromHex(bytecodeHex)
		if len(artifact.Bytecode) == 0 {
			return nil, errors.New("artifact bytecode is not valid hex")
		}
	}

	return artifact, nil
}
