package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ArtifactName identifies a deployable unit inside the pipeline
type ArtifactName string

const (
	ArtifactToken          ArtifactName = "token"
	ArtifactFaucet         ArtifactName = "faucet"
	ArtifactImplementation ArtifactName = "implementation"
	ArtifactFactory        ArtifactName = "factory"
)

func (a ArtifactName) String() string {
	return string(a)
}

// BytecodeObject is the creation bytecode of a build artifact. Foundry
// writes it as {"object": "0x..."}, Hardhat as a plain hex string.
type BytecodeObject struct {
	Object         string         `json:"object"`
	SourceMap      string         `json:"sourceMap,omitempty"`
	LinkReferences map[string]any `json:"linkReferences,omitempty"`
}

// UnmarshalJSON accepts both the object and the string form
func (b *BytecodeObject) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &b.Object)
	}
	type plain BytecodeObject
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*b = BytecodeObject(p)
	return nil
}

// Bytes decodes the hex object
func (b BytecodeObject) Bytes() ([]byte, error) {
	if strings.Contains(b.Object, "__$") {
		return nil, fmt.Errorf("bytecode has unlinked library placeholders")
	}
	code := common.FromHex(b.Object)
	if len(code) == 0 {
		return nil, fmt.Errorf("empty bytecode (abstract contract or interface?)")
	}
	return code, nil
}

// Artifact is a compiled contract ready to be deployed
type Artifact struct {
	Name         string // contract name, e.g. RUSDC
	SourceName   string // source path, e.g. contracts/RUSDC.sol
	Path         string // artifact file on disk
	ABI          abi.ABI
	Bytecode     []byte
	Format       string // foundry or hardhat
	RawMetadata  string
	BuildInfoRef string // hardhat build-info path, resolved relative to Path
}

// FullyQualifiedName returns path:Name as expected by explorers
func (a *Artifact) FullyQualifiedName() string {
	if a.SourceName == "" {
		return a.Name
	}
	return a.SourceName + ":" + a.Name
}

// PackConstructor ABI-encodes constructor arguments. The result is what gets
// appended to the creation bytecode and what explorers expect back.
func (a *Artifact) PackConstructor(args ...any) ([]byte, error) {
	if len(a.ABI.Constructor.Inputs) != len(args) {
		return nil, fmt.Errorf("%s constructor takes %d arguments, got %d",
			a.Name, len(a.ABI.Constructor.Inputs), len(args))
	}
	if len(args) == 0 {
		return []byte{}, nil
	}
	encoded, err := a.ABI.Constructor.Inputs.Pack(args...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s constructor arguments: %w", a.Name, err)
	}
	return encoded, nil
}

// SourceBundle is what an explorer needs to rebuild the bytecode
type SourceBundle struct {
	ContractName    string          // fully qualified
	CompilerVersion string          // v0.8.28+commit.7893614a
	StandardJSON    json.RawMessage // solc standard-json input
}
