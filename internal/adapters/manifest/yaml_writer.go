package manifest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"gopkg.in/yaml.v3"

	"github.com/rika-labs/rikadeploy/internal/domain/config"
	"github.com/rika-labs/rikadeploy/internal/domain/models"
	"github.com/rika-labs/rikadeploy/internal/usecase"
)

// Manifest is the address book written after a run
type Manifest struct {
	Network     string     `yaml:"network"`
	ChainID     uint64     `yaml:"chainId"`
	Deployer    string     `yaml:"deployer"`
	RunID       string     `yaml:"runId"`
	GeneratedAt time.Time  `yaml:"generatedAt"`
	Finalized   bool       `yaml:"finalized"`
	Contracts   []Contract `yaml:"contracts"`
	Funding     *Funding   `yaml:"funding,omitempty"`
}

// Contract is one deployed artifact
type Contract struct {
	Artifact        string `yaml:"artifact"`
	Name            string `yaml:"name"`
	Address         string `yaml:"address"`
	TxHash          string `yaml:"txHash"`
	BlockNumber     uint64 `yaml:"blockNumber"`
	ConstructorArgs string `yaml:"constructorArgs,omitempty"`
	Explorer        string `yaml:"explorer,omitempty"`
	Verification    string `yaml:"verification,omitempty"`
}

// Funding is the faucet transfer
type Funding struct {
	From   string `yaml:"from"`
	To     string `yaml:"to"`
	Amount string `yaml:"amount"`
	TxHash string `yaml:"txHash"`
}

// YAMLWriter writes manifests as YAML
type YAMLWriter struct {
	network *config.Network
	log     *slog.Logger
}

// NewYAMLWriter creates a manifest writer for the selected network
func NewYAMLWriter(cfg *config.RuntimeConfig, log *slog.Logger) *YAMLWriter {
	return &YAMLWriter{network: cfg.Network, log: log.With("component", "ManifestWriter")}
}

// Build converts a pipeline state into a manifest
func (w *YAMLWriter) Build(state *models.PipelineState) *Manifest {
	m := &Manifest{
		Network:     state.Network,
		ChainID:     state.ChainID,
		Deployer:    state.Deployer.Hex(),
		RunID:       state.RunID,
		GeneratedAt: time.Now().UTC(),
		Finalized:   state.Finalized(),
		Contracts:   []Contract{},
	}

	for _, rec := range state.Records() {
		if !rec.Resolved() {
			continue
		}
		c := Contract{
			Artifact:    rec.Artifact.String(),
			Name:        rec.ContractName,
			Address:     rec.Address.Hex(),
			TxHash:      rec.TxHash.Hex(),
			BlockNumber: rec.BlockNumber,
			Explorer:    w.network.AddressURL(rec.Address.Hex()),
		}
		if len(rec.EncodedArgs) > 0 {
			c.ConstructorArgs = hexutil.Encode(rec.EncodedArgs)
		}
		if o, ok := state.Outcome(rec.Artifact); ok {
			c.Verification = string(o.Status)
		}
		m.Contracts = append(m.Contracts, c)
	}

	if f := state.Funding(); f != nil {
		m.Funding = &Funding{
			From:   f.Source.String(),
			To:     f.Destination.String(),
			Amount: f.Amount.String(),
			TxHash: f.TxHash.Hex(),
		}
	}
	return m
}

// Write renders the manifest for state to path, creating parent directories
func (w *YAMLWriter) Write(_ context.Context, path string, state *models.PipelineState) error {
	data, err := yaml.Marshal(w.Build(state))
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	w.log.Debug("manifest written", "path", path, "contracts", len(state.Records()))
	return nil
}

var _ usecase.ManifestWriter = (*YAMLWriter)(nil)
