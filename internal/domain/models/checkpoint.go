package models

import (
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// CheckpointVersion is bumped when the document layout changes
const CheckpointVersion = 1

// Checkpoint is the durable snapshot of a PipelineState, keyed by chain ID
type Checkpoint struct {
	Version   int                                   `json:"version"`
	RunID     string                                `json:"runId"`
	ChainID   uint64                                `json:"chainId"`
	Network   string                                `json:"network"`
	Deployer  common.Address                        `json:"deployer"`
	StartedAt time.Time                             `json:"startedAt"`
	UpdatedAt time.Time                             `json:"updatedAt"`
	LastStage Stage                                 `json:"lastStage,omitempty"`
	Finalized bool                                  `json:"finalized"`
	Records   []CheckpointRecord                    `json:"records"`
	Funding   *CheckpointFunding                    `json:"funding,omitempty"`
	Outcomes  map[ArtifactName]*VerificationOutcome `json:"verification,omitempty"`
}

// CheckpointRecord is a settled deployment
type CheckpointRecord struct {
	Artifact     ArtifactName   `json:"artifact"`
	ContractName string         `json:"contractName"`
	Address      common.Address `json:"address"`
	TxHash       common.Hash    `json:"txHash"`
	BlockNumber  uint64         `json:"blockNumber"`
	EncodedArgs  hexutil.Bytes  `json:"constructorArgs"`
	DeployedAt   time.Time      `json:"deployedAt"`
}

// CheckpointFunding is the settled faucet transfer
type CheckpointFunding struct {
	Source      ArtifactName `json:"source"`
	Destination ArtifactName `json:"destination"`
	Amount      string       `json:"amount"`
	TxHash      common.Hash  `json:"txHash"`
	BlockNumber uint64       `json:"blockNumber"`
}

// NewCheckpoint snapshots the settled parts of a state. Pending records are
// left out since their transactions were never observed.
func NewCheckpoint(state *PipelineState) *Checkpoint {
	cp := &Checkpoint{
		Version:   CheckpointVersion,
		RunID:     state.RunID,
		ChainID:   state.ChainID,
		Network:   state.Network,
		Deployer:  state.Deployer,
		StartedAt: state.StartedAt,
		UpdatedAt: time.Now().UTC(),
		LastStage: state.LastStage(),
		Finalized: state.Finalized(),
		Records:   []CheckpointRecord{},
		Outcomes:  make(map[ArtifactName]*VerificationOutcome),
	}
	for _, rec := range state.Records() {
		if !rec.Resolved() {
			continue
		}
		cp.Records = append(cp.Records, CheckpointRecord{
			Artifact:     rec.Artifact,
			ContractName: rec.ContractName,
			Address:      rec.Address,
			TxHash:       rec.TxHash,
			BlockNumber:  rec.BlockNumber,
			EncodedArgs:  rec.EncodedArgs,
			DeployedAt:   rec.DeployedAt,
		})
	}
	if f := state.Funding(); f != nil {
		cp.Funding = &CheckpointFunding{
			Source:      f.Source,
			Destination: f.Destination,
			Amount:      f.Amount.String(),
			TxHash:      f.TxHash,
			BlockNumber: f.BlockNumber,
		}
	}
	for name, o := range state.outcomes {
		cp.Outcomes[name] = o
	}
	return cp
}

// State rebuilds a PipelineState from the checkpoint
func (c *Checkpoint) State() (*PipelineState, error) {
	if c.Version != CheckpointVersion {
		return nil, fmt.Errorf("unsupported checkpoint version %d", c.Version)
	}
	s := NewPipelineState(c.Network, c.ChainID, c.Deployer)
	s.RunID = c.RunID
	s.StartedAt = c.StartedAt
	s.stage = c.LastStage
	s.finality = c.Finalized
	for _, r := range c.Records {
		if err := s.Restore(&DeploymentRecord{
			Artifact:     r.Artifact,
			ContractName: r.ContractName,
			EncodedArgs:  r.EncodedArgs,
			Address:      r.Address,
			TxHash:       r.TxHash,
			BlockNumber:  r.BlockNumber,
			DeployedAt:   r.DeployedAt,
		}); err != nil {
			return nil, err
		}
	}
	if c.Funding != nil {
		amount, ok := new(big.Int).SetString(c.Funding.Amount, 10)
		if !ok {
			return nil, fmt.Errorf("invalid funding amount %q in checkpoint", c.Funding.Amount)
		}
		s.funding = &FundingRecord{
			Source:      c.Funding.Source,
			Destination: c.Funding.Destination,
			Amount:      amount,
			TxHash:      c.Funding.TxHash,
			BlockNumber: c.Funding.BlockNumber,
		}
	}
	for name, o := range c.Outcomes {
		s.outcomes[name] = o
	}
	return s, nil
}

// Marshal encodes the checkpoint as indented JSON
func (c *Checkpoint) Marshal() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// UnmarshalCheckpoint decodes a checkpoint document
func UnmarshalCheckpoint(data []byte) (*Checkpoint, error) {
	var c Checkpoint
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse checkpoint: %w", err)
	}
	return &c, nil
}
