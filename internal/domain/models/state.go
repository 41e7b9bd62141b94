package models

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/rika-labs/rikadeploy/internal/domain"
)

// PipelineState accumulates deployment records as stages complete. It is
// owned by a single pipeline run and passed explicitly to every stage.
type PipelineState struct {
	RunID     string
	ChainID   uint64
	Network   string
	Deployer  common.Address
	StartedAt time.Time

	order    []ArtifactName
	records  map[ArtifactName]*DeploymentRecord
	funding  *FundingRecord
	outcomes map[ArtifactName]*VerificationOutcome
	stage    Stage
	finality bool
}

// NewPipelineState creates an empty state for a fresh run
func NewPipelineState(network string, chainID uint64, deployer common.Address) *PipelineState {
	return &PipelineState{
		RunID:     uuid.NewString(),
		ChainID:   chainID,
		Network:   network,
		Deployer:  deployer,
		StartedAt: time.Now().UTC(),
		records:   make(map[ArtifactName]*DeploymentRecord),
		outcomes:  make(map[ArtifactName]*VerificationOutcome),
	}
}

// Begin creates the record for an artifact whose stage is starting.
// Restarting a stage that has not settled replaces the pending record.
func (s *PipelineState) Begin(name ArtifactName, contractName string, args []any, encoded []byte) (*DeploymentRecord, error) {
	if existing, ok := s.records[name]; ok {
		if existing.Resolved() {
			return nil, fmt.Errorf("%s is already deployed at %s", name, existing.Address.Hex())
		}
	} else {
		s.order = append(s.order, name)
	}
	rec := &DeploymentRecord{
		Artifact:        name,
		ContractName:    contractName,
		ConstructorArgs: args,
		EncodedArgs:     encoded,
	}
	s.records[name] = rec
	return rec, nil
}

// Resolve populates the settled address of a record. Once set it can't change.
func (s *PipelineState) Resolve(name ArtifactName, address common.Address, txHash common.Hash, block uint64) error {
	rec, ok := s.records[name]
	if !ok {
		return fmt.Errorf("resolve %s: %w", name, domain.ErrNotFound)
	}
	if rec.Resolved() {
		return fmt.Errorf("%s is already resolved to %s", name, rec.Address.Hex())
	}
	if address == (common.Address{}) {
		return fmt.Errorf("resolve %s: zero address", name)
	}
	rec.Address = address
	rec.TxHash = txHash
	rec.BlockNumber = block
	rec.DeployedAt = time.Now().UTC()
	return nil
}

// Restore inserts an already-settled record, used when loading a checkpoint
func (s *PipelineState) Restore(rec *DeploymentRecord) error {
	if !rec.Resolved() {
		return fmt.Errorf("restore %s: record has no address", rec.Artifact)
	}
	if _, ok := s.records[rec.Artifact]; ok {
		return fmt.Errorf("restore %s: duplicate record", rec.Artifact)
	}
	s.order = append(s.order, rec.Artifact)
	s.records[rec.Artifact] = rec
	return nil
}

// Record returns the record for an artifact, resolved or not
func (s *PipelineState) Record(name ArtifactName) (*DeploymentRecord, bool) {
	rec, ok := s.records[name]
	return rec, ok
}

// Address returns the resolved address of a dependency. Asking for one that
// hasn't settled is an ordering defect.
func (s *PipelineState) Address(stage Stage, dependency ArtifactName) (common.Address, error) {
	rec, ok := s.records[dependency]
	if !ok || !rec.Resolved() {
		artifact, _ := stage.Artifact()
		return common.Address{}, &domain.OrderingError{
			Stage:      stage.String(),
			Artifact:   string(artifact),
			Dependency: string(dependency),
		}
	}
	return rec.Address, nil
}

// RequireResolved checks that every address in args belongs to a resolved
// record of this run.
func (s *PipelineState) RequireResolved(stage Stage, args []any) error {
	for _, arg := range args {
		addr, ok := arg.(common.Address)
		if !ok {
			continue
		}
		if !s.isResolvedAddress(addr) {
			artifact, _ := stage.Artifact()
			return &domain.OrderingError{
				Stage:      stage.String(),
				Artifact:   string(artifact),
				Dependency: addr.Hex(),
			}
		}
	}
	return nil
}

func (s *PipelineState) isResolvedAddress(addr common.Address) bool {
	if addr == (common.Address{}) {
		return false
	}
	for _, rec := range s.records {
		if rec.Resolved() && rec.Address == addr {
			return true
		}
	}
	return false
}

// Records returns the records in the order their stages began
func (s *PipelineState) Records() []*DeploymentRecord {
	out := make([]*DeploymentRecord, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.records[name])
	}
	return out
}

// LastSettledBlock is the highest block that included a deploy or funding tx
func (s *PipelineState) LastSettledBlock() uint64 {
	var last uint64
	for _, rec := range s.records {
		if rec.Resolved() && rec.BlockNumber > last {
			last = rec.BlockNumber
		}
	}
	if s.funding != nil && s.funding.BlockNumber > last {
		last = s.funding.BlockNumber
	}
	return last
}

// SetFunding stores the settled faucet transfer
func (s *PipelineState) SetFunding(f *FundingRecord) {
	s.funding = f
}

// Funding returns the settled faucet transfer, if any
func (s *PipelineState) Funding() *FundingRecord {
	return s.funding
}

// SetOutcome records the verification result for an artifact
func (s *PipelineState) SetOutcome(name ArtifactName, outcome *VerificationOutcome) {
	s.outcomes[name] = outcome
}

// Outcome returns the verification result for an artifact
func (s *PipelineState) Outcome(name ArtifactName) (*VerificationOutcome, bool) {
	o, ok := s.outcomes[name]
	return o, ok
}

// RejectedArtifacts lists artifacts whose verification was rejected
func (s *PipelineState) RejectedArtifacts() []ArtifactName {
	var out []ArtifactName
	for _, stage := range StageOrder {
		if !stage.IsVerify() {
			continue
		}
		name, _ := stage.Artifact()
		if o, ok := s.outcomes[name]; ok && o.Status == VerificationStatusRejected {
			out = append(out, name)
		}
	}
	return out
}

// MarkFinalized records that the confirmation barrier has been passed
func (s *PipelineState) MarkFinalized() {
	s.finality = true
}

// Finalized reports whether the confirmation barrier has been passed
func (s *PipelineState) Finalized() bool {
	return s.finality
}

// SetStage records the last stage that completed
func (s *PipelineState) SetStage(stage Stage) {
	s.stage = stage
}

// LastStage returns the last stage that completed, or ""
func (s *PipelineState) LastStage() Stage {
	return s.stage
}

// IsComplete reports whether a stage's effects are already present in the state
func (s *PipelineState) IsComplete(stage Stage) bool {
	switch {
	case stage.IsDeploy():
		name, _ := stage.Artifact()
		rec, ok := s.records[name]
		return ok && rec.Resolved()
	case stage == StageFundFaucet:
		return s.funding != nil
	case stage == StageAwaitFinality:
		return s.finality
	case stage.IsVerify():
		name, _ := stage.Artifact()
		o, ok := s.outcomes[name]
		return ok && o.Succeeded()
	}
	return false
}
