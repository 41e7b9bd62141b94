package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/rika-labs/rikadeploy/internal/domain"
	"github.com/rika-labs/rikadeploy/internal/domain/config"
	"github.com/rika-labs/rikadeploy/internal/domain/models"
)

// ShowStatusParams contains parameters for showing pipeline status
type ShowStatusParams struct{}

// ShowStatusResult contains the stored progress for one network, or a
// summary of every checkpoint when no network is selected.
type ShowStatusResult struct {
	Network     *config.Network
	State       *models.PipelineState // nil when the network has no checkpoint
	Stages      []StageStatus
	Checkpoints []*models.Checkpoint
}

// StageStatus describes one stage of a stored run
type StageStatus struct {
	Stage    models.Stage
	Complete bool
	Record   *models.DeploymentRecord
	Outcome  *models.VerificationOutcome
}

// ShowStatus is a use case for inspecting checkpoints
type ShowStatus struct {
	config *config.RuntimeConfig
	store  CheckpointStore
}

// NewShowStatus creates a new ShowStatus use case
func NewShowStatus(cfg *config.RuntimeConfig, store CheckpointStore) *ShowStatus {
	return &ShowStatus{
		config: cfg,
		store:  store,
	}
}

// Run executes the use case
func (uc *ShowStatus) Run(ctx context.Context, params ShowStatusParams) (*ShowStatusResult, error) {
	if uc.config.Network == nil {
		checkpoints, err := uc.store.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list checkpoints: %w", err)
		}
		return &ShowStatusResult{Checkpoints: checkpoints}, nil
	}

	result := &ShowStatusResult{Network: uc.config.Network}

	cp, err := uc.store.Load(ctx, uc.config.Network.ChainID)
	if errors.Is(err, domain.ErrNotFound) {
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}

	state, err := cp.State()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCheckpointInvalid, err)
	}
	result.State = state

	for _, stage := range models.StageOrder {
		status := StageStatus{Stage: stage, Complete: state.IsComplete(stage)}
		if name, ok := stage.Artifact(); ok {
			if stage.IsDeploy() {
				status.Record, _ = state.Record(name)
			} else {
				status.Outcome, _ = state.Outcome(name)
			}
		}
		result.Stages = append(result.Stages, status)
	}

	return result, nil
}
