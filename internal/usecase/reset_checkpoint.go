package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/rika-labs/rikadeploy/internal/domain"
	"github.com/rika-labs/rikadeploy/internal/domain/config"
)

// ResetCheckpointParams contains parameters for resetting a checkpoint
type ResetCheckpointParams struct{}

// ResetCheckpointResult contains the result of resetting a checkpoint
type ResetCheckpointResult struct {
	Network *config.Network
	Deleted bool
}

// ResetCheckpoint is a use case for discarding the stored progress of a network.
// Deployed contracts are untouched; the next deploy starts from scratch.
type ResetCheckpoint struct {
	config *config.RuntimeConfig
	store  CheckpointStore
}

// NewResetCheckpoint creates a new ResetCheckpoint use case
func NewResetCheckpoint(cfg *config.RuntimeConfig, store CheckpointStore) *ResetCheckpoint {
	return &ResetCheckpoint{
		config: cfg,
		store:  store,
	}
}

// Run executes the reset checkpoint use case
func (uc *ResetCheckpoint) Run(ctx context.Context, params ResetCheckpointParams) (*ResetCheckpointResult, error) {
	if uc.config.Network == nil {
		return nil, fmt.Errorf("network is required for reset: %w", domain.ErrNoNetwork)
	}

	result := &ResetCheckpointResult{Network: uc.config.Network}
	err := uc.store.Delete(ctx, uc.config.Network.ChainID)
	if errors.Is(err, domain.ErrNotFound) {
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	result.Deleted = true
	return result, nil
}
