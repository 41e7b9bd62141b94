package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rika-labs/rikadeploy/internal/domain"
	"github.com/rika-labs/rikadeploy/internal/domain/config"
	"github.com/rika-labs/rikadeploy/internal/domain/models"
)

func TestShowStatus_Run(t *testing.T) {
	f := runPartial(t)
	uc := NewShowStatus(f.cfg, f.store)

	result, err := uc.Run(context.Background(), ShowStatusParams{})
	require.NoError(t, err)
	require.NotNil(t, result.State)
	require.Len(t, result.Stages, len(models.StageOrder))

	assert.True(t, result.Stages[0].Complete)
	assert.NotNil(t, result.Stages[0].Record)
	assert.True(t, result.Stages[1].Complete)
	assert.False(t, result.Stages[2].Complete)
	assert.Nil(t, result.Stages[3].Record)
}

func TestShowStatus_NoCheckpoint(t *testing.T) {
	uc := NewShowStatus(testConfig(), newMemStore())

	result, err := uc.Run(context.Background(), ShowStatusParams{})
	require.NoError(t, err)
	assert.Nil(t, result.State)
	assert.Equal(t, "sonicTestnet", result.Network.Name)
}

func TestShowStatus_AllNetworks(t *testing.T) {
	f := runPartial(t)
	uc := NewShowStatus(&config.RuntimeConfig{}, f.store)

	result, err := uc.Run(context.Background(), ShowStatusParams{})
	require.NoError(t, err)
	require.Len(t, result.Checkpoints, 1)
	assert.Equal(t, uint64(57054), result.Checkpoints[0].ChainID)
}

func TestResetCheckpoint_Run(t *testing.T) {
	f := runPartial(t)
	uc := NewResetCheckpoint(f.cfg, f.store)

	result, err := uc.Run(context.Background(), ResetCheckpointParams{})
	require.NoError(t, err)
	assert.True(t, result.Deleted)

	_, err = f.store.Load(context.Background(), 57054)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	result, err = uc.Run(context.Background(), ResetCheckpointParams{})
	require.NoError(t, err)
	assert.False(t, result.Deleted)

	_, err = NewResetCheckpoint(&config.RuntimeConfig{}, f.store).Run(context.Background(), ResetCheckpointParams{})
	assert.ErrorIs(t, err, domain.ErrNoNetwork)
}
