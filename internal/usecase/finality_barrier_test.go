package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rika-labs/rikadeploy/internal/domain"
	"github.com/rika-labs/rikadeploy/internal/domain/config"
)

func fastPolicy() config.FinalityConfig {
	return config.FinalityConfig{
		Confirmations: 5,
		PollInterval:  time.Millisecond,
		Timeout:       time.Second,
		MaxRPCErrors:  2,
	}
}

func TestFinalityBarrier_WaitsForConfirmations(t *testing.T) {
	chain := newFakeChain()
	chain.head = 200
	barrier := NewFinalityBarrier(chain, NopProgress{}, discardLogger())

	require.NoError(t, barrier.Wait(context.Background(), 200, fastPolicy()))
	// 200 is the first confirmation, 204 the fifth
	assert.Equal(t, uint64(205), chain.head)
}

func TestFinalityBarrier_HeadBehindTarget(t *testing.T) {
	chain := newFakeChain()
	chain.head = 195
	barrier := NewFinalityBarrier(chain, NopProgress{}, discardLogger())

	require.NoError(t, barrier.Wait(context.Background(), 200, fastPolicy()))
	assert.Equal(t, uint64(205), chain.head)
}

func TestFinalityBarrier_NothingToWaitFor(t *testing.T) {
	chain := newFakeChain()
	barrier := NewFinalityBarrier(chain, NopProgress{}, discardLogger())

	require.NoError(t, barrier.Wait(context.Background(), 0, fastPolicy()))
	assert.Equal(t, uint64(100), chain.head, "no block number was read")
}

func TestFinalityBarrier_TransientRPCErrors(t *testing.T) {
	chain := newFakeChain()
	chain.head = 300
	chain.blockErrs = 2
	barrier := NewFinalityBarrier(chain, NopProgress{}, discardLogger())

	require.NoError(t, barrier.Wait(context.Background(), 300, fastPolicy()))
}

func TestFinalityBarrier_TooManyRPCErrors(t *testing.T) {
	chain := newFakeChain()
	chain.blockErrs = 3
	barrier := NewFinalityBarrier(chain, NopProgress{}, discardLogger())

	err := barrier.Wait(context.Background(), 100, fastPolicy())
	require.Error(t, err)
	assert.ErrorContains(t, err, "connection refused")
	assert.NotErrorIs(t, err, domain.ErrFinalityTimeout)
}

func TestFinalityBarrier_Timeout(t *testing.T) {
	chain := newFakeChain()
	chain.headStep = 0 // chain stalls
	barrier := NewFinalityBarrier(chain, NopProgress{}, discardLogger())

	policy := fastPolicy()
	policy.Timeout = 20 * time.Millisecond
	err := barrier.Wait(context.Background(), chain.head, policy)
	assert.ErrorIs(t, err, domain.ErrFinalityTimeout)
}

func TestFinalityBarrier_Cancelled(t *testing.T) {
	chain := newFakeChain()
	chain.headStep = 0
	barrier := NewFinalityBarrier(chain, NopProgress{}, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	policy := fastPolicy()
	policy.Timeout = time.Minute
	err := barrier.Wait(ctx, chain.head, policy)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrFinalityTimeout)
}

func TestFinalityBarrier_MinDelay(t *testing.T) {
	chain := newFakeChain()
	barrier := NewFinalityBarrier(chain, NopProgress{}, discardLogger())

	policy := fastPolicy()
	policy.Confirmations = 1
	policy.MinDelay = 30 * time.Millisecond

	started := time.Now()
	require.NoError(t, barrier.Wait(context.Background(), chain.head, policy))
	assert.GreaterOrEqual(t, time.Since(started), 30*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, barrier.Wait(ctx, chain.head, policy), context.Canceled)
}
