package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rika-labs/rikadeploy/internal/domain"
	"github.com/rika-labs/rikadeploy/internal/domain/config"
)

// FinalityBarrier blocks until the chain head is far enough past the last
// settled transaction of a run.
type FinalityBarrier struct {
	chain    ChainClient
	progress ProgressSink
	log      *slog.Logger
}

// NewFinalityBarrier creates a new finality barrier
func NewFinalityBarrier(chain ChainClient, progress ProgressSink, log *slog.Logger) *FinalityBarrier {
	return &FinalityBarrier{
		chain:    chain,
		progress: progress,
		log:      log,
	}
}

// Wait returns once block target has policy.Confirmations confirmations,
// counting the including block as the first. RPC failures are tolerated up
// to policy.MaxRPCErrors consecutive times.
func (b *FinalityBarrier) Wait(ctx context.Context, target uint64, policy config.FinalityConfig) error {
	if target == 0 {
		return nil
	}

	if policy.MinDelay > 0 {
		b.progress.OnProgress(ctx, ProgressEvent{
			Stage:   "await_finality",
			Message: fmt.Sprintf("Waiting %s before polling confirmations", policy.MinDelay),
			Spinner: true,
		})
		if err := sleep(ctx, policy.MinDelay); err != nil {
			return err
		}
	}

	waitCtx := ctx
	if policy.Timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, policy.Timeout)
		defer cancel()
	}

	var (
		rpcErrors int
		lastErr   error
	)
	for {
		head, err := b.chain.BlockNumber(waitCtx)
		switch {
		case err != nil && waitCtx.Err() != nil:
			// fall through to the deadline handling below
		case err != nil:
			rpcErrors++
			lastErr = err
			b.log.Warn("failed to read block number", "attempt", rpcErrors, "error", err)
			if rpcErrors > policy.MaxRPCErrors {
				return fmt.Errorf("block number unavailable after %d consecutive attempts: %w", rpcErrors, lastErr)
			}
		default:
			rpcErrors = 0
			confirmations := uint64(0)
			if head >= target {
				confirmations = head - target + 1
			}
			b.progress.OnProgress(ctx, ProgressEvent{
				Stage:   "await_finality",
				Current: int(min(confirmations, policy.Confirmations)),
				Total:   int(policy.Confirmations),
				Message: fmt.Sprintf("Block %d has %d/%d confirmations", target, confirmations, policy.Confirmations),
				Spinner: true,
			})
			if confirmations >= policy.Confirmations {
				b.log.Info("finality reached", "block", target, "head", head, "confirmations", confirmations)
				return nil
			}
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w: block %d after %s", domain.ErrFinalityTimeout, target, policy.Timeout)
		case <-time.After(policy.PollInterval):
		}
	}
}

// sleep waits for d or until ctx is done
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
