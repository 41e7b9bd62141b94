package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/core/types"

	"github.com/rika-labs/rikadeploy/internal/domain"
	"github.com/rika-labs/rikadeploy/internal/domain/config"
	"github.com/rika-labs/rikadeploy/internal/domain/models"
)

// DeployPipeline deploys the token, faucet, implementation and factory in
// dependency order, funds the faucet, waits for finality and registers the
// contracts with the explorer.
type DeployPipeline struct {
	cfg       *config.RuntimeConfig
	chain     ChainClient
	artifacts ArtifactLoader
	store     CheckpointStore
	barrier   *FinalityBarrier
	registrar *VerifyArtifacts
	manifest  ManifestWriter
	metrics   MetricsReporter
	confirmer Confirmer
	progress  ProgressSink
	log       *slog.Logger
}

// NewDeployPipeline creates a new deploy pipeline use case
func NewDeployPipeline(
	cfg *config.RuntimeConfig,
	chain ChainClient,
	artifacts ArtifactLoader,
	store CheckpointStore,
	barrier *FinalityBarrier,
	registrar *VerifyArtifacts,
	manifest ManifestWriter,
	metrics MetricsReporter,
	confirmer Confirmer,
	progress ProgressSink,
	log *slog.Logger,
) *DeployPipeline {
	return &DeployPipeline{
		cfg:       cfg,
		chain:     chain,
		artifacts: artifacts,
		store:     store,
		barrier:   barrier,
		registrar: registrar,
		manifest:  manifest,
		metrics:   metrics,
		confirmer: confirmer,
		progress:  progress,
		log:       log,
	}
}

// DeployPipelineParams contains parameters for a deployment run
type DeployPipelineParams struct {
	Fresh        bool   // ignore and overwrite an existing checkpoint
	SkipVerify   bool   // stop after the finality barrier
	StrictVerify bool   // fail the run when any verification is rejected
	AssumeYes    bool   // don't ask before broadcasting to a mainnet
	ManifestPath string // write a manifest of the deployed addresses
}

// DeployPipelineResult contains the result of a deployment run. It is
// returned alongside an error whenever a state was created, so partial
// progress can be shown.
type DeployPipelineResult struct {
	State        *models.PipelineState
	Resumed      bool
	Completed    []models.Stage // stages executed by this run
	Skipped      []models.Stage // stages restored from the checkpoint
	Rejected     []models.ArtifactName
	ManifestPath string
}

// Run executes every stage in StageOrder
func (p *DeployPipeline) Run(ctx context.Context, params DeployPipelineParams) (result *DeployPipelineResult, err error) {
	defer func() {
		if ferr := p.metrics.Flush(context.WithoutCancel(ctx)); ferr != nil {
			p.log.Warn("failed to push metrics", "error", ferr)
		}
	}()

	network := p.cfg.Network
	if network == nil {
		return nil, domain.ErrNoNetwork
	}

	chainID, err := p.chain.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read chain ID from %s: %w", network.Name, err)
	}
	if chainID != network.ChainID {
		return nil, fmt.Errorf("%w: %s is configured as %d but the RPC reports %d",
			domain.ErrChainIDMismatch, network.Name, network.ChainID, chainID)
	}

	sender, err := p.chain.Sender(ctx)
	if err != nil {
		return nil, err
	}

	state, resumed, err := p.prepareState(ctx, params.Fresh, chainID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		state = models.NewPipelineState(network.Name, chainID, sender)
	} else if state.Deployer != sender {
		p.log.Warn("checkpoint was created by another deployer", "checkpoint", state.Deployer.Hex(), "sender", sender.Hex())
		// remaining transactions are signed by sender, so balance checks must target it
		state.Deployer = sender
	}
	result = &DeployPipelineResult{State: state, Resumed: resumed}

	if !network.Testnet && !params.AssumeYes && hasPendingTransactions(state) {
		ok, err := p.confirmer.Confirm(ctx, fmt.Sprintf("Deploy to %s (chain %d) from %s?", network.Name, chainID, sender.Hex()))
		if err != nil {
			return result, err
		}
		if !ok {
			return result, domain.ErrCancelled
		}
	}

	p.log.Info("starting deployment", "run", state.RunID, "network", network.Name, "chain_id", chainID, "deployer", sender.Hex(), "resumed", resumed)

	total := len(models.StageOrder)
	for i, stage := range models.StageOrder {
		if params.SkipVerify && stage.IsVerify() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if state.IsComplete(stage) {
			result.Skipped = append(result.Skipped, stage)
			p.progress.OnProgress(ctx, ProgressEvent{
				Stage:   stage.String(),
				Current: i + 1,
				Total:   total,
				Message: "already complete",
			})
			continue
		}

		p.progress.OnProgress(ctx, ProgressEvent{
			Stage:   stage.String(),
			Current: i + 1,
			Total:   total,
			Message: describeStage(stage),
			Spinner: true,
		})
		p.log.Info("stage started", "stage", stage)

		started := time.Now()
		if err := p.executeStage(ctx, state, stage); err != nil {
			p.metrics.StageFailed(stage)
			p.log.Error("stage failed", "stage", stage, "error", err)
			return result, &domain.StageError{Stage: stage.String(), Err: err}
		}
		p.metrics.StageCompleted(stage, time.Since(started))

		state.SetStage(stage)
		if err := p.save(ctx, state); err != nil {
			return result, err
		}
		result.Completed = append(result.Completed, stage)
		p.log.Info("stage completed", "stage", stage, "duration", time.Since(started).Round(time.Millisecond))
	}

	result.Rejected = state.RejectedArtifacts()

	if params.ManifestPath != "" {
		if err := p.manifest.Write(ctx, params.ManifestPath, state); err != nil {
			return result, fmt.Errorf("failed to write manifest: %w", err)
		}
		result.ManifestPath = params.ManifestPath
	}

	if params.StrictVerify && len(result.Rejected) > 0 {
		return result, rejectionError(result.Rejected)
	}
	return result, nil
}

// executeStage dispatches a stage to its implementation. The order lives in
// models.StageOrder; each case reads the addresses it needs from state.
func (p *DeployPipeline) executeStage(ctx context.Context, state *models.PipelineState, stage models.Stage) error {
	names := p.cfg.Pipeline.Contracts

	switch stage {
	case models.StageDeployToken:
		_, err := p.deploy(ctx, state, stage, names.Token)
		return err

	case models.StageDeployFaucet:
		token, err := state.Address(stage, models.ArtifactToken)
		if err != nil {
			return err
		}
		_, err = p.deploy(ctx, state, stage, names.Faucet, token)
		return err

	case models.StageFundFaucet:
		return p.fund(ctx, state, stage, models.ArtifactToken, models.ArtifactFaucet)

	case models.StageDeployImplementation:
		_, err := p.deploy(ctx, state, stage, names.Implementation)
		return err

	case models.StageDeployFactory:
		implementation, err := state.Address(stage, models.ArtifactImplementation)
		if err != nil {
			return err
		}
		token, err := state.Address(stage, models.ArtifactToken)
		if err != nil {
			return err
		}
		_, err = p.deploy(ctx, state, stage, names.Factory, implementation, token)
		return err

	case models.StageAwaitFinality:
		if err := p.barrier.Wait(ctx, state.LastSettledBlock(), p.cfg.Pipeline.Finality); err != nil {
			return err
		}
		state.MarkFinalized()
		return nil

	case models.StageVerifyToken, models.StageVerifyFaucet, models.StageVerifyImplementation, models.StageVerifyFactory:
		if !state.Finalized() {
			return &domain.OrderingError{Stage: stage.String(), Dependency: models.StageAwaitFinality.String()}
		}
		name, _ := stage.Artifact()
		_, err := p.registrar.VerifyArtifact(ctx, state, name)
		return err

	default:
		return fmt.Errorf("unknown stage: %s", stage)
	}
}

// prepareState loads and re-validates the checkpoint for the chain. It
// returns a nil state when the run starts from scratch.
func (p *DeployPipeline) prepareState(ctx context.Context, fresh bool, chainID uint64) (*models.PipelineState, bool, error) {
	if fresh {
		p.log.Info("ignoring existing checkpoint", "chain_id", chainID)
		return nil, false, nil
	}

	cp, err := p.store.Load(ctx, chainID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load checkpoint: %w", err)
	}

	state, err := cp.State()
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", domain.ErrCheckpointInvalid, err)
	}
	if err := p.revalidate(ctx, state); err != nil {
		return nil, false, err
	}

	p.progress.Info(fmt.Sprintf("Resuming run %s from checkpoint (last stage: %s)", state.RunID, state.LastStage()))
	return state, true, nil
}

// revalidate confirms that what the checkpoint claims is still on chain
func (p *DeployPipeline) revalidate(ctx context.Context, state *models.PipelineState) error {
	for _, rec := range state.Records() {
		code, err := p.chain.CodeAt(ctx, rec.Address)
		if err != nil {
			return fmt.Errorf("failed to read code of %s: %w", rec.Artifact, err)
		}
		if len(code) == 0 {
			return fmt.Errorf("%w: no code at %s for %s", domain.ErrCheckpointInvalid, rec.Address.Hex(), rec.Artifact)
		}
	}

	if f := state.Funding(); f != nil {
		receipt, err := p.chain.TransactionReceipt(ctx, f.TxHash)
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: funding tx %s not found", domain.ErrCheckpointInvalid, f.TxHash.Hex())
		}
		if err != nil {
			return fmt.Errorf("failed to read funding receipt: %w", err)
		}
		if receipt.Status != types.ReceiptStatusSuccessful {
			return fmt.Errorf("%w: funding tx %s reverted", domain.ErrCheckpointInvalid, f.TxHash.Hex())
		}
	}
	return nil
}

func (p *DeployPipeline) save(ctx context.Context, state *models.PipelineState) error {
	if err := p.store.Save(ctx, models.NewCheckpoint(state)); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

// hasPendingTransactions reports whether any state-changing stage is left
func hasPendingTransactions(state *models.PipelineState) bool {
	for _, stage := range models.StageOrder {
		if stage.Transactional() && !state.IsComplete(stage) {
			return true
		}
	}
	return false
}

func describeStage(stage models.Stage) string {
	switch {
	case stage.IsDeploy():
		name, _ := stage.Artifact()
		return fmt.Sprintf("Deploying %s", name)
	case stage == models.StageFundFaucet:
		return "Funding faucet"
	case stage == models.StageAwaitFinality:
		return "Waiting for confirmations"
	case stage.IsVerify():
		name, _ := stage.Artifact()
		return fmt.Sprintf("Verifying %s", name)
	}
	return stage.String()
}
