package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/lo"

	"github.com/rika-labs/rikadeploy/internal/domain"
	"github.com/rika-labs/rikadeploy/internal/domain/config"
	"github.com/rika-labs/rikadeploy/internal/domain/models"
)

// VerifyArtifacts registers deployed contracts with the network's explorer.
// A rejected artifact is recorded and reported, never fatal to the others.
type VerifyArtifacts struct {
	config    *config.RuntimeConfig
	artifacts ArtifactLoader
	verifier  ContractVerifier
	store     CheckpointStore
	barrier   *FinalityBarrier
	metrics   MetricsReporter
	progress  ProgressSink
	log       *slog.Logger
}

// NewVerifyArtifacts creates a new verify artifacts use case
func NewVerifyArtifacts(
	cfg *config.RuntimeConfig,
	artifacts ArtifactLoader,
	verifier ContractVerifier,
	store CheckpointStore,
	barrier *FinalityBarrier,
	metrics MetricsReporter,
	progress ProgressSink,
	log *slog.Logger,
) *VerifyArtifacts {
	return &VerifyArtifacts{
		config:    cfg,
		artifacts: artifacts,
		verifier:  verifier,
		store:     store,
		barrier:   barrier,
		metrics:   metrics,
		progress:  progress,
		log:       log,
	}
}

// VerifyArtifactsParams contains parameters for a standalone verification run
type VerifyArtifactsParams struct {
	Artifacts []models.ArtifactName // empty means all
	Force     bool                  // resubmit artifacts that already passed
}

// VerifyArtifactsResult contains the result of a standalone verification run
type VerifyArtifactsResult struct {
	State    *models.PipelineState
	Verified []models.ArtifactName
	Skipped  []models.ArtifactName
	Rejected []models.ArtifactName
}

// Run verifies the artifacts recorded in the network's checkpoint, waiting
// for finality first if the deploy run didn't get that far.
func (uc *VerifyArtifacts) Run(ctx context.Context, params VerifyArtifactsParams) (*VerifyArtifactsResult, error) {
	if uc.config.Network == nil {
		return nil, domain.ErrNoNetwork
	}

	cp, err := uc.store.Load(ctx, uc.config.Network.ChainID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("no deployment checkpoint for %s, run deploy first: %w", uc.config.Network.Name, err)
		}
		return nil, err
	}
	state, err := cp.State()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCheckpointInvalid, err)
	}

	wanted := params.Artifacts
	if len(wanted) == 0 {
		wanted = verifiableArtifacts()
	}
	for _, name := range wanted {
		if rec, ok := state.Record(name); !ok || !rec.Resolved() {
			return nil, fmt.Errorf("%s has not been deployed on %s: %w", name, uc.config.Network.Name, domain.ErrNotFound)
		}
	}

	if !state.Finalized() {
		uc.progress.OnProgress(ctx, ProgressEvent{
			Stage:   models.StageAwaitFinality.String(),
			Message: fmt.Sprintf("Waiting for %d confirmations", uc.config.Pipeline.Finality.Confirmations),
			Spinner: true,
		})
		if err := uc.barrier.Wait(ctx, state.LastSettledBlock(), uc.config.Pipeline.Finality); err != nil {
			return nil, err
		}
		state.MarkFinalized()
		if err := uc.save(ctx, state); err != nil {
			return nil, err
		}
	}

	result := &VerifyArtifactsResult{State: state}
	for _, name := range wanted {
		if !params.Force {
			if o, ok := state.Outcome(name); ok && o.Succeeded() {
				result.Skipped = append(result.Skipped, name)
				continue
			}
		}

		outcome, err := uc.submit(ctx, state, name)
		if err != nil {
			return result, err
		}
		if outcome.Succeeded() {
			result.Verified = append(result.Verified, name)
		} else {
			result.Rejected = append(result.Rejected, name)
		}
		if err := uc.save(ctx, state); err != nil {
			return result, err
		}
	}

	if uc.config.StrictVerify && len(result.Rejected) > 0 {
		return result, rejectionError(result.Rejected)
	}
	return result, nil
}

// VerifyArtifact registers one artifact of a run unless an earlier attempt
// already succeeded. Only context cancellation is returned as an error.
func (uc *VerifyArtifacts) VerifyArtifact(ctx context.Context, state *models.PipelineState, name models.ArtifactName) (*models.VerificationOutcome, error) {
	if o, ok := state.Outcome(name); ok && o.Succeeded() {
		uc.log.Info("skipping verification, already accepted", "artifact", name, "status", o.Status)
		return o, nil
	}
	return uc.submit(ctx, state, name)
}

func (uc *VerifyArtifacts) submit(ctx context.Context, state *models.PipelineState, name models.ArtifactName) (*models.VerificationOutcome, error) {
	outcome := uc.verify(ctx, state, name)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	state.SetOutcome(name, outcome)
	uc.metrics.VerificationFinished(name, outcome.Status)

	if outcome.Succeeded() {
		uc.log.Info("verification accepted", "artifact", name, "status", outcome.Status, "url", outcome.URL)
	} else {
		uc.log.Warn("verification rejected", "artifact", name, "reason", outcome.Reason)
		uc.progress.Error(fmt.Sprintf("Verification of %s rejected: %s", name, outcome.Reason))
	}
	return outcome, nil
}

func (uc *VerifyArtifacts) verify(ctx context.Context, state *models.PipelineState, name models.ArtifactName) *models.VerificationOutcome {
	rec, ok := state.Record(name)
	if !ok || !rec.Resolved() {
		return models.Rejected("not deployed")
	}

	artifact, err := uc.artifacts.Load(ctx, rec.ContractName)
	if err != nil {
		return models.Rejected(fmt.Sprintf("load artifact: %v", err))
	}
	source, err := uc.artifacts.Sources(ctx, artifact)
	if err != nil {
		return models.Rejected(fmt.Sprintf("collect sources: %v", err))
	}

	req := &models.VerificationRequest{
		Artifact:    name,
		Address:     rec.Address,
		EncodedArgs: rec.EncodedArgs,
		ChainID:     state.ChainID,
		Source:      source,
	}

	uc.progress.OnProgress(ctx, ProgressEvent{
		Stage:   "verify_" + string(name),
		Message: fmt.Sprintf("Verifying %s at %s", rec.ContractName, rec.Address.Hex()),
		Spinner: true,
	})

	outcome, err := uc.verifier.Verify(ctx, req)
	if err != nil {
		return models.Rejected(err.Error())
	}
	if outcome == nil {
		return models.Rejected("explorer returned no outcome")
	}
	return outcome
}

func (uc *VerifyArtifacts) save(ctx context.Context, state *models.PipelineState) error {
	if err := uc.store.Save(ctx, models.NewCheckpoint(state)); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

// verifiableArtifacts lists artifacts in verify stage order
func verifiableArtifacts() []models.ArtifactName {
	return lo.FilterMap(models.StageOrder, func(s models.Stage, _ int) (models.ArtifactName, bool) {
		if !s.IsVerify() {
			return "", false
		}
		return s.Artifact()
	})
}

func rejectionError(rejected []models.ArtifactName) error {
	names := lo.Map(rejected, func(a models.ArtifactName, _ int) string { return string(a) })
	return fmt.Errorf("%w: %s", domain.ErrVerificationFailed, strings.Join(names, ", "))
}
