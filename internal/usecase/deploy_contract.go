package usecase

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/rika-labs/rikadeploy/internal/domain"
	"github.com/rika-labs/rikadeploy/internal/domain/models"
)

// deploy submits the creation transaction for a deploy stage and blocks
// until its address is known. Every address in args must come from an
// earlier stage of the same run.
func (p *DeployPipeline) deploy(ctx context.Context, state *models.PipelineState, stage models.Stage, contractName string, args ...any) (*models.DeploymentRecord, error) {
	name, ok := stage.Artifact()
	if !ok || !stage.IsDeploy() {
		return nil, fmt.Errorf("%s is not a deploy stage", stage)
	}

	if err := state.RequireResolved(stage, args); err != nil {
		return nil, err
	}

	artifact, err := p.artifacts.Load(ctx, contractName)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", contractName, err)
	}

	encoded, err := artifact.PackConstructor(args...)
	if err != nil {
		return nil, err
	}

	if _, err := state.Begin(name, contractName, args, encoded); err != nil {
		return nil, err
	}

	tx, err := p.chain.DeployContract(ctx, artifact.Bytecode, encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to submit %s creation: %w", contractName, err)
	}
	p.log.Info("submitted contract creation",
		"stage", stage, "artifact", name, "contract", contractName, "tx", tx.Hash.Hex())

	receipt, err := p.settle(ctx, stage, tx)
	if err != nil {
		return nil, fmt.Errorf("%s creation: %w", contractName, err)
	}
	if receipt.ContractAddress == (common.Address{}) {
		return nil, fmt.Errorf("%s creation receipt %s has no contract address", contractName, tx.Hash.Hex())
	}

	if err := state.Resolve(name, receipt.ContractAddress, tx.Hash, blockNumber(receipt)); err != nil {
		return nil, err
	}

	rec, _ := state.Record(name)
	p.log.Info("contract deployed",
		"stage", stage, "artifact", name, "address", rec.Address.Hex(), "tx", tx.Hash.Hex(), "block", rec.BlockNumber)
	return rec, nil
}

// settle waits for a pending transaction and fails on a reverted receipt.
// Transactions are never resubmitted.
func (p *DeployPipeline) settle(ctx context.Context, stage models.Stage, tx *models.PendingTx) (*types.Receipt, error) {
	receipt, err := p.chain.WaitMined(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("waiting for %s: %w", tx.Hash.Hex(), err)
	}
	p.metrics.TransactionMined(stage, receipt.GasUsed)

	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%w: tx %s in block %d", domain.ErrTransactionReverted, tx.Hash.Hex(), blockNumber(receipt))
	}
	return receipt, nil
}

func blockNumber(receipt *types.Receipt) uint64 {
	if receipt.BlockNumber == nil {
		return 0
	}
	return receipt.BlockNumber.Uint64()
}
