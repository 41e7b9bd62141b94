package usecase

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/rika-labs/rikadeploy/internal/domain"
	"github.com/rika-labs/rikadeploy/internal/domain/bindings"
	"github.com/rika-labs/rikadeploy/internal/domain/models"
)

// The funding stage only needs the ERC20 surface of the token
var erc20 = bindings.NewERC20()

// ScaleAmount converts a decimal quantity of whole tokens into base units,
// e.g. "100000" with 6 decimals is 100000000000.
func ScaleAmount(quantity string, decimals uint8) (*big.Int, error) {
	quantity = strings.TrimSpace(quantity)
	if quantity == "" {
		return nil, fmt.Errorf("%w: empty quantity", domain.ErrInvalidAmount)
	}

	whole, frac, hasFrac := strings.Cut(quantity, ".")
	if hasFrac {
		frac = strings.TrimRight(frac, "0")
	}
	if whole == "" {
		whole = "0"
	}
	if !isDigits(whole) || (hasFrac && frac != "" && !isDigits(frac)) {
		return nil, fmt.Errorf("%w: %q is not a decimal number", domain.ErrInvalidAmount, quantity)
	}
	if len(frac) > int(decimals) {
		return nil, fmt.Errorf("%w: %q has more than %d decimal places", domain.ErrInvalidAmount, quantity, decimals)
	}

	digits := whole + frac + strings.Repeat("0", int(decimals)-len(frac))
	amount, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidAmount, quantity)
	}
	if amount.Sign() == 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidAmount)
	}
	return amount, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// fund transfers the configured quantity of tokens from the deployer to the
// destination contract. Precision and balance are checked on-chain before
// anything is submitted.
func (p *DeployPipeline) fund(ctx context.Context, state *models.PipelineState, stage models.Stage, source, destination models.ArtifactName) error {
	token, err := state.Address(stage, source)
	if err != nil {
		return err
	}
	target, err := state.Address(stage, destination)
	if err != nil {
		return err
	}

	cfg := p.cfg.Pipeline
	amount, err := ScaleAmount(cfg.FundingAmount, cfg.TokenDecimals)
	if err != nil {
		return err
	}

	onChain, err := p.tokenDecimals(ctx, token)
	if err != nil {
		return err
	}
	if onChain != cfg.TokenDecimals {
		return fmt.Errorf("%w: token reports %d, configured %d", domain.ErrDecimalsMismatch, onChain, cfg.TokenDecimals)
	}

	balance, err := p.tokenBalance(ctx, token, state.Deployer)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: deployer %s holds %s, needs %s",
			domain.ErrInsufficientBalance, state.Deployer.Hex(), balance, amount)
	}

	data, err := erc20.TryPackTransfer(target, amount)
	if err != nil {
		return fmt.Errorf("failed to encode transfer: %w", err)
	}

	tx, err := p.chain.Transact(ctx, token, data)
	if err != nil {
		return fmt.Errorf("failed to submit funding transfer: %w", err)
	}
	p.log.Info("submitted funding transfer",
		"stage", stage, "token", token.Hex(), "to", target.Hex(), "amount", amount.String(), "tx", tx.Hash.Hex())

	receipt, err := p.settle(ctx, stage, tx)
	if err != nil {
		return fmt.Errorf("funding transfer: %w", err)
	}

	state.SetFunding(&models.FundingRecord{
		Source:      source,
		Destination: destination,
		Amount:      amount,
		TxHash:      tx.Hash,
		BlockNumber: blockNumber(receipt),
	})
	p.log.Info("faucet funded", "stage", stage, "amount", amount.String(), "tx", tx.Hash.Hex())
	return nil
}

func (p *DeployPipeline) tokenDecimals(ctx context.Context, token common.Address) (uint8, error) {
	out, err := p.chain.Call(ctx, token, erc20.PackDecimals())
	if err != nil {
		return 0, fmt.Errorf("failed to read token decimals: %w", err)
	}
	decimals, err := erc20.UnpackDecimals(out)
	if err != nil {
		return 0, fmt.Errorf("failed to decode token decimals: %w", err)
	}
	return decimals, nil
}

func (p *DeployPipeline) tokenBalance(ctx context.Context, token, holder common.Address) (*big.Int, error) {
	out, err := p.chain.Call(ctx, token, erc20.PackBalanceOf(holder))
	if err != nil {
		return nil, fmt.Errorf("failed to read token balance: %w", err)
	}
	balance, err := erc20.UnpackBalanceOf(out)
	if err != nil {
		return nil, fmt.Errorf("failed to decode token balance: %w", err)
	}
	return balance, nil
}
