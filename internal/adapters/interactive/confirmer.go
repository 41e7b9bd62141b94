package interactive

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"

	"github.com/rika-labs/rikadeploy/internal/domain/config"
	"github.com/rika-labs/rikadeploy/internal/usecase"
)

// ErrConfirmationRequired is returned when a prompt would be needed in non-interactive mode
var ErrConfirmationRequired = errors.New("confirmation required in non-interactive mode, pass --yes to proceed")

// ConfirmAdapter asks yes/no questions on the terminal
type ConfirmAdapter struct {
	config *config.RuntimeConfig
}

// NewConfirmAdapter creates a new confirm adapter
func NewConfirmAdapter(cfg *config.RuntimeConfig) *ConfirmAdapter {
	return &ConfirmAdapter{config: cfg}
}

// Confirm shows message and waits for y/N. Anything but an explicit yes is a no.
func (c *ConfirmAdapter) Confirm(ctx context.Context, message string) (bool, error) {
	if c.config.NonInteractive {
		return false, ErrConfirmationRequired
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	if c.config.Network != nil && !c.config.Network.Testnet {
		color.New(color.FgYellow, color.Bold).Printf("⚠ %s is not a testnet, transactions spend real funds\n", c.config.Network.Name)
	}

	prompt := promptui.Prompt{
		Label:     message,
		IsConfirm: true,
	}
	if _, err := prompt.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		if errors.Is(err, promptui.ErrInterrupt) {
			return false, context.Canceled
		}
		return false, fmt.Errorf("confirmation prompt failed: %w", err)
	}
	return true, nil
}

var _ usecase.Confirmer = (*ConfirmAdapter)(nil)
