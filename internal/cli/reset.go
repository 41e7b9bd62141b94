package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rika-labs/rikadeploy/internal/cli/render"
	"github.com/rika-labs/rikadeploy/internal/domain"
	"github.com/rika-labs/rikadeploy/internal/usecase"
)

// NewResetCmd creates the reset command
func NewResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete the checkpoint of the selected network",
		Long: `Delete the stored progress of the selected network so the next deploy
starts from the first stage. Contracts already on chain are left alone.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			if app.Config.Network == nil {
				return fmt.Errorf("--network is required: %w", domain.ErrNoNetwork)
			}

			if !app.Config.AssumeYes {
				ok, err := app.Confirmer.Confirm(cmd.Context(), fmt.Sprintf("Delete the checkpoint for %s (chain %d)?",
					app.Config.Network.Name, app.Config.Network.ChainID))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Reset cancelled")
					return nil
				}
			}

			result, err := app.ResetCheckpoint.Run(cmd.Context(), usecase.ResetCheckpointParams{})
			if err != nil {
				return err
			}

			if !result.Deleted {
				fmt.Fprintf(cmd.OutOrStdout(), "No checkpoint for %s\n", result.Network.Name)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), render.FormatSuccess(fmt.Sprintf("Checkpoint for %s deleted", result.Network.Name)))
			return nil
		},
	}

	cmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")

	return cmd
}
