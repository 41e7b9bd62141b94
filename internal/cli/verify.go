package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rika-labs/rikadeploy/internal/cli/render"
	"github.com/rika-labs/rikadeploy/internal/domain/models"
	"github.com/rika-labs/rikadeploy/internal/usecase"
)

// NewVerifyCmd creates the verify command
func NewVerifyCmd() *cobra.Command {
	var forceFlag bool

	cmd := &cobra.Command{
		Use:   "verify [artifact...]",
		Short: "Verify deployed contracts on the block explorer",
		Long: `Verify the contracts recorded in the network's checkpoint without
deploying anything. Waits for finality first if the deploy run stopped
before it.

Artifacts: token, faucet, implementation, factory. All of them when none
are given.

Examples:
  rikadeploy verify --network sonicTestnet
  rikadeploy verify faucet factory --network sonicTestnet
  rikadeploy verify token --network sonic --force`,
		ValidArgs: []string{
			models.ArtifactToken.String(),
			models.ArtifactFaucet.String(),
			models.ArtifactImplementation.String(),
			models.ArtifactFactory.String(),
		},
		Args: cobra.OnlyValidArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			params := usecase.VerifyArtifactsParams{Force: forceFlag}
			for _, arg := range args {
				params.Artifacts = append(params.Artifacts, models.ArtifactName(arg))
			}

			result, err := app.VerifyArtifacts.Run(cmd.Context(), params)
			if sink := getProgress(cmd); sink != nil {
				sink.Done(err)
			}
			if result == nil {
				return err
			}

			renderer := render.NewVerifyRenderer(cmd.OutOrStdout())
			if rerr := renderer.RenderVerifyResult(result); rerr != nil {
				return rerr
			}
			if err != nil {
				return err
			}

			if len(result.Rejected) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), render.FormatWarning(fmt.Sprintf("%d of %d verifications rejected",
					len(result.Rejected), len(result.Rejected)+len(result.Verified))))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&forceFlag, "force", false, "Resubmit artifacts that are already verified")
	cmd.Flags().Bool("strict-verify", false, "Exit with code 2 when any verification is rejected")

	return cmd
}
