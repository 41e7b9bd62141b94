package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rika-labs/rikadeploy/internal/cli/render"
	"github.com/rika-labs/rikadeploy/internal/usecase"
)

// NewDeployCmd creates the deploy command
func NewDeployCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy, fund and verify the payment contracts",
		Long: `Run the full deployment pipeline against the selected network:

  1. deploy the RUSDC token
  2. deploy the faucet
  3. fund the faucet
  4. deploy the payment wallet implementation
  5. deploy the payment wallet factory
  6. wait for finality
  7. verify each contract on the explorer

Completed stages are read from the network's checkpoint and skipped.

Examples:
  rikadeploy deploy --network sonicTestnet
  rikadeploy deploy --network sonicTestnet --fresh
  rikadeploy deploy --network sonic --yes --manifest deployments/sonic.yaml
  rikadeploy deploy --network sonic --strict-verify`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			params := usecase.DeployPipelineParams{
				Fresh:        app.Config.Fresh,
				SkipVerify:   app.Config.SkipVerify,
				StrictVerify: app.Config.StrictVerify,
				AssumeYes:    app.Config.AssumeYes,
				ManifestPath: app.Config.ManifestPath,
			}

			result, err := app.DeployPipeline.Run(cmd.Context(), params)
			if sink := getProgress(cmd); sink != nil {
				sink.Done(err)
			}

			renderer := render.NewDeployRenderer(cmd.OutOrStdout())
			if rerr := renderer.RenderDeployResult(result); rerr != nil {
				return rerr
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), render.FormatSuccess(fmt.Sprintf("Deployment to %s complete", result.State.Network)))
			return nil
		},
	}

	cmd.Flags().Bool("fresh", false, "Ignore the existing checkpoint and deploy everything again")
	cmd.Flags().Bool("strict-verify", false, "Exit with code 2 when any explorer verification is rejected")
	cmd.Flags().Bool("skip-verify", false, "Stop after the finality barrier")
	cmd.Flags().BoolP("yes", "y", false, "Don't ask for confirmation before broadcasting to a mainnet")
	cmd.Flags().String("manifest", "", "Write a YAML manifest of the deployed contracts to this path")

	return cmd
}
