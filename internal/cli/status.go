package cli

import (
	"github.com/spf13/cobra"

	"github.com/rika-labs/rikadeploy/internal/cli/render"
	"github.com/rika-labs/rikadeploy/internal/usecase"
)

// NewStatusCmd creates the status command
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the stored deployment progress",
		Long: `Show the checkpoint of the selected network stage by stage. Without
--network, list the checkpoints of every chain.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := app.ShowStatus.Run(cmd.Context(), usecase.ShowStatusParams{})
			if err != nil {
				return err
			}

			renderer := render.NewStatusRenderer(cmd.OutOrStdout())
			return renderer.RenderStatus(result)
		},
	}

	return cmd
}
