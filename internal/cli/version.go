package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rika-labs/rikadeploy/internal/config"
)

// NewVersionCmd creates the version command
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of rikadeploy",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), config.BuildInfo())
		},
	}
}
