package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd builds the chartfetch command tree.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chartfetch",
		Short: "IMDb Top 250 extraction toolkit",
		Long: `chartfetch pulls the IMDb Top 250 chart, reconciles the canonical ranks
with the page's structured data, and emits the merged movie list. The same
pipeline backs the chartd control panel; this CLI runs it once and exits.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional, YAML)")

	cmd.AddCommand(newFetchCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the CLI and exits nonzero on error.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "chartfetch: %v\n", err)
		os.Exit(1)
	}
}
