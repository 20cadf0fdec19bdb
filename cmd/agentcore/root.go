package main

import (
	"github.com/spf13/cobra"
)

// rootFlags are cross-cutting options every subcommand can read.
type rootFlags struct {
	configPath string
	verbose    bool
}

func newRootCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "agentcore",
		Short:         "agentcore plans and executes multi-step agent tool calls",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "Path to a YAML config file (defaults to the development preset)")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug-level logging")

	cmd.AddCommand(newPlanCmd(flags))
	cmd.AddCommand(newRunCmd(flags))
	cmd.AddCommand(newReplanCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}
