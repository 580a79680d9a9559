package main

import (
	"github.com/aretw0/gantry/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the task graph",
	Long:  `Checks that every prerequisite names a registered task and target, and that no prerequisites form a cycle.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.Validate(runOptions(cmd), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
