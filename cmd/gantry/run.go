package main

import (
	"github.com/aretw0/gantry/internal/cli"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [task...]",
	Short: "Run tasks in order",
	Long: `Runs each named task after its prerequisites. With no task, the list of
registered tasks is printed instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return listCmd.RunE(cmd, args)
		}
		if err := cli.Execute(runOptions(cmd), args); err != nil {
			return reportedError{err}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	// 'gantry test:fast' is the same as 'gantry run test:fast'.
	rootCmd.Args = cobra.ArbitraryArgs
	rootCmd.RunE = runCmd.RunE
}
