package main

import (
	"os"

	"github.com/aretw0/gantry/internal/cli"
	"github.com/aretw0/gantry/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List the registered tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		markdown, _ := cmd.Flags().GetBool("markdown")
		if !cmd.Flags().Changed("markdown") {
			markdown = tui.IsInteractive(os.Stdout)
		}
		if markdown {
			tui.PrintBanner(cmd.OutOrStdout())
		}
		return cli.ListTasks(runOptions(cmd), cmd.OutOrStdout(), markdown)
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().Bool("markdown", false, "Render the task table as markdown (default when stdout is a terminal)")
}
