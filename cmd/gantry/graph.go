package main

import (
	"github.com/aretw0/gantry/internal/cli"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the task graph visualization",
	Long:  `Outputs a Mermaid diagram (graph TD) of the tasks and their prerequisites.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.PrintGraph(runOptions(cmd), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
