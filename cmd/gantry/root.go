package main

import (
	"fmt"
	"os"

	"github.com/aretw0/gantry/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gantry [task...]",
	Short: "Gantry runs the build and release tasks of a scaffolding generator",
	Long: `Gantry declares the maintenance tasks of a project generator (demo generation,
fixtures, tests, dependency checks and publishing) and runs them in dependency order.

Tasks are given by name, optionally with a target: gantry test:fast bump:minor`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Task failures are already reported by the runner.
		if !reported(err) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	flags := rootCmd.PersistentFlags()
	flags.String("dir", ".", "Directory containing the generator project")
	flags.String("config", "", "Path to the gantry config (default <dir>/gantry.yaml)")
	flags.String("env-file", "", "Path to a dotenv file (default <dir>/.env)")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.BoolP("verbose", "v", false, "Log every task and process")
	flags.String("metrics-out", "", "Write Prometheus metrics to this file after the run")
	flags.String("redis", "", "Redis address used to serialise publishes (host:port)")
}

// runOptions collects the persistent flags.
func runOptions(cmd *cobra.Command) cli.RunOptions {
	flags := cmd.Flags()
	opts := cli.RunOptions{}
	opts.Dir, _ = flags.GetString("dir")
	opts.ConfigPath, _ = flags.GetString("config")
	opts.EnvFile, _ = flags.GetString("env-file")
	opts.LogLevel, _ = flags.GetString("log-level")
	opts.Verbose, _ = flags.GetBool("verbose")
	opts.MetricsOut, _ = flags.GetString("metrics-out")
	opts.RedisAddr, _ = flags.GetString("redis")
	return opts
}

// reportedError marks errors the cli package already printed.
type reportedError struct{ err error }

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

func reported(err error) bool {
	_, ok := err.(reportedError)
	return ok
}
