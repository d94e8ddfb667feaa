// Command ecsbench drives a demo world through the scheduler, either for a
// fixed number of ticks or on a cron-style interval, so the ecsruntime
// library can be exercised from the outside the way a host application
// would. Topology can come from a YAML manifest (see package config) or
// from the built-in demo schedule.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version is set via ldflags during build.
	Version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "ecsbench",
	Short:   "Drive a demo ecsruntime world through the scheduler",
	Version: Version,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "path to a YAML scheduler topology manifest (see config.Document); built-in demo schedule used if omitted")
	rootCmd.PersistentFlags().Int("workers", 0, "async worker pool size (0 lets the scheduler pick a default)")
	rootCmd.PersistentFlags().Bool("log-json", true, "emit structured schedule-completion logs as JSON instead of key=value")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
}
