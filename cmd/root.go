// Package cmd implements the synthbench command line interface.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version is set at build time
	Version = "dev"

	// Global flags
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "synthbench",
	Short: "Backtest the synthmerge conflict resolver on stable branches",
	Long: `Synthbench measures how often the external synthmerge resolver
reproduces known-good conflict resolutions. It parses git log output for
stable-branch commits annotated with their upstream hashes, replays each
cherry-pick in a working tree, runs synthmerge on the resulting
conflicts, and compares the outcome against the original commit.

Example:
  git log stable/linux-5.15.y -100 | synthbench run synthmerge-all.yaml`,
	Version: Version,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "echo every external command")
}
