package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "fable",
	Short: "Hierarchical long-form text generation",
	Long: `Fable generates long-form text by recursively decomposing a writing
task into a tree of sub-tasks, then planning, outlining, and writing each
section before concatenating them in order.

The planner splits tasks until each section fits a single focused writing
pass, using word-count thresholds plus an AI complexity judgment for the
ambiguous middle ground. Sections are outlined and written independently,
optionally in parallel, and assembled in reading order.`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}
