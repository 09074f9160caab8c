package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "presence",
	Short: "Presence coordinates enter and exit transitions in a document tree",
	Long: `Presence replays scripted document mutations against nested presence
containers and shows how every child enters, waits and leaves.

Scenarios are YAML, JSON or Markdown (frontmatter) files, either given by path
or looked up by id in the --dir repository.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("dir", ".", "Directory containing scenario documents")
	rootCmd.PersistentFlags().String("config", "", "Path to a presence.yaml configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "Override the configured log level (debug, info, warn, error)")
}
