package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/presence"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of presence",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "presence version %s\n", strings.TrimSpace(presence.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
