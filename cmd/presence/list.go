package main

import (
	"fmt"

	loamAdapter "github.com/aretw0/presence/pkg/adapters/loam"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the scenarios of the --dir repository",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")
		loader, err := loamAdapter.Open(dir)
		if err != nil {
			return err
		}
		ids, err := loader.List(cmd.Context())
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
