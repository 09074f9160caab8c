package main

import (
	"fmt"

	"github.com/aretw0/presence/internal/presentation/graph"
	"github.com/aretw0/presence/pkg/scenario"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <scenario>",
	Short: "Export the document tree visualization",
	Long: `Replays the scenario and outputs a Mermaid diagram (graph TD) of the final
tree. Nodes touched by the last step are highlighted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		sc, err := loadScenario(ctx, cmd, args[0])
		if err != nil {
			return err
		}

		res, err := scenario.NewRunner(s.logger, s.options(nil)...).Run(ctx, sc)
		if err != nil {
			return err
		}

		last := len(sc.Steps)
		var changed []string
		for _, e := range res.Timeline {
			if e.Step == last && e.NodeID != "" {
				changed = append(changed, e.NodeID)
			}
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(res.Final, &graph.Overlay{Changed: changed}))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
