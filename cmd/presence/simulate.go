package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/presence/internal/presentation/tui"
	loamAdapter "github.com/aretw0/presence/pkg/adapters/loam"
	"github.com/aretw0/presence/pkg/scenario"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate <scenario>",
	Short: "Replay a scenario and print its transition timeline",
	Long: `Builds the scenario tree, mounts every presence container, applies each
step and waits for the transitions it causes. The timeline is printed as a
markdown report (rendered when stdout is a terminal), JSON or YAML.

With --watch the scenario is replayed every time its document in --dir changes.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		banner, _ := cmd.Flags().GetBool("banner")
		watch, _ := cmd.Flags().GetBool("watch")

		out := cmd.OutOrStdout()
		if banner && (format == "markdown" || format == "md") && tui.IsTerminal(os.Stdout) {
			tui.PrintBanner(out)
		}

		ctx := cmd.Context()
		if !watch {
			return s.simulate(ctx, cmd, args[0], format, out)
		}

		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		dir, _ := cmd.Flags().GetString("dir")
		loader, err := loamAdapter.Open(dir)
		if err != nil {
			return err
		}
		changes, err := loader.Watch(ctx)
		if err != nil {
			return err
		}

		if err := s.simulate(ctx, cmd, args[0], format, out); err != nil {
			s.logger.Error("simulation failed", "error", err)
		}
		for id := range changes {
			if id != args[0] {
				continue
			}
			s.logger.Info("scenario changed, replaying", "scenario", id)
			if err := s.simulate(ctx, cmd, args[0], format, out); err != nil {
				s.logger.Error("simulation failed", "error", err)
			}
		}
		return nil
	},
}

func (s *session) simulate(ctx context.Context, cmd *cobra.Command, ref, format string, out io.Writer) error {
	sc, err := loadScenario(ctx, cmd, ref)
	if err != nil {
		return err
	}

	res, err := scenario.NewRunner(s.logger, s.options(nil)...).Run(ctx, sc)
	if err != nil {
		return err
	}

	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case "yaml":
		enc := yaml.NewEncoder(out)
		defer enc.Close()
		return enc.Encode(res)
	case "markdown", "md":
		rendered, err := tui.NewRenderer(os.Stdout)(tui.Report(res))
		if err != nil {
			return err
		}
		fmt.Fprint(out, rendered)
		return nil
	default:
		return fmt.Errorf("unknown format %q (markdown, json, yaml)", format)
	}
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().StringP("format", "f", "markdown", "Output format: markdown, json or yaml")
	simulateCmd.Flags().Bool("banner", false, "Print the banner before the report")
	simulateCmd.Flags().BoolP("watch", "w", false, "Replay the scenario whenever its document changes")
}
