package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/presence/pkg/adapters/mcp"
	"github.com/aretw0/presence/pkg/scenario"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp <scenario>",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Mounts the scenario tree and exposes it as an MCP Server, so agents can
inspect the tree and drive imperative enter and exit cycles.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		sc, err := loadScenario(ctx, cmd, args[0])
		if err != nil {
			return err
		}
		p, err := scenario.NewRunner(s.logger, s.options(nil)...).Start(ctx, sc)
		if err != nil {
			return err
		}
		defer p.Close()

		srv := mcp.NewServer(p, s.logger)

		switch transport {
		case "stdio":
			// Logs must not corrupt JSON-RPC on Stdout.
			log.SetOutput(os.Stderr)
			s.logger.Info("Starting presence MCP Server (Stdio)", "scenario", sc.ID)
			return srv.ServeStdio()
		case "sse":
			s.logger.Info("Starting presence MCP Server (SSE)", "port", port, "scenario", sc.ID)
			if err := srv.ServeSSE(ctx, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringP("transport", "t", "stdio", "Transport: stdio or sse")
	mcpCmd.Flags().IntP("port", "p", 8081, "Port for the sse transport")
}
