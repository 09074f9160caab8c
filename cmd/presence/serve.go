package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpAdapter "github.com/aretw0/presence/pkg/adapters/http"
	"github.com/aretw0/presence/pkg/scenario"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve <scenario>",
	Short: "Serve a mounted scenario tree over HTTP",
	Long: `Mounts the scenario tree (steps are not applied) and exposes it over HTTP:
GET /tree, GET /coordinators, POST /coordinators/{key}/enter|exit,
GET /events (SSE lifecycle stream) and GET /metrics.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		addr := s.cfg.HTTP.Addr
		if cmd.Flags().Changed("addr") {
			addr, _ = cmd.Flags().GetString("addr")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		sc, err := loadScenario(ctx, cmd, args[0])
		if err != nil {
			return err
		}

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		streams := httpAdapter.NewStreamManager()

		p, err := scenario.NewRunner(s.logger, s.options(reg, streams)...).Start(ctx, sc)
		if err != nil {
			return err
		}
		defer p.Close()

		srv := &http.Server{
			Addr: addr,
			Handler: httpAdapter.NewHandler(p,
				httpAdapter.WithStreams(streams),
				httpAdapter.WithMetrics(reg),
				httpAdapter.WithLogger(s.logger),
			),
		}

		serverErrors := make(chan error, 1)
		go func() {
			s.logger.Info("presence server listening", "address", srv.Addr, "scenario", sc.ID)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)
		case <-ctx.Done():
			s.logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				_ = srv.Close()
				return fmt.Errorf("graceful shutdown did not complete: %w", err)
			}
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on (overrides http.addr)")
}
