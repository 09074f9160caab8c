package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/presence"
	"github.com/aretw0/presence/internal/config"
	"github.com/aretw0/presence/internal/logging"
	loamAdapter "github.com/aretw0/presence/pkg/adapters/loam"
	"github.com/aretw0/presence/pkg/adapters/memory"
	redisAdapter "github.com/aretw0/presence/pkg/adapters/redis"
	"github.com/aretw0/presence/pkg/ports"
	"github.com/aretw0/presence/pkg/scenario"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// session is the configuration shared by every command.
type session struct {
	cfg    config.Config
	logger *slog.Logger
}

func newSession(cmd *cobra.Command) (*session, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, logger: logging.New(level)}, nil
}

// options translates the configuration into presence options. publishers
// are added to the Redis publisher when one is configured.
func (s *session) options(reg prometheus.Registerer, publishers ...ports.Publisher) []presence.Option {
	opts := []presence.Option{
		presence.WithLogger(s.logger),
		presence.WithAnimator(memory.NewAnimator(s.cfg.Animator.Duration, s.cfg.Animator.Stagger)),
		presence.WithObserve(s.cfg.Observe),
		presence.WithTransitionTimeout(s.cfg.TransitionTimeout),
	}
	if reg != nil {
		opts = append(opts, presence.WithMetrics(reg))
	}
	if s.cfg.Redis.Addr != "" {
		publishers = append(publishers, redisAdapter.New(s.cfg.Redis.Addr, redisAdapter.WithChannel(s.cfg.Redis.Channel)))
	}
	if len(publishers) > 0 {
		opts = append(opts, presence.WithPublisher(ports.Publishers(publishers)))
	}
	return opts
}

// loadScenario reads ref as a file when it exists, otherwise as a document
// id in the --dir repository.
func loadScenario(ctx context.Context, cmd *cobra.Command, ref string) (scenario.Scenario, error) {
	if info, err := os.Stat(ref); err == nil && !info.IsDir() {
		return scenario.Load(ref)
	}
	dir, _ := cmd.Flags().GetString("dir")
	loader, err := loamAdapter.Open(dir)
	if err != nil {
		return scenario.Scenario{}, err
	}
	sc, err := loader.Get(ctx, ref)
	if err != nil {
		return scenario.Scenario{}, fmt.Errorf("scenario %q not found as a file or in %s: %w", ref, dir, err)
	}
	return sc, nil
}
