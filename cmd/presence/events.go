package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/presence/internal/presentation/tui"
	redisAdapter "github.com/aretw0/presence/pkg/adapters/redis"
	"github.com/aretw0/presence/pkg/domain"
	backend "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Follow lifecycle events published to Redis",
	Long: `Subscribes to the configured Redis channel (redis.addr, redis.channel) and
prints every lifecycle event published by simulate or serve.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		if s.cfg.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is not configured")
		}
		asJSON, _ := cmd.Flags().GetBool("json")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		client := backend.NewClient(&backend.Options{Addr: s.cfg.Redis.Addr})
		defer client.Close()

		events, err := redisAdapter.Subscribe(ctx, client, s.cfg.Redis.Channel)
		if err != nil {
			return err
		}
		s.logger.Info("following events", "channel", s.cfg.Redis.Channel)

		out := cmd.OutOrStdout()
		for ev := range events {
			if asJSON {
				if err := json.NewEncoder(out).Encode(ev); err != nil {
					return err
				}
				continue
			}
			fmt.Fprintln(out, formatEvent(ev))
		}
		return nil
	},
}

func formatEvent(ev domain.LifecycleEvent) string {
	base := ev.Base()
	ts := base.Timestamp.Format("15:04:05.000")
	switch e := ev.(type) {
	case *domain.TransitionEvent:
		line := fmt.Sprintf("%s %-16s %s %s %s i=%d", ts, e.Type, e.PresenceKey, e.NodeID, tui.StateStyle(string(e.Phase)), e.Index)
		if e.Err != "" {
			line += " err=" + e.Err
		}
		return line
	case *domain.CompletionEvent:
		return fmt.Sprintf("%s %-16s %s nodes=%d", ts, e.Type, e.PresenceKey, e.Nodes)
	default:
		return fmt.Sprintf("%s %s %s", ts, base.Type, base.PresenceKey)
	}
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.Flags().Bool("json", false, "Print raw JSON events")
}
