package metrics_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/presence/internal/metrics"
	"github.com/aretw0/presence/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func event(typ domain.EventType, phase domain.Phase, at time.Time, errMsg string) *domain.TransitionEvent {
	return &domain.TransitionEvent{
		EventBase: domain.EventBase{Type: typ, Timestamp: at, PresenceKey: "list"},
		NodeID:    "a",
		Phase:     phase,
		Err:       errMsg,
	}
}

func TestCollector_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := metrics.New(reg)
	require.NoError(t, err)

	hooks := c.Hooks()
	ctx := context.Background()
	t0 := time.Now()

	hooks.OnTransitionStart(ctx, event(domain.EventTransitionStart, domain.PhaseEnter, t0, ""))
	hooks.OnTransitionEnd(ctx, event(domain.EventTransitionEnd, domain.PhaseEnter, t0.Add(50*time.Millisecond), ""))
	hooks.OnTransitionStart(ctx, event(domain.EventTransitionStart, domain.PhaseExit, t0, ""))
	hooks.OnTransitionEnd(ctx, event(domain.EventTransitionEnd, domain.PhaseExit, t0, "boom"))
	hooks.OnExitComplete(ctx, &domain.CompletionEvent{EventBase: domain.EventBase{PresenceKey: "list"}, Nodes: 1})

	assert.InDelta(t, 1, testutil.ToFloat64(c.Transitions().WithLabelValues("list", "enter")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.Transitions().WithLabelValues("list", "exit")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.Failures().WithLabelValues("list", "exit")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(c.Failures().WithLabelValues("list", "enter")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(c.Active().WithLabelValues("enter")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.ExitCompletes().WithLabelValues("list")), 0)
	assert.Equal(t, 2, testutil.CollectAndCount(c.Duration()))
}

func TestNew_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := metrics.New(reg)
	require.NoError(t, err)
	_, err = metrics.New(reg)
	assert.Error(t, err)
}
