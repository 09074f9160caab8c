// Package metrics exports coordinator lifecycle activity as Prometheus metrics.
package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/presence/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "presence"

// Collector turns lifecycle hooks into Prometheus series.
type Collector struct {
	transitions   *prometheus.CounterVec
	failures      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	active        *prometheus.GaugeVec
	exitCompletes *prometheus.CounterVec

	mu      sync.Mutex
	started map[string]time.Time
}

// New creates a collector and registers its series with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collector{
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "transition",
				Name:      "total",
				Help:      "Finished node transitions.",
			},
			[]string{"presence_key", "phase"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "transition",
				Name:      "failures_total",
				Help:      "Node transitions whose animator returned an error.",
			},
			[]string{"presence_key", "phase"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "transition",
				Name:      "duration_seconds",
				Help:      "Node transition duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"phase"},
		),
		active: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "transition",
				Name:      "active",
				Help:      "Node transitions currently running.",
			},
			[]string{"phase"},
		),
		exitCompletes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "coordinator",
				Name:      "exit_complete_total",
				Help:      "Completed imperative exits.",
			},
			[]string{"presence_key"},
		),
		started: make(map[string]time.Time),
	}
	for _, col := range []prometheus.Collector{c.transitions, c.failures, c.duration, c.active, c.exitCompletes} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Hooks returns lifecycle hooks feeding the collector.
func (c *Collector) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransitionStart: c.onStart,
		OnTransitionEnd:   c.onEnd,
		OnExitComplete: func(_ context.Context, e *domain.CompletionEvent) {
			c.exitCompletes.WithLabelValues(e.PresenceKey).Inc()
		},
	}
}

func spanKey(e *domain.TransitionEvent) string {
	return e.PresenceKey + "/" + e.NodeID + "/" + string(e.Phase)
}

func (c *Collector) onStart(_ context.Context, e *domain.TransitionEvent) {
	c.active.WithLabelValues(string(e.Phase)).Inc()
	c.mu.Lock()
	c.started[spanKey(e)] = e.Timestamp
	c.mu.Unlock()
}

func (c *Collector) onEnd(_ context.Context, e *domain.TransitionEvent) {
	phase := string(e.Phase)
	c.active.WithLabelValues(phase).Dec()
	c.transitions.WithLabelValues(e.PresenceKey, phase).Inc()
	if e.Err != "" {
		c.failures.WithLabelValues(e.PresenceKey, phase).Inc()
	}

	key := spanKey(e)
	c.mu.Lock()
	start, ok := c.started[key]
	delete(c.started, key)
	c.mu.Unlock()
	if ok {
		c.duration.WithLabelValues(phase).Observe(e.Timestamp.Sub(start).Seconds())
	}
}

// Transitions returns the finished transitions counter.
func (c *Collector) Transitions() *prometheus.CounterVec { return c.transitions }

// Failures returns the failed transitions counter.
func (c *Collector) Failures() *prometheus.CounterVec { return c.failures }

// Duration returns the transition duration histogram.
func (c *Collector) Duration() *prometheus.HistogramVec { return c.duration }

// Active returns the running transitions gauge.
func (c *Collector) Active() *prometheus.GaugeVec { return c.active }

// ExitCompletes returns the completed exits counter.
func (c *Collector) ExitCompletes() *prometheus.CounterVec { return c.exitCompletes }
