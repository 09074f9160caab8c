package runtime

import (
	"log/slog"
	"time"

	"github.com/aretw0/presence/pkg/domain"
	"github.com/aretw0/presence/pkg/ports"
)

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithAnimator sets the transition collaborator.
func WithAnimator(a ports.Animator) Option {
	return func(c *Coordinator) {
		c.animator = a
	}
}

// WithObserver sets the mutation source used while observation is enabled.
func WithObserver(o ports.Observer) Option {
	return func(c *Coordinator) {
		c.observer = o
	}
}

// WithPublisher forwards lifecycle events to p.
func WithPublisher(p ports.Publisher) Option {
	return func(c *Coordinator) {
		c.publisher = p
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Coordinator) {
		c.hooks = hooks
	}
}

// WithObserve sets observation explicitly. An explicit value always wins
// over the value inherited from the ancestor coordinator.
func WithObserve(observe bool) Option {
	return func(c *Coordinator) {
		c.explicitObserve = &observe
	}
}

// WithKey overrides the generated presence key.
func WithKey(key string) Option {
	return func(c *Coordinator) {
		if key != "" {
			c.key = key
		}
	}
}

// WithTransitionTimeout bounds every animator call. Zero (the default) means
// transitions are awaited for as long as the animator takes.
func WithTransitionTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		c.timeout = d
	}
}
