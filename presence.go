package presence

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/presence/internal/logging"
	"github.com/aretw0/presence/internal/metrics"
	"github.com/aretw0/presence/internal/runtime"
	"github.com/aretw0/presence/pkg/adapters/memory"
	"github.com/aretw0/presence/pkg/domain"
	"github.com/aretw0/presence/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
)

// Coordinator sequences the transitions of one container's children.
type Coordinator = runtime.Coordinator

// Status summarizes a coordinator and its registered subtree.
type Status = runtime.Status

// Phase is the coordinator-level transition cycle.
type Phase = runtime.Phase

// settleRounds bounds how many times Settle drains echo batches produced by
// the transitions it waited for.
const settleRounds = 3

// Presence is the high-level entry point of the library. It owns every
// coordinator attached to the presence containers of one document.
type Presence struct {
	doc        *domain.Document
	animator   ports.Animator
	observer   ports.Observer
	publisher  ports.Publisher
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	observe    *bool
	timeout    time.Duration
	registerer prometheus.Registerer
	metrics    *metrics.Collector

	mu     sync.Mutex
	coords []*Coordinator
	closed bool
}

// Option defines a functional option for configuring Presence.
type Option func(*Presence)

// WithAnimator sets the transition collaborator (default: instant).
func WithAnimator(a ports.Animator) Option {
	return func(p *Presence) {
		p.animator = a
	}
}

// WithObserver sets the mutation source (default: memory.NewObserver).
func WithObserver(o ports.Observer) Option {
	return func(p *Presence) {
		p.observer = o
	}
}

// WithPublisher forwards every lifecycle event to pub. Close closes it.
func WithPublisher(pub ports.Publisher) Option {
	return func(p *Presence) {
		p.publisher = pub
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Presence) {
		p.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks on every coordinator.
// Repeated calls chain the hooks in order.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(p *Presence) {
		p.hooks = domain.ChainHooks(p.hooks, hooks)
	}
}

// WithObserve sets observation on root coordinators. Nested coordinators
// inherit it from their ancestor.
func WithObserve(observe bool) Option {
	return func(p *Presence) {
		p.observe = &observe
	}
}

// WithTransitionTimeout bounds every animator call.
func WithTransitionTimeout(d time.Duration) Option {
	return func(p *Presence) {
		p.timeout = d
	}
}

// WithMetrics exports lifecycle metrics to reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(p *Presence) {
		p.registerer = reg
	}
}

// New prepares a Presence for doc. Containers are attached by Mount.
func New(doc *domain.Document, opts ...Option) (*Presence, error) {
	if doc == nil {
		return nil, fmt.Errorf("presence: nil document")
	}
	p := &Presence{doc: doc}
	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = logging.NewNop()
	}
	if p.animator == nil {
		p.animator = memory.Instant()
	}
	if p.observer == nil {
		p.observer = memory.NewObserver()
	}
	if p.registerer != nil {
		m, err := metrics.New(p.registerer)
		if err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
		p.metrics = m
		p.hooks = domain.ChainHooks(p.hooks, m.Hooks())
	}
	return p, nil
}

// Document returns the managed document.
func (p *Presence) Document() *domain.Document { return p.doc }

// Mount attaches a coordinator to every presence container of the document
// that has none yet, ancestors before descendants.
func (p *Presence) Mount(ctx context.Context) error {
	for _, container := range p.doc.Root().QueryAll(domain.PresenceTag) {
		if container.Host() != nil {
			continue
		}
		if _, err := p.Attach(ctx, container); err != nil {
			return err
		}
	}
	return nil
}

// Attach mounts a coordinator on container. The container's id, when set,
// becomes the presence key.
func (p *Presence) Attach(ctx context.Context, container *domain.Node) (*Coordinator, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, fmt.Errorf("attach %s: presence closed", container)
	}
	p.mu.Unlock()

	opts := []runtime.Option{
		runtime.WithAnimator(p.animator),
		runtime.WithObserver(p.observer),
		runtime.WithLogger(p.logger),
		runtime.WithLifecycleHooks(p.hooks),
		runtime.WithKey(container.ID()),
		runtime.WithTransitionTimeout(p.timeout),
	}
	if p.publisher != nil {
		opts = append(opts, runtime.WithPublisher(p.publisher))
	}
	if p.observe != nil && container.ClosestHost() == nil {
		opts = append(opts, runtime.WithObserve(*p.observe))
	}

	c := runtime.New(container, opts...)
	if err := c.Mount(ctx); err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.coords = append(p.coords, c)
	p.mu.Unlock()
	return c, nil
}

// Coordinators returns every attached coordinator in mount order.
func (p *Presence) Coordinators() []*Coordinator {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*Coordinator(nil), p.coords...)
}

// Roots returns the coordinators without an ancestor.
func (p *Presence) Roots() []*Coordinator {
	var roots []*Coordinator
	for _, c := range p.Coordinators() {
		if c.Ancestor() == nil {
			roots = append(roots, c)
		}
	}
	return roots
}

// Find returns the attached coordinator with the given key.
func (p *Presence) Find(key string) (*Coordinator, error) {
	for _, c := range p.Coordinators() {
		if c.Key() == key {
			return c, nil
		}
	}
	return nil, fmt.Errorf("find %q: %w", key, domain.ErrCoordinatorNotFound)
}

// Enter runs the imperative enter of the coordinator with the given key.
func (p *Presence) Enter(ctx context.Context, key string) error {
	c, err := p.Find(key)
	if err != nil {
		return err
	}
	return c.Enter(ctx)
}

// Exit runs the imperative exit of the coordinator with the given key.
func (p *Presence) Exit(ctx context.Context, key string) error {
	c, err := p.Find(key)
	if err != nil {
		return err
	}
	return c.Exit(ctx)
}

type flusher interface {
	Flush(ctx context.Context) error
}

// Settle waits until pending mutation batches have been delivered and the
// transitions they started have finished.
func (p *Presence) Settle(ctx context.Context) error {
	f, canFlush := p.observer.(flusher)
	for i := 0; i < settleRounds; i++ {
		if canFlush {
			if err := f.Flush(ctx); err != nil {
				return err
			}
		}
		for _, c := range p.Coordinators() {
			if err := c.Settle(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// Status returns the status of every root coordinator.
func (p *Presence) Status() []Status {
	var out []Status
	for _, c := range p.Roots() {
		out = append(out, c.Status())
	}
	return out
}

// Snapshot returns the current view of the whole document.
func (p *Presence) Snapshot() *domain.NodeSnapshot {
	return p.doc.Root().Snapshot()
}

// Close unmounts every coordinator, descendants first, and closes the
// publisher.
func (p *Presence) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	coords := p.coords
	p.coords = nil
	p.mu.Unlock()

	for i := len(coords) - 1; i >= 0; i-- {
		coords[i].Unmount()
	}
	if p.publisher != nil {
		return p.publisher.Close()
	}
	return nil
}
