package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/presence/internal/logging"
	"github.com/aretw0/presence/pkg/domain"
	"github.com/aretw0/presence/pkg/ports"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

var keySeq atomic.Int64

// Phase is the coordinator-level transition cycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseEntering
	PhaseEntered
	PhaseExiting
	PhaseExited
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseEntering:
		return "entering"
	case PhaseEntered:
		return "entered"
	case PhaseExiting:
		return "exiting"
	case PhaseExited:
		return "exited"
	default:
		return "unknown"
	}
}

// Coordinator sequences the enter and exit transitions of the direct
// children of one container node and cascades them across the coordinators
// nested below it.
type Coordinator struct {
	key       string
	container *domain.Node
	animator  ports.Animator
	observer  ports.Observer
	publisher ports.Publisher
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
	timeout   time.Duration

	explicitObserve *bool

	mu           sync.Mutex
	ctx          context.Context
	phase        Phase
	exitDone     chan struct{}
	mounted      bool
	observing    bool
	ancestor     *Coordinator
	sub          ports.Subscription
	stopListener func()

	children *Registry
	flight   singleflight.Group
	inflight inflight
}

// New creates a coordinator for container. It does nothing until mounted.
func New(container *domain.Node, opts ...Option) *Coordinator {
	c := &Coordinator{
		key:       fmt.Sprintf("%s-%d", domain.PresenceTag, keySeq.Add(1)-1),
		container: container,
		logger:    logging.NewNop(),
		children:  NewRegistry(),
		ctx:       context.Background(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.animator == nil {
		c.animator = ports.AnimatorFunc(func(_ context.Context, _ *domain.Node, afterSelf func()) error {
			afterSelf()
			return nil
		})
	}
	c.logger = c.logger.With("presence_key", c.key)
	return c
}

// Key returns the stable presence key of the coordinator.
func (c *Coordinator) Key() string { return c.key }

// PresenceKey implements domain.Host.
func (c *Coordinator) PresenceKey() string { return c.key }

// Container returns the node whose children are coordinated.
func (c *Coordinator) Container() *domain.Node { return c.container }

// Ancestor returns the nearest ancestor coordinator found at mount time.
func (c *Coordinator) Ancestor() *Coordinator {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ancestor
}

// Phase returns the current cycle.
func (c *Coordinator) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// WillEnter reports whether an entrance is in flight.
func (c *Coordinator) WillEnter() bool { return c.Phase() == PhaseEntering }

// DidEnter reports whether the last entrance completed.
func (c *Coordinator) DidEnter() bool { return c.Phase() == PhaseEntered }

// WillExit reports whether an exit is in flight.
func (c *Coordinator) WillExit() bool { return c.Phase() == PhaseExiting }

// DidExit reports whether the last exit completed.
func (c *Coordinator) DidExit() bool { return c.Phase() == PhaseExited }

// Observing reports whether structural mutations drive transitions.
func (c *Coordinator) Observing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.observing
}

// Mount attaches the coordinator to its container, discovers the ancestor
// coordinator, starts observation and registers with the ancestor. A root
// coordinator enters on its own right after mounting.
func (c *Coordinator) Mount(ctx context.Context) error {
	ancestor, _ := c.container.ClosestHost().(*Coordinator)
	inherited := true
	if ancestor != nil {
		inherited = ancestor.Observing()
	}

	c.mu.Lock()
	if h := c.container.Host(); c.mounted || (h != nil && h != domain.Host(c)) {
		c.mu.Unlock()
		return fmt.Errorf("mount %s on %s: %w", c.key, c.container, domain.ErrAlreadyMounted)
	}
	c.ctx = context.WithoutCancel(ctx)
	c.ancestor = ancestor
	c.observing = inherited
	if c.explicitObserve != nil {
		c.observing = *c.explicitObserve
	}
	c.mounted = true
	c.container.SetHost(c)
	c.stopListener = c.container.AddEventListener(domain.ExitCompleteEvent, func(ev *domain.Event) {
		// Completion of a nested coordinator stops here.
		if ev.Target() != c.container {
			ev.StopPropagation()
		}
	})
	c.mu.Unlock()

	if err := c.syncObservation(); err != nil {
		c.Unmount()
		return err
	}
	if ancestor != nil {
		ancestor.RegisterChild(c)
	}
	for _, child := range c.container.ElementChildren() {
		child.MarkInitial()
	}

	c.logger.Info("coordinator mounted", "container", c.container.ID(), "root", ancestor == nil, "observe", c.Observing())

	// A root has nobody to enter it. A descendant mounted after its ancestor
	// finished entering arrives on its own.
	if ancestor == nil || ancestor.DidEnter() {
		c.inflight.Go(func() {
			if err := c.Enter(c.baseContext()); err != nil {
				c.logger.Warn("initial enter failed", "err", err)
			}
		})
	}
	return nil
}

// Unmount stops observation, unregisters from the ancestor and forgets the
// registered descendants. In-flight transitions are not canceled.
func (c *Coordinator) Unmount() {
	c.mu.Lock()
	if !c.mounted {
		c.mu.Unlock()
		return
	}
	c.mounted = false
	sub, stop, ancestor := c.sub, c.stopListener, c.ancestor
	c.sub, c.stopListener = nil, nil
	c.mu.Unlock()

	if sub != nil {
		sub.Disconnect()
	}
	if stop != nil {
		stop()
	}
	if ancestor != nil {
		ancestor.UnregisterChild(c.key)
	}
	c.children.Clear()
	c.container.SetHost(nil)

	c.logger.Info("coordinator unmounted")
}

// SetObserve explicitly enables or disables observation, overriding any
// inherited value. It takes effect immediately on a mounted coordinator.
func (c *Coordinator) SetObserve(observe bool) error {
	c.mu.Lock()
	c.explicitObserve = &observe
	c.observing = observe
	c.mu.Unlock()
	return c.syncObservation()
}

func (c *Coordinator) syncObservation() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	want := c.mounted && c.observing
	switch {
	case want && c.sub == nil:
		if c.observer == nil {
			c.logger.Warn("observation enabled without an observer")
			return nil
		}
		sub, err := c.observer.Observe(c.container, domain.ObserveOptions{
			ChildList:       true,
			Attributes:      true,
			AttributeFilter: []string{domain.KeyAttribute},
		}, c.handleMutation)
		if err != nil {
			return fmt.Errorf("observe %s: %w", c.container, err)
		}
		c.sub = sub
	case !want && c.sub != nil:
		c.sub.Disconnect()
		c.sub = nil
	}
	return nil
}

// RegisterChild records a descendant coordinator, replacing any previous
// registration with the same key.
func (c *Coordinator) RegisterChild(child *Coordinator) {
	c.children.Register(child)
	c.logger.Debug("registered descendant", "child", child.Key())
}

// UnregisterChild forgets the descendant registered under key.
func (c *Coordinator) UnregisterChild(key string) {
	c.children.Unregister(key)
	c.logger.Debug("unregistered descendant", "child", key)
}

// Descendants returns the registered descendant coordinators.
func (c *Coordinator) Descendants() []*Coordinator {
	return c.children.List()
}

// Find returns the coordinator with key in the registered subtree,
// c included.
func (c *Coordinator) Find(key string) (*Coordinator, error) {
	if key == c.key {
		return c, nil
	}
	if d, ok := c.children.Get(key); ok {
		return d, nil
	}
	for _, d := range c.children.List() {
		if found, err := d.Find(key); err == nil {
			return found, nil
		}
	}
	return nil, fmt.Errorf("find %q: %w", key, domain.ErrCoordinatorNotFound)
}

// Enter enters every direct child concurrently, then cascades into the
// registered descendants. Concurrent callers share one cycle; calling Enter
// while entering or entered does nothing. Enter called during an exit waits
// for the exit to complete, then brings the hidden children back.
func (c *Coordinator) Enter(ctx context.Context) error {
	_, err, _ := c.flight.Do(string(domain.PhaseEnter), func() (any, error) {
		for {
			ok, exiting := c.begin(PhaseEntering)
			if exiting != nil {
				c.logger.Debug("enter waits for the in-flight exit")
				select {
				case <-exiting:
					continue
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}
			if !ok {
				c.logger.Debug("ignoring re-entrant enter")
				return nil, nil
			}
			return nil, c.runEnter(ctx)
		}
	})
	return err
}

func (c *Coordinator) runEnter(ctx context.Context) error {
	var g errgroup.Group
	for i, child := range c.container.ElementChildren() {
		g.Go(func() error {
			return c.enterNode(ctx, child, i)
		})
	}
	err := g.Wait()

	var nested []domain.Host
	for _, d := range c.children.List() {
		nested = append(nested, d)
	}
	err = errors.Join(err, cascade(ctx, nested, domain.PhaseEnter))

	c.finish(PhaseEntering, PhaseEntered)

	// Descendants that registered while the cycle ran.
	var late []domain.Host
	for _, d := range c.children.List() {
		if d.Phase() == PhaseIdle {
			late = append(late, d)
		}
	}
	return errors.Join(err, cascade(ctx, late, domain.PhaseEnter))
}

// Exit exits every direct child concurrently with the hide disposal, after
// the coordinators nested in each child have exited, then emits exitComplete.
// Concurrent callers share one cycle; calling Exit while exiting or exited
// does nothing.
func (c *Coordinator) Exit(ctx context.Context) error {
	_, err, _ := c.flight.Do(string(domain.PhaseExit), func() (any, error) {
		if ok, _ := c.begin(PhaseExiting); !ok {
			c.logger.Debug("ignoring re-entrant exit")
			return nil, nil
		}
		return nil, c.runExit(ctx)
	})
	return err
}

func (c *Coordinator) runExit(ctx context.Context) error {
	children := c.container.ElementChildren()

	// Indexes run from the last child (0) up to the first.
	var g errgroup.Group
	for i, child := range children {
		index := len(children) - 1 - i
		g.Go(func() error {
			return c.exitNode(ctx, child, domain.DisposeHide, index)
		})
	}
	err := g.Wait()

	var nested []domain.Host
	for _, d := range c.children.List() {
		nested = append(nested, d)
	}
	err = errors.Join(err, cascade(ctx, nested, domain.PhaseExit))

	c.finish(PhaseExiting, PhaseExited)
	c.emitExitComplete(ctx, len(children))

	c.mu.Lock()
	if c.exitDone != nil {
		close(c.exitDone)
		c.exitDone = nil
	}
	c.mu.Unlock()
	return err
}

// baseContext is the context transitions started by mutations run under.
func (c *Coordinator) baseContext() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ctx
}

// begin moves c into the cycle phase to. It reports false when that cycle is
// running or complete. An enter never replaces a running exit: begin then
// returns the channel closed when the exit completes.
func (c *Coordinator) begin(to Phase) (bool, <-chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	done := PhaseEntered
	if to == PhaseExiting {
		done = PhaseExited
	}
	if c.phase == to || c.phase == done {
		return false, nil
	}
	if to == PhaseEntering && c.phase == PhaseExiting && c.exitDone != nil {
		return false, c.exitDone
	}
	c.phase = to
	if to == PhaseExiting {
		c.exitDone = make(chan struct{})
	}
	return true, nil
}

// finish completes a cycle unless another cycle replaced it meanwhile.
func (c *Coordinator) finish(from, to Phase) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == from {
		c.phase = to
	}
}

func (c *Coordinator) emitExitComplete(ctx context.Context, nodes int) {
	ev := &domain.CompletionEvent{
		EventBase: domain.EventBase{
			ID:          uuid.NewString(),
			Timestamp:   time.Now(),
			Type:        domain.EventExitComplete,
			PresenceKey: c.key,
		},
		Nodes: nodes,
	}
	if c.hooks.OnExitComplete != nil {
		c.hooks.OnExitComplete(ctx, ev)
	}
	c.publish(ctx, ev)

	c.container.DispatchEvent(domain.NewEvent(domain.ExitCompleteEvent))
	c.logger.Debug("exit complete", "nodes", nodes)
}

// OnExitComplete registers fn for exitComplete events reaching the container:
// its own and those of the descendants directly below it. fn receives the
// container that emitted the event. The returned function removes fn.
func (c *Coordinator) OnExitComplete(fn func(source *domain.Node)) func() {
	return c.container.AddEventListener(domain.ExitCompleteEvent, func(ev *domain.Event) {
		fn(ev.Target())
	})
}

// Settle waits until the transitions started by delivered mutation batches
// and by the initial enter have finished, here and in every descendant.
func (c *Coordinator) Settle(ctx context.Context) error {
	if err := c.inflight.Wait(ctx); err != nil {
		return err
	}
	for _, d := range c.children.List() {
		if err := d.Settle(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot returns the current view of the container subtree.
func (c *Coordinator) Snapshot() *domain.NodeSnapshot {
	return c.container.Snapshot()
}

// Status summarizes a coordinator and its registered subtree.
type Status struct {
	Key         string   `json:"key" yaml:"key"`
	Container   string   `json:"container" yaml:"container"`
	Phase       string   `json:"phase" yaml:"phase"`
	Observe     bool     `json:"observe" yaml:"observe"`
	Ancestor    string   `json:"ancestor,omitempty" yaml:"ancestor,omitempty"`
	Descendants []Status `json:"descendants,omitempty" yaml:"descendants,omitempty"`
}

// Status returns the summary of c and its descendants.
func (c *Coordinator) Status() Status {
	s := Status{
		Key:       c.key,
		Container: c.container.ID(),
		Phase:     c.Phase().String(),
		Observe:   c.Observing(),
	}
	if a := c.Ancestor(); a != nil {
		s.Ancestor = a.Key()
	}
	for _, d := range c.children.List() {
		s.Descendants = append(s.Descendants, d.Status())
	}
	return s
}

// inflight tracks goroutines running transitions.
type inflight struct {
	mu   sync.Mutex
	n    int
	idle chan struct{}
}

func (t *inflight) Go(fn func()) {
	t.mu.Lock()
	if t.n == 0 {
		t.idle = make(chan struct{})
	}
	t.n++
	t.mu.Unlock()

	go func() {
		defer t.done()
		fn()
	}()
}

func (t *inflight) done() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.n--
	if t.n == 0 {
		close(t.idle)
	}
}

func (t *inflight) Wait(ctx context.Context) error {
	t.mu.Lock()
	if t.n == 0 {
		t.mu.Unlock()
		return nil
	}
	idle := t.idle
	t.mu.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-idle:
		return nil
	}
}
