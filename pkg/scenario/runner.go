package scenario

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/presence"
	"github.com/aretw0/presence/internal/logging"
	"github.com/aretw0/presence/pkg/domain"
	"github.com/aretw0/presence/pkg/dsl"
)

// EntryStep marks the start of a step in a timeline.
const EntryStep domain.EventType = "step"

// Entry is one line of a timeline.
type Entry struct {
	Step        int              `json:"step" yaml:"step"`
	Type        domain.EventType `json:"type" yaml:"type"`
	PresenceKey string           `json:"presence_key,omitempty" yaml:"presence_key,omitempty"`
	NodeID      string           `json:"node_id,omitempty" yaml:"node_id,omitempty"`
	Phase       domain.Phase     `json:"phase,omitempty" yaml:"phase,omitempty"`
	Index       int              `json:"index" yaml:"index"`
	Disposal    domain.Disposal  `json:"disposal,omitempty" yaml:"disposal,omitempty"`
	Nodes       int              `json:"nodes,omitempty" yaml:"nodes,omitempty"`
	Err         string           `json:"err,omitempty" yaml:"err,omitempty"`
	Note        string           `json:"note,omitempty" yaml:"note,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	Scenario string               `json:"scenario" yaml:"scenario"`
	Timeline []Entry              `json:"timeline" yaml:"timeline"`
	Final    *domain.NodeSnapshot `json:"final" yaml:"final"`
	Status   []presence.Status    `json:"status" yaml:"status"`
}

// Filter returns the entries of the given type, in order.
func (r *Result) Filter(typ domain.EventType) []Entry {
	var out []Entry
	for _, e := range r.Timeline {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

// Runner replays scenarios.
type Runner struct {
	opts   []presence.Option
	logger *slog.Logger
}

// NewRunner creates a runner whose presence instances get opts.
func NewRunner(logger *slog.Logger, opts ...presence.Option) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{opts: opts, logger: logger}
}

// Start builds the scenario tree and mounts it without applying any step.
// The caller owns the returned Presence.
func (r *Runner) Start(ctx context.Context, sc Scenario) (*presence.Presence, error) {
	p, _, err := r.start(ctx, sc)
	return p, err
}

func (r *Runner) start(ctx context.Context, sc Scenario, extra ...presence.Option) (*presence.Presence, *dsl.Tree, error) {
	if err := sc.Validate(); err != nil {
		return nil, nil, err
	}
	tree, err := dsl.FromSpecs(sc.Tree...)
	if err != nil {
		return nil, nil, fmt.Errorf("scenario %q: %w", sc.ID, err)
	}

	opts := append([]presence.Option{}, r.opts...)
	opts = append(opts, extra...)
	if sc.Observe != nil {
		opts = append(opts, presence.WithObserve(*sc.Observe))
	}
	p, err := presence.New(tree.Doc, opts...)
	if err != nil {
		return nil, nil, err
	}
	if err := p.Mount(ctx); err != nil {
		p.Close()
		return nil, nil, err
	}
	if err := p.Settle(ctx); err != nil {
		p.Close()
		return nil, nil, fmt.Errorf("scenario %q: settle after mount: %w", sc.ID, err)
	}
	return p, tree, nil
}

// Run builds the scenario tree, mounts it, applies every step and waits for
// the transitions each step causes before moving on.
func (r *Runner) Run(ctx context.Context, sc Scenario) (*Result, error) {
	rec := &recorder{}
	rec.begin(0, "mount")
	p, tree, err := r.start(ctx, sc, presence.WithLifecycleHooks(rec.hooks()))
	if err != nil {
		return nil, err
	}
	defer p.Close()

	logger := r.logger.With("scenario", sc.ID)
	nodes := &lookup{tree: tree}
	for i, st := range sc.Steps {
		rec.begin(i+1, st.String())
		logger.Debug("applying step", "step", i+1, "action", st.Action, "node", st.Node)
		if err := apply(ctx, p, nodes, st); err != nil {
			return nil, fmt.Errorf("scenario %q: step %d (%s): %w", sc.ID, i+1, st, err)
		}
		if err := p.Settle(ctx); err != nil {
			return nil, fmt.Errorf("scenario %q: step %d (%s): settle: %w", sc.ID, i+1, st, err)
		}
	}

	return &Result{
		Scenario: sc.ID,
		Timeline: rec.entries(),
		Final:    p.Snapshot(),
		Status:   p.Status(),
	}, nil
}

// lookup resolves step node ids, detached nodes and nodes created by
// earlier steps included.
type lookup struct {
	tree    *dsl.Tree
	created map[string]*domain.Node
}

func (l *lookup) find(id string) *domain.Node {
	if n := l.tree.Node(id); n != nil {
		return n
	}
	if n, ok := l.created[id]; ok {
		return n
	}
	return l.tree.Doc.NodeByID(id)
}

func (l *lookup) must(id string) (*domain.Node, error) {
	n := l.find(id)
	if n == nil {
		return nil, fmt.Errorf("unknown node %q", id)
	}
	return n, nil
}

func (l *lookup) findOrCreate(id, tag string) *domain.Node {
	if n := l.find(id); n != nil {
		return n
	}
	if tag == "" {
		tag = "div"
	}
	n := l.tree.Doc.CreateElement(tag, id)
	if l.created == nil {
		l.created = make(map[string]*domain.Node)
	}
	l.created[id] = n
	return n
}

func apply(ctx context.Context, p *presence.Presence, nodes *lookup, st Step) error {
	switch st.Action {
	case ActionMount:
		return p.Mount(ctx)
	case ActionSettle:
		return nil
	case ActionEnter:
		return p.Enter(ctx, st.Node)
	case ActionExit:
		return p.Exit(ctx, st.Node)
	case ActionObserve:
		c, err := p.Find(st.Node)
		if err != nil {
			return err
		}
		return c.SetObserve(*st.Observe)
	case ActionAppend, ActionPrepend:
		parent, err := nodes.must(st.Parent)
		if err != nil {
			return err
		}
		node := nodes.findOrCreate(st.Node, st.Tag)
		if st.Action == ActionAppend {
			return parent.AppendChild(node)
		}
		return parent.Prepend(node)
	case ActionInsert:
		sibling, err := nodes.must(st.After)
		if err != nil {
			return err
		}
		return sibling.After(nodes.findOrCreate(st.Node, st.Tag))
	}

	node, err := nodes.must(st.Node)
	if err != nil {
		return err
	}
	switch st.Action {
	case ActionRemove:
		node.Remove()
	case ActionSetKey:
		node.SetAttribute(domain.KeyAttribute, st.Key)
	default:
		return fmt.Errorf("unknown action %q", st.Action)
	}
	return nil
}

type recorder struct {
	mu   sync.Mutex
	step int
	log  []Entry
}

func (r *recorder) begin(step int, note string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.step = step
	r.log = append(r.log, Entry{Step: step, Type: EntryStep, Note: note})
}

func (r *recorder) add(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.Step = r.step
	r.log = append(r.log, e)
}

func (r *recorder) entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.log...)
}

func (r *recorder) hooks() domain.LifecycleHooks {
	onTransition := func(_ context.Context, e *domain.TransitionEvent) {
		r.add(Entry{
			Type:        e.Type,
			PresenceKey: e.PresenceKey,
			NodeID:      e.NodeID,
			Phase:       e.Phase,
			Index:       e.Index,
			Disposal:    e.Disposal,
			Err:         e.Err,
		})
	}
	return domain.LifecycleHooks{
		OnTransitionStart: onTransition,
		OnTransitionEnd:   onTransition,
		OnExitComplete: func(_ context.Context, e *domain.CompletionEvent) {
			r.add(Entry{
				Type:        e.Type,
				PresenceKey: e.PresenceKey,
				Nodes:       e.Nodes,
			})
		},
	}
}
