/*
Package presence coordinates enter and exit transitions for the children of
container nodes in a live document tree.

A presence container is an element tagged "animate-presence". Each mounted
container gets a Coordinator that watches its direct children: a child that
is added plays an enter transition, and a child that is removed is put back
in place, plays an exit transition and only then leaves the tree. Containers
nested inside one another (shadow trees included) form a hierarchy: an
ancestor waits for the coordinators below a leaving child before the child
is disposed of.

# Concept

The document is a plain in-memory tree (pkg/domain). Mutations are reported
through a ports.Observer in batches and every node carries a small state
machine (idle, entering, entered, pending-exit, exiting, exited) exposed as
marker names such as "will-enter" or "did-exit". Transitions are delegated to
a ports.Animator, which decides how long a node takes and must call the
afterSelf callback once its own part is done.

# Usage

	doc := buildDocument()

	p, err := presence.New(doc,
		presence.WithAnimator(memory.NewAnimator(150*time.Millisecond, 30*time.Millisecond)),
		presence.WithLogger(logging.New(slog.LevelInfo)),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer p.Close()

	ctx := context.Background()
	if err := p.Mount(ctx); err != nil {
		log.Fatal(err)
	}

	// Removing a child now plays its exit before it disappears.
	doc.NodeByID("item-2").Remove()
	_ = p.Settle(ctx)

	// A whole container can be taken out imperatively.
	_ = p.Exit(ctx, "list")

# Observability

Lifecycle hooks (WithLifecycleHooks), Prometheus metrics (WithMetrics) and
event publishers (WithPublisher, see pkg/adapters/redis) report every
transition start and end and every completed exit.
*/
package presence
