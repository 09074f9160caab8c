package runtime_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/presence/internal/runtime"
	"github.com/aretw0/presence/pkg/adapters/memory"
	"github.com/aretw0/presence/pkg/domain"
	"github.com/aretw0/presence/pkg/dsl"
	"github.com/aretw0/presence/pkg/ports"
	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second

func build(t *testing.T, declare func(b *dsl.Builder)) *dsl.Tree {
	t.Helper()
	b := dsl.New()
	declare(b)
	tree, err := b.Build()
	require.NoError(t, err)
	return tree
}

func mount(t *testing.T, container *domain.Node, opts ...runtime.Option) *runtime.Coordinator {
	t.Helper()
	c := runtime.New(container, opts...)
	require.NoError(t, c.Mount(context.Background()))
	t.Cleanup(c.Unmount)
	return c
}

// settle drains pending mutation batches and the transitions they start.
func settle(t *testing.T, obs *memory.Observer, c *runtime.Coordinator) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	for i := 0; i < 3; i++ {
		if obs != nil {
			require.NoError(t, obs.Flush(ctx))
		}
		require.NoError(t, c.Settle(ctx))
	}
}

func childIDs(n *domain.Node) []string {
	var ids []string
	for _, c := range n.ElementChildren() {
		ids = append(ids, c.ID())
	}
	return ids
}

// probeObserver calls after once a delivered batch has been handled.
type probeObserver struct {
	inner ports.Observer
	after func([]domain.MutationRecord)
}

func (p probeObserver) Observe(target *domain.Node, opts domain.ObserveOptions, fn func([]domain.MutationRecord)) (ports.Subscription, error) {
	return p.inner.Observe(target, opts, func(batch []domain.MutationRecord) {
		fn(batch)
		p.after(batch)
	})
}
