package ports

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/presence/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunObserverContract runs a suite of tests to verify that an Observer implementation
// adheres to the defined interface contract.
func RunObserverContract(t *testing.T, newObserver func() Observer) {
	t.Run("Delivers child list records in order", func(t *testing.T) {
		doc := domain.NewDocument()
		list := doc.CreateElement("ul", "list")
		require.NoError(t, doc.Root().AppendChild(list))

		var mu sync.Mutex
		var got []domain.MutationRecord
		sub, err := newObserver().Observe(list, domain.ObserveOptions{ChildList: true}, func(batch []domain.MutationRecord) {
			mu.Lock()
			got = append(got, batch...)
			mu.Unlock()
		})
		require.NoError(t, err)
		defer sub.Disconnect()

		a := doc.CreateElement("li", "a")
		b := doc.CreateElement("li", "b")
		require.NoError(t, list.AppendChild(a))
		require.NoError(t, list.AppendChild(b))
		a.Remove()

		require.Eventually(t, func() bool {
			mu.Lock()
			defer mu.Unlock()
			return len(got) == 3
		}, time.Second, 5*time.Millisecond)

		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, []*domain.Node{a}, got[0].AddedNodes)
		assert.Equal(t, []*domain.Node{b}, got[1].AddedNodes)
		assert.Equal(t, a, got[1].PreviousSibling)
		assert.Equal(t, []*domain.Node{a}, got[2].RemovedNodes)
		assert.Equal(t, b, got[2].NextSibling)
	})

	t.Run("Ignores unselected changes", func(t *testing.T) {
		doc := domain.NewDocument()
		list := doc.CreateElement("ul", "list")

		var mu sync.Mutex
		var names []string
		sub, err := newObserver().Observe(list, domain.ObserveOptions{
			Attributes:      true,
			AttributeFilter: []string{domain.KeyAttribute},
		}, func(batch []domain.MutationRecord) {
			mu.Lock()
			for _, rec := range batch {
				names = append(names, rec.AttributeName)
			}
			mu.Unlock()
		})
		require.NoError(t, err)
		defer sub.Disconnect()

		require.NoError(t, list.AppendChild(doc.CreateElement("li", "")))
		list.SetAttribute("class", "wide")
		list.SetAttribute(domain.KeyAttribute, "k")

		require.Eventually(t, func() bool {
			mu.Lock()
			defer mu.Unlock()
			return len(names) == 1
		}, time.Second, 5*time.Millisecond)
		mu.Lock()
		assert.Equal(t, []string{domain.KeyAttribute}, names)
		mu.Unlock()
	})

	t.Run("Disconnect stops delivery", func(t *testing.T) {
		doc := domain.NewDocument()
		list := doc.CreateElement("ul", "list")

		var mu sync.Mutex
		count := 0
		sub, err := newObserver().Observe(list, domain.ObserveOptions{ChildList: true}, func(batch []domain.MutationRecord) {
			mu.Lock()
			count += len(batch)
			mu.Unlock()
		})
		require.NoError(t, err)

		sub.Disconnect()
		sub.Disconnect()
		require.NoError(t, list.AppendChild(doc.CreateElement("li", "")))

		time.Sleep(20 * time.Millisecond)
		mu.Lock()
		assert.Zero(t, count)
		mu.Unlock()
	})
}

// RunAnimatorContract verifies that an Animator calls afterSelf exactly once
// before returning from a transition that runs to completion.
func RunAnimatorContract(t *testing.T, animator Animator) {
	t.Run("Calls afterSelf once", func(t *testing.T) {
		doc := domain.NewDocument()
		node := doc.CreateElement("div", "n")
		require.NoError(t, node.Transition(domain.StateEntering))

		calls := 0
		err := animator.Animate(context.Background(), node, func() { calls++ })
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})
}
