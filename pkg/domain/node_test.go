package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHost string

func (h fakeHost) PresenceKey() string { return string(h) }

func childIDs(n *Node) []string {
	var ids []string
	for _, c := range n.Children() {
		ids = append(ids, c.ID())
	}
	return ids
}

func TestNode_StructuralOpsEmitRecords(t *testing.T) {
	doc := NewDocument()
	container := doc.CreateElement("div", "list")
	require.NoError(t, doc.Root().AppendChild(container))

	var records []MutationRecord
	cancel := doc.Subscribe(container, ObserveOptions{ChildList: true}, func(rec MutationRecord) {
		records = append(records, rec)
	})
	defer cancel()

	x := doc.CreateElement("li", "x")
	y := doc.CreateElement("li", "y")
	z := doc.CreateElement("li", "z")
	require.NoError(t, container.AppendChild(x))
	require.NoError(t, container.AppendChild(z))
	require.NoError(t, x.After(y))
	assert.Equal(t, []string{"x", "y", "z"}, childIDs(container))

	y.Remove()
	assert.Equal(t, []string{"x", "z"}, childIDs(container))
	assert.Nil(t, y.Parent())

	require.Len(t, records, 4)
	assert.Equal(t, []*Node{y}, records[2].AddedNodes)
	assert.Equal(t, x, records[2].PreviousSibling)
	assert.Equal(t, []*Node{y}, records[3].RemovedNodes)
	assert.Equal(t, x, records[3].PreviousSibling)
	assert.Equal(t, z, records[3].NextSibling)
	assert.Equal(t, container, records[3].Target)
}

func TestNode_MoveWithinParent(t *testing.T) {
	doc := NewDocument()
	root := doc.Root()
	a := doc.CreateElement("div", "a")
	b := doc.CreateElement("div", "b")
	c := doc.CreateElement("div", "c")
	for _, n := range []*Node{a, b, c} {
		require.NoError(t, root.AppendChild(n))
	}

	require.NoError(t, root.AppendChild(a))
	assert.Equal(t, []string{"b", "c", "a"}, childIDs(root))

	require.NoError(t, root.Prepend(a))
	assert.Equal(t, []string{"a", "b", "c"}, childIDs(root))

	require.NoError(t, c.After(a))
	assert.Equal(t, []string{"b", "c", "a"}, childIDs(root))

	require.NoError(t, root.InsertBefore(a, b))
	assert.Equal(t, []string{"a", "b", "c"}, childIDs(root))
}

func TestNode_HierarchyErrors(t *testing.T) {
	doc := NewDocument()
	parent := doc.CreateElement("div", "parent")
	child := doc.CreateElement("div", "child")
	require.NoError(t, parent.AppendChild(child))

	err := child.AppendChild(parent)
	assert.ErrorIs(t, err, ErrHierarchy)

	text := doc.CreateText("hello")
	assert.ErrorIs(t, text.AppendChild(doc.CreateElement("b", "")), ErrHierarchy)

	other := NewDocument()
	assert.ErrorIs(t, parent.AppendChild(other.CreateElement("p", "")), ErrHierarchy)

	detached := doc.CreateElement("p", "detached")
	assert.ErrorIs(t, detached.After(child), ErrNotAttached)
}

func TestNode_AttributeRecordsRespectFilter(t *testing.T) {
	doc := NewDocument()
	n := doc.CreateElement("div", "n")

	var names []string
	cancel := doc.Subscribe(n, ObserveOptions{Attributes: true, AttributeFilter: []string{KeyAttribute}}, func(rec MutationRecord) {
		names = append(names, rec.AttributeName)
	})
	n.SetAttribute("class", "big")
	n.SetAttribute(KeyAttribute, "k1")
	n.RemoveAttribute(KeyAttribute)
	cancel()
	n.SetAttribute(KeyAttribute, "k2")

	assert.Equal(t, []string{KeyAttribute, KeyAttribute}, names)
}

func TestNode_TransitionLegality(t *testing.T) {
	doc := NewDocument()
	n := doc.CreateElement("div", "n")

	n.MarkInitial()
	assert.Equal(t, "initial", n.Markers().String())

	require.NoError(t, n.Transition(StateEntering))
	assert.True(t, n.HasMarker(MarkerEnter))
	assert.True(t, n.HasMarker(MarkerInitial))
	assert.ErrorIs(t, n.Transition(StateEntering), ErrIllegalTransition)
	assert.False(t, StateEntering.CanTransition(StateEntering))

	require.NoError(t, n.Transition(StateEntered))
	assert.Empty(t, n.Markers().Names())

	require.NoError(t, n.Transition(StatePendingExit))
	assert.Equal(t, "willExit", n.Markers().String())

	err := n.Transition(StateEntering)
	var terr *TransitionError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, StatePendingExit, terr.From)
	assert.ErrorIs(t, err, ErrIllegalTransition)

	require.NoError(t, n.Transition(StateExiting))
	assert.False(t, n.HasMarker(MarkerWillExit))
	assert.False(t, n.HasMarker(MarkerEnter))
	assert.True(t, n.HasMarker(MarkerExit))

	assert.False(t, n.TransitionFrom(StateEntering, StateEntered))
	assert.True(t, n.TransitionFrom(StateExiting, StateExited))
	assert.Equal(t, StateExited, n.State())
}

func TestNode_IndexProperty(t *testing.T) {
	doc := NewDocument()
	n := doc.CreateElement("div", "n")

	_, ok := n.Index()
	assert.False(t, ok)

	SetCustomProperties(n, map[string]any{"i": 3})
	i, ok := n.Index()
	assert.True(t, ok)
	assert.Equal(t, 3, i)

	n.RemoveProperty(IndexProperty)
	_, ok = n.Index()
	assert.False(t, ok)
}

func TestNode_ClosestHostCrossesShadowRoots(t *testing.T) {
	doc := NewDocument()
	outer := doc.CreateElement(PresenceTag, "outer")
	require.NoError(t, doc.Root().AppendChild(outer))
	outer.SetHost(fakeHost("outer"))

	widget := doc.CreateElement("x-widget", "widget")
	require.NoError(t, outer.AppendChild(widget))
	shadow, err := widget.AttachShadow()
	require.NoError(t, err)

	inner := doc.CreateElement(PresenceTag, "inner")
	require.NoError(t, shadow.AppendChild(inner))

	assert.Equal(t, fakeHost("outer"), inner.ClosestHost())
	assert.Nil(t, outer.ClosestHost())

	inner.SetHost(fakeHost("inner"))
	hosts := outer.NearestHosts()
	assert.Equal(t, []Host{fakeHost("outer")}, hosts)
	assert.Equal(t, []Host{fakeHost("inner")}, widget.NearestHosts())
	assert.Equal(t, inner, doc.NodeByID("inner"))
	assert.Equal(t, []*Node{outer, inner}, doc.Root().QueryAll(PresenceTag))
}

func TestNode_DispatchEventBubblesAndStops(t *testing.T) {
	doc := NewDocument()
	grand := doc.CreateElement("div", "grand")
	parent := doc.CreateElement("div", "parent")
	child := doc.CreateElement("div", "child")
	require.NoError(t, doc.Root().AppendChild(grand))
	require.NoError(t, grand.AppendChild(parent))
	require.NoError(t, parent.AppendChild(child))

	var seen []string
	child.AddEventListener("ping", func(e *Event) { seen = append(seen, "child") })
	parent.AddEventListener("ping", func(e *Event) {
		seen = append(seen, "parent")
		assert.Equal(t, child, e.Target())
		assert.Equal(t, parent, e.CurrentTarget())
		e.StopPropagation()
	})
	parent.AddEventListener("ping", func(e *Event) { seen = append(seen, "parent-2") })
	remove := grand.AddEventListener("ping", func(e *Event) { seen = append(seen, "grand") })

	child.DispatchEvent(NewEvent("ping"))
	assert.Equal(t, []string{"child", "parent", "parent-2"}, seen)

	remove()
	seen = nil
	grand.DispatchEvent(NewEvent("ping"))
	assert.Empty(t, seen)
}

func TestNode_Snapshot(t *testing.T) {
	doc := NewDocument()
	list := doc.CreateElement(PresenceTag, "list")
	list.SetHost(fakeHost("p-1"))
	item := doc.CreateElement("li", "item")
	item.SetAttribute(KeyAttribute, "a")
	require.NoError(t, list.AppendChild(item))
	require.NoError(t, item.Transition(StateEntering))
	SetCustomProperties(item, map[string]any{"i": 2})

	snap := list.Snapshot()
	assert.Equal(t, "p-1", snap.PresenceKey)
	require.Len(t, snap.Children, 1)
	got := snap.Children[0]
	assert.Equal(t, "entering", got.State)
	assert.Equal(t, []string{"initial", "enter"}, got.Markers)
	require.NotNil(t, got.Index)
	assert.Equal(t, 2, *got.Index)
	assert.Equal(t, "a", got.Key)
}
