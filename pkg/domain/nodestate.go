package domain

import (
	"fmt"
	"strconv"
)

// State returns the transition state of n.
func (n *Node) State() NodeState {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return n.state
}

// Markers returns the marker set derived from the node state.
func (n *Node) Markers() Markers {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return markersFor(n.state, n.initial)
}

// HasMarker reports whether m is currently set on n.
func (n *Node) HasMarker(m Marker) bool {
	return n.Markers().Has(m)
}

// MarkInitial stamps the initial marker on an idle node.
func (n *Node) MarkInitial() {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	if n.state == StateIdle {
		n.initial = true
	}
}

// Transition moves n to the given state, returning a *TransitionError when the
// move is not legal. The initial stamp is consumed once entering completes.
func (n *Node) Transition(to NodeState) error {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return n.transitionLocked(to)
}

// TransitionFrom moves n to the given state only if it is currently in from.
// It reports whether the move happened.
func (n *Node) TransitionFrom(from, to NodeState) bool {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	if n.state != from {
		return false
	}
	return n.transitionLocked(to) == nil
}

func (n *Node) transitionLocked(to NodeState) error {
	if !n.state.CanTransition(to) {
		return &TransitionError{NodeID: n.id, From: n.state, To: to}
	}
	switch to {
	case StateEntering:
		n.initial = true
	case StateEntered:
		n.initial = false
	}
	n.state = to
	return nil
}

// Property returns a style property.
func (n *Node) Property(name string) (string, bool) {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	v, ok := n.style[name]
	return v, ok
}

// SetProperty sets a style property.
func (n *Node) SetProperty(name, value string) {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	n.style[name] = value
}

// RemoveProperty deletes a style property.
func (n *Node) RemoveProperty(name string) {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	delete(n.style, name)
}

// Index returns the ordering index stamped on n.
func (n *Node) Index() (int, bool) {
	v, ok := n.Property(IndexProperty)
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return i, true
}

// Hidden reports whether n was hidden by the hide disposal method.
func (n *Node) Hidden() bool {
	v, _ := n.Property(VisibilityProperty)
	return v == "hidden"
}

// SetCustomProperties stamps each entry of props on n as a "--<name>" property.
func SetCustomProperties(n *Node, props map[string]any) {
	for name, value := range props {
		n.SetProperty("--"+name, fmt.Sprint(value))
	}
}
