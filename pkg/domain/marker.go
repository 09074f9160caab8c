package domain

import "strings"

// Marker is a named flag exposed on a node for the transition collaborator.
type Marker uint8

const (
	MarkerInitial Marker = 1 << iota
	MarkerEnter
	MarkerExit
	MarkerWillExit
)

var markerNames = []struct {
	m    Marker
	name string
}{
	{MarkerInitial, "initial"},
	{MarkerEnter, "enter"},
	{MarkerExit, "exit"},
	{MarkerWillExit, "willExit"},
}

// Markers is a set of Marker flags.
type Markers uint8

// Has reports whether m is in the set.
func (s Markers) Has(m Marker) bool {
	return uint8(s)&uint8(m) != 0
}

// Names lists the markers in the set in a stable order.
func (s Markers) Names() []string {
	names := make([]string, 0, len(markerNames))
	for _, mn := range markerNames {
		if s.Has(mn.m) {
			names = append(names, mn.name)
		}
	}
	return names
}

func (s Markers) String() string {
	return strings.Join(s.Names(), "|")
}

// markersFor derives the visible marker set from a node state.
func markersFor(state NodeState, initial bool) Markers {
	switch state {
	case StateEntering:
		return Markers(MarkerInitial | MarkerEnter)
	case StateEntered:
		return 0
	case StatePendingExit:
		return Markers(MarkerWillExit)
	case StateExiting, StateExited:
		return Markers(MarkerExit)
	default:
		if initial {
			return Markers(MarkerInitial)
		}
		return 0
	}
}
