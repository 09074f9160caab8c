package domain

// NodeState is the transition state of a single node.
// It replaces an ad hoc set of boolean markers so that illegal combinations
// (for example enter and exit at once) cannot be represented.
type NodeState int

const (
	StateIdle        NodeState = iota // No transition has run yet
	StateEntering                     // Enter transition in flight
	StateEntered                      // Enter transition finished
	StatePendingExit                  // Removed externally, reinserted, exit not started
	StateExiting                      // Exit transition in flight
	StateExited                       // Exit transition finished (detached or hidden)
)

func (s NodeState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateEntering:
		return "entering"
	case StateEntered:
		return "entered"
	case StatePendingExit:
		return "pending-exit"
	case StateExiting:
		return "exiting"
	case StateExited:
		return "exited"
	default:
		return "unknown"
	}
}

// legalTransitions lists, for every state, the states it may move to.
var legalTransitions = map[NodeState][]NodeState{
	StateIdle:        {StateEntering, StatePendingExit, StateExiting},
	StateEntering:    {StateEntered, StatePendingExit, StateExiting},
	StateEntered:     {StateEntering, StatePendingExit, StateExiting},
	StatePendingExit: {StateExiting},
	StateExiting:     {StateExited},
	StateExited:      {StateEntering},
}

// CanTransition reports whether a node in state s may move to state to.
func (s NodeState) CanTransition(to NodeState) bool {
	for _, next := range legalTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Leaving reports whether the node is pending exit, exiting or exited.
func (s NodeState) Leaving() bool {
	return s == StatePendingExit || s == StateExiting || s == StateExited
}

// Disposal selects what happens to a node once its exit transition completes.
type Disposal string

const (
	// DisposeRemove detaches the node from the tree.
	DisposeRemove Disposal = "remove"
	// DisposeHide keeps the node attached but marks it invisible.
	DisposeHide Disposal = "hide"
)

// Phase names the direction of a transition.
type Phase string

const (
	PhaseEnter Phase = "enter"
	PhaseExit  Phase = "exit"
)
