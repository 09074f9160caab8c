package domain

import (
	"errors"
	"fmt"
)

// ErrIllegalTransition is returned when a node is asked to move to a state it cannot reach.
var ErrIllegalTransition = errors.New("illegal node transition")

// ErrHierarchy is returned when a structural change would produce an invalid tree.
var ErrHierarchy = errors.New("hierarchy request error")

// ErrNotAttached is returned when an operation requires a node that has a parent.
var ErrNotAttached = errors.New("node is not attached")

// ErrCoordinatorNotFound is returned when a coordinator key cannot be resolved.
var ErrCoordinatorNotFound = errors.New("coordinator not found")

// ErrAlreadyMounted is returned when a coordinator is mounted twice.
var ErrAlreadyMounted = errors.New("coordinator already mounted")

// TransitionError describes a rejected NodeState change.
type TransitionError struct {
	NodeID string
	From   NodeState
	To     NodeState
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("node '%s' cannot move from %s to %s", e.NodeID, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrIllegalTransition
}
