package testutils

import (
	"context"
	"sync"

	"github.com/aretw0/presence/pkg/domain"
)

// Call is a transition seen by a RecordingAnimator.
type Call struct {
	NodeID   string
	Markers  string
	Index    int
	HasIndex bool
}

// RecordingAnimator records every transition it runs. When gated, each
// transition of a node consumes one permit granted by Release.
type RecordingAnimator struct {
	mu       sync.Mutex
	calls    []Call
	gated    bool
	gates    map[string]chan struct{}
	finished map[string]int
}

// NewRecordingAnimator creates an animator whose transitions finish at once.
func NewRecordingAnimator() *RecordingAnimator {
	return &RecordingAnimator{
		gates:    make(map[string]chan struct{}),
		finished: make(map[string]int),
	}
}

// NewGatedAnimator creates an animator whose transitions wait for Release.
func NewGatedAnimator() *RecordingAnimator {
	a := NewRecordingAnimator()
	a.gated = true
	return a
}

// Animate implements ports.Animator.
func (a *RecordingAnimator) Animate(ctx context.Context, node *domain.Node, afterSelf func()) error {
	index, ok := node.Index()
	a.mu.Lock()
	a.calls = append(a.calls, Call{
		NodeID:   node.ID(),
		Markers:  node.Markers().String(),
		Index:    index,
		HasIndex: ok,
	})
	permits := a.permitsLocked(node.ID())
	a.mu.Unlock()

	if a.gated {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-permits:
		}
	}

	afterSelf()

	a.mu.Lock()
	a.finished[node.ID()]++
	a.mu.Unlock()
	return nil
}

func (a *RecordingAnimator) permitsLocked(id string) chan struct{} {
	permits, ok := a.gates[id]
	if !ok {
		permits = make(chan struct{}, 64)
		a.gates[id] = permits
	}
	return permits
}

// Release grants one transition permit to each node id.
func (a *RecordingAnimator) Release(ids ...string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, id := range ids {
		a.permitsLocked(id) <- struct{}{}
	}
}

// Calls returns the recorded transitions in start order.
func (a *RecordingAnimator) Calls() []Call {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Call(nil), a.calls...)
}

// CallsFor returns the recorded transitions of node id.
func (a *RecordingAnimator) CallsFor(id string) []Call {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []Call
	for _, c := range a.calls {
		if c.NodeID == id {
			out = append(out, c)
		}
	}
	return out
}

// Started reports whether a transition of node id has started.
func (a *RecordingAnimator) Started(id string) bool {
	return len(a.CallsFor(id)) > 0
}

// Finished returns how many transitions of node id have finished.
func (a *RecordingAnimator) Finished(id string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.finished[id]
}
