package domain

// Event is a notification dispatched on a node.
// Bubbling events travel to the parent chain, crossing shadow boundaries,
// until a listener stops propagation.
type Event struct {
	Type    string
	Bubbles bool
	Detail  any

	target  *Node
	current *Node
	stopped bool
}

// NewEvent creates a bubbling event of the given type.
func NewEvent(eventType string) *Event {
	return &Event{Type: eventType, Bubbles: true}
}

// Target returns the node the event was dispatched on.
func (e *Event) Target() *Node { return e.target }

// CurrentTarget returns the node whose listeners are running.
func (e *Event) CurrentTarget() *Node { return e.current }

// StopPropagation prevents the event from reaching further ancestors.
// Remaining listeners on the current node still run.
func (e *Event) StopPropagation() { e.stopped = true }

// Stopped reports whether propagation was stopped.
func (e *Event) Stopped() bool { return e.stopped }

// Listener handles an Event.
type Listener func(*Event)

type listener struct {
	fn Listener
}

// AddEventListener registers fn for events of the given type on n.
// The returned function removes the listener.
func (n *Node) AddEventListener(eventType string, fn Listener) func() {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()

	if n.listeners == nil {
		n.listeners = make(map[string][]*listener)
	}
	l := &listener{fn: fn}
	n.listeners[eventType] = append(n.listeners[eventType], l)

	return func() {
		n.doc.mu.Lock()
		defer n.doc.mu.Unlock()
		list := n.listeners[eventType]
		for i, existing := range list {
			if existing == l {
				n.listeners[eventType] = append(list[:i], list[i+1:]...)
				return
			}
		}
	}
}

// DispatchEvent delivers e to n and, for bubbling events, to its ancestors.
// Listeners run without the document lock held.
func (n *Node) DispatchEvent(e *Event) {
	type hop struct {
		node      *Node
		listeners []*listener
	}

	n.doc.mu.Lock()
	var path []hop
	for p := n; p != nil; p = p.composedParentLocked() {
		path = append(path, hop{node: p, listeners: append([]*listener(nil), p.listeners[e.Type]...)})
		if !e.Bubbles {
			break
		}
	}
	n.doc.mu.Unlock()

	e.target = n
	for _, h := range path {
		e.current = h.node
		for _, l := range h.listeners {
			l.fn(e)
		}
		if e.stopped {
			return
		}
	}
}
