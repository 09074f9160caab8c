package domain

import (
	"fmt"
	"sync"
)

// Document owns a tree of nodes.
// A single mutex guards every node created by the document, its subscriptions
// and its event listeners. Safe for concurrent use.
type Document struct {
	mu     sync.Mutex
	root   *Node
	seq    int
	subSeq int
	subs   []*subscription
}

type subscription struct {
	id     int
	target *Node
	opts   ObserveOptions
	sink   func(MutationRecord)
}

// NewDocument creates a document with an empty root element.
func NewDocument() *Document {
	d := &Document{}
	d.root = d.newNode(KindElement, "root", "root")
	return d
}

// Root returns the root element of the document.
func (d *Document) Root() *Node {
	return d.root
}

// CreateElement creates a detached element.
// An empty id is replaced by a generated "<tag>-<n>" identifier.
func (d *Document) CreateElement(tag, id string) *Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.newNode(KindElement, tag, id)
}

// CreateText creates a detached text node.
func (d *Document) CreateText(text string) *Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := d.newNode(KindText, "#text", "")
	n.text = text
	return n
}

// NodeByID finds an attached node (including nodes inside shadow trees) by id.
func (d *Document) NodeByID(id string) *Node {
	d.mu.Lock()
	defer d.mu.Unlock()

	var found *Node
	walkLocked(d.root, func(n *Node) bool {
		if found != nil {
			return false
		}
		if n.id == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// Subscribe registers sink for the changes of target selected by opts.
// The sink runs while the document lock is held, in the order the changes
// happen; it must not call back into the document.
// The returned function cancels the subscription.
func (d *Document) Subscribe(target *Node, opts ObserveOptions, sink func(MutationRecord)) func() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.subSeq++
	sub := &subscription{id: d.subSeq, target: target, opts: opts, sink: sink}
	d.subs = append(d.subs, sub)

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		for i, s := range d.subs {
			if s.id == sub.id {
				d.subs = append(d.subs[:i], d.subs[i+1:]...)
				return
			}
		}
	}
}

func (d *Document) newNode(kind NodeKind, tag, id string) *Node {
	d.seq++
	if id == "" {
		id = fmt.Sprintf("%s-%d", tag, d.seq)
	}
	return &Node{
		doc:   d,
		id:    id,
		kind:  kind,
		tag:   tag,
		attrs: make(map[string]string),
		style: make(map[string]string),
	}
}

// notifyLocked delivers rec to every matching subscription. Caller holds d.mu.
func (d *Document) notifyLocked(rec MutationRecord) {
	for _, s := range d.subs {
		if s.target == rec.Target && s.opts.Matches(rec) {
			s.sink(rec)
		}
	}
}

// walkLocked visits n and its descendants in document order, descending into
// shadow roots before light children. fn returns false to skip a subtree.
func walkLocked(n *Node, fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	if n.shadow != nil {
		walkLocked(n.shadow, fn)
	}
	for _, c := range n.children {
		walkLocked(c, fn)
	}
}
