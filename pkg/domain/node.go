package domain

import "fmt"

// NodeKind enumerates the kinds of nodes in a Document.
type NodeKind int

const (
	KindElement    NodeKind = iota // presentable element
	KindText                       // text content, never transitioned
	KindShadowRoot                 // encapsulation boundary attached to an element
)

func (k NodeKind) String() string {
	switch k {
	case KindElement:
		return "element"
	case KindText:
		return "text"
	case KindShadowRoot:
		return "shadow-root"
	default:
		return "unknown"
	}
}

// Host is implemented by whatever is attached to a presence container node
// (a coordinator). Nodes only keep a reference to it; they never own it.
type Host interface {
	PresenceKey() string
}

// Node is an element, text or shadow root in a Document.
// All methods are safe for concurrent use.
type Node struct {
	doc      *Document
	id       string
	kind     NodeKind
	tag      string
	text     string
	attrs    map[string]string
	style    map[string]string
	parent   *Node
	children []*Node
	shadow   *Node
	host     *Node

	presence  Host
	state     NodeState
	initial   bool
	listeners map[string][]*listener
}

// ID returns the node identifier.
func (n *Node) ID() string { return n.id }

// Kind returns the node kind.
func (n *Node) Kind() NodeKind { return n.kind }

// Tag returns the element tag.
func (n *Node) Tag() string { return n.tag }

// Document returns the owning document.
func (n *Node) Document() *Document { return n.doc }

// IsElement reports whether the node is an element.
func (n *Node) IsElement() bool {
	return n != nil && n.kind == KindElement
}

func (n *Node) String() string {
	return fmt.Sprintf("<%s#%s>", n.tag, n.id)
}

// Text returns the content of a text node.
func (n *Node) Text() string {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return n.text
}

// Parent returns the parent node, or nil when detached.
func (n *Node) Parent() *Node {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return n.parent
}

// Children returns a snapshot of the child list.
func (n *Node) Children() []*Node {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return append([]*Node(nil), n.children...)
}

// ElementChildren returns a snapshot of the element children.
func (n *Node) ElementChildren() []*Node {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	out := make([]*Node, 0, len(n.children))
	for _, c := range n.children {
		if c.kind == KindElement {
			out = append(out, c)
		}
	}
	return out
}

// PreviousSibling returns the sibling immediately before n.
func (n *Node) PreviousSibling() *Node {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	prev, _ := n.siblingsLocked()
	return prev
}

// NextSibling returns the sibling immediately after n.
func (n *Node) NextSibling() *Node {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	_, next := n.siblingsLocked()
	return next
}

// ShadowRoot returns the shadow root attached to n, if any.
func (n *Node) ShadowRoot() *Node {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return n.shadow
}

// ShadowHost returns the element a shadow root is attached to.
func (n *Node) ShadowHost() *Node {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return n.host
}

// AttachShadow attaches (or returns the existing) shadow root of an element.
func (n *Node) AttachShadow() (*Node, error) {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()

	if n.kind != KindElement {
		return nil, fmt.Errorf("attach shadow to %s: %w", n, ErrHierarchy)
	}
	if n.shadow == nil {
		root := n.doc.newNode(KindShadowRoot, "#shadow-root", n.id+"-shadow")
		root.host = n
		n.shadow = root
	}
	return n.shadow, nil
}

// Contains reports whether other is n or a light-tree descendant of n.
func (n *Node) Contains(other *Node) bool {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return n.containsLocked(other)
}

// AppendChild inserts child as the last child of n.
func (n *Node) AppendChild(child *Node) error {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return n.insertLocked(child, len(n.children))
}

// Prepend inserts child as the first child of n.
func (n *Node) Prepend(child *Node) error {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return n.insertLocked(child, 0)
}

// InsertBefore inserts child before ref. A nil ref appends.
func (n *Node) InsertBefore(child, ref *Node) error {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()

	if ref == nil {
		return n.insertLocked(child, len(n.children))
	}
	if ref.parent != n {
		return fmt.Errorf("insert before %s: reference is not a child of %s: %w", ref, n, ErrHierarchy)
	}
	if child == ref {
		return nil
	}
	return n.insertBeforeLocked(child, ref)
}

// After inserts node immediately after n in n's parent.
func (n *Node) After(node *Node) error {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()

	if n.parent == nil {
		return fmt.Errorf("insert after %s: %w", n, ErrNotAttached)
	}
	if node == n {
		return nil
	}
	parent := n.parent
	_, next := n.siblingsLocked()
	if next == node {
		return nil
	}
	if next == nil {
		return parent.insertLocked(node, len(parent.children))
	}
	return parent.insertBeforeLocked(node, next)
}

// Remove detaches n from its parent. Removing a detached node is a no-op.
func (n *Node) Remove() {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	n.detachLocked()
}

// Attribute returns the value of an attribute.
func (n *Node) Attribute(name string) (string, bool) {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	v, ok := n.attrs[name]
	return v, ok
}

// SetAttribute sets an attribute and reports the change to observers.
func (n *Node) SetAttribute(name, value string) {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()

	old := n.attrs[name]
	n.attrs[name] = value
	n.doc.notifyLocked(MutationRecord{
		Type:          MutationAttributes,
		Target:        n,
		AttributeName: name,
		OldValue:      old,
	})
}

// RemoveAttribute deletes an attribute and reports the change to observers.
func (n *Node) RemoveAttribute(name string) {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()

	old, ok := n.attrs[name]
	if !ok {
		return
	}
	delete(n.attrs, name)
	n.doc.notifyLocked(MutationRecord{
		Type:          MutationAttributes,
		Target:        n,
		AttributeName: name,
		OldValue:      old,
	})
}

// Host returns the coordinator attached to n, if any.
func (n *Node) Host() Host {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return n.presence
}

// SetHost attaches (or with nil, detaches) a coordinator to n.
func (n *Node) SetHost(h Host) {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	n.presence = h
}

// ClosestHost searches upward from the parent of n for the nearest node with
// an attached Host, crossing shadow boundaries through their host element.
func (n *Node) ClosestHost() Host {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()

	for p := n.composedParentLocked(); p != nil; p = p.composedParentLocked() {
		if p.presence != nil {
			return p.presence
		}
	}
	return nil
}

// NearestHosts returns the hosts found within the subtree rooted at n
// (n included, shadow trees included) without descending below a host:
// nested hosts cascade to their own descendants themselves.
func (n *Node) NearestHosts() []Host {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()

	var hosts []Host
	walkLocked(n, func(c *Node) bool {
		if c.presence != nil {
			hosts = append(hosts, c.presence)
			return false
		}
		return true
	})
	return hosts
}

// QueryAll returns the elements below n (shadow trees included) with the
// given tag, in document order.
func (n *Node) QueryAll(tag string) []*Node {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()

	var found []*Node
	walkLocked(n, func(c *Node) bool {
		if c != n && c.kind == KindElement && c.tag == tag {
			found = append(found, c)
		}
		return true
	})
	return found
}

func (n *Node) composedParentLocked() *Node {
	if n.kind == KindShadowRoot {
		return n.host
	}
	if n.parent != nil && n.parent.kind == KindShadowRoot {
		return n.parent.host
	}
	return n.parent
}

func (n *Node) containsLocked(other *Node) bool {
	for p := other; p != nil; p = p.parent {
		if p == n {
			return true
		}
	}
	return false
}

func (n *Node) siblingsLocked() (prev, next *Node) {
	if n.parent == nil {
		return nil, nil
	}
	siblings := n.parent.children
	for i, c := range siblings {
		if c != n {
			continue
		}
		if i > 0 {
			prev = siblings[i-1]
		}
		if i < len(siblings)-1 {
			next = siblings[i+1]
		}
		return prev, next
	}
	return nil, nil
}

func (n *Node) checkInsertLocked(child *Node) error {
	if child == nil || child.doc != n.doc {
		return fmt.Errorf("insert into %s: foreign or nil node: %w", n, ErrHierarchy)
	}
	if n.kind == KindText {
		return fmt.Errorf("insert into text node %s: %w", n, ErrHierarchy)
	}
	if child.kind == KindShadowRoot || child == n.doc.root {
		return fmt.Errorf("insert %s: %w", child, ErrHierarchy)
	}
	if child.containsLocked(n) {
		return fmt.Errorf("insert %s into its own descendant %s: %w", child, n, ErrHierarchy)
	}
	return nil
}

func (n *Node) insertBeforeLocked(child, ref *Node) error {
	if err := n.checkInsertLocked(child); err != nil {
		return err
	}
	child.detachLocked()
	for i, c := range n.children {
		if c == ref {
			return n.placeLocked(child, i)
		}
	}
	return fmt.Errorf("insert before %s: %w", ref, ErrNotAttached)
}

func (n *Node) insertLocked(child *Node, index int) error {
	if err := n.checkInsertLocked(child); err != nil {
		return err
	}
	if child.parent == n {
		// Re-resolve the index once child has been taken out of the list.
		for i, c := range n.children {
			if c == child && i < index {
				index--
				break
			}
		}
	}
	child.detachLocked()
	if index > len(n.children) {
		index = len(n.children)
	}
	return n.placeLocked(child, index)
}

func (n *Node) placeLocked(child *Node, index int) error {
	n.children = append(n.children, nil)
	copy(n.children[index+1:], n.children[index:])
	n.children[index] = child
	child.parent = n

	prev, next := child.siblingsLocked()
	n.doc.notifyLocked(MutationRecord{
		Type:            MutationChildList,
		Target:          n,
		AddedNodes:      []*Node{child},
		PreviousSibling: prev,
		NextSibling:     next,
	})
	return nil
}

func (n *Node) detachLocked() {
	parent := n.parent
	if parent == nil {
		return
	}
	prev, next := n.siblingsLocked()
	for i, c := range parent.children {
		if c == n {
			parent.children = append(parent.children[:i], parent.children[i+1:]...)
			break
		}
	}
	n.parent = nil

	parent.doc.notifyLocked(MutationRecord{
		Type:            MutationChildList,
		Target:          parent,
		RemovedNodes:    []*Node{n},
		PreviousSibling: prev,
		NextSibling:     next,
	})
}
