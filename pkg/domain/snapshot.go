package domain

import "strconv"

// NodeSnapshot is a serializable view of a node subtree.
type NodeSnapshot struct {
	ID          string          `json:"id" yaml:"id"`
	Kind        string          `json:"kind" yaml:"kind"`
	Tag         string          `json:"tag,omitempty" yaml:"tag,omitempty"`
	Text        string          `json:"text,omitempty" yaml:"text,omitempty"`
	Key         string          `json:"key,omitempty" yaml:"key,omitempty"`
	PresenceKey string          `json:"presence_key,omitempty" yaml:"presence_key,omitempty"`
	State       string          `json:"state,omitempty" yaml:"state,omitempty"`
	Markers     []string        `json:"markers,omitempty" yaml:"markers,omitempty"`
	Index       *int            `json:"index,omitempty" yaml:"index,omitempty"`
	Hidden      bool            `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	Shadow      *NodeSnapshot   `json:"shadow,omitempty" yaml:"shadow,omitempty"`
	Children    []*NodeSnapshot `json:"children,omitempty" yaml:"children,omitempty"`
}

// Snapshot captures n and its subtree under a single lock acquisition.
func (n *Node) Snapshot() *NodeSnapshot {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return n.snapshotLocked()
}

func (n *Node) snapshotLocked() *NodeSnapshot {
	s := &NodeSnapshot{
		ID:   n.id,
		Kind: n.kind.String(),
		Tag:  n.tag,
		Text: n.text,
		Key:  n.attrs[KeyAttribute],
	}
	if n.presence != nil {
		s.PresenceKey = n.presence.PresenceKey()
	}
	if n.kind == KindElement {
		s.State = n.state.String()
		s.Markers = markersFor(n.state, n.initial).Names()
		s.Hidden = n.style[VisibilityProperty] == "hidden"
		if i, err := strconv.Atoi(n.style[IndexProperty]); err == nil {
			s.Index = &i
		}
	}
	if n.shadow != nil {
		s.Shadow = n.shadow.snapshotLocked()
	}
	for _, c := range n.children {
		s.Children = append(s.Children, c.snapshotLocked())
	}
	return s
}
