package dsl

import (
	"fmt"

	"github.com/aretw0/presence/pkg/domain"
)

// Builder manages the tree construction.
type Builder struct {
	nodes map[string]*NodeBuilder
	order []string
}

// New creates a new tree builder.
func New() *Builder {
	return &Builder{
		nodes: make(map[string]*NodeBuilder),
	}
}

// Add declares an element. It is a "div" until told otherwise.
// If the element already exists, it returns the existing builder.
func (b *Builder) Add(id string) *NodeBuilder {
	if nb, ok := b.nodes[id]; ok {
		return nb
	}
	nb := &NodeBuilder{
		id:      id,
		tag:     "div",
		attrs:   make(map[string]string),
		builder: b,
	}
	b.nodes[id] = nb
	b.order = append(b.order, id)
	return nb
}

// Tree is a built document with its elements indexed by id.
type Tree struct {
	Doc   *domain.Document
	nodes map[string]*domain.Node
}

// Node returns the element declared with id.
func (t *Tree) Node(id string) *domain.Node {
	return t.nodes[id]
}

// Presences returns the presence containers in document order, so that every
// container comes before the containers nested in it.
func (t *Tree) Presences() []*domain.Node {
	return t.Doc.Root().QueryAll(domain.PresenceTag)
}

// Build creates the document. Elements never listed as a child (or shadow
// child) of another element are appended to the document root in the order
// they were added.
func (b *Builder) Build() (*Tree, error) {
	doc := domain.NewDocument()
	tree := &Tree{Doc: doc, nodes: make(map[string]*domain.Node, len(b.nodes))}

	parents := make(map[string]string)
	for _, id := range b.order {
		nb := b.nodes[id]
		for _, child := range append(append([]string(nil), nb.children...), nb.shadow...) {
			if _, ok := b.nodes[child]; !ok {
				return nil, fmt.Errorf("node %q: unknown child %q", id, child)
			}
			if prev, ok := parents[child]; ok {
				return nil, fmt.Errorf("node %q: already a child of %q", child, prev)
			}
			parents[child] = id
		}
	}

	for _, id := range b.order {
		nb := b.nodes[id]
		n := doc.CreateElement(nb.tag, id)
		for name, value := range nb.attrs {
			n.SetAttribute(name, value)
		}
		tree.nodes[id] = n
	}

	for _, id := range b.order {
		nb := b.nodes[id]
		n := tree.nodes[id]
		for _, item := range nb.content {
			var child *domain.Node
			if item.text != nil {
				child = doc.CreateText(*item.text)
			} else {
				child = tree.nodes[item.id]
			}
			if err := n.AppendChild(child); err != nil {
				return nil, fmt.Errorf("failed to build node %q: %w", id, err)
			}
		}
		if len(nb.shadow) > 0 {
			root, err := n.AttachShadow()
			if err != nil {
				return nil, fmt.Errorf("failed to build node %q: %w", id, err)
			}
			for _, child := range nb.shadow {
				if err := root.AppendChild(tree.nodes[child]); err != nil {
					return nil, fmt.Errorf("failed to build shadow of %q: %w", id, err)
				}
			}
		}
	}

	for _, id := range b.order {
		if _, ok := parents[id]; ok {
			continue
		}
		if err := doc.Root().AppendChild(tree.nodes[id]); err != nil {
			return nil, fmt.Errorf("failed to attach node %q: %w", id, err)
		}
	}

	return tree, nil
}
