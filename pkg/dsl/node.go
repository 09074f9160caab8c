package dsl

import "github.com/aretw0/presence/pkg/domain"

// NodeBuilder provides a fluent API for configuring an element.
type NodeBuilder struct {
	id       string
	tag      string
	attrs    map[string]string
	children []string
	shadow   []string
	content  []contentItem
	builder  *Builder
}

type contentItem struct {
	id   string
	text *string
}

// Tag sets the element tag.
func (n *NodeBuilder) Tag(tag string) *NodeBuilder {
	n.tag = tag
	return n
}

// Presence turns the element into a presence container.
func (n *NodeBuilder) Presence() *NodeBuilder {
	n.tag = domain.PresenceTag
	return n
}

// Key sets the re-keying attribute.
func (n *NodeBuilder) Key(key string) *NodeBuilder {
	return n.Attr(domain.KeyAttribute, key)
}

// Attr sets an attribute.
func (n *NodeBuilder) Attr(name, value string) *NodeBuilder {
	n.attrs[name] = value
	return n
}

// Children appends light children, declaring the ones not added yet.
func (n *NodeBuilder) Children(ids ...string) *NodeBuilder {
	for _, id := range ids {
		n.builder.Add(id)
		n.children = append(n.children, id)
		n.content = append(n.content, contentItem{id: id})
	}
	return n
}

// Text appends a text child.
func (n *NodeBuilder) Text(content string) *NodeBuilder {
	n.content = append(n.content, contentItem{text: &content})
	return n
}

// Shadow appends children to the element's shadow root.
func (n *NodeBuilder) Shadow(ids ...string) *NodeBuilder {
	for _, id := range ids {
		n.builder.Add(id)
		n.shadow = append(n.shadow, id)
	}
	return n
}

// ID returns the element id.
func (n *NodeBuilder) ID() string {
	return n.id
}
