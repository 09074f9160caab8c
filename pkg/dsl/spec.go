package dsl

import "fmt"

// NodeSpec is the declarative form of an element, as found in scenario files.
type NodeSpec struct {
	ID       string     `json:"id" yaml:"id" mapstructure:"id"`
	Tag      string     `json:"tag,omitempty" yaml:"tag,omitempty" mapstructure:"tag"`
	Presence bool       `json:"presence,omitempty" yaml:"presence,omitempty" mapstructure:"presence"`
	Key      string     `json:"key,omitempty" yaml:"key,omitempty" mapstructure:"key"`
	Text     string     `json:"text,omitempty" yaml:"text,omitempty" mapstructure:"text"`
	Children []NodeSpec `json:"children,omitempty" yaml:"children,omitempty" mapstructure:"children"`
	Shadow   []NodeSpec `json:"shadow,omitempty" yaml:"shadow,omitempty" mapstructure:"shadow"`
}

// AddSpec declares spec and its descendants.
func (b *Builder) AddSpec(spec NodeSpec) (*NodeBuilder, error) {
	if spec.ID == "" {
		return nil, fmt.Errorf("node spec missing id")
	}
	if _, ok := b.nodes[spec.ID]; ok {
		return nil, fmt.Errorf("duplicate node id %q", spec.ID)
	}

	nb := b.Add(spec.ID)
	if spec.Tag != "" {
		nb.Tag(spec.Tag)
	}
	if spec.Presence {
		nb.Presence()
	}
	if spec.Key != "" {
		nb.Key(spec.Key)
	}
	if spec.Text != "" {
		nb.Text(spec.Text)
	}
	for _, child := range spec.Children {
		if _, err := b.AddSpec(child); err != nil {
			return nil, err
		}
		nb.Children(child.ID)
	}
	for _, child := range spec.Shadow {
		if _, err := b.AddSpec(child); err != nil {
			return nil, err
		}
		nb.Shadow(child.ID)
	}
	return nb, nil
}

// FromSpecs builds a tree whose top-level elements are specs.
func FromSpecs(specs ...NodeSpec) (*Tree, error) {
	b := New()
	for _, spec := range specs {
		if _, err := b.AddSpec(spec); err != nil {
			return nil, err
		}
	}
	return b.Build()
}
