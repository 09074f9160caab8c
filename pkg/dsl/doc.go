/*
Package dsl provides a Go DSL for programmatically constructing node trees.

It allows tests, scenarios and embedding applications to describe containers,
presence hosts and shadow roots with a fluent builder instead of wiring
domain.Node values by hand. Trees can also be declared with NodeSpec values,
which is the form scenario files use.

Example usage:

	b := dsl.New()

	b.Add("page").
		Presence().
		Children("header", "list")

	b.Add("list").
		Presence().
		Children("x", "y", "z")

	b.Add("y").Key("item-y").Text("Y")

	tree, err := b.Build()
	if err != nil {
		return err
	}
	// tree.Presences() lists "page" then "list", ready to be mounted.
*/
package dsl
