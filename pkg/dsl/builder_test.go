package dsl

import (
	"errors"
	"testing"

	"github.com/aretw0/presence/pkg/domain"
)

func TestBuilder_NestedPresence(t *testing.T) {
	// 1. Build the tree using DSL
	b := New()

	b.Add("page").
		Presence().
		Children("header", "list")

	b.Add("header").Tag("h1").Text("Title")

	b.Add("list").
		Presence().
		Children("x", "y", "z")

	b.Add("y").Key("item-y")

	tree, err := b.Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	// 2. Verify structure
	page := tree.Node("page")
	if page.Parent() != tree.Doc.Root() {
		t.Fatalf("expected page to be attached to the root")
	}
	if got := len(tree.Node("list").ElementChildren()); got != 3 {
		t.Errorf("expected 3 list items, got %d", got)
	}
	header := tree.Node("header")
	if header.Tag() != "h1" {
		t.Errorf("expected header tag 'h1', got '%s'", header.Tag())
	}
	if kids := header.Children(); len(kids) != 1 || kids[0].Text() != "Title" {
		t.Errorf("expected a single text child 'Title', got %v", kids)
	}
	if key, _ := tree.Node("y").Attribute(domain.KeyAttribute); key != "item-y" {
		t.Errorf("expected key 'item-y', got '%s'", key)
	}

	// 3. Presences are listed top-down
	presences := tree.Presences()
	if len(presences) != 2 || presences[0] != page || presences[1] != tree.Node("list") {
		t.Errorf("unexpected presence order: %v", presences)
	}
}

func TestBuilder_ShadowChildren(t *testing.T) {
	b := New()
	b.Add("widget").Tag("x-widget").Shadow("inner")
	b.Add("inner").Presence().Children("a")

	tree, err := b.Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	inner := tree.Node("inner")
	if inner.Parent() == nil || inner.Parent().Kind() != domain.KindShadowRoot {
		t.Fatalf("expected inner to live in a shadow root")
	}
	if inner.Parent().ShadowHost() != tree.Node("widget") {
		t.Errorf("expected shadow host to be widget")
	}
}

func TestBuilder_Errors(t *testing.T) {
	b := New()
	b.Add("a").Children("b")
	b.Add("c").Children("b")
	if _, err := b.Build(); err == nil {
		t.Error("expected error for a node with two parents")
	}

	b = New()
	b.Add("a").Children("b")
	b.Add("b").Children("a")
	_, err := b.Build()
	if !errors.Is(err, domain.ErrHierarchy) {
		t.Errorf("expected hierarchy error for a cycle, got %v", err)
	}
}

func TestFromSpecs(t *testing.T) {
	tree, err := FromSpecs(NodeSpec{
		ID:       "list",
		Presence: true,
		Children: []NodeSpec{
			{ID: "x", Tag: "li"},
			{ID: "y", Tag: "li", Key: "k-y"},
		},
	})
	if err != nil {
		t.Fatalf("FromSpecs failed: %v", err)
	}
	if tree.Node("list").Tag() != domain.PresenceTag {
		t.Errorf("expected presence tag, got %s", tree.Node("list").Tag())
	}
	if got := tree.Node("y").PreviousSibling(); got != tree.Node("x") {
		t.Errorf("expected x before y, got %v", got)
	}

	if _, err := FromSpecs(NodeSpec{ID: "a"}, NodeSpec{ID: "a"}); err == nil {
		t.Error("expected duplicate id error")
	}
}
