package presence_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/presence"
	"github.com/aretw0/presence/pkg/domain"
	"github.com/aretw0/presence/pkg/dsl"
)

// ExampleNew shows a removed child being kept in place until its exit
// transition has finished.
func ExampleNew() {
	b := dsl.New()
	b.Add("list").Presence().Children("a", "b", "c")
	b.Add("a").Tag("li")
	b.Add("b").Tag("li")
	b.Add("c").Tag("li")
	tree, err := b.Build()
	if err != nil {
		log.Fatal(err)
	}

	p, err := presence.New(tree.Doc)
	if err != nil {
		log.Fatal(err)
	}
	defer p.Close()

	ctx := context.Background()
	if err := p.Mount(ctx); err != nil {
		log.Fatal(err)
	}
	if err := p.Settle(ctx); err != nil {
		log.Fatal(err)
	}

	tree.Node("b").Remove()
	if err := p.Settle(ctx); err != nil {
		log.Fatal(err)
	}

	for _, child := range tree.Node("list").ElementChildren() {
		fmt.Println(child.ID(), child.State())
	}
	fmt.Println("b attached:", tree.Node("b").Parent() != nil, tree.Node("b").State() == domain.StateExited)
	// Output:
	// a entered
	// c entered
	// b attached: false true
}

// ExamplePresence_Exit shows an imperative exit that hides children instead
// of removing them.
func ExamplePresence_Exit() {
	b := dsl.New()
	b.Add("menu").Presence().Children("open", "save")
	b.Add("open").Tag("button")
	b.Add("save").Tag("button")
	tree, err := b.Build()
	if err != nil {
		log.Fatal(err)
	}

	p, err := presence.New(tree.Doc)
	if err != nil {
		log.Fatal(err)
	}
	defer p.Close()

	ctx := context.Background()
	if err := p.Mount(ctx); err != nil {
		log.Fatal(err)
	}
	if err := p.Settle(ctx); err != nil {
		log.Fatal(err)
	}

	menu, _ := p.Find("menu")
	menu.OnExitComplete(func(source *domain.Node) {
		fmt.Println("exit complete:", source.ID())
	})
	if err := p.Exit(ctx, "menu"); err != nil {
		log.Fatal(err)
	}

	for _, child := range tree.Node("menu").ElementChildren() {
		fmt.Println(child.ID(), child.Hidden())
	}
	fmt.Println(menu.Phase())
	// Output:
	// exit complete: menu
	// open true
	// save true
	// exited
}
