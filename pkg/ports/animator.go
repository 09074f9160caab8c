package ports

import (
	"context"

	"github.com/aretw0/presence/pkg/domain"
)

// Animator is the transition collaborator.
// Animate runs the visual transition selected by the node's markers and calls
// afterSelf exactly once when the node's own transition finishes, then returns.
// It returns an error without calling afterSelf only when the transition could
// not run to completion (for example, the context was canceled).
type Animator interface {
	Animate(ctx context.Context, node *domain.Node, afterSelf func()) error
}

// AnimatorFunc adapts a function to the Animator interface.
type AnimatorFunc func(ctx context.Context, node *domain.Node, afterSelf func()) error

// Animate calls f.
func (f AnimatorFunc) Animate(ctx context.Context, node *domain.Node, afterSelf func()) error {
	return f(ctx, node, afterSelf)
}
