package memory

import (
	"context"
	"time"

	"github.com/aretw0/presence/pkg/domain"
	"github.com/aretw0/presence/pkg/ports"
)

// Animator simulates timed transitions.
// Each transition lasts Duration plus Stagger for every step of the node's
// ordering index, mirroring a CSS delay of calc(var(--i) * stagger).
type Animator struct {
	Duration time.Duration
	Stagger  time.Duration
}

// NewAnimator creates an Animator with the given timing.
func NewAnimator(duration, stagger time.Duration) *Animator {
	return &Animator{Duration: duration, Stagger: stagger}
}

// Delay returns how long the transition of node takes.
func (a *Animator) Delay(node *domain.Node) time.Duration {
	d := a.Duration
	if i, ok := node.Index(); ok && i > 0 {
		d += time.Duration(i) * a.Stagger
	}
	return d
}

// Animate waits for the simulated transition and then calls afterSelf.
func (a *Animator) Animate(ctx context.Context, node *domain.Node, afterSelf func()) error {
	d := a.Delay(node)
	if d <= 0 {
		afterSelf()
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		afterSelf()
		return nil
	}
}

// Instant returns an Animator whose transitions finish immediately.
func Instant() ports.Animator {
	return ports.AnimatorFunc(func(_ context.Context, _ *domain.Node, afterSelf func()) error {
		afterSelf()
		return nil
	})
}
