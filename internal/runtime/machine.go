package runtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aretw0/presence/pkg/domain"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// cycler is implemented by coordinators nested below a node.
type cycler interface {
	Enter(ctx context.Context) error
	Exit(ctx context.Context) error
}

// enterNode runs the entrance of a single node, then cascades Enter into the
// coordinators nested inside it (parent arrives before its contents).
func (c *Coordinator) enterNode(ctx context.Context, node *domain.Node, index int) error {
	if !c.startEnter(node, index) {
		return nil
	}
	return c.finishEnter(ctx, node, index)
}

// startEnter marks node as entering and stamps its ordering index.
func (c *Coordinator) startEnter(node *domain.Node, index int) bool {
	if err := node.Transition(domain.StateEntering); err != nil {
		c.logger.Debug("skipping enter", "node", node.ID(), "err", err)
		return false
	}
	node.RemoveProperty(domain.VisibilityProperty)
	domain.SetCustomProperties(node, map[string]any{"i": index})
	return true
}

func (c *Coordinator) finishEnter(ctx context.Context, node *domain.Node, index int) error {
	err := c.transition(ctx, node, domain.PhaseEnter, "", index, func() {
		if node.TransitionFrom(domain.StateEntering, domain.StateEntered) {
			node.RemoveProperty(domain.IndexProperty)
		}
	})
	return errors.Join(err, cascade(ctx, node.NearestHosts(), domain.PhaseEnter))
}

// exitNode waits for the coordinators nested inside node to exit, then runs
// the node's own exit and disposes of it (contents leave before the parent).
func (c *Coordinator) exitNode(ctx context.Context, node *domain.Node, disposal domain.Disposal, index int) error {
	if state := node.State(); state == domain.StateExiting || state == domain.StateExited {
		return nil
	}

	nestedErr := cascade(ctx, node.NearestHosts(), domain.PhaseExit)

	if err := node.Transition(domain.StateExiting); err != nil {
		c.logger.Debug("skipping exit", "node", node.ID(), "err", err)
		return nestedErr
	}
	domain.SetCustomProperties(node, map[string]any{"i": index})

	err := c.transition(ctx, node, domain.PhaseExit, disposal, index, func() {
		switch disposal {
		case domain.DisposeHide:
			node.SetProperty(domain.VisibilityProperty, "hidden")
		default:
			node.Remove()
		}
		node.TransitionFrom(domain.StateExiting, domain.StateExited)
	})

	return errors.Join(nestedErr, err)
}

// transition invokes the animator for node and guarantees afterSelf runs
// exactly once, whether or not the animator called it.
func (c *Coordinator) transition(ctx context.Context, node *domain.Node, phase domain.Phase, disposal domain.Disposal, index int, afterSelf func()) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := c.newTransitionEvent(domain.EventTransitionStart, node, phase, disposal, index)
	if c.hooks.OnTransitionStart != nil {
		c.hooks.OnTransitionStart(ctx, start)
	}
	c.publish(ctx, start)

	var once sync.Once
	done := func() { once.Do(afterSelf) }
	err := c.animator.Animate(ctx, node, done)
	done()

	end := c.newTransitionEvent(domain.EventTransitionEnd, node, phase, disposal, index)
	if err != nil {
		err = fmt.Errorf("%s transition of %s: %w", phase, node, err)
		end.Err = err.Error()
	}
	if c.hooks.OnTransitionEnd != nil {
		c.hooks.OnTransitionEnd(ctx, end)
	}
	c.publish(ctx, end)
	return err
}

func (c *Coordinator) newTransitionEvent(typ domain.EventType, node *domain.Node, phase domain.Phase, disposal domain.Disposal, index int) *domain.TransitionEvent {
	return &domain.TransitionEvent{
		EventBase: domain.EventBase{
			ID:          uuid.NewString(),
			Timestamp:   time.Now(),
			Type:        typ,
			PresenceKey: c.key,
		},
		NodeID:   node.ID(),
		Phase:    phase,
		Index:    index,
		Disposal: disposal,
	}
}

func (c *Coordinator) publish(ctx context.Context, event domain.LifecycleEvent) {
	if c.publisher == nil {
		return
	}
	if err := c.publisher.Publish(ctx, event); err != nil {
		c.logger.Warn("failed to publish lifecycle event", "type", event.Base().Type, "err", err)
	}
}

// cascade runs Enter or Exit on every host concurrently and joins them.
func cascade(ctx context.Context, hosts []domain.Host, phase domain.Phase) error {
	var g errgroup.Group
	for _, h := range hosts {
		nested, ok := h.(cycler)
		if !ok {
			continue
		}
		g.Go(func() error {
			if phase == domain.PhaseEnter {
				return nested.Enter(ctx)
			}
			return nested.Exit(ctx)
		})
	}
	return g.Wait()
}
