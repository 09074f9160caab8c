package runtime

import "github.com/aretw0/presence/pkg/domain"

// Intent is a classified structural change for a single node.
type Intent struct {
	Phase  domain.Phase
	Node   *domain.Node
	Index  int
	Record domain.MutationRecord
}

// Classify turns a batch of mutation records into enter and exit intents.
//
// Records are processed from the newest to the oldest with a counter i
// starting at 0. A record adding exactly one node yields an enter intent with
// index len(records)-i; a record removing exactly one node yields an exit
// intent with index i. Records adding or removing several nodes at once are
// not decomposed and yield nothing. Intents are returned in processing order.
func Classify(records []domain.MutationRecord) []Intent {
	var intents []Intent
	for i := 0; i < len(records); i++ {
		rec := records[len(records)-1-i]
		if rec.Type != domain.MutationChildList {
			continue
		}
		if len(rec.AddedNodes) == 1 {
			intents = append(intents, Intent{
				Phase:  domain.PhaseEnter,
				Node:   rec.AddedNodes[0],
				Index:  len(records) - i,
				Record: rec,
			})
		}
		if len(rec.RemovedNodes) == 1 {
			intents = append(intents, Intent{
				Phase:  domain.PhaseExit,
				Node:   rec.RemovedNodes[0],
				Index:  i,
				Record: rec,
			})
		}
	}
	return intents
}

// handleMutation applies a delivered batch. Checks and reinsertions run
// synchronously in delivery order; transitions run on tracked goroutines.
func (c *Coordinator) handleMutation(records []domain.MutationRecord) {
	for _, in := range Classify(records) {
		switch in.Phase {
		case domain.PhaseEnter:
			c.handleEnter(in)
		case domain.PhaseExit:
			c.handleExit(in)
		}
	}
}

func (c *Coordinator) handleEnter(in Intent) {
	node := in.Node
	if !node.IsElement() {
		return
	}

	switch state := node.State(); state {
	case domain.StateExiting, domain.StateExited:
		c.logger.Debug("discarding enter intent for exiting node", "node", node.ID(), "state", state)
	case domain.StatePendingExit:
		// Removed then re-added before its exit started: finish leaving.
		index, _ := node.Index()
		c.inflight.Go(func() {
			if err := c.exitNode(c.baseContext(), node, domain.DisposeRemove, index); err != nil {
				c.logger.Warn("exit transition failed", "node", node.ID(), "err", err)
			}
		})
	default:
		if !c.startEnter(node, in.Index) {
			return
		}
		c.inflight.Go(func() {
			if err := c.finishEnter(c.baseContext(), node, in.Index); err != nil {
				c.logger.Warn("enter transition failed", "node", node.ID(), "err", err)
			}
		})
	}
}

func (c *Coordinator) handleExit(in Intent) {
	node := in.Node
	if !node.IsElement() {
		return
	}
	if err := node.Transition(domain.StatePendingExit); err != nil {
		c.logger.Debug("discarding exit intent", "node", node.ID(), "err", err)
		return
	}
	if in.Index != 0 {
		domain.SetCustomProperties(node, map[string]any{"i": in.Index})
	}

	// Put the node back so its exit has something to animate.
	target := in.Record.Target
	if prev := in.Record.PreviousSibling; prev.IsElement() {
		err := prev.After(node)
		if err == nil {
			return
		}
		c.logger.Debug("previous sibling gone, prepending", "node", node.ID(), "err", err)
	}
	if target.IsElement() {
		if err := target.Prepend(node); err != nil {
			c.logger.Warn("reinsert failed", "node", node.ID(), "err", err)
		}
	}
}
