package ports

import "github.com/aretw0/presence/pkg/domain"

// Subscription is an active observation.
type Subscription interface {
	// Disconnect stops delivery. Batches already being delivered complete.
	Disconnect()
}

// Observer delivers structural changes of a container's direct children (and
// of selected attributes) as batches of records in chronological order.
// Batches for one subscription are delivered sequentially, never concurrently.
type Observer interface {
	Observe(target *domain.Node, opts domain.ObserveOptions, fn func([]domain.MutationRecord)) (Subscription, error)
}
