package memory

import (
	"context"
	"sync"

	"github.com/aretw0/presence/pkg/domain"
)

// ChannelPublisher forwards lifecycle events to a Go channel.
// Publishing never blocks: events are dropped when the channel is full.
type ChannelPublisher struct {
	mu     sync.RWMutex
	ch     chan<- domain.LifecycleEvent
	closed bool
}

// NewChannelPublisher creates a ChannelPublisher writing to ch.
func NewChannelPublisher(ch chan<- domain.LifecycleEvent) *ChannelPublisher {
	return &ChannelPublisher{ch: ch}
}

// Publish sends event, dropping it on backpressure or after Close.
func (p *ChannelPublisher) Publish(ctx context.Context, event domain.LifecycleEvent) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil
	}

	select {
	case p.ch <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// Close closes the underlying channel.
func (p *ChannelPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.ch)
	}
	return nil
}
