// Package redis publishes coordinator lifecycle events over Redis Pub/Sub.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/aretw0/presence/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultChannel is used when no channel is configured.
const DefaultChannel = "presence:events"

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("publisher closed")

// Publisher implements ports.Publisher on top of a Redis client.
type Publisher struct {
	client      *backend.Client
	channel     string
	historyKey  string
	historySize int64
	ownsClient  bool

	mu     sync.RWMutex
	closed bool
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithChannel sets the Pub/Sub channel.
func WithChannel(channel string) Option {
	return func(p *Publisher) {
		if channel != "" {
			p.channel = channel
		}
	}
}

// WithHistory also keeps the last size events in the list at key.
func WithHistory(key string, size int64) Option {
	return func(p *Publisher) {
		p.historyKey = key
		p.historySize = size
	}
}

// New connects to addr. Close closes the connection.
func New(addr string, opts ...Option) *Publisher {
	p := NewFromClient(backend.NewClient(&backend.Options{Addr: addr}), opts...)
	p.ownsClient = true
	return p
}

// NewFromClient publishes through an existing client, which Close leaves open.
func NewFromClient(client *backend.Client, opts ...Option) *Publisher {
	p := &Publisher{
		client:  client,
		channel: DefaultChannel,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Channel returns the Pub/Sub channel events are sent to.
func (p *Publisher) Channel() string { return p.channel }

// Publish sends event as JSON.
func (p *Publisher) Publish(ctx context.Context, event domain.LifecycleEvent) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	if p.historyKey == "" {
		if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
			return fmt.Errorf("redis publish: %w", err)
		}
		return nil
	}

	_, err = p.client.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		pipe.Publish(ctx, p.channel, payload)
		pipe.LPush(ctx, p.historyKey, payload)
		pipe.LTrim(ctx, p.historyKey, 0, p.historySize-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// History returns the retained events, newest first.
func (p *Publisher) History(ctx context.Context) ([]domain.LifecycleEvent, error) {
	if p.historyKey == "" {
		return nil, nil
	}
	raw, err := p.client.LRange(ctx, p.historyKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis history: %w", err)
	}
	events := make([]domain.LifecycleEvent, 0, len(raw))
	for _, r := range raw {
		ev, err := DecodeEvent([]byte(r))
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

// Close stops publishing. It is safe to call more than once.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if p.ownsClient {
		return p.client.Close()
	}
	return nil
}

// DecodeEvent parses a published payload into its concrete event type.
func DecodeEvent(data []byte) (domain.LifecycleEvent, error) {
	var head struct {
		Type domain.EventType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("failed to decode event: %w", err)
	}

	var ev domain.LifecycleEvent
	switch head.Type {
	case domain.EventTransitionStart, domain.EventTransitionEnd:
		ev = &domain.TransitionEvent{}
	case domain.EventExitComplete:
		ev = &domain.CompletionEvent{}
	default:
		return nil, fmt.Errorf("unknown event type %q", head.Type)
	}
	if err := json.Unmarshal(data, ev); err != nil {
		return nil, fmt.Errorf("failed to decode %s event: %w", head.Type, err)
	}
	return ev, nil
}

// Subscribe delivers the events published on channel until ctx is done.
// Payloads that fail to decode are skipped.
func Subscribe(ctx context.Context, client *backend.Client, channel string) (<-chan domain.LifecycleEvent, error) {
	sub := client.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("redis subscribe: %w", err)
	}

	out := make(chan domain.LifecycleEvent)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				ev, err := DecodeEvent([]byte(msg.Payload))
				if err != nil {
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
