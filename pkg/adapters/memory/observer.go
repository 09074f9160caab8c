package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/aretw0/presence/pkg/domain"
	"github.com/aretw0/presence/pkg/ports"
)

// ErrNilTarget is returned when Observe is called without a target node.
var ErrNilTarget = errors.New("observe: nil target")

// Observer implements ports.Observer on top of domain.Document subscriptions.
// Records produced by synchronous mutations queue up and are delivered as one
// batch on a dedicated goroutine per subscription, the way a mutation observer
// delivers them after the current task.
type Observer struct {
	mu   sync.Mutex
	cond *sync.Cond
	subs map[*subscription]struct{}
}

// NewObserver creates an in-process Observer.
func NewObserver() *Observer {
	o := &Observer{subs: make(map[*subscription]struct{})}
	o.cond = sync.NewCond(&o.mu)
	return o
}

// Observe subscribes fn to the changes of target selected by opts.
func (o *Observer) Observe(target *domain.Node, opts domain.ObserveOptions, fn func([]domain.MutationRecord)) (ports.Subscription, error) {
	if target == nil {
		return nil, ErrNilTarget
	}

	s := &subscription{
		owner: o,
		fn:    fn,
		wake:  make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
	o.mu.Lock()
	o.subs[s] = struct{}{}
	o.mu.Unlock()

	s.cancel = target.Document().Subscribe(target, opts, s.enqueue)
	go s.run()
	return s, nil
}

// Flush blocks until every record queued so far, including records queued by
// the handlers while they run, has been delivered and handled.
func (o *Observer) Flush(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		o.mu.Lock()
		o.cond.Broadcast()
		o.mu.Unlock()
	})
	defer stop()

	o.mu.Lock()
	defer o.mu.Unlock()
	for o.busyLocked() {
		if err := ctx.Err(); err != nil {
			return err
		}
		o.cond.Wait()
	}
	return nil
}

func (o *Observer) busyLocked() bool {
	for s := range o.subs {
		if len(s.queue) > 0 || s.handling {
			return true
		}
	}
	return false
}

type subscription struct {
	owner    *Observer
	fn       func([]domain.MutationRecord)
	cancel   func()
	queue    []domain.MutationRecord
	handling bool
	wake     chan struct{}
	done     chan struct{}
	once     sync.Once
}

// enqueue runs under the document lock; it only touches the queue.
func (s *subscription) enqueue(rec domain.MutationRecord) {
	s.owner.mu.Lock()
	s.queue = append(s.queue, rec)
	s.owner.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscription) run() {
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}

		s.owner.mu.Lock()
		select {
		case <-s.done:
			s.owner.mu.Unlock()
			return
		default:
		}
		batch := s.queue
		s.queue = nil
		s.handling = len(batch) > 0
		s.owner.mu.Unlock()

		if len(batch) > 0 {
			s.fn(batch)
		}

		s.owner.mu.Lock()
		s.handling = false
		s.owner.cond.Broadcast()
		s.owner.mu.Unlock()
	}
}

// Disconnect stops delivery and drops records that were not delivered yet.
func (s *subscription) Disconnect() {
	s.once.Do(func() {
		s.cancel()

		s.owner.mu.Lock()
		close(s.done)
		s.queue = nil
		delete(s.owner.subs, s)
		s.owner.cond.Broadcast()
		s.owner.mu.Unlock()
	})
}
