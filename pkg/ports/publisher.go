package ports

import (
	"context"
	"errors"

	"github.com/aretw0/presence/pkg/domain"
)

// Publisher forwards lifecycle events outside the coordinator tree.
type Publisher interface {
	Publish(ctx context.Context, event domain.LifecycleEvent) error
	Close() error
}

// Publishers fans every event out to each of its members.
type Publishers []Publisher

// Publish sends event to every member and joins their errors.
func (ps Publishers) Publish(ctx context.Context, event domain.LifecycleEvent) error {
	var errs []error
	for _, p := range ps {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every member and joins their errors.
func (ps Publishers) Close() error {
	var errs []error
	for _, p := range ps {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
