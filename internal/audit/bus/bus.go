// Package bus is the explicit dispatch point between the entity mutation
// source and the audit recorders. The storage layer invokes Publish* methods
// synchronously inside the mutating operation; the bus fans each notification
// in to every subscriber on the calling goroutine. There is no background
// hand-off: every audit write happens before the triggering operation
// returns.
package bus

import (
	"context"

	"chronicle/internal/audit/service"
)

// Subscriber receives every lifecycle, relation, password, and authentication
// notification. *service.Recorder is the primary implementation.
type Subscriber interface {
	OnEntitySaved(ctx context.Context, ev service.EntitySaved)
	OnEntityDeleting(ctx context.Context, ev service.EntityDeleting)
	OnRelationChanged(ctx context.Context, ev service.RelationChanged)
	OnPasswordChanged(ctx context.Context, ev service.PasswordChanged)
	OnAuthSucceeded(ctx context.Context, ev service.AuthSucceeded)
	OnAuthFailed(ctx context.Context, ev service.AuthFailed)
}

// Bus dispatches notifications to its subscribers in registration order.
// Subscribe before the first Publish; the subscriber list is not guarded for
// concurrent mutation afterwards.
type Bus struct {
	subscribers []Subscriber
}

// New builds an empty bus.
func New() *Bus {
	return &Bus{}
}

// Subscribe registers a subscriber for all notifications.
func (b *Bus) Subscribe(s Subscriber) {
	b.subscribers = append(b.subscribers, s)
}

// PublishEntitySaved delivers a create/update notification.
func (b *Bus) PublishEntitySaved(ctx context.Context, ev service.EntitySaved) {
	for _, s := range b.subscribers {
		s.OnEntitySaved(ctx, ev)
	}
}

// PublishEntityDeleting delivers a deletion notification. Call before the
// row is removed, while the instance display string is still resolvable.
func (b *Bus) PublishEntityDeleting(ctx context.Context, ev service.EntityDeleting) {
	for _, s := range b.subscribers {
		s.OnEntityDeleting(ctx, ev)
	}
}

// PublishRelationChanged delivers a batched relation-change notification.
func (b *Bus) PublishRelationChanged(ctx context.Context, ev service.RelationChanged) {
	for _, s := range b.subscribers {
		s.OnRelationChanged(ctx, ev)
	}
}

// PublishPasswordChanged delivers a password-change notification.
func (b *Bus) PublishPasswordChanged(ctx context.Context, ev service.PasswordChanged) {
	for _, s := range b.subscribers {
		s.OnPasswordChanged(ctx, ev)
	}
}

// PublishAuthSucceeded delivers a successful-authentication notification.
func (b *Bus) PublishAuthSucceeded(ctx context.Context, ev service.AuthSucceeded) {
	for _, s := range b.subscribers {
		s.OnAuthSucceeded(ctx, ev)
	}
}

// PublishAuthFailed delivers a rejected-authentication notification.
func (b *Bus) PublishAuthFailed(ctx context.Context, ev service.AuthFailed) {
	for _, s := range b.subscribers {
		s.OnAuthFailed(ctx, ev)
	}
}
