package social

import (
	"context"

	"github.com/roach88/signedstore/internal/mutation"
	"github.com/roach88/signedstore/internal/record"
	"github.com/roach88/signedstore/internal/schema"
)

type mutateFunc[T any] func(ctx context.Context, owner string, p record.Payload, sig string) (T, error)

type deleteFunc func(ctx context.Context, owner string, p record.Payload, sig string) (int, error)

// typed adapts a typed store to Handler. create and remove default to the
// store's own methods and are replaced for kinds with side effects.
type typed[T any] struct {
	store  *mutation.Store[T]
	create mutateFunc[T]
	remove deleteFunc
}

func adapt[T any](s *mutation.Store[T]) *typed[T] {
	return &typed[T]{store: s, create: s.Create, remove: s.SoftDelete}
}

func (h *typed[T]) Kind() *schema.Kind {
	return h.store.Kind()
}

func (h *typed[T]) Create(ctx context.Context, owner string, p record.Payload, sig string) (any, error) {
	return h.create(ctx, owner, p, sig)
}

func (h *typed[T]) Update(ctx context.Context, owner string, p record.Payload, sig string) (any, error) {
	return h.store.Update(ctx, owner, p, sig)
}

func (h *typed[T]) Delete(ctx context.Context, owner string, p record.Payload, sig string) (int, error) {
	return h.remove(ctx, owner, p, sig)
}

func (h *typed[T]) QueryOne(ctx context.Context, owner string, q mutation.Query) (any, error) {
	return h.store.QueryOne(ctx, owner, q)
}

func (h *typed[T]) QueryList(ctx context.Context, owner string, q mutation.Query) (any, error) {
	return h.store.QueryList(ctx, owner, q)
}

func (h *typed[T]) Adjust(ctx context.Context, actor, contentHash, counter string, delta int) (any, error) {
	return h.store.Adjust(ctx, actor, contentHash, counter, delta)
}
