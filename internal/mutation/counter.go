package mutation

import (
	"context"
	"time"

	"github.com/roach88/signedstore/internal/digest"
	"github.com/roach88/signedstore/internal/record"
	"github.com/roach88/signedstore/internal/signature"
)

// Adjust moves counter on the alive record holding contentHash by delta,
// never below zero. Any valid actor may adjust any owner's record; no
// signature is involved and updatedAt stays put.
func (s *Store[T]) Adjust(ctx context.Context, actor, contentHash, counter string, delta int) (out T, err error) {
	start := time.Now()
	defer func() { err = s.finish("adjust", actor, err, start) }()

	switch {
	case !signature.IsValidAddress(actor):
		return out, record.NewError(record.CodeInvalidInput, "", "invalid wallet address %q", actor)
	case !digest.IsValidHash(contentHash):
		return out, record.NewError(record.CodeInvalidInput, "", "invalid hash %q", contentHash)
	case !s.kind.IsCounter(counter):
		return out, record.NewError(record.CodeInvalidInput, "", "unknown counter %q", counter)
	case delta != 1 && delta != -1:
		return out, record.NewError(record.CodeInvalidInput, "", "delta must be 1 or -1, got %d", delta)
	}

	rec, err := s.coll.Increment(ctx, contentHash, counter, int64(delta))
	if err != nil {
		return out, err
	}
	return record.Decode[T](rec)
}

// Increase adds one to counter.
func (s *Store[T]) Increase(ctx context.Context, actor, contentHash, counter string) (T, error) {
	return s.Adjust(ctx, actor, contentHash, counter, 1)
}

// Decrease subtracts one from counter, stopping at zero.
func (s *Store[T]) Decrease(ctx context.Context, actor, contentHash, counter string) (T, error) {
	return s.Adjust(ctx, actor, contentHash, counter, -1)
}
