package social

import (
	"context"

	"go.uber.org/zap"

	"github.com/roach88/signedstore/internal/entity"
	"github.com/roach88/signedstore/internal/mutation"
	"github.com/roach88/signedstore/internal/record"
)

// CreateLike stores a like on a live post or comment and bumps the target's
// statisticLike.
func (s *Service) CreateLike(ctx context.Context, owner string, p record.Payload, sig string) (entity.Like, error) {
	return react(ctx, s, s.Likes, entity.StatisticLike, owner, p, sig)
}

// DeleteLike tombstones a like and lowers the target's statisticLike.
func (s *Service) DeleteLike(ctx context.Context, owner string, p record.Payload, sig string) (int, error) {
	return unreact(ctx, s, s.Likes, entity.StatisticLike, owner, p, sig)
}

// CreateFavorite stores a favorite on a live post or comment and bumps the
// target's statisticFavorite.
func (s *Service) CreateFavorite(ctx context.Context, owner string, p record.Payload, sig string) (entity.Favorite, error) {
	return react(ctx, s, s.Favorites, entity.StatisticFavorite, owner, p, sig)
}

// DeleteFavorite tombstones a favorite and lowers the target's
// statisticFavorite.
func (s *Service) DeleteFavorite(ctx context.Context, owner string, p record.Payload, sig string) (int, error) {
	return unreact(ctx, s, s.Favorites, entity.StatisticFavorite, owner, p, sig)
}

func react[T any](ctx context.Context, s *Service, st *mutation.Store[T], counter, owner string, p record.Payload, sig string) (out T, err error) {
	target, ref, err := s.target(p)
	if err != nil {
		return out, err
	}
	if _, err := target.QueryOne(ctx, "", mutation.Query{By: "hash", Params: map[string]string{"hash": ref.RefHash}}); err != nil {
		if record.IsNotFound(err) {
			return out, record.NewError(record.CodeNotFound, st.Kind().Name, "%s %s does not exist", ref.RefType, ref.RefHash)
		}
		return out, err
	}

	out, err = st.Create(ctx, owner, p, sig)
	if err != nil {
		return out, err
	}
	s.adjust(ctx, target, owner, ref, counter, 1)
	return out, nil
}

func unreact[T any](ctx context.Context, s *Service, st *mutation.Store[T], counter, owner string, p record.Payload, sig string) (int, error) {
	n, err := st.SoftDelete(ctx, owner, p, sig)
	if err != nil {
		return n, err
	}
	// The payload passed validation, so the reference is well-formed.
	if target, ref, err := s.target(p); err == nil {
		s.adjust(ctx, target, owner, ref, counter, -1)
	}
	return n, nil
}

// target resolves the handler of the kind a reference payload points at.
func (s *Service) target(p record.Payload) (Handler, entity.Reference, error) {
	var ref entity.Reference
	ref.RefType, _ = p.String("refType")
	ref.RefHash, _ = p.String("refHash")
	if ref.RefType != entity.RefPost && ref.RefType != entity.RefComment {
		return nil, ref, record.NewError(record.CodeInvalidInput, "", "invalid refType %q", ref.RefType)
	}
	h, err := s.Handler(ref.Target())
	return h, ref, err
}

// adjust applies a counter side effect. Failures are logged; the reaction
// stands.
func (s *Service) adjust(ctx context.Context, target Handler, actor string, ref entity.Reference, counter string, delta int) {
	if _, err := target.Adjust(ctx, actor, ref.RefHash, counter, delta); err != nil {
		s.logger.Warn("counter side effect failed",
			zap.String("target", ref.Target()),
			zap.String("hash", ref.RefHash),
			zap.String("counter", counter),
			zap.Int("delta", delta),
			zap.Error(err),
		)
	}
}
