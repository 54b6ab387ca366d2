// Package social assembles the seven entity stores into one service and adds
// the cross-kind behavior: likes and favorites must reference a live post or
// comment, and keep its like and favorite counters current.
package social

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/roach88/signedstore/internal/entity"
	"github.com/roach88/signedstore/internal/mutation"
	"github.com/roach88/signedstore/internal/record"
	"github.com/roach88/signedstore/internal/schema"
	"github.com/roach88/signedstore/internal/store"
)

// Handler is the untyped face of one kind, used for dispatch by kind name.
type Handler interface {
	Kind() *schema.Kind
	Create(ctx context.Context, owner string, p record.Payload, sig string) (any, error)
	Update(ctx context.Context, owner string, p record.Payload, sig string) (any, error)
	Delete(ctx context.Context, owner string, p record.Payload, sig string) (int, error)
	QueryOne(ctx context.Context, owner string, q mutation.Query) (any, error)
	QueryList(ctx context.Context, owner string, q mutation.Query) (any, error)
	Adjust(ctx context.Context, actor, contentHash, counter string, delta int) (any, error)
}

// Service holds one store per kind.
type Service struct {
	Posts     *mutation.Store[entity.Post]
	Comments  *mutation.Store[entity.Comment]
	Likes     *mutation.Store[entity.Like]
	Favorites *mutation.Store[entity.Favorite]
	Followers *mutation.Store[entity.Follower]
	Contacts  *mutation.Store[entity.Contact]
	Profiles  *mutation.Store[entity.Profile]

	logger   *zap.Logger
	handlers map[string]Handler
}

// New builds the service over db using the kinds in reg. The logger is
// shared with every store; opts apply to every store.
func New(db *store.Store, reg *schema.Registry, logger *zap.Logger, opts ...mutation.Option) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = append([]mutation.Option{mutation.WithLogger(logger)}, opts...)
	s := &Service{logger: logger, handlers: make(map[string]Handler)}

	var err error
	if s.Posts, err = open[entity.Post](db, reg, entity.KindPost, opts); err != nil {
		return nil, err
	}
	if s.Comments, err = open[entity.Comment](db, reg, entity.KindComment, opts); err != nil {
		return nil, err
	}
	if s.Likes, err = open[entity.Like](db, reg, entity.KindLike, opts); err != nil {
		return nil, err
	}
	if s.Favorites, err = open[entity.Favorite](db, reg, entity.KindFavorite, opts); err != nil {
		return nil, err
	}
	if s.Followers, err = open[entity.Follower](db, reg, entity.KindFollower, opts); err != nil {
		return nil, err
	}
	if s.Contacts, err = open[entity.Contact](db, reg, entity.KindContact, opts); err != nil {
		return nil, err
	}
	if s.Profiles, err = open[entity.Profile](db, reg, entity.KindProfile, opts); err != nil {
		return nil, err
	}

	s.handlers[entity.KindPost] = adapt(s.Posts)
	s.handlers[entity.KindComment] = adapt(s.Comments)
	s.handlers[entity.KindFollower] = adapt(s.Followers)
	s.handlers[entity.KindContact] = adapt(s.Contacts)
	s.handlers[entity.KindProfile] = adapt(s.Profiles)

	likes := adapt(s.Likes)
	likes.create = s.CreateLike
	likes.remove = s.DeleteLike
	s.handlers[entity.KindLike] = likes

	favorites := adapt(s.Favorites)
	favorites.create = s.CreateFavorite
	favorites.remove = s.DeleteFavorite
	s.handlers[entity.KindFavorite] = favorites

	return s, nil
}

func open[T any](db *store.Store, reg *schema.Registry, name string, opts []mutation.Option) (*mutation.Store[T], error) {
	kind, err := reg.Kind(name)
	if err != nil {
		return nil, err
	}
	coll, err := db.Collection(kind.Collection)
	if err != nil {
		return nil, fmt.Errorf("kind %s: %w", name, err)
	}
	return mutation.New[T](kind, coll, opts...), nil
}

// Handler returns the handler for kind.
func (s *Service) Handler(kind string) (Handler, error) {
	h, ok := s.handlers[kind]
	if !ok {
		return nil, record.NewError(record.CodeInvalidInput, "", "unknown kind %q", kind)
	}
	return h, nil
}

// Kinds returns the served kind names in sorted order.
func (s *Service) Kinds() []string {
	names := make([]string, 0, len(s.handlers))
	for name := range s.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
