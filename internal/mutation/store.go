// Package mutation implements the signed mutation protocol over one entity
// kind: create, whitelisted update, soft delete, finder-driven queries and
// counter adjustment.
//
// Every mutating call carries the owner's wallet, the payload and a signature
// over the payload's canonical form. The order of checks is fixed: address,
// signature, field rules, throttle window, uniqueness. A request that fails
// any check leaves storage untouched.
package mutation

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/roach88/signedstore/internal/digest"
	"github.com/roach88/signedstore/internal/record"
	"github.com/roach88/signedstore/internal/schema"
	"github.com/roach88/signedstore/internal/signature"
	"github.com/roach88/signedstore/internal/store"
	"github.com/roach88/signedstore/internal/throttle"
)

// Observer receives one call per finished operation.
type Observer interface {
	Observe(operation, kind string, err error, started time.Time)
}

type noopObserver struct{}

func (noopObserver) Observe(string, string, error, time.Time) {}

type options struct {
	clock   throttle.Clock
	logger  *zap.Logger
	metrics Observer
	paging  record.Paging
}

// Option configures a Store.
type Option func(*options)

// WithClock sets the time source for timestamps and throttle checks.
func WithClock(c throttle.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithLogger sets the logger. Nil means zap.NewNop.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMetrics sets the operation observer.
func WithMetrics(m Observer) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithPaging overrides the page size bounds of list queries.
func WithPaging(p record.Paging) Option {
	return func(o *options) {
		o.paging = p
	}
}

// Store serves one entity kind and decodes its records into T.
type Store[T any] struct {
	kind    *schema.Kind
	coll    *store.Collection
	guard   *throttle.Guard
	clock   throttle.Clock
	logger  *zap.Logger
	metrics Observer
	paging  record.Paging
}

// New creates a store for kind backed by coll.
func New[T any](kind *schema.Kind, coll *store.Collection, opts ...Option) *Store[T] {
	o := options{
		clock:   throttle.SystemClock{},
		metrics: noopObserver{},
		paging:  record.DefaultPaging(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	return &Store[T]{
		kind:    kind,
		coll:    coll,
		guard:   throttle.New(coll, o.clock),
		clock:   o.clock,
		logger:  o.logger.With(zap.String("kind", kind.Name)),
		metrics: o.metrics,
		paging:  o.paging,
	}
}

// Kind returns the served kind.
func (s *Store[T]) Kind() *schema.Kind {
	return s.kind
}

// Create stores a new alive record owned by owner.
func (s *Store[T]) Create(ctx context.Context, owner string, p record.Payload, sig string) (out T, err error) {
	start := time.Now()
	defer func() { err = s.finish("create", owner, err, start) }()

	if err := s.authorize(schema.OpCreate, owner, p, sig); err != nil {
		return out, err
	}
	if err := s.guard.Check(ctx, owner, throttle.Window{By: record.SortCreatedAt, Interval: s.kind.Throttle.Create}); err != nil {
		return out, err
	}

	hash, err := ContentHash(s.kind, owner, p)
	if err != nil {
		return out, err
	}
	key, err := s.kind.NaturalKeyOf(p, hash)
	if err != nil {
		return out, err
	}

	_, err = s.coll.FindOne(ctx, store.Filter{Owner: owner, NaturalKey: key})
	switch {
	case err == nil:
		return out, record.NewError(record.CodeDuplicateKey, "", "%s %s already exists", s.kind.Name, key)
	case !record.IsNotFound(err):
		return out, err
	}

	now := s.now()
	rec := record.Record{
		ID:          record.NewObjectID(now),
		Owner:       owner,
		Signature:   sig,
		ContentHash: hash,
		Tombstone:   record.AliveMarker,
		NaturalKey:  key,
		Attributes:  s.kind.Attributes(p),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.coll.Insert(ctx, rec); err != nil {
		return out, err
	}
	return record.Decode[T](rec)
}

// Update rewrites the whitelisted fields of owner's alive record named by the
// payload's natural key and stores the new signature. Owner, natural key,
// content hash and tombstone never change.
func (s *Store[T]) Update(ctx context.Context, owner string, p record.Payload, sig string) (out T, err error) {
	start := time.Now()
	defer func() { err = s.finish("update", owner, err, start) }()

	if s.kind.UpdateBanned() {
		return out, record.NewError(record.CodeUpdatingBanned, "", "%s cannot be updated", s.kind.Name)
	}
	if err := s.authorize(schema.OpUpdate, owner, p, sig); err != nil {
		return out, err
	}
	if err := s.guard.Check(ctx, owner, throttle.Window{By: record.SortUpdatedAt, Interval: s.kind.Throttle.Update}); err != nil {
		return out, err
	}

	cur, err := s.locate(ctx, owner, p)
	if err != nil {
		return out, err
	}

	attrs := cur.Attributes.Clone()
	for _, name := range s.kind.Updatable {
		if v, ok := p[name]; ok {
			attrs[name] = v
		}
	}

	rec, err := s.coll.Update(ctx, cur.ID, attrs, sig, s.now())
	if err != nil {
		return out, err
	}
	return record.Decode[T](rec)
}

// SoftDelete tombstones owner's alive record named by the payload's natural
// key. The payload must carry deleted set to the delete-request marker. It
// returns 1, or 0 with NOT_FOUND.
func (s *Store[T]) SoftDelete(ctx context.Context, owner string, p record.Payload, sig string) (n int, err error) {
	start := time.Now()
	defer func() { err = s.finish("delete", owner, err, start) }()

	if err := s.authorize(schema.OpDelete, owner, p, sig); err != nil {
		return 0, err
	}
	if marker, _ := p.String(record.FieldDeleted); !record.Tombstone(marker).IsDeleteRequest() {
		return 0, record.NewError(record.CodeInvalidInput, "", "deleted must be %s", record.DeleteRequestMarker)
	}
	if err := s.guard.Check(ctx, owner, throttle.Window{By: record.SortUpdatedAt, Interval: s.kind.Throttle.Delete}); err != nil {
		return 0, err
	}

	cur, err := s.locate(ctx, owner, p)
	if err != nil {
		return 0, err
	}
	changed, err := s.coll.Tombstone(ctx, cur.ID, s.now())
	if err != nil {
		return 0, err
	}
	if changed == 0 {
		return 0, record.NewError(record.CodeNotFound, "", "%s %s already deleted", s.kind.Name, cur.ID)
	}
	return int(changed), nil
}

// authorize runs the checks shared by every mutation: owner address,
// signature, then field rules.
func (s *Store[T]) authorize(op schema.Op, owner string, p record.Payload, sig string) error {
	if !signature.IsValidAddress(owner) {
		return record.NewError(record.CodeInvalidInput, "", "invalid wallet address %q", owner)
	}
	if len(p) == 0 {
		return record.NewError(record.CodeInvalidInput, "", "empty payload")
	}
	if err := signature.Validate(owner, p, sig, s.kind.SignatureExclusionFor(op)); err != nil {
		return err
	}
	return s.kind.Validate(op, p, owner)
}

// locate finds owner's alive record by the natural key carried in p.
func (s *Store[T]) locate(ctx context.Context, owner string, p record.Payload) (record.Record, error) {
	key, err := s.kind.NaturalKeyOf(p, "")
	if err != nil {
		return record.Record{}, err
	}
	return s.coll.FindOne(ctx, store.Filter{Owner: owner, NaturalKey: key})
}

// ContentHash is the digest a create of p by owner stores. The owner is bound
// into the hash when the payload does not name it.
func ContentHash(kind *schema.Kind, owner string, p record.Payload) (string, error) {
	in := p
	if !p.Has(record.FieldWallet) {
		in = p.Clone()
		in[record.FieldWallet] = owner
	}
	hash, err := digest.Digest(in, kind.DigestExclusion())
	if err != nil {
		return "", record.WrapError(record.CodeInvalidInput, kind.Name, "digest payload", err)
	}
	return hash, nil
}

func (s *Store[T]) now() time.Time {
	return s.clock.Now().UTC().Truncate(time.Millisecond)
}

// finish tags err with the kind, reports the operation and logs rejections.
// Read misses are routine and log at Debug.
func (s *Store[T]) finish(op, owner string, err error, start time.Time) error {
	err = record.WithKind(err, s.kind.Name)
	s.metrics.Observe(op, s.kind.Name, err, start)
	if err != nil {
		log := s.logger.Warn
		if record.IsNotFound(err) && (op == "query_one" || op == "query_list") {
			log = s.logger.Debug
		}
		log("operation rejected",
			zap.String("op", op),
			zap.String("wallet", owner),
			zap.String("code", string(record.CodeOf(err))),
			zap.Error(err),
		)
		return err
	}
	s.logger.Debug("operation applied", zap.String("op", op), zap.String("wallet", owner))
	return nil
}
