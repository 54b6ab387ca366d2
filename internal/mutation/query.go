package mutation

import (
	"context"
	"time"

	"github.com/roach88/signedstore/internal/record"
	"github.com/roach88/signedstore/internal/schema"
	"github.com/roach88/signedstore/internal/signature"
	"github.com/roach88/signedstore/internal/store"
)

// Query selects records through one of the kind's declared finders.
type Query struct {
	// By names the finder.
	By string
	// Params supplies the finder's non-wallet keys.
	Params  map[string]string
	Options record.ListOptions
}

// QueryOne returns the newest alive record matched by q.
func (s *Store[T]) QueryOne(ctx context.Context, owner string, q Query) (out T, err error) {
	start := time.Now()
	defer func() { err = s.finish("query_one", owner, err, start) }()

	f, err := s.filter(owner, q, false)
	if err != nil {
		return out, err
	}
	rec, err := s.coll.FindOne(ctx, f)
	if err != nil {
		return out, err
	}
	return record.Decode[T](rec)
}

// QueryList returns one page of alive records matched by q and the total
// match count.
func (s *Store[T]) QueryList(ctx context.Context, owner string, q Query) (out record.ListResult[T], err error) {
	start := time.Now()
	defer func() { err = s.finish("query_list", owner, err, start) }()

	f, err := s.filter(owner, q, true)
	if err != nil {
		return out, err
	}
	opts := q.Options.Normalize(s.paging)

	total, err := s.coll.Count(ctx, f)
	if err != nil {
		return out, err
	}
	recs, err := s.coll.Find(ctx, f, opts)
	if err != nil {
		return out, err
	}

	list := make([]T, 0, len(recs))
	for _, rec := range recs {
		v, err := record.Decode[T](rec)
		if err != nil {
			return out, err
		}
		list = append(list, v)
	}
	return record.ListResult[T]{
		Total:    total,
		PageNo:   opts.PageNo,
		PageSize: opts.PageSize,
		List:     list,
	}, nil
}

// filter compiles q into a store filter. Owner-scoped finders require a valid
// owner; global finders ignore it.
func (s *Store[T]) filter(owner string, q Query, list bool) (store.Filter, error) {
	finder, err := s.kind.Finder(q.By)
	if err != nil {
		return store.Filter{}, err
	}
	if finder.List != list {
		want := "single"
		if finder.List {
			want = "list"
		}
		return store.Filter{}, record.NewError(record.CodeInvalidInput, "", "finder %q is a %s finder", q.By, want)
	}

	var f store.Filter
	if !finder.Global() {
		if !signature.IsValidAddress(owner) {
			return store.Filter{}, record.NewError(record.CodeInvalidInput, "", "invalid wallet address %q", owner)
		}
		f.Owner = owner
	}

	for _, key := range finder.Params() {
		v := q.Params[key]
		if v == "" {
			return store.Filter{}, record.NewError(record.CodeInvalidInput, "", "%s required", key)
		}
		switch key {
		case schema.KeyHash:
			f.ContentHash = v
		case schema.KeyID:
			f.ID = v
		default:
			if f.Attributes == nil {
				f.Attributes = make(map[string]string)
			}
			f.Attributes[key] = v
		}
	}
	return f, nil
}
