// Package throttle rejects mutations that follow an owner's previous one too
// closely.
//
// The guard keeps no state of its own. It reads the owner's most recent alive
// record from the target collection and compares one of its timestamps with
// the current time. Two concurrent requests can both pass the check; the
// throttle is advisory abuse mitigation, not a uniqueness guarantee.
//
// Owners are compared as stored, case-sensitively. Signature recovery
// accepts the lowercase and EIP-55 spellings of one address alike, so a key
// holder who alternates spellings gets a separate window for each.
package throttle

import (
	"context"
	"time"

	"github.com/roach88/signedstore/internal/record"
)

// Window is one throttle rule: at least Interval must elapse since the
// owner's newest record, measured on the By timestamp.
type Window struct {
	By       record.SortField
	Interval time.Duration
}

// Source yields the newest timestamp among an owner's alive records.
// *store.Collection implements it.
type Source interface {
	Latest(ctx context.Context, owner string, by record.SortField) (time.Time, bool, error)
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns time.Now.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Guard checks windows against one collection.
type Guard struct {
	src   Source
	clock Clock
}

// New creates a guard over src. A nil clock means SystemClock.
func New(src Source, clock Clock) *Guard {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Guard{src: src, clock: clock}
}

// Check returns OPERATE_FREQUENTLY when owner's newest record is younger than
// w.Interval. No prior record, or a zero interval, always passes.
func (g *Guard) Check(ctx context.Context, owner string, w Window) error {
	if w.Interval <= 0 {
		return nil
	}
	by := w.By
	if !by.Valid() {
		by = record.SortCreatedAt
	}

	ts, ok, err := g.src.Latest(ctx, owner, by)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	if elapsed := g.clock.Now().Sub(ts); elapsed < w.Interval {
		return record.NewError(record.CodeOperateFrequently, "",
			"operate frequently: retry in %s", (w.Interval - elapsed).Round(time.Millisecond))
	}
	return nil
}
