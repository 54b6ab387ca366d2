package harness

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/roach88/signedstore/internal/mutation"
	"github.com/roach88/signedstore/internal/record"
	"github.com/roach88/signedstore/internal/schema"
	"github.com/roach88/signedstore/internal/signature"
	"github.com/roach88/signedstore/internal/social"
	"github.com/roach88/signedstore/internal/store"
	"github.com/roach88/signedstore/internal/testutil"
)

// Harness executes the steps of one scenario.
type Harness struct {
	svc     *social.Service
	clock   *testutil.Clock
	wallets map[string]wallet
	saved   map[string]string
}

type wallet struct {
	key     *ecdsa.PrivateKey
	address string
}

// Run executes sc against a fresh database at dbPath.
//
// The returned error reports scenario execution problems (unknown kinds,
// unresolvable saves, storage failures). Rejected operations are outcomes,
// recorded in the trace and checked against the step's expect clause.
func Run(ctx context.Context, sc *Scenario, dbPath string) (*Result, error) {
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	defer db.Close()

	reg, err := schema.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load kinds: %w", err)
	}

	clock := testutil.NewClock(time.Time{})
	svc, err := social.New(db, reg, zap.NewNop(), mutation.WithClock(clock))
	if err != nil {
		return nil, fmt.Errorf("failed to build service: %w", err)
	}

	h := &Harness{
		svc:     svc,
		clock:   clock,
		wallets: make(map[string]wallet, len(sc.Wallets)),
		saved:   make(map[string]string),
	}
	for _, alias := range sc.Wallets {
		w, err := deriveWallet(alias)
		if err != nil {
			return nil, err
		}
		h.wallets[alias] = w
	}

	result := NewResult()
	for i, step := range sc.Steps {
		if err := h.execute(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
	}
	for _, msg := range h.evaluate(ctx, sc.Assertions, result) {
		result.AddError(msg)
	}
	return result, nil
}

// deriveWallet returns the same key for the same alias on every run.
func deriveWallet(alias string) (wallet, error) {
	key, err := crypto.ToECDSA(crypto.Keccak256([]byte("signedstore-harness:" + alias)))
	if err != nil {
		return wallet{}, fmt.Errorf("wallet %q: %w", alias, err)
	}
	return wallet{key: key, address: signature.AddressFromKey(key)}, nil
}

func (h *Harness) execute(ctx context.Context, i int, step Step, result *Result) error {
	if step.Op == OpAdvance {
		h.clock.Advance(step.Duration)
		result.AddEvent(TraceEvent{Op: OpAdvance, Outcome: OutcomeOK})
		return nil
	}

	handler, err := h.svc.Handler(step.Kind)
	if err != nil {
		return err
	}

	ev := TraceEvent{Op: step.Op, Kind: step.Kind, As: step.As}
	var (
		out   any
		opErr error
	)
	switch step.Op {
	case OpCreate, OpUpdate, OpDelete:
		p, sig, err := h.sign(handler.Kind(), step)
		if err != nil {
			return err
		}
		owner := h.address(step.As)
		switch step.Op {
		case OpCreate:
			out, opErr = handler.Create(ctx, owner, p, sig)
		case OpUpdate:
			out, opErr = handler.Update(ctx, owner, p, sig)
		default:
			var n int
			n, opErr = handler.Delete(ctx, owner, p, sig)
			if opErr == nil {
				ev.Changed = &n
			}
		}
	case OpStat:
		delta := step.Delta
		if delta == 0 {
			delta = 1
		}
		out, opErr = handler.Adjust(ctx, h.address(step.As), h.resolve(step.Hash), step.Counter, delta)
	case OpGet:
		out, opErr = handler.QueryOne(ctx, h.address(step.As), h.query(step.By, step.Params, record.ListOptions{}))
	case OpList:
		opts := record.ListOptions{PageNo: step.Page, PageSize: step.Size}
		out, opErr = handler.QueryList(ctx, h.address(step.As), h.query(step.By, step.Params, opts))
	}

	ev.Outcome = OutcomeOK
	if opErr != nil {
		code := record.CodeOf(opErr)
		if code == "" {
			return opErr
		}
		ev.Outcome = string(code)
	}

	var doc map[string]any
	if opErr == nil && out != nil {
		if doc, err = document(out); err != nil {
			return err
		}
		if total, ok := doc["total"].(json.Number); ok && step.Op == OpList {
			n, _ := total.Int64()
			t := int(n)
			ev.Total = &t
		}
	}

	if step.Save != "" && opErr == nil {
		hash, ok := doc["hash"].(string)
		if !ok {
			return fmt.Errorf("save %q: result has no hash", step.Save)
		}
		h.saved[step.Save] = hash
		ev.Saved = step.Save
	}

	result.AddEvent(ev)
	for _, msg := range h.checkExpect(i, step, ev, doc) {
		result.AddError(msg)
	}
	return nil
}

// sign builds the request payload for step and signs it.
func (h *Harness) sign(kind *schema.Kind, step Step) (record.Payload, string, error) {
	p := make(record.Payload, len(step.Payload)+2)
	for k, v := range step.Payload {
		p[k] = h.resolveValue(v)
	}
	if !p.Has("wallet") {
		p["wallet"] = h.address(step.As)
	}
	if step.Op == OpDelete && !p.Has("deleted") {
		p["deleted"] = string(record.DeleteRequestMarker)
	}

	signer := h.wallets[step.As]
	if step.SignAs != "" {
		signer = h.wallets[step.SignAs]
	}
	op := schema.OpCreate
	switch step.Op {
	case OpUpdate:
		op = schema.OpUpdate
	case OpDelete:
		op = schema.OpDelete
	}
	sig, err := signature.Sign(signer.key, p, kind.SignatureExclusionFor(op))
	if err != nil {
		return nil, "", fmt.Errorf("sign: %w", err)
	}
	return p, sig, nil
}

func (h *Harness) checkExpect(i int, step Step, ev TraceEvent, doc map[string]any) []string {
	want := step.Expect
	if want == nil {
		want = &Expect{}
	}
	wantOutcome := want.Code
	if wantOutcome == "" {
		wantOutcome = OutcomeOK
	}

	var errs []string
	if ev.Outcome != wantOutcome {
		errs = append(errs, fmt.Sprintf("steps[%d] %s %s: expected %s, got %s", i, step.Op, step.Kind, wantOutcome, ev.Outcome))
		return errs
	}
	if want.Changed != nil && (ev.Changed == nil || *ev.Changed != *want.Changed) {
		errs = append(errs, fmt.Sprintf("steps[%d] %s %s: expected %d changed", i, step.Op, step.Kind, *want.Changed))
	}
	for _, msg := range h.matchFields(doc, want.Fields) {
		errs = append(errs, fmt.Sprintf("steps[%d] %s %s: %s", i, step.Op, step.Kind, msg))
	}
	return errs
}

// matchFields reports every expected field missing from doc or different.
func (h *Harness) matchFields(doc map[string]any, expected map[string]any) []string {
	var errs []string
	for k, want := range expected {
		got, ok := doc[k]
		if !ok {
			errs = append(errs, fmt.Sprintf("field %q missing", k))
			continue
		}
		want = h.resolveValue(want)
		if !valuesEqual(want, got) {
			errs = append(errs, fmt.Sprintf("field %q: expected %v, got %v", k, want, got))
		}
	}
	return errs
}

func (h *Harness) query(by string, params map[string]string, opts record.ListOptions) mutation.Query {
	resolved := make(map[string]string, len(params))
	for k, v := range params {
		resolved[k] = h.resolve(v)
	}
	return mutation.Query{By: by, Params: resolved, Options: opts}
}

func (h *Harness) address(alias string) string {
	if alias == "" {
		return ""
	}
	return h.wallets[alias].address
}

// resolve expands $save and @wallet references. Unknown names stay literal.
func (h *Harness) resolve(s string) string {
	switch {
	case strings.HasPrefix(s, "$"):
		if hash, ok := h.saved[s[1:]]; ok {
			return hash
		}
	case strings.HasPrefix(s, "@"):
		if w, ok := h.wallets[s[1:]]; ok {
			return w.address
		}
	}
	return s
}

func (h *Harness) resolveValue(v any) any {
	switch val := v.(type) {
	case string:
		return h.resolve(val)
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = h.resolveValue(elem)
		}
		return out
	}
	return v
}

// document converts a typed result into its JSON object form.
func document(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return doc, nil
}

// valuesEqual compares scalars by their printed form, so YAML ints match
// JSON numbers.
func valuesEqual(want, got any) bool {
	return fmt.Sprint(want) == fmt.Sprint(got)
}
