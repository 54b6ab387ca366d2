package harness

import (
	"context"
	"fmt"

	"github.com/roach88/signedstore/internal/record"
)

// evaluate runs every assertion and returns the failure messages.
func (h *Harness) evaluate(ctx context.Context, assertions []Assertion, result *Result) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertFinalState:
			err = h.assertFinalState(ctx, a)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

// assertTraceCount counts the steps with a.Op and a.Outcome, OK by default.
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	outcome := a.Outcome
	if outcome == "" {
		outcome = OutcomeOK
	}
	n := 0
	for _, ev := range trace {
		if ev.Op == a.Op && ev.Outcome == outcome {
			n++
		}
	}
	if n != a.Count {
		return fmt.Errorf("trace_count %s/%s: expected %d, got %d", a.Op, outcome, a.Count, n)
	}
	return nil
}

func (h *Harness) assertFinalState(ctx context.Context, a Assertion) error {
	handler, err := h.svc.Handler(a.Kind)
	if err != nil {
		return err
	}
	out, err := handler.QueryOne(ctx, h.address(a.As), h.query(a.By, a.Params, record.ListOptions{}))
	if err != nil {
		return fmt.Errorf("final_state %s by %s: %w", a.Kind, a.By, err)
	}
	doc, err := document(out)
	if err != nil {
		return err
	}
	if msgs := h.matchFields(doc, a.Expect); len(msgs) > 0 {
		return fmt.Errorf("final_state %s by %s: %v", a.Kind, a.By, msgs)
	}
	return nil
}
