package harness

// TraceEvent records one executed step. Values that depend on key material
// or wall time (hashes, ids, addresses) stay out of the trace so it can be
// compared across runs.
type TraceEvent struct {
	Seq     int    `json:"seq"`
	Op      string `json:"op"`
	Kind    string `json:"kind,omitempty"`
	As      string `json:"as,omitempty"`
	Outcome string `json:"outcome"`
	Saved   string `json:"saved,omitempty"`
	Changed *int   `json:"changed,omitempty"`
	Total   *int   `json:"total,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	Trace []TraceEvent `json:"trace"`

	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddEvent appends ev with the next sequence number.
func (r *Result) AddEvent(ev TraceEvent) {
	ev.Seq = len(r.Trace) + 1
	r.Trace = append(r.Trace, ev)
}
