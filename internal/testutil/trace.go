package testutil

// FixedTraceGenerator returns the same trace id on every call.
//
// The CLI stamps every response with a trace id; a fixed one keeps golden
// output byte-identical across runs.
type FixedTraceGenerator struct {
	id string
}

// NewFixedTraceGenerator creates a generator. An empty id becomes
// "test-trace-default".
func NewFixedTraceGenerator(id string) *FixedTraceGenerator {
	if id == "" {
		id = "test-trace-default"
	}
	return &FixedTraceGenerator{id: id}
}

// Generate returns the fixed id.
func (g *FixedTraceGenerator) Generate() string {
	return g.id
}
