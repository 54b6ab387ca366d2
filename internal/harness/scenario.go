package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Scenario is one conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Wallets lists the aliases of the signing identities the steps use.
	Wallets []string `yaml:"wallets"`

	// Steps run in order against one database.
	Steps []Step `yaml:"steps"`

	// Assertions are evaluated after the last step.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one operation of a scenario.
type Step struct {
	Op   string `yaml:"op"`
	Kind string `yaml:"kind,omitempty"`

	// As is the acting wallet alias.
	As string `yaml:"as,omitempty"`

	// SignAs signs with another wallet than As, for forged requests.
	SignAs string `yaml:"sign_as,omitempty"`

	Payload map[string]any `yaml:"payload,omitempty"`

	// Save records the content hash of the result under this name.
	Save string `yaml:"save,omitempty"`

	// stat
	Hash    string `yaml:"hash,omitempty"`
	Counter string `yaml:"counter,omitempty"`
	Delta   int    `yaml:"delta,omitempty"`

	// get, list
	By     string            `yaml:"by,omitempty"`
	Params map[string]string `yaml:"params,omitempty"`
	Page   int               `yaml:"page,omitempty"`
	Size   int               `yaml:"size,omitempty"`

	// advance, a Go duration; parsed into Duration on load
	Advance  string        `yaml:"advance,omitempty"`
	Duration time.Duration `yaml:"-"`

	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect is the expected outcome of a step. An empty Code means success.
type Expect struct {
	Code string `yaml:"code"`

	// Fields is a subset match on the JSON form of the result.
	Fields map[string]any `yaml:"fields,omitempty"`

	// Changed is the expected row count of a delete.
	Changed *int `yaml:"changed,omitempty"`
}

// Assertion validates the trace or the final state.
type Assertion struct {
	Type string `yaml:"type"`

	// trace_count
	Op      string `yaml:"op,omitempty"`
	Outcome string `yaml:"outcome,omitempty"`
	Count   int    `yaml:"count,omitempty"`

	// final_state
	Kind   string            `yaml:"kind,omitempty"`
	As     string            `yaml:"as,omitempty"`
	By     string            `yaml:"by,omitempty"`
	Params map[string]string `yaml:"params,omitempty"`
	Expect map[string]any    `yaml:"expect,omitempty"`
}

// Step operations.
const (
	OpCreate  = "create"
	OpUpdate  = "update"
	OpDelete  = "delete"
	OpStat    = "stat"
	OpGet     = "get"
	OpList    = "list"
	OpAdvance = "advance"
)

// Assertion types.
const (
	AssertTraceCount = "trace_count"
	AssertFinalState = "final_state"
)

// OutcomeOK is the trace outcome of a successful step.
const OutcomeOK = "OK"

// LoadScenario reads and parses a scenario YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes a scenario, rejecting unknown fields.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&sc); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &sc, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	wallets := make(map[string]bool, len(s.Wallets))
	for _, w := range s.Wallets {
		if wallets[w] {
			return fmt.Errorf("wallet %q declared twice", w)
		}
		wallets[w] = true
	}
	known := func(alias string) bool { return alias == "" || wallets[alias] }

	for i := range s.Steps {
		step := &s.Steps[i]
		if !known(step.As) || !known(step.SignAs) {
			return fmt.Errorf("steps[%d]: unknown wallet", i)
		}
		switch step.Op {
		case OpCreate, OpUpdate, OpDelete:
			if step.Kind == "" || step.As == "" {
				return fmt.Errorf("steps[%d]: kind and as are required for %s", i, step.Op)
			}
			if step.Payload == nil {
				return fmt.Errorf("steps[%d]: payload is required for %s", i, step.Op)
			}
		case OpStat:
			if step.Kind == "" || step.Hash == "" || step.Counter == "" {
				return fmt.Errorf("steps[%d]: kind, hash and counter are required for stat", i)
			}
		case OpGet, OpList:
			if step.Kind == "" || step.By == "" {
				return fmt.Errorf("steps[%d]: kind and by are required for %s", i, step.Op)
			}
		case OpAdvance:
			d, err := time.ParseDuration(step.Advance)
			if err != nil || d <= 0 {
				return fmt.Errorf("steps[%d]: advance needs a positive duration", i)
			}
			step.Duration = d
		default:
			return fmt.Errorf("steps[%d]: unknown op %q", i, step.Op)
		}
	}

	for i, a := range s.Assertions {
		switch a.Type {
		case AssertTraceCount:
			if a.Op == "" || a.Count < 0 {
				return fmt.Errorf("assertions[%d]: op and a non-negative count are required for trace_count", i)
			}
		case AssertFinalState:
			if a.Kind == "" || a.By == "" || len(a.Expect) == 0 {
				return fmt.Errorf("assertions[%d]: kind, by and expect are required for final_state", i)
			}
			if !known(a.As) {
				return fmt.Errorf("assertions[%d]: unknown wallet", i)
			}
		default:
			return fmt.Errorf("assertions[%d]: unknown assertion type %q", i, a.Type)
		}
	}
	return nil
}
