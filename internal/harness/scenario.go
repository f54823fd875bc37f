package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Scenario defines a test scenario over one database.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schema is inline CUE declaring the tables.
	Schema string `yaml:"schema"`

	// Records seeds tables before the steps run. "_key" holds the key of
	// keyed tables; every other field names a column.
	Records map[string][]map[string]any `yaml:"records,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and state.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one operation against the binding layer.
type Step struct {
	// Op is one of select, lock, unlock, clear_lock, rename, find_indexes.
	Op string `yaml:"op"`

	// Target is the full name of the object the step acts on.
	Target string `yaml:"target"`

	// Session selects the engine context: 1 (default) or 2.
	Session int `yaml:"session,omitempty"`

	// Query is the select condition. Empty selects every record.
	Query string `yaml:"query,omitempty"`

	// Options are select options by name (operator, syntax, name,
	// allow_pragma, allow_column, allow_update, allow_leading_not).
	Options map[string]any `yaml:"options,omitempty"`

	// Into names the select result. A later select with the same name
	// merges into it.
	Into string `yaml:"into,omitempty"`

	// Timeout bounds a lock wait, as a Go duration ("10ms").
	Timeout string `yaml:"timeout,omitempty"`

	// Record is the record id carried by a lock.
	Record uint32 `yaml:"record,omitempty"`

	// NewName is the new local name for rename.
	NewName string `yaml:"new_name,omitempty"`

	// Operator filters find_indexes.
	Operator string `yaml:"operator,omitempty"`

	// Expect validates the step outcome. Without it the step must succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Step operations.
const (
	OpSelect      = "select"
	OpLock        = "lock"
	OpUnlock      = "unlock"
	OpClearLock   = "clear_lock"
	OpRename      = "rename"
	OpFindIndexes = "find_indexes"
)

// Expect specifies the expected step outcome.
type Expect struct {
	// Error is the expected error name (see ErrorName). Empty expects
	// success.
	Error string `yaml:"error,omitempty"`

	// Count is the expected number of select results or indexes.
	Count *int `yaml:"count,omitempty"`

	// Keys are the expected result keys of a select, or index names of
	// find_indexes, in any order.
	Keys []any `yaml:"keys,omitempty"`
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type is one of trace_contains, trace_order, trace_count,
	// final_state, lock_state.
	Type string `yaml:"type"`

	// Op and Target select steps (trace_contains, trace_count). Target
	// also names the object for lock_state.
	Op     string `yaml:"op,omitempty"`
	Target string `yaml:"target,omitempty"`

	// Steps is the expected order for trace_order, each "op" or "op target".
	Steps []string `yaml:"steps,omitempty"`

	// Count is the expected number of matching steps (trace_count).
	Count int `yaml:"count,omitempty"`

	// Table and Key locate a record (final_state).
	Table string `yaml:"table,omitempty"`
	Key   any    `yaml:"key,omitempty"`

	// Expect maps column names to expected values (final_state).
	Expect map[string]any `yaml:"expect,omitempty"`

	// Locked is the expected lock state (lock_state).
	Locked *bool `yaml:"locked,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
	AssertLockState     = "lock_state"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML with the same checks as LoadScenario.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict fields catch typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadDir loads every *.yaml scenario in dir, sorted by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Schema == "" {
		return fmt.Errorf("schema is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, s *Step) error {
	if s.Target == "" {
		return fmt.Errorf("steps[%d]: target is required", index)
	}
	if s.Session < 0 || s.Session > 2 {
		return fmt.Errorf("steps[%d]: session must be 1 or 2", index)
	}
	switch s.Op {
	case OpSelect, OpUnlock, OpClearLock, OpFindIndexes:
	case OpLock:
		if s.Timeout != "" {
			if _, err := time.ParseDuration(s.Timeout); err != nil {
				return fmt.Errorf("steps[%d]: invalid timeout: %w", index, err)
			}
		}
	case OpRename:
		if s.NewName == "" {
			return fmt.Errorf("steps[%d]: new_name is required for rename", index)
		}
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, s.Op)
	}
	if s.Op != OpSelect && (s.Query != "" || s.Options != nil || s.Into != "") {
		return fmt.Errorf("steps[%d]: query, options and into apply to select only", index)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Steps) == 0 {
			return fmt.Errorf("assertions[%d]: steps list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	case AssertLockState:
		if a.Target == "" {
			return fmt.Errorf("assertions[%d]: target is required for lock_state", index)
		}
		if a.Locked == nil {
			return fmt.Errorf("assertions[%d]: locked is required for lock_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
