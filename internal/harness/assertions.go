package harness

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/roach88/grnbind/internal/ir"
	"github.com/roach88/grnbind/internal/native"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s -> %s\n", event.Seq, event.Op, event.Target, event.Outcome)
		}
	}
	return buf.String()
}

// matchesStep reports whether ev is the step named by spec, "op" or
// "op target".
func matchesStep(ev TraceEvent, spec string) bool {
	op, target, hasTarget := strings.Cut(spec, " ")
	return ev.Op == op && (!hasTarget || ev.Target == target)
}

func stepSpec(a Assertion) string {
	if a.Target == "" {
		return a.Op
	}
	return a.Op + " " + a.Target
}

// assertTraceContains checks that some step matches op and target.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	spec := stepSpec(assertion)
	for _, event := range trace {
		if matchesStep(event, spec) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("step %q", spec),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that steps appear in the specified order.
// Steps don't need to be consecutive (intervening steps are allowed).
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	pos := 0
	for _, spec := range assertion.Steps {
		found := false
		for pos < len(trace) {
			ev := trace[pos]
			pos++
			if matchesStep(ev, spec) {
				found = true
				break
			}
		}
		if !found {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("steps in order: %v", assertion.Steps),
				Actual:   fmt.Sprintf("no %q after the previous step", spec),
				Trace:    trace,
			}
		}
	}
	return nil
}

// assertTraceCount checks that matching steps appear exactly Count times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	spec := stepSpec(assertion)
	count := 0
	for _, event := range trace {
		if matchesStep(event, spec) {
			count++
		}
	}
	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %q", assertion.Count, spec),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertFinalState finds the record with the given key and compares the
// listed column values.
func assertFinalState(h *Harness, assertion Assertion) error {
	fail := func(expected, actual string) error {
		return &AssertionError{Type: AssertFinalState, Expected: expected, Actual: actual}
	}

	ctx := h.contexts[0]
	table, err := ctx.Lookup(assertion.Table)
	if err != nil {
		return fail(fmt.Sprintf("table %s", assertion.Table), err.Error())
	}
	key, err := ir.FromAny(assertion.Key)
	if err != nil {
		return fail(fmt.Sprintf("key %v", assertion.Key), err.Error())
	}
	records, err := table.Records()
	if err != nil {
		return fail(fmt.Sprintf("records of %s", assertion.Table), err.Error())
	}

	i := slices.IndexFunc(records, func(r native.Record) bool { return ir.Equal(r.Key, key) })
	if i < 0 {
		return fail(fmt.Sprintf("record %s in %s", ir.Text(key), assertion.Table), "no such record")
	}
	id := records[i].ID

	columns := make([]string, 0, len(assertion.Expect))
	for name := range assertion.Expect {
		columns = append(columns, name)
	}
	sort.Strings(columns)
	for _, name := range columns {
		want, err := ir.FromAny(assertion.Expect[name])
		if err != nil {
			return fail(fmt.Sprintf("%s = %v", name, assertion.Expect[name]), err.Error())
		}
		col, err := table.Column(name)
		if err != nil {
			return fail(fmt.Sprintf("column %s.%s", assertion.Table, name), err.Error())
		}
		got, err := col.Value(id)
		if err != nil {
			return fail(fmt.Sprintf("%s = %s", name, canonical(want)), err.Error())
		}
		if !ir.Equal(got, want) {
			return fail(
				fmt.Sprintf("%s[%s].%s = %s", assertion.Table, ir.Text(key), name, canonical(want)),
				canonical(got),
			)
		}
	}
	return nil
}

// assertLockState checks whether the target is locked.
func assertLockState(h *Harness, assertion Assertion) error {
	fail := func(actual string) error {
		return &AssertionError{
			Type:     AssertLockState,
			Expected: fmt.Sprintf("%s locked=%t", assertion.Target, *assertion.Locked),
			Actual:   actual,
		}
	}
	obj, err := h.contexts[0].Lookup(assertion.Target)
	if err != nil {
		return fail(err.Error())
	}
	locked, err := h.managers[0].IsLocked(obj)
	if err != nil {
		return fail(err.Error())
	}
	if locked != *assertion.Locked {
		return fail(fmt.Sprintf("locked=%t", locked))
	}
	return nil
}

func canonical(v ir.IRValue) string {
	b, err := ir.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// EvaluateAssertions runs every assertion and returns the failure messages.
// It does not fail fast.
func EvaluateAssertions(result *Result, assertions []Assertion, h *Harness) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertFinalState:
			err = assertFinalState(h, a)
		case AssertLockState:
			err = assertLockState(h, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %s", i, err.Error()))
		}
	}
	return errs
}
