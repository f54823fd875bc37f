package harness

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/roach88/grnbind/internal/binding"
	"github.com/roach88/grnbind/internal/compiler"
	"github.com/roach88/grnbind/internal/ir"
	"github.com/roach88/grnbind/internal/lock"
	"github.com/roach88/grnbind/internal/native"
	"github.com/roach88/grnbind/internal/search"
	"github.com/roach88/grnbind/internal/status"
	"github.com/roach88/grnbind/internal/store"
	"github.com/roach88/grnbind/internal/testutil"
)

// Harness is the scenario execution engine. It owns two engine contexts
// on one database so scenarios can exercise lock contention.
type Harness struct {
	store    *store.Store
	clock    *testutil.ManualClock
	contexts [2]*binding.Context
	managers [2]*lock.Manager
	tokens   map[string]*lock.Token // by session and target
	results  map[string]*search.Result
	seq      int64
	logger   *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Compile and validate the schema, then create it
// 2. Insert the seed records
// 3. Execute steps with expect validation
// 4. Evaluate assertions
//
// The returned error reports scenarios that cannot run at all (bad schema,
// bad seed data); expectation failures are reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	h, err := newHarness()
	if err != nil {
		return nil, err
	}
	defer h.close()

	if err := h.setup(scenario); err != nil {
		return nil, err
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		h.execute(i, step, result)
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions, h) {
		result.AddError(msg)
	}
	return result, nil
}

func newHarness() (*Harness, error) {
	clock := testutil.NewManualClock()
	st, err := store.Open(":memory:",
		store.WithClock(clock),
		store.WithSessionIDs(&testutil.SequentialIDs{}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}

	h := &Harness{
		store:   st,
		clock:   clock,
		tokens:  make(map[string]*lock.Token),
		results: make(map[string]*search.Result),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for i := range h.contexts {
		h.contexts[i] = binding.NewContext(st.NewSession(), binding.WithLogger(h.logger))
		h.managers[i] = lock.NewManager(h.contexts[i], lock.WithClock(clock))
	}
	return h, nil
}

func (h *Harness) close() {
	for _, ctx := range h.contexts {
		if err := ctx.Close(); err != nil {
			h.logger.Warn("context close failed", "error", err)
		}
	}
	h.store.Close()
}

// setup creates the schema and seeds the records through session 1.
func (h *Harness) setup(scenario *Scenario) error {
	specs, err := compiler.CompileString(scenario.Schema, scenario.Name+".cue")
	if err != nil {
		return fmt.Errorf("failed to compile schema: %w", err)
	}
	if errs := compiler.Validate(specs); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return fmt.Errorf("invalid schema: %s", strings.Join(msgs, "; "))
	}

	ctx := h.contexts[0]
	if _, err := ctx.ApplySchema(specs); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	tables := make([]string, 0, len(scenario.Records))
	for name := range scenario.Records {
		tables = append(tables, name)
	}
	sort.Strings(tables)
	for _, name := range tables {
		table, err := ctx.Lookup(name)
		if err != nil {
			return fmt.Errorf("records %s: %w", name, err)
		}
		for i, rec := range scenario.Records[name] {
			values, err := ir.RecordFromAny(rec)
			if err != nil {
				return fmt.Errorf("records %s[%d]: %w", name, i, err)
			}
			if _, err := table.Insert(values); err != nil {
				return fmt.Errorf("records %s[%d]: %w", name, i, err)
			}
		}
	}
	return nil
}

// session returns the 0-based context index of a step.
func session(n int) int {
	if n == 2 {
		return 1
	}
	return 0
}

// execute runs one step, records it and checks its expect clause.
func (h *Harness) execute(index int, step Step, result *Result) {
	h.seq++
	sess := session(step.Session)
	out, err := h.dispatch(sess, step)

	ev := TraceEvent{
		Seq:     h.seq,
		Op:      step.Op,
		Target:  step.Target,
		Args:    stepArgs(step),
		Outcome: "ok",
		Result:  out,
	}
	if err != nil {
		ev.Outcome = ErrorName(err)
		ev.Result = nil
	}
	result.AddTrace(ev)

	h.logger.Info("step completed",
		"step", index,
		"op", step.Op,
		"target", step.Target,
		"outcome", ev.Outcome,
	)

	label := fmt.Sprintf("steps[%d] %s %s", index, step.Op, step.Target)
	for _, msg := range checkExpect(step.Expect, out, err) {
		result.AddError(label + ": " + msg)
	}
}

func (h *Harness) dispatch(sess int, step Step) (map[string]any, error) {
	ctx := h.contexts[sess]
	obj, err := ctx.Lookup(step.Target)
	if err != nil {
		return nil, err
	}

	switch step.Op {
	case OpSelect:
		return h.selectStep(obj, step)
	case OpLock:
		var opts []lock.AcquireOption
		if step.Timeout != "" {
			d, err := time.ParseDuration(step.Timeout)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", status.ErrArgument, err)
			}
			opts = append(opts, lock.WithTimeout(d))
		}
		if step.Record != 0 {
			opts = append(opts, lock.WithRecord(native.ID(step.Record)))
		}
		tok, err := h.managers[sess].Acquire(obj, opts...)
		if err != nil {
			return nil, err
		}
		h.tokens[tokenKey(sess, step.Target)] = tok
		return map[string]any{"locked": true}, nil
	case OpUnlock:
		key := tokenKey(sess, step.Target)
		tok, ok := h.tokens[key]
		if !ok {
			return nil, fmt.Errorf("%w: no lock held on %s", status.ErrArgument, step.Target)
		}
		delete(h.tokens, key)
		return map[string]any{}, tok.Release()
	case OpClearLock:
		return map[string]any{}, h.managers[sess].ClearLock(obj)
	case OpRename:
		if err := obj.Rename(step.NewName); err != nil {
			return nil, err
		}
		return map[string]any{"name": obj.Name()}, nil
	case OpFindIndexes:
		op := native.Operator(0)
		if step.Operator != "" {
			parsed, ok := native.ParseOperator(step.Operator)
			if !ok {
				return nil, fmt.Errorf("%w: unknown operator %q", status.ErrArgument, step.Operator)
			}
			op = parsed
		}
		indexes, err := obj.FindIndexes(op)
		if err != nil {
			return nil, err
		}
		names := make([]any, len(indexes))
		sections := make([]any, len(indexes))
		for i, ix := range indexes {
			names[i] = ix.Column.Name()
			sections[i] = int64(ix.Section)
		}
		return map[string]any{"count": len(indexes), "keys": names, "sections": sections}, nil
	}
	return nil, fmt.Errorf("%w: unknown op %q", status.ErrArgument, step.Op)
}

func (h *Harness) selectStep(target *binding.Object, step Step) (map[string]any, error) {
	raw := make(map[string]any, len(step.Options)+1)
	for k, v := range step.Options {
		raw[k] = v
	}
	prev, refine := h.results[step.Into]
	if step.Into != "" && refine {
		raw[search.KeyResult] = prev
	}
	opts, err := search.ParseOptions(raw)
	if err != nil {
		return nil, err
	}

	res, err := search.Select(target, search.Query(step.Query), &opts)
	if err != nil {
		return nil, err
	}
	keys, err := res.Keys()
	if err != nil {
		return nil, err
	}
	if step.Into != "" {
		h.results[step.Into] = res
	} else if err := res.Drop(); err != nil {
		return nil, err
	}

	texts := make([]any, len(keys))
	for i, k := range keys {
		texts[i] = ir.Text(k)
	}
	return map[string]any{"count": len(keys), "keys": texts}, nil
}

func tokenKey(sess int, target string) string {
	return fmt.Sprintf("%d/%s", sess+1, target)
}

// stepArgs collects the non-empty inputs of a step for the trace.
func stepArgs(step Step) map[string]any {
	args := make(map[string]any)
	if step.Session == 2 {
		args["session"] = 2
	}
	if step.Query != "" {
		args["query"] = step.Query
	}
	if len(step.Options) > 0 {
		args["options"] = step.Options
	}
	if step.Into != "" {
		args["into"] = step.Into
	}
	if step.Timeout != "" {
		args["timeout"] = step.Timeout
	}
	if step.Record != 0 {
		args["record"] = int64(step.Record)
	}
	if step.NewName != "" {
		args["new_name"] = step.NewName
	}
	if step.Operator != "" {
		args["operator"] = step.Operator
	}
	if len(args) == 0 {
		return nil
	}
	return args
}

// checkExpect compares a step outcome with its expect clause.
func checkExpect(expect *Expect, out map[string]any, err error) []string {
	if expect == nil {
		expect = &Expect{}
	}
	if expect.Error != "" {
		if err == nil {
			return []string{fmt.Sprintf("expected error %s, got success", expect.Error)}
		}
		if name := ErrorName(err); name != expect.Error {
			return []string{fmt.Sprintf("expected error %s, got %s (%v)", expect.Error, name, err)}
		}
		return nil
	}
	if err != nil {
		return []string{fmt.Sprintf("unexpected error: %v", err)}
	}

	var msgs []string
	if expect.Count != nil {
		if got, ok := out["count"].(int); !ok || got != *expect.Count {
			msgs = append(msgs, fmt.Sprintf("expected count %d, got %v", *expect.Count, out["count"]))
		}
	}
	if expect.Keys != nil {
		want := make([]string, len(expect.Keys))
		for i, k := range expect.Keys {
			want[i] = fmt.Sprint(k)
		}
		var got []string
		if keys, ok := out["keys"].([]any); ok {
			for _, k := range keys {
				got = append(got, fmt.Sprint(k))
			}
		}
		slices.Sort(want)
		slices.Sort(got)
		if !slices.Equal(want, got) {
			msgs = append(msgs, fmt.Sprintf("expected keys %v, got %v", want, got))
		}
	}
	return msgs
}

// ErrorName names err for traces and expect clauses: the taxonomy leaf
// for engine failures ("ResourceDeadlockAvoided"), or the host-side
// sentinel ("Argument", "NotFound", "Closed", "BindFailure",
// "Consistency", "Internal").
func ErrorName(err error) string {
	if err == nil {
		return ""
	}
	if k, ok := status.KindOf(err); ok {
		return k.String()
	}
	switch {
	case errors.Is(err, binding.ErrNotFound):
		return "NotFound"
	case errors.Is(err, status.ErrArgument):
		return "Argument"
	case errors.Is(err, status.ErrClosed):
		return "Closed"
	case errors.Is(err, status.ErrBindFailure):
		return "BindFailure"
	case errors.Is(err, status.ErrConsistency):
		return "Consistency"
	case errors.Is(err, status.ErrInternal):
		return "Internal"
	}
	return "Error"
}
