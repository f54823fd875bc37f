package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalScenario = `
name: minimal
description: one select
schema: |
  table: Items: {type: "hash", key_type: "ShortText", column: title: type: "ShortText"}
steps:
  - op: select
    target: Items.title
    query: groonga
`

func TestParseScenario_Minimal(t *testing.T) {
	sc, err := ParseScenario([]byte(minimalScenario))
	require.NoError(t, err)
	assert.Equal(t, "minimal", sc.Name)
	require.Len(t, sc.Steps, 1)
	assert.Equal(t, OpSelect, sc.Steps[0].Op)
	assert.Equal(t, "Items.title", sc.Steps[0].Target)
	assert.Nil(t, sc.Steps[0].Expect)
}

func TestParseScenario_Full(t *testing.T) {
	sc, err := LoadScenario("testdata/scenarios/select_refine.yaml")
	require.NoError(t, err)

	assert.Len(t, sc.Records["Items"], 3)
	require.Len(t, sc.Steps, 7)
	refine := sc.Steps[1]
	assert.Equal(t, "hits", refine.Into)
	assert.Equal(t, map[string]any{"operator": "and"}, refine.Options)
	require.NotNil(t, refine.Expect.Count)
	assert.Equal(t, 1, *refine.Expect.Count)
	assert.Equal(t, []any{"b"}, refine.Expect.Keys)

	contended := sc.Steps[4]
	assert.Equal(t, 2, contended.Session)
	assert.Equal(t, "5ms", contended.Timeout)
	assert.Equal(t, "ResourceDeadlockAvoided", contended.Expect.Error)

	require.Len(t, sc.Assertions, 4)
	require.NotNil(t, sc.Assertions[3].Locked)
	assert.True(t, *sc.Assertions[3].Locked)
}

func TestParseScenario_RejectsUnknownFields(t *testing.T) {
	_, err := ParseScenario([]byte(minimalScenario + "assertion: []\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"missing name", "description: d\nschema: s\nsteps: [{op: select, target: T}]\n", "name is required"},
		{"missing description", "name: n\nschema: s\nsteps: [{op: select, target: T}]\n", "description is required"},
		{"missing schema", "name: n\ndescription: d\nsteps: [{op: select, target: T}]\n", "schema is required"},
		{"no steps", "name: n\ndescription: d\nschema: s\n", "steps list is required"},
		{"missing op", "name: n\ndescription: d\nschema: s\nsteps: [{target: T}]\n", "op is required"},
		{"unknown op", "name: n\ndescription: d\nschema: s\nsteps: [{op: drop, target: T}]\n", `unknown op "drop"`},
		{"missing target", "name: n\ndescription: d\nschema: s\nsteps: [{op: lock}]\n", "target is required"},
		{"bad session", "name: n\ndescription: d\nschema: s\nsteps: [{op: lock, target: T, session: 3}]\n", "session must be 1 or 2"},
		{"bad timeout", "name: n\ndescription: d\nschema: s\nsteps: [{op: lock, target: T, timeout: soon}]\n", "invalid timeout"},
		{"rename without name", "name: n\ndescription: d\nschema: s\nsteps: [{op: rename, target: T}]\n", "new_name is required"},
		{"query on lock", "name: n\ndescription: d\nschema: s\nsteps: [{op: lock, target: T, query: q}]\n", "select only"},
		{"assertion without type", "name: n\ndescription: d\nschema: s\nsteps: [{op: lock, target: T}]\nassertions: [{op: lock}]\n", "type is required"},
		{"unknown assertion", "name: n\ndescription: d\nschema: s\nsteps: [{op: lock, target: T}]\nassertions: [{type: magic}]\n", `unknown assertion type "magic"`},
		{"trace_order without steps", "name: n\ndescription: d\nschema: s\nsteps: [{op: lock, target: T}]\nassertions: [{type: trace_order}]\n", "steps list is required for trace_order"},
		{"final_state without expect", "name: n\ndescription: d\nschema: s\nsteps: [{op: lock, target: T}]\nassertions: [{type: final_state, table: T}]\n", "expect is required"},
		{"lock_state without locked", "name: n\ndescription: d\nschema: s\nsteps: [{op: lock, target: T}]\nassertions: [{type: lock_state, target: T}]\n", "locked is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid scenario")
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadDir(t *testing.T) {
	scenarios, err := LoadDir("testdata/scenarios")
	require.NoError(t, err)
	require.Len(t, scenarios, 2)
	assert.Equal(t, "rename_and_errors", scenarios[0].Name, "sorted by file name")
	assert.Equal(t, "select_refine", scenarios[1].Name)
}

func TestLoadDir_ReportsFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("name: [\n"), 0o644))
	_, err := LoadDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.yaml")
}
