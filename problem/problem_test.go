package problem

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/cottand/qinfer/dataflow"
	"github.com/cottand/qinfer/model"
	"github.com/cottand/qinfer/qerr"
	"github.com/cottand/qinfer/solver/propagate"
	"github.com/cottand/qinfer/stats"
	"github.com/cottand/qinfer/strategy"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const nullness = `
strategy: components
parallelism: 2
lattice:
  top: "@Nullable"
  bottom: "@NonNull"
  polymorphic: "@PolyNull"
  values: ["@Maybe"]
  order:
    - ["@NonNull", "@Maybe"]
slots:
  - {id: 0, kind: variable}
  - {id: 1, kind: constant, value: "@NonNull"}
  - {id: 2, kind: source, file: Main.java, line: 3, column: 7}
  - {id: 3, kind: variable}
  - {id: 4, kind: constant, value: "@Maybe"}
constraints:
  - subtype: [0, 1]
  - equal: [2, 0]
  - subtype: [3, 4]
`

func TestParseQualifier(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "bare", input: "@NonNull", expected: "@NonNull"},
		{name: "spaces", input: "  @NonNull ", expected: "@NonNull"},
		{name: "single value", input: "@Unit(value=m)", expected: "@Unit(value={m})"},
		{name: "list", input: "@Unit(value={m, s}, scale=3)", expected: "@Unit(scale={3}, value={m, s})"},
		{name: "empty list", input: "@Unit(value={})", expected: "@Unit"},
		{name: "dataflow is canonical", input: "@DataFlow(typeNames={B, A, A})", expected: dataflow.New("A", "B").String()},
		{name: "quoted", input: `@Unit(value={"m, s", t})`, expected: `@Unit(value={"m, s", t})`},
		{name: "quoted braces", input: `@Unit(value="{m}")`, expected: `@Unit(value={"{m}"})`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			q, err := ParseQualifier(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, q.String())
		})
	}
}

func TestParseQualifierErrors(t *testing.T) {
	for _, input := range []string{
		"NonNull",
		"@",
		"@Unit(value=m",
		"@Unit(value)",
		"@Unit(value={m)",
		"@Unit(value=m, value=s)",
		"@Unit(=m)",
		`@Unit(value={"m})`,
	} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseQualifier(input)
			assert.Error(t, err)
		})
	}
}

func TestQualifierRoundTrip(t *testing.T) {
	testCases := []map[string][]string{
		{"value": {"m", "s"}, "scale": {"3"}},
		{"value": {"m, s"}},
		{"value": {"a=b", "(c)", `d"e`, ` f `, "", "g\\h"}},
		{"value": {"{x}", "y}, other={z"}},
	}
	for _, elems := range testCases {
		q := model.NewAnnotation("Unit", elems)
		t.Run(q.String(), func(t *testing.T) {
			parsed, err := ParseQualifier(q.String())
			require.NoError(t, err)
			assert.True(t, q.Equal(parsed), "parsed %s", parsed)
		})
	}
}

func TestParse(t *testing.T) {
	p, err := Parse([]byte(nullness), "nullness.yaml")
	require.NoError(t, err)

	assert.Equal(t, Components, p.Strategy)
	assert.Equal(t, 2, p.Parallelism)
	assert.Equal(t, propagate.Greatest, p.Prefer)
	assert.Len(t, p.Slots, 5)
	assert.Len(t, p.Constraints, 3)
	assert.Equal(t, 4, p.Lattice.Len())
	assert.True(t, p.Lattice.IsPolymorphic(model.NewAnnotation("PolyNull", nil)))
	assert.Equal(t, model.SourceVariableKind, p.Slots[2].Kind())
	assert.Equal(t, "v0 <: @NonNull", p.Constraints[0].String())
	assert.Equal(t, model.Equality, p.Constraints[1].Relation())
	assert.IsType(t, strategy.ComponentPolicy{}, p.Policy())
}

func TestSolve(t *testing.T) {
	p, err := Parse([]byte(nullness), "nullness.yaml")
	require.NoError(t, err)

	statistics := stats.New()
	result, err := p.Solve(strategy.WithStatistics(statistics))
	require.NoError(t, err)
	require.True(t, result.HasSolution())

	report := NewReport(result, statistics)
	assert.Equal(t, map[int]string{0: "@NonNull", 2: "@NonNull", 3: "@Maybe"}, report.Solution)
	assert.Equal(t, int64(3), report.Statistics[stats.AnnotationSize])
	q, ok := report.Qualifier(3)
	require.True(t, ok)
	assert.Equal(t, "@Maybe", q.String())

	out, err := report.Marshal()
	require.NoError(t, err)
	var decoded Report
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	assert.Equal(t, report, decoded)
}

func TestSolveUnsatisfiable(t *testing.T) {
	p, err := Parse([]byte(`
lattice: {top: "@Nullable", bottom: "@NonNull"}
slots:
  - {id: 0}
  - {id: 1, kind: constant, value: "@Nullable"}
  - {id: 2, kind: constant, value: "@NonNull"}
constraints:
  - subtype: [1, 0]
  - subtype: [0, 2]
`), "unsat.yaml")
	require.NoError(t, err)

	result, err := p.Solve()
	require.NoError(t, err)
	report := NewReport(result, nil)
	assert.False(t, report.Satisfiable)
	assert.NotEmpty(t, report.Unsatisfiable)
	assert.Nil(t, report.Solution)
}

func TestDataFlowProblem(t *testing.T) {
	p, err := Parse([]byte(`
strategy: dataflow
slots:
  - {id: 0}
  - {id: 1}
  - {id: 2, kind: constant, value: "@DataFlow(typeNames=A)"}
constraints:
  - subtype: [0, 2]
  - equal: [1, 0]
`), "dataflow.yaml")
	require.NoError(t, err)
	assert.IsType(t, &dataflow.Policy{}, p.Policy())

	result, err := p.Solve()
	require.NoError(t, err)
	assert.Equal(t, map[int]string{0: dataflow.New("A").String(), 1: dataflow.New("A").String()}, NewReport(result, nil).Solution)
}

const callSites = `
prefer: least
lattice:
  top: "@Nullable"
  bottom: "@NonNull"
  polymorphic: "@PolyNull"
slots:
  - {id: 0, kind: constant, value: "@PolyNull"}
  - {id: 1, kind: constant, value: "@NonNull"}
  - {id: 2, kind: constant, value: "@Nullable"}
  - {id: 3}
  - {id: 4}
constraints:
  - {subtype: [1, 0], site: {file: Main.java, line: 1}}
  - {equal: [3, 0], site: {file: Main.java, line: 1}}
  - {subtype: [2, 0], site: {file: Main.java, line: 2}}
  - {equal: [4, 0], site: {file: Main.java, line: 2}}
  - subtype: [3, 2]
`

func TestParseCallSites(t *testing.T) {
	p, err := Parse([]byte(callSites), "sites.yaml")
	require.NoError(t, err)
	assert.Equal(t, 2, p.CallSites)
	require.Len(t, p.Slots, 7)
	assert.Equal(t, model.SourceVariableKind, p.Slots[5].Kind())
	assert.Equal(t, "v5@Main.java:1:0", p.Slots[5].String())

	require.Len(t, p.Constraints, 5)
	assert.Equal(t, "@NonNull <: v5@Main.java:1:0", p.Constraints[0].String())
	assert.Equal(t, 5, p.Constraints[1].Rhs().ID())
	assert.Equal(t, 6, p.Constraints[2].Rhs().ID())
	assert.Equal(t, "v3 <: @Nullable", p.Constraints[4].String(), "constraints without a site are kept")

	result, err := p.Solve()
	require.NoError(t, err)
	assert.Equal(t, map[int]string{3: "@NonNull", 4: "@Nullable", 5: "@NonNull", 6: "@Nullable"}, NewReport(result, nil).Solution)
}

func TestParseCallSiteUnknownSlot(t *testing.T) {
	const unknown = `
lattice: {top: "@Nullable", bottom: "@NonNull", polymorphic: "@PolyNull"}
slots:
  - {id: 0, kind: constant, value: "@PolyNull"}
constraints:
  - {subtype: [8, 0], site: {file: Main.java, line: 1}}
`
	_, err := Parse([]byte(unknown), "unknown.yaml")
	var missing qerr.NewMissingPolyVar
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, 8, missing.SlotID)

	p, err := Parse([]byte("lenient: true\n"+unknown), "unknown.yaml")
	require.NoError(t, err)
	assert.Zero(t, p.CallSites)
	assert.Equal(t, "v8 <: @PolyNull", p.Constraints[0].String())
}

func TestParseTOML(t *testing.T) {
	p, err := Parse([]byte(`
prefer = "least"

[lattice]
top = "@Nullable"
bottom = "@NonNull"
values = ["@Maybe"]
order = [["@NonNull", "@Maybe"]]

[[slots]]
id = 0

[[slots]]
id = 1
kind = "constant"
value = "@Maybe"

[[constraints]]
subtype = [1, 0]
`), "nullness.toml")
	require.NoError(t, err)
	assert.Equal(t, propagate.Least, p.Prefer)
	assert.Equal(t, 3, p.Lattice.Len())
	require.Len(t, p.Constraints, 1)
	assert.Equal(t, "@Maybe <: v0", p.Constraints[0].String())

	result, err := p.Solve()
	require.NoError(t, err)
	assert.Equal(t, map[int]string{0: "@Maybe"}, NewReport(result, nil).Solution)
}

func TestUndeclaredSlot(t *testing.T) {
	const input = `
lattice: {top: "@Nullable", bottom: "@NonNull"}
lenient: %s
slots:
  - {id: 0}
  - {id: 1, kind: constant, value: "@NonNull"}
constraints:
  - subtype: [0, 1]
  - subtype: [7, 1]
`
	strict, err := Parse([]byte(fmt.Sprintf(input, "false")), "strict.yaml")
	require.NoError(t, err)
	_, err = strict.Solve()
	var missing qerr.NewMissingSlot
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, 7, missing.SlotID)

	lenient, err := Parse([]byte(fmt.Sprintf(input, "true")), "lenient.yaml")
	require.NoError(t, err)
	result, err := lenient.Solve()
	require.NoError(t, err)
	assert.Equal(t, map[int]string{0: "@NonNull"}, NewReport(result, nil).Solution)
}

func TestParseErrors(t *testing.T) {
	testCases := []struct {
		name  string
		input string
	}{
		{name: "not yaml", input: "{"},
		{name: "unknown field", input: "lattice: {top: '@A', bottom: '@B'}\nslotz: []"},
		{name: "missing lattice", input: "slots: []"},
		{name: "unknown strategy", input: "strategy: magic\nlattice: {top: '@A', bottom: '@B'}"},
		{name: "unknown preference", input: "prefer: middle\nlattice: {top: '@A', bottom: '@B'}"},
		{name: "cyclic lattice", input: "lattice: {top: '@A', bottom: '@B', values: ['@C', '@D'], order: [['@C', '@D'], ['@D', '@C']]}"},
		{name: "duplicate slot", input: "lattice: {top: '@A', bottom: '@B'}\nslots: [{id: 0}, {id: 0}]"},
		{name: "constant without value", input: "lattice: {top: '@A', bottom: '@B'}\nslots: [{id: 0, kind: constant}]"},
		{name: "bad relation", input: "lattice: {top: '@A', bottom: '@B'}\nslots: [{id: 0}]\nconstraints: [{subtype: [0]}]"},
		{name: "two relations", input: "lattice: {top: '@A', bottom: '@B'}\nslots: [{id: 0}]\nconstraints: [{subtype: [0, 0], equal: [0, 0]}]"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.input), tc.name+".yaml")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.name+".yaml")
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nullness.yaml")
	require.NoError(t, os.WriteFile(path, []byte(nullness), 0o644))
	p, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, p.Slots, 5)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(errors.Cause(err)))
}
