package poly

import (
	"testing"

	"github.com/cottand/qinfer/graph"
	"github.com/cottand/qinfer/lattice"
	"github.com/cottand/qinfer/model"
	"github.com/cottand/qinfer/qerr"
	"github.com/cottand/qinfer/solver/propagate"
	"github.com/cottand/qinfer/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	nullable = model.NewAnnotation("Nullable", nil)
	nonNull  = model.NewAnnotation("NonNull", nil)
	polyNull = model.NewAnnotation("PolyNull", nil)
)

func nullness(t *testing.T) *lattice.Lattice {
	lat, err := lattice.Build(lattice.Hierarchy{
		Top:         nullable,
		Bottom:      nonNull,
		Polymorphic: polyNull,
	})
	require.NoError(t, err)
	return lat
}

func TestVarIsCreatedOncePerSite(t *testing.T) {
	slots := model.NewSlotManager()
	r := NewReplacer(slots, nullness(t), graph.Options{})
	first := model.Location{File: "Main.java", Line: 3, Column: 10}
	second := model.Location{File: "Main.java", Line: 4, Column: 10}

	v := r.Var(first)
	assert.Equal(t, v, r.Var(first))
	assert.NotEqual(t, v.ID(), r.Var(second).ID())
	assert.Equal(t, 2, r.Sites())
	assert.Equal(t, 2, slots.Len())
}

func TestReplace(t *testing.T) {
	slots := model.NewSlotManager()
	r := NewReplacer(slots, nullness(t), graph.Options{})
	site := model.Location{File: "Main.java", Line: 7}
	poly := slots.Constant(polyNull)
	nn := slots.Constant(nonNull)
	x := slots.NewVariable()

	testCases := []struct {
		name     string
		id       int
		expected model.Slot
	}{
		{name: "polymorphic constant", id: poly.ID(), expected: r.Var(site)},
		{name: "other constant", id: nn.ID(), expected: nn},
		{name: "variable", id: x.ID(), expected: x},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			slot, ok, err := r.Replace(site, tc.id)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, tc.expected.ID(), slot.ID())
			assert.Equal(t, tc.expected.Kind(), slot.Kind())
		})
	}
}

func TestMissingSlot(t *testing.T) {
	site := model.Location{File: "Main.java", Line: 9}

	strict := NewReplacer(model.NewSlotManager(), nullness(t), graph.Options{})
	_, _, err := strict.Replace(site, 42)
	var missing qerr.NewMissingPolyVar
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, 42, missing.SlotID)
	assert.Equal(t, site, missing.Site)

	lenient := NewReplacer(model.NewSlotManager(), nullness(t), graph.Options{Lenient: true})
	slot, ok, err := lenient.Replace(site, 42)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, slot)
}

func TestReplaceConstraintsSolvesPerSite(t *testing.T) {
	slots := model.NewSlotManager()
	lat := nullness(t)
	r := NewReplacer(slots, lat, graph.Options{})

	// identity(@PolyNull p) returns @PolyNull, called once with a
	// non-null argument and once with a nullable one
	poly := slots.Constant(polyNull)
	nn := slots.Constant(nonNull)
	n := slots.Constant(nullable)
	r1 := slots.NewVariable()
	r2 := slots.NewVariable()

	first := model.Location{File: "Main.java", Line: 1}
	second := model.Location{File: "Main.java", Line: 2}
	call1, err := r.ReplaceConstraints(first, []model.Constraint{
		model.NewSubtype(nn, poly),
		model.NewEquality(r1, poly),
	})
	require.NoError(t, err)
	call2, err := r.ReplaceConstraints(second, []model.Constraint{
		model.NewSubtype(n, poly),
		model.NewEquality(r2, poly),
	})
	require.NoError(t, err)
	require.Len(t, call1, 2)
	assert.Equal(t, r.Var(first).ID(), call1[0].Rhs().ID())
	assert.Equal(t, model.Equality, call1[1].Relation())

	s := strategy.New(propagate.NewFactory(propagate.Least), strategy.ComponentPolicy{})
	result, err := s.Solve(nil, slots.Slots(), append(call1, call2...), lat)
	require.NoError(t, err)
	require.True(t, result.HasSolution())
	solution := result.Solution()
	assert.Equal(t, nonNull.String(), solution[r1.ID()].String())
	assert.Equal(t, nullable.String(), solution[r2.ID()].String())
}

func TestReplaceConstraintsWithoutPolymorphicQualifier(t *testing.T) {
	lat, err := lattice.BuildTwoTypeLattice(nullable, nonNull, nil)
	require.NoError(t, err)
	slots := model.NewSlotManager()
	r := NewReplacer(slots, lat, graph.Options{})
	constraints := []model.Constraint{model.NewSubtype(slots.NewVariable(), slots.Constant(nullable))}

	replaced, err := r.ReplaceConstraints(model.Location{}, constraints)
	require.NoError(t, err)
	assert.Equal(t, constraints, replaced)
	assert.Zero(t, r.Sites())
}

func TestReplaceConstraintsLenient(t *testing.T) {
	slots := model.NewSlotManager()
	r := NewReplacer(slots, nullness(t), graph.Options{Lenient: true})
	unknown := model.NewVariableSlot(99)
	c := model.NewSubtype(unknown, slots.Constant(polyNull))

	replaced, err := r.ReplaceConstraints(model.Location{Line: 5}, []model.Constraint{c})
	require.NoError(t, err)
	require.Len(t, replaced, 1)
	assert.True(t, c.Equal(replaced[0]))
}
