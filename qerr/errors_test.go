package qerr

import (
	"log/slog"
	"testing"

	"github.com/cottand/qinfer/model"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatWithCode(t *testing.T) {
	c := model.NewSubtype(model.NewVariableSlot(0), model.NewVariableSlot(7))
	testCases := []struct {
		name     string
		err      QualError
		expected string
	}{
		{
			name:     "malformed lattice",
			err:      New(NewMalformedLattice{Reason: "no top"}),
			expected: "(Q001) malformed lattice: no top",
		},
		{
			name:     "missing slot",
			err:      New(NewMissingSlot{SlotID: 7, Constraint: c}),
			expected: "(Q003) constraint 'v0 <: v7' references slot 7, which is not a known slot",
		},
		{
			name:     "unresolved",
			err:      New(NewUnresolvedSlot{SlotIDs: []int{1, 2}}),
			expected: "(Q004) slots [1 2] were not resolved by any sub-task",
		},
		{
			name:     "unsatisfiable",
			err:      New(NewUnsatisfiable{Constraints: []model.Constraint{c, c}}),
			expected: "(Q007) no qualifier assignment satisfies: v0 <: v7; v0 <: v7",
		},
		{
			name:     "missing poly var",
			err:      New(NewMissingPolyVar{SlotID: 3, Site: model.Location{File: "A.java", Line: 1, Column: 2}}),
			expected: "(Q008) no slot 3 for qualifier at call site A.java:1:2",
		},
		{
			name:     "unexplained failure",
			err:      New(NewUnexplainedFailure{Task: "component#2"}),
			expected: "(Q010) sub-task component#2 has no solution and reported no constraints",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, FormatWithCode(tc.err))
			assert.NotEmpty(t, tc.err.getStack())
		})
	}
}

func TestErrorsAsThroughWrapping(t *testing.T) {
	err := errors.Wrap(New(NewMissingSlot{SlotID: 4}), "building graph")

	var missing NewMissingSlot
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, 4, missing.SlotID)
	assert.Equal(t, MissingSlot, missing.Code())
}

func TestErrors(t *testing.T) {
	var errs *Errors
	assert.False(t, errs.HasError())
	assert.Nil(t, errs.Errors())
	assert.Equal(t, slog.KindGroup, errs.LogValue().Kind())

	errs = errs.With(New(NewMalformedLattice{Reason: "a"}))
	errs = errs.Merge(nil)
	errs = errs.Merge((&Errors{}).With(New(NewMalformedLattice{Reason: "b"})))
	assert.True(t, errs.HasError())
	require.Len(t, errs.Errors(), 2)

	group := errs.LogValue().Group()
	require.Len(t, group, 2)
	assert.Equal(t, "e0", group[0].Key)
	assert.Equal(t, "(Q001) malformed lattice: b", group[1].Value.String())
}
