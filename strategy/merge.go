package strategy

import (
	"github.com/cottand/qinfer/model"
	"github.com/cottand/qinfer/qerr"
	"github.com/cottand/qinfer/solver"
)

// Refiner normalises a merged qualifier into its canonical form.
// Refine must be idempotent
type Refiner interface {
	Refine(q model.Qualifier) model.Qualifier
}

type RefinerFunc func(q model.Qualifier) model.Qualifier

func (f RefinerFunc) Refine(q model.Qualifier) model.Qualifier { return f(q) }

// FirstFailure returns a failed Result for the first unsatisfiable partial, if any.
// Later partials are not inspected
func FirstFailure(partials []solver.Partial) (*Result, bool) {
	for _, p := range partials {
		if p.Failed() {
			return Failure(p.Constraints), true
		}
	}
	return nil, false
}

// MergeFlat merges partials of qualifiers that have no inner structure:
// since sub-tasks partition the slots, each slot must have a single value
// across every partial. refiner may be nil.
func MergeFlat(partials []solver.Partial, refiner Refiner) (*Result, error) {
	if failed, ok := FirstFailure(partials); ok {
		return failed, nil
	}
	solutions := make(map[int]model.Qualifier)
	for _, p := range partials {
		for id, q := range p.Solution {
			if existing, ok := solutions[id]; ok && !existing.Equal(q) {
				return nil, qerr.New(qerr.NewConflictingSolution{SlotID: id, First: existing, Second: q})
			}
			solutions[id] = q
		}
	}
	Refine(solutions, refiner)
	return Success(solutions), nil
}

// Refine applies refiner to every value of solutions, in place
func Refine(solutions map[int]model.Qualifier, refiner Refiner) {
	if refiner == nil {
		return
	}
	for id, q := range solutions {
		solutions[id] = refiner.Refine(q)
	}
}
