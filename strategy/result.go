package strategy

import (
	"log/slog"
	"maps"
	"slices"

	"github.com/cottand/qinfer/model"
	"github.com/cottand/qinfer/qerr"
)

// Result is either a total mapping from slot id to qualifier, or
// the constraints that made the problem unsatisfiable. Never both
type Result struct {
	solution      map[int]model.Qualifier
	unsatisfiable []model.Constraint
}

// Success owns solution, which must not be modified afterward
func Success(solution map[int]model.Qualifier) *Result {
	if solution == nil {
		solution = make(map[int]model.Qualifier)
	}
	return &Result{solution: solution}
}

// Failure panics when constraints is empty:
// an unsatisfiable result must say what could not be satisfied
func Failure(constraints []model.Constraint) *Result {
	if len(constraints) == 0 {
		panic("failure result without unsatisfiable constraints")
	}
	return &Result{unsatisfiable: slices.Clone(constraints)}
}

func (r *Result) HasSolution() bool { return r.unsatisfiable == nil }

// Solution returns the value of every solved slot, or nil if r is a failure
func (r *Result) Solution() map[int]model.Qualifier {
	if !r.HasSolution() {
		return nil
	}
	return maps.Clone(r.solution)
}

func (r *Result) SolutionFor(id int) (model.Qualifier, bool) {
	q, ok := r.solution[id]
	return q, ok
}

// Unsatisfiable returns the conflicting constraints of a failure
func (r *Result) Unsatisfiable() []model.Constraint {
	return slices.Clone(r.unsatisfiable)
}

func (r *Result) Len() int { return len(r.solution) }

// Err returns a qerr.NewUnsatisfiable for a failure, and nil otherwise
func (r *Result) Err() error {
	if r.HasSolution() {
		return nil
	}
	return qerr.New(qerr.NewUnsatisfiable{Constraints: r.Unsatisfiable()})
}

func (r *Result) LogValue() slog.Value {
	if r.HasSolution() {
		return slog.GroupValue(slog.Int("solved", len(r.solution)))
	}
	return slog.GroupValue(slog.Int("unsatisfiable", len(r.unsatisfiable)))
}
