// Package solver defines what a constraint solving backend must provide.
//
// Backends (SAT, ILP, propagation...) solve one sub-task at a time:
// a subset of slots and constraints against a possibly reduced lattice.
// The strategy never looks inside a Solver.
package solver

import (
	"fmt"

	"github.com/cottand/qinfer/lattice"
	"github.com/cottand/qinfer/model"
)

// Environment is passed unmodified from the caller to every solver.
// It carries configuration the strategy does not interpret
type Environment any

// Solution maps slot ids to their resolved qualifier
type Solution map[int]model.Qualifier

type Solver interface {
	// Solve returns a Solution for the slots of the sub-task, or a nil Solution
	// and the constraints that could not be satisfied
	Solve() (Solution, []model.Constraint)
}

// Factory instantiates one Solver per sub-task,
// which keeps the solving technology swappable
type Factory interface {
	CreateSolver(env Environment, slots []model.Slot, constraints []model.Constraint, lat *lattice.Lattice) Solver
}

type FactoryFunc func(env Environment, slots []model.Slot, constraints []model.Constraint, lat *lattice.Lattice) Solver

func (f FactoryFunc) CreateSolver(env Environment, slots []model.Slot, constraints []model.Constraint, lat *lattice.Lattice) Solver {
	return f(env, slots, constraints, lat)
}

// Task is an independent sub-problem
type Task struct {
	Name        string
	Slots       []model.Slot
	Constraints []model.Constraint
	Lattice     *lattice.Lattice
}

func (t *Task) String() string {
	return fmt.Sprintf("%s(%d slots, %d constraints, lattice %s)", t.Name, len(t.Slots), len(t.Constraints), t.Lattice)
}

// Partial is the outcome of solving one Task
type Partial struct {
	Task *Task
	// Solution is nil when the Task is unsatisfiable
	Solution    Solution
	Constraints []model.Constraint
}

func (p Partial) Failed() bool { return p.Solution == nil }
