package strategy

import (
	"fmt"

	"github.com/cottand/qinfer/graph"
	"github.com/cottand/qinfer/lattice"
	"github.com/cottand/qinfer/model"
	"github.com/cottand/qinfer/solver"
)

// Policy decides how a qualifier system splits a problem into sub-tasks,
// and how their partial solutions are put back together.
//
// Partition must cover every variable slot referenced by a constraint:
// a slot no task resolves is reported as a qerr.UnresolvedSlot.
// Merge must fail fast on the first unsatisfiable partial (see FirstFailure).
type Policy interface {
	Partition(env solver.Environment, g *graph.Graph, slots []model.Slot, constraints []model.Constraint, lat *lattice.Lattice) ([]*solver.Task, error)
	Merge(partials []solver.Partial) (*Result, error)
}

// ComponentPolicy solves every connected component of the graph on its own,
// against the original lattice. It suits flat qualifier hierarchies
type ComponentPolicy struct {
	// Refiner may be nil
	Refiner Refiner
}

var _ Policy = ComponentPolicy{}

func (p ComponentPolicy) Partition(_ solver.Environment, g *graph.Graph, _ []model.Slot, _ []model.Constraint, lat *lattice.Lattice) ([]*solver.Task, error) {
	tasks := make([]*solver.Task, 0, len(g.Components()))
	for _, comp := range g.Components() {
		tasks = append(tasks, ComponentTask(comp, lat))
	}
	return tasks, nil
}

func (p ComponentPolicy) Merge(partials []solver.Partial) (*Result, error) {
	return MergeFlat(partials, p.Refiner)
}

// ComponentTask is a task over every constraint of comp
func ComponentTask(comp *graph.Component, lat *lattice.Lattice) *solver.Task {
	return &solver.Task{
		Name:        fmt.Sprintf("component#%d", comp.Index()),
		Slots:       comp.Slots(),
		Constraints: comp.Constraints(),
		Lattice:     lat,
	}
}

// MonolithicPolicy solves the whole graph as a single task
type MonolithicPolicy struct {
	Refiner Refiner
}

var _ Policy = MonolithicPolicy{}

func (p MonolithicPolicy) Partition(_ solver.Environment, g *graph.Graph, slots []model.Slot, _ []model.Constraint, lat *lattice.Lattice) ([]*solver.Task, error) {
	if g.IsEmpty() {
		return nil, nil
	}
	var constraints []model.Constraint
	for _, e := range g.Edges() {
		constraints = append(constraints, e.Constraint)
	}
	return []*solver.Task{{
		Name:        "whole",
		Slots:       slots,
		Constraints: constraints,
		Lattice:     lat,
	}}, nil
}

func (p MonolithicPolicy) Merge(partials []solver.Partial) (*Result, error) {
	return MergeFlat(partials, p.Refiner)
}
