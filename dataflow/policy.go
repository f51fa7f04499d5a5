package dataflow

import (
	"fmt"
	"log/slog"

	"github.com/cottand/qinfer/graph"
	"github.com/cottand/qinfer/internal/log"
	"github.com/cottand/qinfer/lattice"
	"github.com/cottand/qinfer/model"
	"github.com/cottand/qinfer/qerr"
	"github.com/cottand/qinfer/solver"
	"github.com/cottand/qinfer/strategy"
	"github.com/cottand/qinfer/util/hset"
	set "github.com/hashicorp/go-set/v3"
)

// Policy splits a data-flow problem per type name and per type name root.
//
// For every @DataFlow constant, each of its names and roots V gets a sub-task
// over the constant's constraints, solved against the two-qualifier lattice
// {V, bottom}. Components without any @DataFlow constant are solved against
// the original lattice.
type Policy struct {
	Covers  Covers
	Refiner strategy.Refiner

	// Logger may be nil
	Logger *slog.Logger
}

var _ strategy.Policy = &Policy{}

func NewPolicy() *Policy {
	return &Policy{
		Covers:  PackageCovers,
		Refiner: Refiner{Covers: PackageCovers},
		Logger:  log.Section("dataflow"),
	}
}

func (p *Policy) Partition(_ solver.Environment, g *graph.Graph, _ []model.Slot, _ []model.Constraint, lat *lattice.Lattice) ([]*solver.Task, error) {
	var tasks []*solver.Task
	covered := set.New[int](0)
	seen := set.New[string](0)

	addTask := func(path graph.ConstantPath, name string, sub *lattice.Lattice) {
		comp := path.Component()
		key := fmt.Sprintf("%d/%s", comp.Index(), sub.Top().Hash())
		if !seen.Insert(key) {
			return
		}
		covered.Insert(comp.Index())
		tasks = append(tasks, &solver.Task{
			Name:        fmt.Sprintf("dataflow#%d(%s)", comp.Index(), name),
			Slots:       comp.Slots(),
			Constraints: path.Constraints(),
			Lattice:     sub,
		})
	}

	for _, path := range g.ConstantPaths() {
		anno := path.Constant()
		if !IsDataFlow(anno) {
			continue
		}
		for _, name := range Names(anno) {
			sub, err := nameLattice(name, p.covers())
			if err != nil {
				return nil, err
			}
			addTask(path, name, sub)
		}
		for _, root := range Roots(anno) {
			sub, err := rootLattice(root)
			if err != nil {
				return nil, err
			}
			addTask(path, root+".*", sub)
		}
	}

	for _, comp := range g.Components() {
		if !covered.Contains(comp.Index()) {
			tasks = append(tasks, strategy.ComponentTask(comp, lat))
		}
	}
	p.logger().Debug("separated data-flow graph", "constants", len(g.ConstantPaths()), "tasks", len(tasks), "fallback", len(g.Components())-covered.Size())
	return tasks, nil
}

// Merge unions, per slot, the names and the roots every sub-task found
// for it. Slots that no sub-task gave a @DataFlow value keep their only
// value, usually bottom.
func (p *Policy) Merge(partials []solver.Partial) (*strategy.Result, error) {
	if failed, ok := strategy.FirstFailure(partials); ok {
		return failed, nil
	}

	dataflowResults := make(map[int]hset.HSet[model.Qualifier])
	others := make(map[int]model.Qualifier)
	for _, partial := range partials {
		for id, anno := range partial.Solution {
			if !IsDataFlow(anno) {
				if existing, ok := others[id]; ok && !existing.Equal(anno) {
					return nil, qerr.New(qerr.NewConflictingSolution{SlotID: id, First: existing, Second: anno})
				}
				others[id] = anno
				continue
			}
			datas, ok := dataflowResults[id]
			if !ok {
				datas = hset.Empty(model.QualifierHasher)
				dataflowResults[id] = datas
			}
			datas.Add(anno)
		}
	}

	solutions := make(map[int]model.Qualifier, len(dataflowResults)+len(others))
	for id, annos := range dataflowResults {
		var names, roots []string
		for anno := range annos.All() {
			if n := Names(anno); len(n) == 1 {
				names = append(names, n[0])
			}
			if r := Roots(anno); len(r) == 1 {
				roots = append(roots, r[0])
			}
		}
		solutions[id] = NewWithRoots(names, roots)
	}
	for id, q := range others {
		if _, ok := solutions[id]; !ok {
			solutions[id] = q
		}
	}

	strategy.Refine(solutions, p.Refiner)
	return strategy.Success(solutions), nil
}

func (p *Policy) logger() *slog.Logger {
	if p.Logger == nil {
		return log.Section("dataflow")
	}
	return p.Logger
}

func (p *Policy) covers() Covers {
	if p.Covers == nil {
		return PackageCovers
	}
	return p.Covers
}
