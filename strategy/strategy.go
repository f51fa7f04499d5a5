// Package strategy solves a qualifier inference problem by partitioning its
// constraint graph into independent sub-tasks, solving each with a pluggable
// solver, and merging the partial solutions into one result.
package strategy

import (
	"log/slog"
	"maps"

	"github.com/cottand/qinfer/graph"
	"github.com/cottand/qinfer/internal/log"
	"github.com/cottand/qinfer/lattice"
	"github.com/cottand/qinfer/model"
	"github.com/cottand/qinfer/qerr"
	"github.com/cottand/qinfer/solver"
	"github.com/cottand/qinfer/stats"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

type GraphSolvingStrategy struct {
	factory solver.Factory
	policy  Policy

	// parallelism is the number of sub-tasks solved at once
	parallelism int
	stats       stats.Sink
	graphOpts   graph.Options
	logger      *slog.Logger
}

type Option func(*GraphSolvingStrategy)

// WithParallelism solves up to n sub-tasks concurrently. n < 1 means 1
func WithParallelism(n int) Option {
	return func(s *GraphSolvingStrategy) {
		if n < 1 {
			n = 1
		}
		s.parallelism = n
	}
}

func WithStatistics(sink stats.Sink) Option {
	return func(s *GraphSolvingStrategy) { s.stats = sink }
}

func WithGraphOptions(opts graph.Options) Option {
	return func(s *GraphSolvingStrategy) { s.graphOpts = opts }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *GraphSolvingStrategy) { s.logger = logger.With("section", "strategy") }
}

func New(factory solver.Factory, policy Policy, opts ...Option) *GraphSolvingStrategy {
	s := &GraphSolvingStrategy{
		factory:     factory,
		policy:      policy,
		parallelism: 1,
		stats:       stats.Discard,
		logger:      log.Section("strategy"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Solve infers a qualifier for every variable slot referenced by constraints.
//
// Unsatisfiable constraints are reported through the Result. An error means
// the input broke a contract (see package qerr) or the Policy is defective.
func (s *GraphSolvingStrategy) Solve(env solver.Environment, slots []model.Slot, constraints []model.Constraint, lat *lattice.Lattice) (*Result, error) {
	logger := s.logger.With("run", uuid.NewString())

	g, err := graph.NewBuilder(s.graphOpts).WithLogger(logger).Build(slots, constraints)
	if err != nil {
		return nil, errors.Wrap(err, "could not build constraint graph")
	}
	s.stats.AddOrIncrement(stats.GraphSize, int64(len(g.ConstantPaths())))

	tasks, err := s.policy.Partition(env, g, slots, constraints, lat)
	if err != nil {
		return nil, errors.Wrap(err, "could not partition constraint graph")
	}
	if err := checkTasks(g, tasks); err != nil {
		return nil, errors.Wrap(err, "could not partition constraint graph")
	}
	s.stats.AddOrIncrement(stats.SubTasks, int64(len(tasks)))
	logger.Debug("partitioned graph", "graph", g, "tasks", len(tasks))

	partials, err := s.solveAll(env, tasks, logger)
	if err != nil {
		return nil, err
	}

	result, err := s.policy.Merge(partials)
	if err != nil {
		return nil, errors.Wrap(err, "could not merge partial solutions")
	}
	if !result.HasSolution() {
		logger.Debug("no solution", "result", result)
		return result, nil
	}

	var unresolved []int
	for _, slot := range g.VariableSlots() {
		if _, ok := result.SolutionFor(slot.ID()); !ok {
			unresolved = append(unresolved, slot.ID())
		}
	}
	if len(unresolved) > 0 {
		return nil, qerr.New(qerr.NewUnresolvedSlot{SlotIDs: unresolved})
	}
	s.stats.AddOrIncrement(stats.AnnotationSize, int64(result.Len()))
	logger.Debug("solved", "result", result)
	return result, nil
}

// checkTasks fails on constraints that are not edges of g, such as the ones
// a lenient build dropped
func checkTasks(g *graph.Graph, tasks []*solver.Task) error {
	for _, task := range tasks {
		for _, c := range task.Constraints {
			if _, ok := g.ComponentOf(c); !ok {
				return qerr.New(qerr.NewMalformedConstraint{Constraint: c, Reason: "not part of the constraint graph, in task " + task.Name})
			}
		}
	}
	return nil
}

// solveAll runs one solver per task, at most s.parallelism at a time.
// Partials are returned in task order, regardless of completion order
func (s *GraphSolvingStrategy) solveAll(env solver.Environment, tasks []*solver.Task, logger *slog.Logger) ([]solver.Partial, error) {
	partials := make([]solver.Partial, len(tasks))
	group := errgroup.Group{}
	group.SetLimit(s.parallelism)
	for i, task := range tasks {
		group.Go(func() error {
			p, err := s.solveTask(env, task, logger)
			partials[i] = p
			return err
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return partials, nil
}

func (s *GraphSolvingStrategy) solveTask(env solver.Environment, task *solver.Task, logger *slog.Logger) (solver.Partial, error) {
	solution, constraints := s.factory.CreateSolver(env, task.Slots, task.Constraints, task.Lattice).Solve()
	if solution == nil {
		if len(constraints) == 0 {
			constraints = task.Constraints
		}
		if len(constraints) == 0 {
			return solver.Partial{}, qerr.New(qerr.NewUnexplainedFailure{Task: task.Name})
		}
		s.stats.AddOrIncrement(stats.UnsatSubTasks, 1)
		logger.Debug("sub-task is unsatisfiable", "task", task.String(), "constraints", len(constraints))
		return solver.Partial{Task: task, Constraints: constraints}, nil
	}
	if len(constraints) == 0 {
		constraints = task.Constraints
	}

	solution = maps.Clone(solution)
	for _, slot := range task.Slots {
		bound, ok := model.ConstantValue(slot)
		if !ok {
			continue
		}
		found, ok := solution[slot.ID()]
		if !ok {
			continue
		}
		projected, _ := task.Lattice.Project(bound)
		if !found.Equal(bound) && !model.SameQualifier(found, projected) {
			return solver.Partial{}, qerr.New(qerr.NewConstantChanged{Slot: slot.(model.ConstantSlot), Found: found})
		}
		// constants keep their bound value, they are not part of the result
		delete(solution, slot.ID())
	}
	logger.Debug("solved sub-task", "task", task.String(), "solved", len(solution))
	return solver.Partial{Task: task, Solution: solution, Constraints: constraints}, nil
}
