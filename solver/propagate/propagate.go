// Package propagate is a solver backend that computes the greatest (or least)
// fixpoint of the constraints over a finite lattice by propagating bounds.
//
// For subtype and equality constraints over a lattice the greatest fixpoint is
// the greatest solution when one exists, so if it violates a constraint,
// no assignment satisfies them all.
package propagate

import (
	"log/slog"

	"github.com/cottand/qinfer/internal/log"
	"github.com/cottand/qinfer/lattice"
	"github.com/cottand/qinfer/model"
	"github.com/cottand/qinfer/solver"
)

type Preference int

const (
	// Greatest starts every variable at top and only lowers it
	Greatest Preference = iota
	// Least starts every variable at bottom and only raises it
	Least
)

func (p Preference) String() string {
	if p == Least {
		return "least"
	}
	return "greatest"
}

// NewFactory returns a solver.Factory for propagation solvers
func NewFactory(prefer Preference) solver.Factory {
	return solver.FactoryFunc(func(env solver.Environment, slots []model.Slot, constraints []model.Constraint, lat *lattice.Lattice) solver.Solver {
		return New(constraints, lat, prefer)
	})
}

type Solver struct {
	constraints []model.Constraint
	lattice     *lattice.Lattice
	prefer      Preference

	values map[int]model.Qualifier
	*slog.Logger
}

var _ solver.Solver = &Solver{}

func New(constraints []model.Constraint, lat *lattice.Lattice, prefer Preference) *Solver {
	return &Solver{
		constraints: constraints,
		lattice:     lat,
		prefer:      prefer,
		values:      make(map[int]model.Qualifier),
		Logger:      log.Section("solver").With("prefer", prefer.String()),
	}
}

func (s *Solver) Solve() (solver.Solution, []model.Constraint) {
	if unknown := s.unknownConstants(); len(unknown) > 0 {
		s.Debug("constants outside of the lattice", "lattice", s.lattice.String(), "count", len(unknown))
		return nil, unknown
	}

	start := s.lattice.Top()
	if s.prefer == Least {
		start = s.lattice.Bottom()
	}
	for _, c := range s.constraints {
		for _, operand := range c.Operands() {
			if model.IsVariable(operand) {
				s.values[operand.ID()] = start
			}
		}
	}

	for rounds := 1; ; rounds++ {
		changed, stuck := s.propagate()
		if stuck != nil {
			return nil, []model.Constraint{*stuck}
		}
		if !changed {
			s.Debug("reached fixpoint", "rounds", rounds, "variables", len(s.values))
			break
		}
	}

	var violated []model.Constraint
	for _, c := range s.constraints {
		if !s.holds(c) {
			violated = append(violated, c)
		}
	}
	if len(violated) > 0 {
		return nil, violated
	}

	solution := make(solver.Solution, len(s.values))
	for id, q := range s.values {
		solution[id] = q
	}
	return solution, s.constraints
}

// propagate runs one pass over every constraint.
// stuck is set when the lattice has no bound for two values of a constraint
func (s *Solver) propagate() (changed bool, stuck *model.Constraint) {
	for _, c := range s.constraints {
		lhs, rhs := c.Lhs(), c.Rhs()
		l, r := s.value(lhs), s.value(rhs)

		var target []model.Slot
		switch {
		case c.Relation() == model.Equality:
			target = []model.Slot{lhs, rhs}
		case s.prefer == Greatest:
			target = []model.Slot{lhs}
		default:
			target = []model.Slot{rhs}
		}

		bound, ok := s.meet(l, r)
		if !ok {
			return changed, &c
		}
		for _, slot := range target {
			if !model.IsVariable(slot) {
				continue
			}
			if !s.values[slot.ID()].Equal(bound) {
				s.values[slot.ID()] = bound
				changed = true
			}
		}
	}
	return changed, nil
}

// meet is the glb when lowering from top, and the lub when raising from bottom
func (s *Solver) meet(a, b model.Qualifier) (model.Qualifier, bool) {
	if s.prefer == Least {
		return s.lattice.Lub(a, b)
	}
	return s.lattice.Glb(a, b)
}

func (s *Solver) holds(c model.Constraint) bool {
	l, r := s.value(c.Lhs()), s.value(c.Rhs())
	if c.Relation() == model.Equality {
		return l.Equal(r)
	}
	return s.lattice.IsSubtype(l, r)
}

func (s *Solver) value(slot model.Slot) model.Qualifier {
	if q, ok := model.ConstantValue(slot); ok {
		projected, _ := s.lattice.Project(q)
		return projected
	}
	return s.values[slot.ID()]
}

func (s *Solver) unknownConstants() []model.Constraint {
	var unknown []model.Constraint
	for _, c := range s.constraints {
		for _, operand := range c.Operands() {
			q, ok := model.ConstantValue(operand)
			if !ok {
				continue
			}
			if _, ok := s.lattice.Project(q); !ok {
				unknown = append(unknown, c)
				break
			}
		}
	}
	return unknown
}
