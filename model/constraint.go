package model

import (
	"fmt"
	"strconv"
)

type Relation int

const (
	// Subtype is lhs <: rhs
	Subtype Relation = iota
	// Equality is lhs == rhs
	Equality
)

func (r Relation) String() string {
	switch r {
	case Subtype:
		return "<:"
	case Equality:
		return "=="
	default:
		return fmt.Sprintf("Relation(%d)", int(r))
	}
}

// Constraint is a required relation between two slots.
//
// Constraints are immutable. Slots can hold qualifiers, which are not
// comparable with ==, so compare constraints with Equal or by Hash.
type Constraint struct {
	relation Relation
	lhs, rhs Slot
}

func NewSubtype(lhs, rhs Slot) Constraint {
	return Constraint{relation: Subtype, lhs: lhs, rhs: rhs}
}

func NewEquality(lhs, rhs Slot) Constraint {
	return Constraint{relation: Equality, lhs: lhs, rhs: rhs}
}

func (c Constraint) Relation() Relation { return c.relation }
func (c Constraint) Lhs() Slot          { return c.lhs }
func (c Constraint) Rhs() Slot          { return c.rhs }

// Operands returns lhs and rhs, in that order
func (c Constraint) Operands() [2]Slot { return [2]Slot{c.lhs, c.rhs} }

// Hash identifies a constraint by its relation and operand slot ids,
// which are unique within an inference run
func (c Constraint) Hash() string {
	return operandID(c.lhs) + c.relation.String() + operandID(c.rhs)
}

func operandID(s Slot) string {
	if s == nil {
		return "?"
	}
	return strconv.Itoa(s.ID())
}

func operandString(s Slot) string {
	if s == nil {
		return "?"
	}
	return s.String()
}

func (c Constraint) Equal(other Constraint) bool {
	return c.Hash() == other.Hash()
}

func (c Constraint) String() string {
	return fmt.Sprintf("%s %s %s", operandString(c.lhs), c.relation, operandString(c.rhs))
}
