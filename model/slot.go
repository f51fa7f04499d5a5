package model

import "fmt"

type SlotKind int

const (
	VariableKind SlotKind = iota
	ConstantKind
	SourceVariableKind
)

func (k SlotKind) String() string {
	switch k {
	case VariableKind:
		return "variable"
	case ConstantKind:
		return "constant"
	case SourceVariableKind:
		return "source"
	default:
		return fmt.Sprintf("SlotKind(%d)", int(k))
	}
}

// Slot is an inference variable or a constant standing in for
// the qualifier of a program location.
//
// Slot ids are unique within a single inference run
type Slot interface {
	ID() int
	Kind() SlotKind
	String() string

	isSlot()
}

// VariableSlot is an unknown qualifier, to be solved
type VariableSlot struct {
	id int
}

func NewVariableSlot(id int) VariableSlot { return VariableSlot{id: id} }

func (s VariableSlot) ID() int        { return s.id }
func (s VariableSlot) Kind() SlotKind { return VariableKind }
func (s VariableSlot) String() string { return fmt.Sprintf("v%d", s.id) }
func (s VariableSlot) isSlot()        {}

// Location is a position in the program being analysed.
// It is only used for traceability and as a stable call-site key
type Location struct {
	File   string
	Line   int
	Column int
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// SourceVariableSlot is a VariableSlot tied to a program location.
// It solves exactly like a VariableSlot.
type SourceVariableSlot struct {
	VariableSlot
	Location Location
}

func NewSourceVariableSlot(id int, loc Location) SourceVariableSlot {
	return SourceVariableSlot{VariableSlot: VariableSlot{id: id}, Location: loc}
}

func (s SourceVariableSlot) Kind() SlotKind { return SourceVariableKind }
func (s SourceVariableSlot) String() string {
	return fmt.Sprintf("v%d@%s", s.id, s.Location)
}

// ConstantSlot is bound to one fixed qualifier value, such as a literal annotation
type ConstantSlot struct {
	id    int
	value Qualifier
}

func NewConstantSlot(id int, value Qualifier) ConstantSlot {
	return ConstantSlot{id: id, value: value}
}

func (s ConstantSlot) ID() int          { return s.id }
func (s ConstantSlot) Kind() SlotKind   { return ConstantKind }
func (s ConstantSlot) Value() Qualifier { return s.value }
func (s ConstantSlot) isSlot()          {}

func (s ConstantSlot) String() string {
	if s.value == nil {
		return fmt.Sprintf("c%d", s.id)
	}
	return s.value.String()
}

// IsVariable reports whether s is to be solved, which is the case for
// both VariableSlot and SourceVariableSlot
func IsVariable(s Slot) bool {
	switch s.(type) {
	case VariableSlot, SourceVariableSlot:
		return true
	default:
		return false
	}
}

// ConstantValue returns the bound value of s if s is a ConstantSlot
func ConstantValue(s Slot) (Qualifier, bool) {
	c, ok := s.(ConstantSlot)
	if !ok {
		return nil, false
	}
	return c.value, true
}
