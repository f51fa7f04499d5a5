// Package qerr holds the errors of a qualifier inference run.
//
// These are caller contract violations and partitioning defects, which are
// never retried. An unsatisfiable constraint set is a normal outcome and is
// only turned into an error on request, see NewUnsatisfiable.
package qerr

import (
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/cottand/qinfer/model"
)

// enableDebugErrorPrinting makes errors include the frame that created them when printed
var enableDebugErrorPrinting = false

type ErrCode int

const (
	None ErrCode = iota
	MalformedLattice
	MalformedConstraint
	MissingSlot
	UnresolvedSlot
	ConflictingSolution
	ConstantChanged
	UnsatisfiableConstraints
	MissingPolyVar
	DuplicateSlot
	UnexplainedFailure
)

type QualError interface {
	Error() string
	Code() ErrCode

	withStack([]byte) QualError
	getStack() []byte
}

func FormatWithCode(e QualError) string {
	if enableDebugErrorPrinting && e.getStack() != nil {
		lines := strings.Split(string(e.getStack()), "\n")
		if len(lines) > 6 {
			return fmt.Sprintf("%s:(Q%03d) %s", strings.TrimSpace(lines[6]), e.Code(), e.Error())
		}
	}
	return fmt.Sprintf("(Q%03d) %s", e.Code(), e.Error())
}

func New[E QualError](err E) QualError {
	return err.withStack(debug.Stack())
}

type NewMalformedLattice struct {
	Reason string
	stack  []byte
}

func (e NewMalformedLattice) Error() string {
	return fmt.Sprintf("malformed lattice: %s", e.Reason)
}
func (e NewMalformedLattice) Code() ErrCode    { return MalformedLattice }
func (e NewMalformedLattice) getStack() []byte { return e.stack }
func (e NewMalformedLattice) withStack(stack []byte) QualError {
	e.stack = stack
	return e
}

type NewMalformedConstraint struct {
	Constraint model.Constraint
	Reason     string
	stack      []byte
}

func (e NewMalformedConstraint) Error() string {
	return fmt.Sprintf("malformed constraint '%s': %s", e.Constraint, e.Reason)
}
func (e NewMalformedConstraint) Code() ErrCode    { return MalformedConstraint }
func (e NewMalformedConstraint) getStack() []byte { return e.stack }
func (e NewMalformedConstraint) withStack(stack []byte) QualError {
	e.stack = stack
	return e
}

// NewMissingSlot is returned when a constraint references a slot id
// which is not part of the slot universe
type NewMissingSlot struct {
	SlotID     int
	Constraint model.Constraint
	stack      []byte
}

func (e NewMissingSlot) Error() string {
	return fmt.Sprintf("constraint '%s' references slot %d, which is not a known slot", e.Constraint, e.SlotID)
}
func (e NewMissingSlot) Code() ErrCode    { return MissingSlot }
func (e NewMissingSlot) getStack() []byte { return e.stack }
func (e NewMissingSlot) withStack(stack []byte) QualError {
	e.stack = stack
	return e
}

// NewUnresolvedSlot means no sub-task produced a value for a variable slot.
// This is a partitioning bug and not a property of the input
type NewUnresolvedSlot struct {
	SlotIDs []int
	stack   []byte
}

func (e NewUnresolvedSlot) Error() string {
	return fmt.Sprintf("slots %v were not resolved by any sub-task", e.SlotIDs)
}
func (e NewUnresolvedSlot) Code() ErrCode    { return UnresolvedSlot }
func (e NewUnresolvedSlot) getStack() []byte { return e.stack }
func (e NewUnresolvedSlot) withStack(stack []byte) QualError {
	e.stack = stack
	return e
}

type NewConflictingSolution struct {
	SlotID        int
	First, Second model.Qualifier
	stack         []byte
}

func (e NewConflictingSolution) Error() string {
	return fmt.Sprintf("slot %d was solved to both '%s' and '%s'", e.SlotID, e.First, e.Second)
}
func (e NewConflictingSolution) Code() ErrCode    { return ConflictingSolution }
func (e NewConflictingSolution) getStack() []byte { return e.stack }
func (e NewConflictingSolution) withStack(stack []byte) QualError {
	e.stack = stack
	return e
}

type NewConstantChanged struct {
	Slot  model.ConstantSlot
	Found model.Qualifier
	stack []byte
}

func (e NewConstantChanged) Error() string {
	return fmt.Sprintf("constant slot %d is bound to '%s' but a solver assigned '%s'", e.Slot.ID(), e.Slot.Value(), e.Found)
}
func (e NewConstantChanged) Code() ErrCode    { return ConstantChanged }
func (e NewConstantChanged) getStack() []byte { return e.stack }
func (e NewConstantChanged) withStack(stack []byte) QualError {
	e.stack = stack
	return e
}

// NewUnsatisfiable carries the constraints a sub-solver could not satisfy
type NewUnsatisfiable struct {
	Constraints []model.Constraint
	stack       []byte
}

func (e NewUnsatisfiable) Error() string {
	strs := make([]string, 0, len(e.Constraints))
	for _, c := range e.Constraints {
		strs = append(strs, c.String())
	}
	return fmt.Sprintf("no qualifier assignment satisfies: %s", strings.Join(strs, "; "))
}
func (e NewUnsatisfiable) Code() ErrCode    { return UnsatisfiableConstraints }
func (e NewUnsatisfiable) getStack() []byte { return e.stack }
func (e NewUnsatisfiable) withStack(stack []byte) QualError {
	e.stack = stack
	return e
}

type NewMissingPolyVar struct {
	SlotID int
	Site   model.Location
	stack  []byte
}

func (e NewMissingPolyVar) Error() string {
	return fmt.Sprintf("no slot %d for qualifier at call site %s", e.SlotID, e.Site)
}
func (e NewMissingPolyVar) Code() ErrCode    { return MissingPolyVar }
func (e NewMissingPolyVar) getStack() []byte { return e.stack }
func (e NewMissingPolyVar) withStack(stack []byte) QualError {
	e.stack = stack
	return e
}

type NewDuplicateSlot struct {
	First, Second model.Slot
	stack         []byte
}

func (e NewDuplicateSlot) Error() string {
	return fmt.Sprintf("slot id %d is used by both '%s' and '%s'", e.First.ID(), e.First, e.Second)
}
func (e NewDuplicateSlot) Code() ErrCode    { return DuplicateSlot }
func (e NewDuplicateSlot) getStack() []byte { return e.stack }
func (e NewDuplicateSlot) withStack(stack []byte) QualError {
	e.stack = stack
	return e
}

// NewUnexplainedFailure is a sub-task that failed without naming any constraint
type NewUnexplainedFailure struct {
	Task  string
	stack []byte
}

func (e NewUnexplainedFailure) Error() string {
	return fmt.Sprintf("sub-task %s has no solution and reported no constraints", e.Task)
}
func (e NewUnexplainedFailure) Code() ErrCode    { return UnexplainedFailure }
func (e NewUnexplainedFailure) getStack() []byte { return e.stack }
func (e NewUnexplainedFailure) withStack(stack []byte) QualError {
	e.stack = stack
	return e
}
