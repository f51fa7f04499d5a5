// Package poly instantiates polymorphic qualifiers per call site.
//
// A constraint that mentions the polymorphic qualifier of a lattice at some
// call site is rewritten to mention a variable slot instead. Every call site
// gets exactly one such variable, however many times it is visited, so all
// the polymorphic positions of one call are inferred to the same qualifier.
package poly

import (
	"log/slog"
	"sync"

	"github.com/cottand/qinfer/graph"
	"github.com/cottand/qinfer/internal/log"
	"github.com/cottand/qinfer/lattice"
	"github.com/cottand/qinfer/model"
	"github.com/cottand/qinfer/qerr"
)

type Replacer struct {
	slots   *model.SlotManager
	lattice *lattice.Lattice
	opts    graph.Options

	mu    sync.Mutex
	sites map[model.Location]model.SourceVariableSlot
	*slog.Logger
}

// NewReplacer returns a Replacer creating its variables in slots.
// With opts.Lenient, references to slots unknown to slots are kept
// as they are instead of failing.
func NewReplacer(slots *model.SlotManager, lat *lattice.Lattice, opts graph.Options) *Replacer {
	return &Replacer{
		slots:   slots,
		lattice: lat,
		opts:    opts,
		sites:   make(map[model.Location]model.SourceVariableSlot),
		Logger:  log.Section("poly"),
	}
}

// Var returns the variable of call site site, creating it on first use
func (r *Replacer) Var(site model.Location) model.SourceVariableSlot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.sites[site]; ok {
		return v
	}
	v := r.slots.NewSourceVariable(site)
	r.sites[site] = v
	r.Debug("created polymorphic variable", "site", site.String(), "slot", v.String())
	return v
}

// Sites returns how many call sites have a variable
func (r *Replacer) Sites() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sites)
}

// Replace returns the slot that should stand for id at call site site:
// the call site variable if id is the polymorphic constant, id's slot otherwise.
//
// ok is false when id is unknown and the Replacer is lenient.
func (r *Replacer) Replace(site model.Location, id int) (slot model.Slot, ok bool, err error) {
	slot, found := r.slots.Slot(id)
	if !found {
		if r.opts.Lenient {
			r.Warn("skipping unknown slot", "slot", id, "site", site.String())
			return nil, false, nil
		}
		return nil, false, qerr.New(qerr.NewMissingPolyVar{SlotID: id, Site: site})
	}
	if value, isConstant := model.ConstantValue(slot); isConstant && r.lattice.IsPolymorphic(value) {
		return r.Var(site), true, nil
	}
	return slot, true, nil
}

// ReplaceConstraints rewrites every operand of constraints through Replace.
// Constraints with an operand skipped in lenient mode are kept unchanged.
func (r *Replacer) ReplaceConstraints(site model.Location, constraints []model.Constraint) ([]model.Constraint, error) {
	if _, ok := r.lattice.Polymorphic(); !ok {
		return constraints, nil
	}
	replaced := make([]model.Constraint, 0, len(constraints))
	for _, c := range constraints {
		var operands [2]model.Slot
		skipped := false
		for i, operand := range c.Operands() {
			slot, ok, err := r.Replace(site, operand.ID())
			if err != nil {
				return nil, err
			}
			if !ok {
				skipped = true
				break
			}
			operands[i] = slot
		}
		if skipped {
			replaced = append(replaced, c)
			continue
		}
		switch c.Relation() {
		case model.Equality:
			replaced = append(replaced, model.NewEquality(operands[0], operands[1]))
		default:
			replaced = append(replaced, model.NewSubtype(operands[0], operands[1]))
		}
	}
	return replaced, nil
}
