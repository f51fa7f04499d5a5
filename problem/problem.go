// Package problem reads inference problems from YAML files:
//
//	strategy: components     # components, monolithic or dataflow
//	parallelism: 4
//	prefer: greatest         # greatest or least
//	lattice:
//	  top: "@Nullable"
//	  bottom: "@NonNull"
//	  polymorphic: "@PolyNull"
//	  values: ["@Maybe"]
//	  order:
//	    - ["@NonNull", "@Maybe"]
//	slots:
//	  - {id: 0, kind: variable}
//	  - {id: 1, kind: constant, value: "@NonNull"}
//	  - {id: 2, kind: source, file: Main.java, line: 3, column: 7}
//	constraints:
//	  - subtype: [0, 1]
//	  - equal: [2, 0]
//	  - subtype: [0, 9]
//	    site: {file: Main.java, line: 5, column: 2}
//
// A constraint with a site was generated at that call site: operands bound to
// the polymorphic qualifier are replaced by one variable per call site.
//
// The lattice may be omitted for the dataflow strategy. The same fields can
// be written in TOML, in a file ending in .toml.
package problem

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/cottand/qinfer/dataflow"
	"github.com/cottand/qinfer/graph"
	"github.com/cottand/qinfer/lattice"
	"github.com/cottand/qinfer/model"
	"github.com/cottand/qinfer/poly"
	"github.com/cottand/qinfer/solver/propagate"
	"github.com/cottand/qinfer/strategy"
	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	Components = "components"
	Monolithic = "monolithic"
	DataFlow   = "dataflow"
)

type File struct {
	Strategy    string       `yaml:"strategy,omitempty" toml:"strategy,omitempty"`
	Parallelism int          `yaml:"parallelism,omitempty" toml:"parallelism,omitempty"`
	Prefer      string       `yaml:"prefer,omitempty" toml:"prefer,omitempty"`
	Lenient     bool         `yaml:"lenient,omitempty" toml:"lenient,omitempty"`
	Lattice     *LatticeFile `yaml:"lattice,omitempty" toml:"lattice,omitempty"`
	Slots       []SlotFile   `yaml:"slots" toml:"slots"`
	Constraints []Relation   `yaml:"constraints" toml:"constraints"`
}

type LatticeFile struct {
	Top         string     `yaml:"top" toml:"top"`
	Bottom      string     `yaml:"bottom" toml:"bottom"`
	Polymorphic string     `yaml:"polymorphic,omitempty" toml:"polymorphic,omitempty"`
	Values      []string   `yaml:"values,omitempty" toml:"values,omitempty"`
	Order       [][]string `yaml:"order,omitempty" toml:"order,omitempty"`
}

type SlotFile struct {
	ID     int    `yaml:"id" toml:"id"`
	Kind   string `yaml:"kind" toml:"kind"`
	Value  string `yaml:"value,omitempty" toml:"value,omitempty"`
	File   string `yaml:"file,omitempty" toml:"file,omitempty"`
	Line   int    `yaml:"line,omitempty" toml:"line,omitempty"`
	Column int    `yaml:"column,omitempty" toml:"column,omitempty"`
}

// Relation holds exactly one of Subtype or Equal, each a pair of slot ids
type Relation struct {
	Subtype []int     `yaml:"subtype,omitempty" toml:"subtype,omitempty"`
	Equal   []int     `yaml:"equal,omitempty" toml:"equal,omitempty"`
	Site    *SiteFile `yaml:"site,omitempty" toml:"site,omitempty"`
}

// SiteFile is the call site a constraint was generated at
type SiteFile struct {
	File   string `yaml:"file" toml:"file"`
	Line   int    `yaml:"line,omitempty" toml:"line,omitempty"`
	Column int    `yaml:"column,omitempty" toml:"column,omitempty"`
}

func (s SiteFile) location() model.Location {
	return model.Location{File: s.File, Line: s.Line, Column: s.Column}
}

// Problem is a decoded File, ready to be solved
type Problem struct {
	Strategy    string
	Parallelism int
	Prefer      propagate.Preference
	Lenient     bool

	Lattice     *lattice.Lattice
	Slots       []model.Slot
	Constraints []model.Constraint

	// CallSites is the number of call sites given a polymorphic variable
	CallSites int
}

// Load reads and decodes the problem file at path
func Load(path string) (*Problem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading problem %s", path)
	}
	return Parse(data, path)
}

// Parse decodes problem file content. Files ending in .toml are read as
// TOML, anything else as YAML. path is otherwise only used in error messages.
func Parse(data []byte, path string) (*Problem, error) {
	var f File
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if err := toml.Unmarshal(data, &f); err != nil {
			return nil, errors.Wrapf(err, "parsing %s", path)
		}
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return nil, errors.Wrapf(err, "parsing %s", path)
		}
	}
	f.setDefaults()
	p, err := f.decode()
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return p, nil
}

func (f *File) setDefaults() {
	if f.Strategy == "" {
		f.Strategy = Components
	}
	if f.Parallelism <= 0 {
		f.Parallelism = 1
	}
	if f.Prefer == "" {
		f.Prefer = propagate.Greatest.String()
	}
}

func (f *File) decode() (*Problem, error) {
	p := &Problem{
		Strategy:    f.Strategy,
		Parallelism: f.Parallelism,
		Lenient:     f.Lenient,
	}
	switch f.Strategy {
	case Components, Monolithic, DataFlow:
	default:
		return nil, errors.Errorf("unknown strategy %q", f.Strategy)
	}
	switch f.Prefer {
	case propagate.Greatest.String():
		p.Prefer = propagate.Greatest
	case propagate.Least.String():
		p.Prefer = propagate.Least
	default:
		return nil, errors.Errorf("unknown preference %q", f.Prefer)
	}

	var err error
	switch {
	case f.Lattice != nil:
		p.Lattice, err = f.Lattice.build()
	case f.Strategy == DataFlow:
		p.Lattice, err = dataflow.Lattice()
	default:
		err = errors.New("a lattice is required")
	}
	if err != nil {
		return nil, errors.Wrap(err, "lattice")
	}

	slots := model.NewSlotManager()
	for i, s := range f.Slots {
		slot, err := s.slot()
		if err != nil {
			return nil, errors.Wrapf(err, "slots[%d]", i)
		}
		if !slots.Declare(slot) {
			return nil, errors.Errorf("slots[%d]: id %d given twice", i, slot.ID())
		}
	}

	replacer := poly.NewReplacer(slots, p.Lattice, graph.Options{Lenient: p.Lenient})
	for i, r := range f.Constraints {
		c, err := r.constraint(slots)
		if err != nil {
			return nil, errors.Wrapf(err, "constraints[%d]", i)
		}
		if r.Site != nil {
			replaced, err := replacer.ReplaceConstraints(r.Site.location(), []model.Constraint{c})
			if err != nil {
				return nil, errors.Wrapf(err, "constraints[%d]", i)
			}
			c = replaced[0]
		}
		p.Constraints = append(p.Constraints, c)
	}
	p.Slots = slots.Slots()
	p.CallSites = replacer.Sites()
	return p, nil
}

func (l *LatticeFile) build() (*lattice.Lattice, error) {
	h := lattice.Hierarchy{}
	var err error
	if h.Top, err = parseRequired(l.Top, "top"); err != nil {
		return nil, err
	}
	if h.Bottom, err = parseRequired(l.Bottom, "bottom"); err != nil {
		return nil, err
	}
	if l.Polymorphic != "" {
		if h.Polymorphic, err = ParseQualifier(l.Polymorphic); err != nil {
			return nil, err
		}
	}
	for _, v := range l.Values {
		q, err := ParseQualifier(v)
		if err != nil {
			return nil, err
		}
		h.Values = append(h.Values, q)
	}
	for i, pair := range l.Order {
		if len(pair) != 2 {
			return nil, errors.Errorf("order[%d]: expected [sub, super], found %d qualifiers", i, len(pair))
		}
		sub, err := ParseQualifier(pair[0])
		if err != nil {
			return nil, errors.Wrapf(err, "order[%d]", i)
		}
		super, err := ParseQualifier(pair[1])
		if err != nil {
			return nil, errors.Wrapf(err, "order[%d]", i)
		}
		h.Orders = append(h.Orders, lattice.Order{Sub: sub, Super: super})
	}
	return lattice.Build(h)
}

func parseRequired(s, field string) (model.Qualifier, error) {
	if s == "" {
		return nil, errors.Errorf("%s is required", field)
	}
	return ParseQualifier(s)
}

func (s SlotFile) slot() (model.Slot, error) {
	if s.ID < 0 {
		return nil, errors.Errorf("negative id %d", s.ID)
	}
	switch s.Kind {
	case "", "variable":
		return model.NewVariableSlot(s.ID), nil
	case "source":
		return model.NewSourceVariableSlot(s.ID, model.Location{File: s.File, Line: s.Line, Column: s.Column}), nil
	case "constant":
		q, err := parseRequired(s.Value, "value")
		if err != nil {
			return nil, err
		}
		return model.NewConstantSlot(s.ID, q), nil
	default:
		return nil, errors.Errorf("unknown slot kind %q", s.Kind)
	}
}

// constraint resolves slot ids against slots. Ids that are not declared become
// bare variables, so graph building reports them, or drops them when lenient.
func (r Relation) constraint(slots *model.SlotManager) (model.Constraint, error) {
	ids, relation := r.Subtype, model.Subtype
	switch {
	case len(r.Subtype) > 0 && len(r.Equal) > 0:
		return model.Constraint{}, errors.New("only one of subtype and equal may be set")
	case len(r.Equal) > 0:
		ids, relation = r.Equal, model.Equality
	}
	if len(ids) != 2 {
		return model.Constraint{}, errors.Errorf("expected two slot ids, found %d", len(ids))
	}

	var operands [2]model.Slot
	for i, id := range ids {
		slot, ok := slots.Slot(id)
		if !ok {
			slot = model.NewVariableSlot(id)
		}
		operands[i] = slot
	}
	if relation == model.Equality {
		return model.NewEquality(operands[0], operands[1]), nil
	}
	return model.NewSubtype(operands[0], operands[1]), nil
}

// Policy returns the partitioning policy named by the problem's strategy
func (p *Problem) Policy() strategy.Policy {
	switch p.Strategy {
	case Monolithic:
		return strategy.MonolithicPolicy{}
	case DataFlow:
		return dataflow.NewPolicy()
	default:
		return strategy.ComponentPolicy{}
	}
}

// NewStrategy returns a strategy configured by p, solving with the
// propagation backend. opts are applied last.
func (p *Problem) NewStrategy(opts ...strategy.Option) *strategy.GraphSolvingStrategy {
	base := []strategy.Option{
		strategy.WithParallelism(p.Parallelism),
		strategy.WithGraphOptions(graph.Options{Lenient: p.Lenient}),
	}
	return strategy.New(propagate.NewFactory(p.Prefer), p.Policy(), append(base, opts...)...)
}

func (p *Problem) Solve(opts ...strategy.Option) (*strategy.Result, error) {
	return p.NewStrategy(opts...).Solve(nil, p.Slots, p.Constraints, p.Lattice)
}
