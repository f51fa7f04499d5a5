package graph

import (
	"log/slog"

	"github.com/cottand/qinfer/internal/log"
	"github.com/cottand/qinfer/model"
	"github.com/cottand/qinfer/qerr"
	set "github.com/hashicorp/go-set/v3"
)

// Options configures a Builder
type Options struct {
	// Lenient makes the Builder drop constraints that reference slots
	// outside the slot universe, instead of failing the build.
	// It is meant for debugging partial constraint sets.
	Lenient bool
}

type Builder struct {
	opts Options
	*slog.Logger
}

func NewBuilder(opts Options) *Builder {
	return &Builder{
		opts:   opts,
		Logger: log.Section("graph"),
	}
}

// WithLogger returns a copy of b which logs to logger
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	return &Builder{opts: b.opts, Logger: logger.With("section", "graph")}
}

// Build creates one vertex per slot referenced by a constraint, one vertex per
// distinct constant qualifier, and one edge per distinct constraint.
//
// slots is the slot universe: a constraint referencing a slot id that is not
// in slots is an error, unless the Builder is lenient.
func (b *Builder) Build(slots []model.Slot, constraints []model.Constraint) (*Graph, error) {
	universe := make(map[int]model.Slot, len(slots))
	for _, s := range slots {
		if other, ok := universe[s.ID()]; ok && !sameSlot(other, s) {
			return nil, qerr.New(qerr.NewDuplicateSlot{First: other, Second: s})
		}
		universe[s.ID()] = s
	}

	g := &Graph{
		slotVertices:     make(map[int]*Vertex),
		constantVertices: make(map[string]*Vertex),
	}
	seen := set.NewHashSet[model.Constraint, string](len(constraints))

	for _, c := range constraints {
		if err := b.validate(universe, c); err != nil {
			if b.opts.Lenient {
				b.Warn("dropping constraint", "constraint", c.String(), "reason", err.Error())
				g.dropped = g.dropped.With(err)
				continue
			}
			return nil, err
		}
		if !seen.Insert(c) {
			continue
		}
		from := g.vertexFor(c.Lhs())
		to := g.vertexFor(c.Rhs())
		e := &Edge{From: from, To: to, Constraint: c}
		g.edges = append(g.edges, e)
		from.edges = append(from.edges, e)
		if to != from {
			to.edges = append(to.edges, e)
		}
	}

	g.computeComponents()
	for _, v := range g.vertices {
		if v.IsConstant() {
			g.constantPaths = append(g.constantPaths, ConstantPath{Vertex: v})
		}
	}

	b.Debug("built constraint graph", "graph", g)
	return g, nil
}

// validate returns a qerr.QualError when c refers to slots outside of universe
func (b *Builder) validate(universe map[int]model.Slot, c model.Constraint) qerr.QualError {
	for _, operand := range c.Operands() {
		if operand == nil {
			return qerr.New(qerr.NewMalformedConstraint{Constraint: c, Reason: "missing operand"})
		}
		known, ok := universe[operand.ID()]
		if !ok {
			return qerr.New(qerr.NewMissingSlot{SlotID: operand.ID(), Constraint: c})
		}
		if !sameSlot(known, operand) {
			return qerr.New(qerr.NewDuplicateSlot{First: known, Second: operand})
		}
		if value, isConst := model.ConstantValue(operand); isConst && value == nil {
			return qerr.New(qerr.NewMalformedConstraint{Constraint: c, Reason: "constant slot without a value"})
		}
	}
	return nil
}

func (g *Graph) vertexFor(s model.Slot) *Vertex {
	if value, ok := model.ConstantValue(s); ok {
		if v, ok := g.constantVertices[value.Hash()]; ok {
			return v
		}
		v := &Vertex{id: len(g.vertices), kind: ConstantVertex, value: value}
		g.vertices = append(g.vertices, v)
		g.constantVertices[value.Hash()] = v
		return v
	}
	if v, ok := g.slotVertices[s.ID()]; ok {
		return v
	}
	v := &Vertex{id: len(g.vertices), kind: SlotVertex, slot: s}
	g.vertices = append(g.vertices, v)
	g.slotVertices[s.ID()] = v
	return v
}

// computeComponents runs an undirected DFS from every unvisited vertex, in vertex order
func (g *Graph) computeComponents() {
	for _, root := range g.vertices {
		if root.component != nil {
			continue
		}
		comp := &Component{
			index:  len(g.components),
			lookup: set.NewHashSet[model.Constraint, string](len(root.edges)),
		}
		g.components = append(g.components, comp)

		root.component = comp
		stack := []*Vertex{root}
		for len(stack) > 0 {
			v := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			comp.vertices = append(comp.vertices, v)
			for _, e := range v.edges {
				next := e.Other(v)
				if next.component == nil {
					next.component = comp
					stack = append(stack, next)
				}
			}
		}
	}

	// edges in input order
	for _, e := range g.edges {
		comp := e.From.component
		comp.constraints = append(comp.constraints, e.Constraint)
		comp.lookup.Insert(e.Constraint)
	}
}

func sameSlot(a, b model.Slot) bool {
	if a.ID() != b.ID() || a.Kind() != b.Kind() {
		return false
	}
	av, aConst := model.ConstantValue(a)
	bv, _ := model.ConstantValue(b)
	return !aConst || model.SameQualifier(av, bv)
}
