// Package graph builds the constraint graph of an inference problem:
// vertices are slots and constant qualifiers, edges are constraints.
package graph

import (
	"fmt"
	"log/slog"

	"github.com/cottand/qinfer/model"
	"github.com/cottand/qinfer/qerr"
	set "github.com/hashicorp/go-set/v3"
)

type VertexKind int

const (
	SlotVertex VertexKind = iota
	ConstantVertex
)

// Vertex is either a slot or a constant qualifier.
// All constant slots bound to the same qualifier share one Vertex
type Vertex struct {
	id    int
	kind  VertexKind
	slot  model.Slot      // SlotVertex only
	value model.Qualifier // ConstantVertex only

	edges     []*Edge
	component *Component
}

func (v *Vertex) ID() int                { return v.id }
func (v *Vertex) Kind() VertexKind       { return v.kind }
func (v *Vertex) IsConstant() bool       { return v.kind == ConstantVertex }
func (v *Vertex) Edges() []*Edge         { return v.edges }
func (v *Vertex) Component() *Component  { return v.component }
func (v *Vertex) Slot() model.Slot       { return v.slot }
func (v *Vertex) Value() model.Qualifier { return v.value }

func (v *Vertex) String() string {
	if v.IsConstant() {
		return v.value.String()
	}
	return v.slot.String()
}

// Edge links the two operands of Constraint
type Edge struct {
	From, To   *Vertex
	Constraint model.Constraint
}

// Other returns the endpoint of e which is not v
func (e *Edge) Other(v *Vertex) *Vertex {
	if e.From == v {
		return e.To
	}
	return e.From
}

// Component is a maximal set of vertices connected by constraints.
// Components share no slots, so each can be solved on its own
type Component struct {
	index       int
	vertices    []*Vertex
	constraints []model.Constraint
	lookup      *set.HashSet[model.Constraint, string]
}

func (c *Component) Index() int                      { return c.index }
func (c *Component) Vertices() []*Vertex             { return c.vertices }
func (c *Component) Constraints() []model.Constraint { return c.constraints }

func (c *Component) Contains(constraint model.Constraint) bool {
	return c.lookup.Contains(constraint)
}

// Slots returns every slot referenced by the constraints of c, including constant
// slots, in order of first appearance
func (c *Component) Slots() []model.Slot {
	seen := set.New[int](len(c.vertices))
	var slots []model.Slot
	for _, constraint := range c.constraints {
		for _, s := range constraint.Operands() {
			if seen.Insert(s.ID()) {
				slots = append(slots, s)
			}
		}
	}
	return slots
}

// VariableSlots returns the slots of c that are to be solved
func (c *Component) VariableSlots() []model.Slot {
	var slots []model.Slot
	for _, v := range c.vertices {
		if !v.IsConstant() && model.IsVariable(v.slot) {
			slots = append(slots, v.slot)
		}
	}
	return slots
}

// Constants returns the constant vertices of c
func (c *Component) Constants() []*Vertex {
	var constants []*Vertex
	for _, v := range c.vertices {
		if v.IsConstant() {
			constants = append(constants, v)
		}
	}
	return constants
}

func (c *Component) String() string {
	return fmt.Sprintf("component#%d(%d vertices, %d constraints)", c.index, len(c.vertices), len(c.constraints))
}

// ConstantPath is the set of constraints relevant to resolving slots
// relative to one constant qualifier: every constraint of the constant's component
type ConstantPath struct {
	Vertex *Vertex
}

func (p ConstantPath) Constant() model.Qualifier       { return p.Vertex.value }
func (p ConstantPath) Component() *Component           { return p.Vertex.component }
func (p ConstantPath) Constraints() []model.Constraint { return p.Vertex.component.constraints }

// Graph is built once per solve and is read-only afterward
type Graph struct {
	vertices         []*Vertex
	slotVertices     map[int]*Vertex
	constantVertices map[string]*Vertex
	edges            []*Edge
	components       []*Component
	constantPaths    []ConstantPath

	// dropped holds the constraints skipped by a lenient build
	dropped *qerr.Errors
}

func (g *Graph) Vertices() []*Vertex      { return g.vertices }
func (g *Graph) Edges() []*Edge           { return g.edges }
func (g *Graph) Components() []*Component { return g.components }
func (g *Graph) Dropped() *qerr.Errors    { return g.dropped }
func (g *Graph) IsEmpty() bool            { return len(g.vertices) == 0 }

// ConstantPaths returns one ConstantPath per constant vertex, in order of first appearance
func (g *Graph) ConstantPaths() []ConstantPath {
	return g.constantPaths
}

func (g *Graph) SlotVertex(id int) (*Vertex, bool) {
	v, ok := g.slotVertices[id]
	return v, ok
}

func (g *Graph) ConstantVertex(q model.Qualifier) (*Vertex, bool) {
	v, ok := g.constantVertices[q.Hash()]
	return v, ok
}

// ComponentOf returns the component whose edges include c
func (g *Graph) ComponentOf(c model.Constraint) (*Component, bool) {
	lhs := c.Lhs()
	if lhs == nil {
		return nil, false
	}
	var v *Vertex
	var ok bool
	if value, isConst := model.ConstantValue(lhs); isConst {
		if value == nil {
			return nil, false
		}
		v, ok = g.ConstantVertex(value)
	} else {
		v, ok = g.SlotVertex(lhs.ID())
	}
	if !ok || !v.component.Contains(c) {
		return nil, false
	}
	return v.component, true
}

// VariableSlots returns every variable slot referenced by a constraint
func (g *Graph) VariableSlots() []model.Slot {
	var slots []model.Slot
	for _, v := range g.vertices {
		if !v.IsConstant() && model.IsVariable(v.slot) {
			slots = append(slots, v.slot)
		}
	}
	return slots
}

func (g *Graph) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("vertices", len(g.vertices)),
		slog.Int("edges", len(g.edges)),
		slog.Int("components", len(g.components)),
		slog.Int("constants", len(g.constantPaths)),
	)
}
