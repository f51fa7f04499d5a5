package lattice

import (
	"fmt"

	"github.com/benbjohnson/immutable"
	"github.com/cottand/qinfer/model"
	"github.com/cottand/qinfer/qerr"
)

// Order states that Sub is a direct subtype of Super
type Order struct {
	Sub, Super model.Qualifier
}

// Hierarchy describes a qualifier hierarchy to build a Lattice from.
//
// Top and Bottom are required. Every value is implicitly above Bottom
// and below Top, so Orders only need to relate the values in between.
type Hierarchy struct {
	Top, Bottom model.Qualifier
	// Polymorphic is optional. It is a value of the lattice, incomparable
	// to the others unless Orders say otherwise
	Polymorphic model.Qualifier
	Values      []model.Qualifier
	Orders      []Order
	Projection  Projection
}

// Build produces the Lattice described by h.
//
// A malformed hierarchy (missing top or bottom, orders over undeclared
// values, cycles between distinct values) is a caller error.
func Build(h Hierarchy) (*Lattice, error) {
	if h.Top == nil || h.Bottom == nil {
		return nil, qerr.New(qerr.NewMalformedLattice{Reason: "top and bottom are required"})
	}
	if h.Top.Equal(h.Bottom) {
		return nil, qerr.New(qerr.NewMalformedLattice{Reason: fmt.Sprintf("top and bottom are both '%s'", h.Top)})
	}

	l := &Lattice{
		top:        h.Top,
		bottom:     h.Bottom,
		poly:       h.Polymorphic,
		projection: h.Projection,
	}
	builder := immutable.NewMapBuilder[model.Qualifier, int](model.QualifierHasher)
	add := func(q model.Qualifier) {
		if _, ok := builder.Get(q); ok {
			return
		}
		builder.Set(q, len(l.values))
		l.values = append(l.values, q)
	}
	add(h.Bottom)
	for _, v := range h.Values {
		if v != nil && !v.Equal(h.Top) {
			add(v)
		}
	}
	if h.Polymorphic != nil && !h.Polymorphic.Equal(h.Top) {
		add(h.Polymorphic)
	}
	add(h.Top)
	l.index = builder.Map()

	n := len(l.values)
	bottom, top := 0, n-1
	l.below = make([][]bool, n)
	for i := range l.below {
		l.below[i] = make([]bool, n)
		l.below[i][i] = true
		l.below[bottom][i] = true
		l.below[i][top] = true
	}
	for _, o := range h.Orders {
		sub, ok := l.indexOf(o.Sub)
		if !ok {
			return nil, qerr.New(qerr.NewMalformedLattice{Reason: fmt.Sprintf("'%s' is not a declared value", o.Sub)})
		}
		super, ok := l.indexOf(o.Super)
		if !ok {
			return nil, qerr.New(qerr.NewMalformedLattice{Reason: fmt.Sprintf("'%s' is not a declared value", o.Super)})
		}
		l.below[sub][super] = true
	}

	// transitive closure
	for k := 0; k < n; k++ {
		for i := 0; i < n; i++ {
			if !l.below[i][k] {
				continue
			}
			for j := 0; j < n; j++ {
				if l.below[k][j] {
					l.below[i][j] = true
				}
			}
		}
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if l.below[i][j] && l.below[j][i] {
				return nil, qerr.New(qerr.NewMalformedLattice{
					Reason: fmt.Sprintf("'%s' and '%s' are subtypes of each other", l.values[i], l.values[j]),
				})
			}
		}
	}
	return l, nil
}

// BuildTwoTypeLattice builds the lattice {bottom <: top}, used once a
// sub-problem has been reduced to a binary choice such as
// "is this location exactly V, or not".
//
// projection may be nil.
func BuildTwoTypeLattice(top, bottom model.Qualifier, projection Projection) (*Lattice, error) {
	return Build(Hierarchy{
		Top:        top,
		Bottom:     bottom,
		Projection: projection,
	})
}
