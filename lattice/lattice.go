// Package lattice implements the finite partial orders qualifiers are solved against.
package lattice

import (
	"slices"
	"strings"

	"github.com/benbjohnson/immutable"
	"github.com/cottand/qinfer/model"
)

// Projection maps a qualifier which is not a value of a Lattice into it.
//
// Reduced lattices use it to interpret constants of the original problem,
// eg: in a two-qualifier lattice {V, bottom}, a constant is V if it includes V
// and bottom otherwise. ok is false when q has no meaning in the lattice.
type Projection func(q model.Qualifier) (projected model.Qualifier, ok bool)

// Lattice is an explicit finite partial order over qualifiers, with a top and a bottom.
//
// A Lattice is immutable once built and can be shared across goroutines.
type Lattice struct {
	top, bottom model.Qualifier
	// poly may be nil
	poly model.Qualifier

	values []model.Qualifier
	index  *immutable.Map[model.Qualifier, int]
	// below[i][j] iff values[i] <: values[j]
	below [][]bool

	projection Projection
}

func (l *Lattice) Top() model.Qualifier    { return l.top }
func (l *Lattice) Bottom() model.Qualifier { return l.bottom }

// Polymorphic returns the polymorphic qualifier of the hierarchy, if there is one
func (l *Lattice) Polymorphic() (model.Qualifier, bool) {
	return l.poly, l.poly != nil
}

func (l *Lattice) IsPolymorphic(q model.Qualifier) bool {
	return l.poly != nil && model.SameQualifier(l.poly, q)
}

// Values returns every value of the lattice, bottom first and top last
func (l *Lattice) Values() []model.Qualifier {
	return slices.Clone(l.values)
}

func (l *Lattice) Len() int { return len(l.values) }

// IsTwoQualifier reports whether l was reduced to a binary choice
func (l *Lattice) IsTwoQualifier() bool { return len(l.values) == 2 }

func (l *Lattice) Contains(q model.Qualifier) bool {
	if q == nil {
		return false
	}
	_, ok := l.index.Get(q)
	return ok
}

// IsSubtype reports whether a <: b.
// It is false when either qualifier is not a value of l
func (l *Lattice) IsSubtype(a, b model.Qualifier) bool {
	i, ok := l.indexOf(a)
	if !ok {
		return false
	}
	j, ok := l.indexOf(b)
	if !ok {
		return false
	}
	return l.below[i][j]
}

// Supertypes returns the strict supertypes of q
func (l *Lattice) Supertypes(q model.Qualifier) []model.Qualifier {
	i, ok := l.indexOf(q)
	if !ok {
		return nil
	}
	var ret []model.Qualifier
	for j, v := range l.values {
		if i != j && l.below[i][j] {
			ret = append(ret, v)
		}
	}
	return ret
}

// Glb returns the greatest lower bound of a and b.
// ok is false if either is not in l or if the order has no unique meet for them
func (l *Lattice) Glb(a, b model.Qualifier) (model.Qualifier, bool) {
	return l.bound(a, b, func(c, x int) bool { return l.below[c][x] })
}

// Lub returns the least upper bound of a and b, see Glb
func (l *Lattice) Lub(a, b model.Qualifier) (model.Qualifier, bool) {
	return l.bound(a, b, func(c, x int) bool { return l.below[x][c] })
}

// bound finds the extreme candidate c such that rel(c, a) and rel(c, b),
// where every other candidate d satisfies rel(d, c)
func (l *Lattice) bound(a, b model.Qualifier, rel func(c, x int) bool) (model.Qualifier, bool) {
	i, ok := l.indexOf(a)
	if !ok {
		return nil, false
	}
	j, ok := l.indexOf(b)
	if !ok {
		return nil, false
	}
	var candidates []int
	for c := range l.values {
		if rel(c, i) && rel(c, j) {
			candidates = append(candidates, c)
		}
	}
	for _, c := range candidates {
		extreme := true
		for _, d := range candidates {
			if !rel(d, c) {
				extreme = false
				break
			}
		}
		if extreme {
			return l.values[c], true
		}
	}
	return nil, false
}

// Project interprets q as a value of l: values of l map to themselves,
// anything else goes through the lattice's Projection, if it has one
func (l *Lattice) Project(q model.Qualifier) (model.Qualifier, bool) {
	if l.Contains(q) {
		return q, true
	}
	if l.projection == nil || q == nil {
		return nil, false
	}
	projected, ok := l.projection(q)
	if !ok || !l.Contains(projected) {
		return nil, false
	}
	return projected, true
}

func (l *Lattice) indexOf(q model.Qualifier) (int, bool) {
	if q == nil {
		return 0, false
	}
	return l.index.Get(q)
}

func (l *Lattice) String() string {
	strs := make([]string, 0, len(l.values))
	for _, v := range l.values {
		strs = append(strs, v.String())
	}
	return "{" + strings.Join(strs, ", ") + "}"
}
