// Package dataflow is the qualifier system of the data-flow type checker:
// a @DataFlow qualifier is a set of type names a value may have at runtime,
// plus type name roots, which stand for every type under a root.
//
// The set of possible @DataFlow values is not enumerable, so the Policy of this
// package reduces every name and root seen in constants to its own two-qualifier
// sub-problem and unions the answers back together.
package dataflow

import (
	"slices"
	"sort"
	"strings"

	"github.com/cottand/qinfer/lattice"
	"github.com/cottand/qinfer/model"
	"github.com/xtgo/set"
)

const (
	Kind          = "DataFlow"
	TypeNames     = "typeNames"
	TypeNameRoots = "typeNameRoots"
)

var (
	// Top stands for any runtime type
	Top    = model.NewAnnotation("DataFlowTop", nil)
	Bottom = model.NewAnnotation("DataFlowInferenceBottom", nil)
)

// New returns @DataFlow(typeNames=names)
func New(names ...string) model.Annotation {
	return NewWithRoots(names, nil)
}

// NewForRoots returns @DataFlow(typeNameRoots=roots)
func NewForRoots(roots ...string) model.Annotation {
	return NewWithRoots(nil, roots)
}

func NewWithRoots(names, roots []string) model.Annotation {
	return model.NewAnnotation(Kind, map[string][]string{
		TypeNames:     canonical(names),
		TypeNameRoots: canonical(roots),
	})
}

func IsDataFlow(q model.Qualifier) bool {
	return q != nil && q.Kind() == Kind
}

type elemer interface {
	Elem(name string) []string
}

// Names returns the type names of a @DataFlow qualifier
func Names(q model.Qualifier) []string {
	if e, ok := q.(elemer); ok && IsDataFlow(q) {
		return e.Elem(TypeNames)
	}
	return nil
}

// Roots returns the type name roots of a @DataFlow qualifier
func Roots(q model.Qualifier) []string {
	if e, ok := q.(elemer); ok && IsDataFlow(q) {
		return e.Elem(TypeNameRoots)
	}
	return nil
}

// canonical sorts and deduplicates values into a new slice
func canonical(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	sorted := slices.Clone(values)
	sort.Strings(sorted)
	n := set.Uniq(sort.StringSlice(sorted))
	return sorted[:n]
}

// Covers reports whether the type name root covers the type name
type Covers func(root, name string) bool

// PackageCovers treats roots as package-like prefixes: java.util covers java.util.List
func PackageCovers(root, name string) bool {
	return name == root || strings.HasPrefix(name, root+".")
}

// Lattice is the lattice of the whole data-flow problem. Only constants that
// no name or root sub-problem claims are solved against it, so it only
// knows @DataFlowTop, @DataFlowInferenceBottom, and the empty @DataFlow
func Lattice() (*lattice.Lattice, error) {
	return lattice.Build(lattice.Hierarchy{
		Top:    Top,
		Bottom: Bottom,
		Projection: func(q model.Qualifier) (model.Qualifier, bool) {
			if IsDataFlow(q) && len(Names(q)) == 0 && len(Roots(q)) == 0 {
				return Bottom, true
			}
			return nil, false
		},
	})
}

// nameLattice is {@DataFlow(typeNames=name), bottom}: a constant is the top
// value if it may hold name
func nameLattice(name string, covers Covers) (*lattice.Lattice, error) {
	v := New(name)
	return lattice.BuildTwoTypeLattice(v, Bottom, func(q model.Qualifier) (model.Qualifier, bool) {
		switch {
		case Top.Equal(q):
			return v, true
		case !IsDataFlow(q):
			return nil, false
		case slices.Contains(Names(q), name):
			return v, true
		case slices.ContainsFunc(Roots(q), func(root string) bool { return covers(root, name) }):
			return v, true
		default:
			return Bottom, true
		}
	})
}

// rootLattice is {@DataFlow(typeNameRoots=root), bottom}
func rootLattice(root string) (*lattice.Lattice, error) {
	v := NewForRoots(root)
	return lattice.BuildTwoTypeLattice(v, Bottom, func(q model.Qualifier) (model.Qualifier, bool) {
		switch {
		case Top.Equal(q):
			return v, true
		case !IsDataFlow(q):
			return nil, false
		case slices.Contains(Roots(q), root):
			return v, true
		default:
			return Bottom, true
		}
	})
}
