package dataflow

import (
	"slices"

	"github.com/cottand/qinfer/model"
	"github.com/cottand/qinfer/strategy"
)

// Refiner collapses a @DataFlow qualifier to its minimal form:
// names and roots are sorted and deduplicated, and names or roots already
// covered by another root are dropped
type Refiner struct {
	Covers Covers
}

var _ strategy.Refiner = Refiner{}

func (r Refiner) Refine(q model.Qualifier) model.Qualifier {
	if !IsDataFlow(q) {
		return q
	}
	covers := r.Covers
	if covers == nil {
		covers = PackageCovers
	}

	roots := canonical(Roots(q))
	roots = slices.DeleteFunc(slices.Clone(roots), func(root string) bool {
		return slices.ContainsFunc(roots, func(other string) bool {
			return other != root && covers(other, root)
		})
	})
	names := slices.DeleteFunc(canonical(Names(q)), func(name string) bool {
		return slices.ContainsFunc(roots, func(root string) bool {
			return covers(root, name)
		})
	})
	return NewWithRoots(names, roots)
}
