package model

import (
	"slices"
	"strconv"
	"strings"
)

// Qualifier is a concrete qualifier value, such as @Nullable or @DataFlow(typeNames={"int"}).
//
// Qualifiers are compared structurally: two qualifiers are the same value
// if and only if they have the same Hash, which is a canonical rendering of
// their kind and parameters. Qualifier values may hold slices, so never use
// them as map keys directly; key by Hash instead.
type Qualifier interface {
	Kind() string
	Hash() string
	Equal(other Qualifier) bool
	String() string
}

type element struct {
	name   string
	values []string
}

// Annotation is the default Qualifier: a kind plus named elements,
// where each element holds an ordered list of strings
type Annotation struct {
	kind  string
	elems []element // sorted by name
	hash  string
}

var _ Qualifier = Annotation{}

// NewAnnotation builds an Annotation of the given kind.
// elems is copied, so the caller may reuse it. Empty elements are dropped,
// so @K and @K(x={}) are the same value.
func NewAnnotation(kind string, elems map[string][]string) Annotation {
	a := Annotation{kind: kind}
	for name, values := range elems {
		if len(values) == 0 {
			continue
		}
		a.elems = append(a.elems, element{name: name, values: slices.Clone(values)})
	}
	slices.SortFunc(a.elems, func(e1, e2 element) int {
		return strings.Compare(e1.name, e2.name)
	})
	a.hash = a.render()
	return a
}

func (a Annotation) Kind() string { return a.kind }

// Elem returns a copy of the values of element name, or nil if absent
func (a Annotation) Elem(name string) []string {
	for _, e := range a.elems {
		if e.name == name {
			return slices.Clone(e.values)
		}
	}
	return nil
}

func (a Annotation) Hash() string {
	if a.hash == "" {
		return a.render()
	}
	return a.hash
}

func (a Annotation) Equal(other Qualifier) bool {
	if other == nil {
		return false
	}
	return a.Hash() == other.Hash()
}

func (a Annotation) String() string { return a.Hash() }

func (a Annotation) render() string {
	sb := &strings.Builder{}
	sb.WriteString("@")
	sb.WriteString(a.kind)
	if len(a.elems) == 0 {
		return sb.String()
	}
	sb.WriteString("(")
	for i, e := range a.elems {
		if i != 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(e.name)
		sb.WriteString("={")
		for j, v := range e.values {
			if j != 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(quoteValue(v))
		}
		sb.WriteString("}")
	}
	sb.WriteString(")")
	return sb.String()
}

// quoteValue leaves plain values bare and quotes any value that could be
// confused with the surrounding notation, so distinct values never render alike
func quoteValue(v string) string {
	if v == "" || v != strings.TrimSpace(v) || strings.ContainsAny(v, `,{}=()"\`) || !strconv.CanBackquote(v) {
		return strconv.Quote(v)
	}
	return v
}

// SameQualifier reports whether a and b are the same value, treating two nils as equal
func SameQualifier(a, b Qualifier) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Hash() == b.Hash()
}
