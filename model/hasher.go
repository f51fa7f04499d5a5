package model

import "github.com/benbjohnson/immutable"

// QualifierHasher lets qualifiers be stored in immutable collections,
// keyed by their structural Hash
var QualifierHasher immutable.Hasher[Qualifier] = qualifierHasher{}

var hashHasher = immutable.NewHasher("")

type qualifierHasher struct{}

func (qualifierHasher) Hash(q Qualifier) uint32 { return hashHasher.Hash(q.Hash()) }

func (qualifierHasher) Equal(a, b Qualifier) bool {
	return SameQualifier(a, b)
}
