// Package hset implements a set of hashable elements, JVM style
package hset

import (
	"iter"

	"github.com/benbjohnson/immutable"
)

// HSet is a shallow wrapper around a map of hash buckets.
// Elements are equal when the hasher says so, which lets
// non-comparable values (like qualifiers holding slices) be stored.
// use immutable.Set if you are not going to be modifying this
type HSet[A any] struct {
	hasher     immutable.Hasher[A]
	underlying map[uint32][]A
	size       *int
}

func Empty[A any](hasher immutable.Hasher[A]) HSet[A] {
	return HSet[A]{
		hasher:     hasher,
		underlying: make(map[uint32][]A),
		size:       new(int),
	}
}

func New[A any](hasher immutable.Hasher[A], elems ...A) HSet[A] {
	n := Empty(hasher)
	n.Add(elems...)
	return n
}

func (s HSet[A]) Add(elems ...A) {
	for _, elem := range elems {
		h := s.hasher.Hash(elem)
		if s.containsIn(h, elem) {
			continue
		}
		s.underlying[h] = append(s.underlying[h], elem)
		*s.size++
	}
}

func (s HSet[A]) Remove(elems ...A) {
	for _, elem := range elems {
		h := s.hasher.Hash(elem)
		bucket := s.underlying[h]
		for i, other := range bucket {
			if s.hasher.Equal(elem, other) {
				bucket = append(bucket[:i], bucket[i+1:]...)
				*s.size--
				break
			}
		}
		if len(bucket) == 0 {
			delete(s.underlying, h)
		} else {
			s.underlying[h] = bucket
		}
	}
}

func (s HSet[A]) Contains(elem A) bool {
	return s.containsIn(s.hasher.Hash(elem), elem)
}

func (s HSet[A]) containsIn(h uint32, elem A) bool {
	for _, other := range s.underlying[h] {
		if s.hasher.Equal(elem, other) {
			return true
		}
	}
	return false
}

func (s HSet[A]) Len() int {
	return *s.size
}

func (s HSet[A]) All() iter.Seq[A] {
	return func(yield func(A) bool) {
		for _, bucket := range s.underlying {
			for _, elem := range bucket {
				if !yield(elem) {
					return
				}
			}
		}
	}
}

func (s HSet[A]) Immutable() immutable.Set[A] {
	var elems []A
	for elem := range s.All() {
		elems = append(elems, elem)
	}
	return immutable.NewSet(s.hasher, elems...)
}
