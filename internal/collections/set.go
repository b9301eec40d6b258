package collections

import (
	"cmp"
	"fmt"
	"slices"
)

// Set is a generic set backed by a map with zero-size values
type Set[T comparable] map[T]struct{}

// NewSet creates a Set holding the given values
func NewSet[T comparable](vs ...T) Set[T] {
	s := Set[T]{}
	s.Add(vs...)
	return s
}

// Add inserts values into the set
func (s Set[T]) Add(vs ...T) {
	for _, v := range vs {
		s[v] = struct{}{}
	}
}

// Insert adds a single value and reports whether it was not already present
func (s Set[T]) Insert(v T) bool {
	if _, ok := s[v]; ok {
		return false
	}
	s[v] = struct{}{}
	return true
}

// Delete removes a value from the set
func (s Set[T]) Delete(v T) {
	delete(s, v)
}

// Has reports whether the set contains v
func (s Set[T]) Has(v T) bool {
	_, ok := s[v]
	return ok
}

// Members returns all values in the set, in no particular order
func (s Set[T]) Members() []T {
	r := make([]T, 0, len(s))
	for v := range s {
		r = append(r, v)
	}
	return r
}

// String returns a string representation of the set
func (s Set[T]) String() string {
	return fmt.Sprintf("%v", s.Members())
}

// Sorted returns the members of an ordered set in ascending order
func Sorted[T cmp.Ordered](s Set[T]) []T {
	r := s.Members()
	slices.Sort(r)
	return r
}
