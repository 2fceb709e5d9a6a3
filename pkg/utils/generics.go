package utils

import (
	"slices"
)

func Pointer[T any](t T) *T {
	return &t
}

func TransformSlice[E any, A ~[]E, T any](in A, m func(E) T) []T {
	r := make([]T, len(in))
	for i, v := range in {
		r[i] = m(v)
	}
	return r
}

func FilterSlice[E any, A ~[]E](in A, f func(E) bool) A {
	var r A
	for _, v := range in {
		if f(v) {
			r = append(r, v)
		}
	}
	return r
}

func AppendUnique[E comparable, A ~[]E](in A, add ...E) A {
	for _, v := range add {
		if !slices.Contains(in, v) {
			in = append(in, v)
		}
	}
	return in
}

// OrderedSet is a set remembering the insertion order of its elements.
type OrderedSet[E comparable] struct {
	index map[E]int
	list  []E
}

func NewOrderedSet[E comparable](elems ...E) *OrderedSet[E] {
	s := &OrderedSet[E]{index: map[E]int{}}
	s.Add(elems...)
	return s
}

// Add appends the elements not yet contained. It reports whether
// anything was added.
func (s *OrderedSet[E]) Add(elems ...E) bool {
	added := false
	for _, e := range elems {
		if _, ok := s.index[e]; !ok {
			s.index[e] = len(s.list)
			s.list = append(s.list, e)
			added = true
		}
	}
	return added
}

func (s *OrderedSet[E]) Has(e E) bool {
	_, ok := s.index[e]
	return ok
}

func (s *OrderedSet[E]) Len() int {
	return len(s.list)
}

// List returns the elements in insertion order.
func (s *OrderedSet[E]) List() []E {
	return slices.Clone(s.list)
}
