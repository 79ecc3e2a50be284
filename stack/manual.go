package stack

import "reflect"

// Dropper is implemented by element types that hold resources which must be
// cleaned up when a Manual stack is released while still holding them.
type Dropper interface {
	Drop()
}

type Option[T any] func(*Manual[T])

// WithDrop sets the cleanup run on each element still held at Release. It
// takes precedence over a Drop method on T.
func WithDrop[T any](fn func(T)) Option[T] {
	return func(s *Manual[T]) {
		s.drop = fn
	}
}

// Manual is a fixed-capacity stack over a raw slot region. Slots [0, length)
// hold live values; everything above length is never read.
//
// A Manual must be torn down with Release once it is no longer needed:
//
//	s := stack.NewManual[int](16)
//	defer s.Release()
type Manual[T any] struct {
	slab     slab[T]
	capacity int
	length   int
	drop     func(T)
	dropped  int // slots already torn down by an interrupted Release
	released bool
}

// NewManual allocates a stack with room for exactly capacity elements. It
// panics if capacity is not positive or the region cannot be allocated.
func NewManual[T any](capacity int, opts ...Option[T]) *Manual[T] {
	checkCapacity(capacity)
	s := &Manual[T]{
		slab:     allocSlab[T](arrayLayout[T](capacity)),
		capacity: capacity,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Push moves value into the first free slot. It panics if the stack is full.
func (s *Manual[T]) Push(value T) {
	s.mustBeLive()
	if s.length >= s.capacity {
		fatal(ErrOverflow, "push onto full stack (capacity %d)", s.capacity)
	}
	*s.slab.slot(s.length) = value
	s.length++
}

// Pop moves the top value out to the caller. The vacated slot is zeroed so the
// stack keeps no reference to it and never drops it.
func (s *Manual[T]) Pop() (T, bool) {
	s.mustBeLive()
	var zero T
	if s.length == 0 {
		return zero, false
	}
	s.length--
	p := s.slab.slot(s.length)
	v := *p
	*p = zero
	return v, true
}

func (s *Manual[T]) Len() int {
	return s.length - s.dropped
}

func (s *Manual[T]) IsEmpty() bool {
	return s.Len() == 0
}

func (s *Manual[T]) Cap() int {
	return s.capacity
}

// Release drops every live element exactly once, in ascending slot order, and
// then frees the region. The stack cannot be used afterwards; a second
// Release panics.
//
// Each slot is moved out and zeroed before its element is dropped. If a drop
// panics, Push and Pop are refused and calling Release again resumes with the
// next element.
func (s *Manual[T]) Release() {
	if s.released {
		fatal(ErrReleased, "stack of capacity %d", s.capacity)
	}
	drop := s.dropFunc()
	var zero T
	for s.dropped < s.length {
		p := s.slab.slot(s.dropped)
		v := *p
		*p = zero
		s.dropped++
		if drop != nil {
			drop(v)
		}
	}
	s.length = 0
	s.dropped = 0
	s.slab.free(arrayLayout[T](s.capacity))
	s.released = true
}

var dropperType = reflect.TypeFor[Dropper]()

// dropFunc returns nil when there is nothing to run for T.
func (s *Manual[T]) dropFunc() func(T) {
	if s.drop != nil {
		return s.drop
	}
	t := reflect.TypeFor[T]()
	if t.Kind() != reflect.Interface && !t.Implements(dropperType) {
		return nil
	}
	return func(v T) {
		if d, ok := any(v).(Dropper); ok {
			d.Drop()
		}
	}
}

func (s *Manual[T]) mustBeLive() {
	if s.released || s.dropped > 0 {
		fatal(ErrReleased, "stack of capacity %d", s.capacity)
	}
}
