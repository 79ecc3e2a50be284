package stack

// Managed is the slice-backed counterpart of Manual. It enforces the same
// capacity limit so the two are interchangeable to callers.
type Managed[T any] struct {
	elements []T
	capacity int
}

func NewManaged[T any](capacity int) *Managed[T] {
	checkCapacity(capacity)
	return &Managed[T]{
		elements: make([]T, 0, capacity),
		capacity: capacity,
	}
}

func (s *Managed[T]) Push(value T) {
	if len(s.elements) >= s.capacity {
		fatal(ErrOverflow, "push onto full stack (capacity %d)", s.capacity)
	}
	s.elements = append(s.elements, value)
}

func (s *Managed[T]) Pop() (v T, ok bool) {
	var zero T
	n := len(s.elements)
	if n == 0 {
		return zero, false
	}

	v = s.elements[n-1]
	s.elements[n-1] = zero
	s.elements = s.elements[:n-1]
	return v, true
}

func (s *Managed[T]) Len() int {
	return len(s.elements)
}

func (s *Managed[T]) IsEmpty() bool {
	return len(s.elements) == 0
}

func (s *Managed[T]) Cap() int {
	return s.capacity
}
