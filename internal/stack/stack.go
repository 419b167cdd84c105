package stack

// Stack is a LIFO stack. The zero value is ready to use.
type Stack[T any] struct {
	items []T
}

func (s *Stack[T]) Push(v T) {
	s.items = append(s.items, v)
}

// Pop removes the top-most item. It returns false if the stack was empty
func (s *Stack[T]) Pop() (T, bool) {
	var zero T
	l := len(s.items)
	if l == 0 {
		return zero, false
	}
	v := s.items[l-1]
	s.items[l-1] = zero
	s.items = s.items[:l-1]

	if c := cap(s.items); c > 20 && c > len(s.items)*2 {
		s.items = append([]T(nil), s.items...)
	}
	return v, true
}

// Peek returns the top-most item without removing it
func (s *Stack[T]) Peek() (T, bool) {
	var zero T
	if len(s.items) == 0 {
		return zero, false
	}
	return s.items[len(s.items)-1], true
}

// At returns the n-th item from the bottom of the stack
func (s *Stack[T]) At(n int) T {
	return s.items[n]
}

func (s *Stack[T]) Len() int {
	return len(s.items)
}

// Reset drops all items while keeping the allocated storage
func (s *Stack[T]) Reset() {
	var zero T
	for i := range s.items {
		s.items[i] = zero
	}
	s.items = s.items[:0]
}
