package stack

// Stack is a LIFO over a growable slice. The zero value is ready to use.
type Stack[T any] struct {
	a []T
}

// New creates a stack holding elm, with the last element on top
func New[T any](elm ...T) *Stack[T] {
	s := &Stack[T]{a: make([]T, 0, len(elm))}
	s.a = append(s.a, elm...)
	return s
}

// Push adds an element to the top of the stack
func (s *Stack[T]) Push(elm T) {
	s.a = append(s.a, elm)
}

// Pop removes and returns the top element of the stack
func (s *Stack[T]) Pop() (T, bool) {
	var zero T
	if len(s.a) == 0 {
		return zero, false
	}

	elm := s.a[len(s.a)-1]
	s.a[len(s.a)-1] = zero
	s.a = s.a[:len(s.a)-1]

	return elm, true
}

// Drop removes the top n elements
func (s *Stack[T]) Drop(n int) {
	if n > len(s.a) {
		n = len(s.a)
	}

	var zero T
	for i := len(s.a) - n; i < len(s.a); i++ {
		s.a[i] = zero
	}
	s.a = s.a[:len(s.a)-n]
}

// Peek returns the top element of the stack without removing it
func (s *Stack[T]) Peek() (T, bool) {
	var zero T
	if len(s.a) == 0 {
		return zero, false
	}

	return s.a[len(s.a)-1], true
}

// FromTop returns the element i positions below the top (0 is the top)
func (s *Stack[T]) FromTop(i int) (T, bool) {
	var zero T
	if i < 0 || i >= len(s.a) {
		return zero, false
	}

	return s.a[len(s.a)-1-i], true
}

// At returns the element at index i counted from the bottom
func (s *Stack[T]) At(i int) T {
	return s.a[i]
}

// Size returns the number of elements on the stack
func (s *Stack[T]) Size() int {
	return len(s.a)
}

// Array returns the underlying array of the stack, bottom first
func (s *Stack[T]) Array() []T {
	return s.a
}
