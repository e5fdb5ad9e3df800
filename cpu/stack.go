// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

const (
	STACK_LIMIT = 256 // Default maximum stack depth
)

// Stack is a bounded LIFO of 16-bit values.
// A zero Limit is treated as STACK_LIMIT.
type Stack struct {
	Limit int
	Data  []uint16
}

func (s *Stack) limit() int {
	if s.Limit <= 0 {
		return STACK_LIMIT
	}
	return s.Limit
}

// Push appends a value, returning ErrStackOverflow if the stack is full.
func (s *Stack) Push(value uint16) (err error) {
	if s.Full() {
		return ErrStackOverflow
	}
	s.Data = append(s.Data, value)
	return
}

// Pop removes the top of the stack, returning ErrStackUnderflow if empty.
func (s *Stack) Pop() (value uint16, err error) {
	value, ok := s.Peek()
	if !ok {
		err = ErrStackUnderflow
		return
	}
	s.Data = s.Data[:len(s.Data)-1]
	return
}

func (s *Stack) Len() int {
	return len(s.Data)
}

func (s *Stack) Empty() bool {
	return len(s.Data) == 0
}

func (s *Stack) Full() bool {
	return len(s.Data) >= s.limit()
}

func (s *Stack) Peek() (value uint16, ok bool) {
	if s.Empty() {
		return
	}

	return s.Data[len(s.Data)-1], true
}

func (s *Stack) Reset() {
	if len(s.Data) > 0 {
		s.Data = s.Data[:0]
	}
}
