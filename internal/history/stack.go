// Package history implements a multi-level undo/redo log over stack mutations.
package history

import "errors"

var (
	ErrEmpty        = errors.New("stack is empty")
	ErrEmptyHistory = errors.New("no operations in history")
)

type op int

const (
	opPush op = iota
	opPop
)

// mark is one history entry. For pushes undone into the redo log, and for
// pops in the undo log, value holds the element that left the live stack.
type mark[T any] struct {
	op    op
	value T
}

// Stack is a LIFO sequence whose pushes and pops can be undone and redone.
// Any new Push or Pop discards the redo log.
type Stack[T any] struct {
	items []T
	undo  []mark[T]
	redo  []mark[T]
}

func NewStack[T any]() *Stack[T] {
	return &Stack[T]{}
}

func (s *Stack[T]) Push(value T) {
	s.items = append(s.items, value)
	s.undo = append(s.undo, mark[T]{op: opPush})
	s.redo = nil
}

func (s *Stack[T]) Pop() (T, error) {
	value, err := s.take()
	if err != nil {
		return value, err
	}
	s.undo = append(s.undo, mark[T]{op: opPop, value: value})
	s.redo = nil
	return value, nil
}

// Peek returns the top of the live stack without recording anything.
func (s *Stack[T]) Peek() (T, bool) {
	if len(s.items) == 0 {
		var zero T
		return zero, false
	}
	return s.items[len(s.items)-1], true
}

func (s *Stack[T]) Len() int {
	return len(s.items)
}

func (s *Stack[T]) CanUndo() bool {
	return len(s.undo) > 0
}

func (s *Stack[T]) CanRedo() bool {
	return len(s.redo) > 0
}

// Undo reverts the most recent Push or Pop and returns the value it moved.
func (s *Stack[T]) Undo() (T, error) {
	var zero T
	if !s.CanUndo() {
		return zero, ErrEmptyHistory
	}

	m := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]

	switch m.op {
	case opPush:
		value, err := s.take()
		if err != nil {
			return zero, err
		}
		s.redo = append(s.redo, mark[T]{op: opPush, value: value})
		return value, nil
	case opPop:
		s.items = append(s.items, m.value)
		s.redo = append(s.redo, mark[T]{op: opPop})
		return m.value, nil
	}
	return zero, nil
}

// Redo re-applies the most recently undone operation and returns the value it moved.
func (s *Stack[T]) Redo() (T, error) {
	var zero T
	if !s.CanRedo() {
		return zero, ErrEmptyHistory
	}

	m := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]

	switch m.op {
	case opPush:
		s.items = append(s.items, m.value)
		s.undo = append(s.undo, mark[T]{op: opPush})
		return m.value, nil
	case opPop:
		value, err := s.take()
		if err != nil {
			return zero, err
		}
		s.undo = append(s.undo, mark[T]{op: opPop, value: value})
		return value, nil
	}
	return zero, nil
}

func (s *Stack[T]) take() (T, error) {
	var zero T
	if len(s.items) == 0 {
		return zero, ErrEmpty
	}
	value := s.items[len(s.items)-1]
	s.items[len(s.items)-1] = zero
	s.items = s.items[:len(s.items)-1]
	return value, nil
}
