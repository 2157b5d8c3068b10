package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestStack_EmptyHistory(t *testing.T) {
	s := NewStack[int]()
	assert.False(t, s.CanUndo())
	assert.False(t, s.CanRedo())

	_, err := s.Undo()
	assert.ErrorIs(t, err, ErrEmptyHistory)
	_, err = s.Redo()
	assert.ErrorIs(t, err, ErrEmptyHistory)
	_, err = s.Pop()
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestStack_UndoRedoPush(t *testing.T) {
	s := NewStack[string]()
	s.Push("a")
	s.Push("b")

	v, err := s.Undo()
	require.NoError(t, err)
	assert.Equal(t, "b", v)
	assert.Equal(t, 1, s.Len())
	assert.True(t, s.CanRedo())

	v, err = s.Redo()
	require.NoError(t, err)
	assert.Equal(t, "b", v)
	top, ok := s.Peek()
	require.True(t, ok)
	assert.Equal(t, "b", top)
	assert.False(t, s.CanRedo())
}

func TestStack_UndoRedoPop(t *testing.T) {
	s := NewStack[int]()
	s.Push(1)
	s.Push(2)

	v, err := s.Pop()
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, s.Len())

	v, err = s.Undo()
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, 2, s.Len())

	v, err = s.Redo()
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, s.Len())

	// Undo the pop, then both pushes.
	for _, want := range []int{2, 2, 1} {
		v, err = s.Undo()
		require.NoError(t, err)
		assert.Equal(t, want, v)
	}
	assert.Equal(t, 0, s.Len())
	assert.False(t, s.CanUndo())
}

func TestStack_PushClearsRedo(t *testing.T) {
	s := NewStack[int]()
	s.Push(1)
	s.Push(2)
	_, err := s.Undo()
	require.NoError(t, err)
	require.True(t, s.CanRedo())

	s.Push(3)
	assert.False(t, s.CanRedo())
	_, err = s.Redo()
	assert.ErrorIs(t, err, ErrEmptyHistory)
}

func TestStack_PopClearsRedo(t *testing.T) {
	s := NewStack[int]()
	s.Push(1)
	s.Push(2)
	_, err := s.Undo()
	require.NoError(t, err)

	_, err = s.Pop()
	require.NoError(t, err)
	assert.False(t, s.CanRedo())
}

// Undoing every operation always returns to the empty stack, and redoing all
// of them restores the final contents.
func TestStack_UndoAllRedoAll(t *testing.T) {
	rapid.Check(t, func(tt *rapid.T) {
		s := NewStack[int]()
		ops := rapid.SliceOfN(rapid.IntRange(-1, 100), 1, 50).Draw(tt, "ops")
		performed := 0
		for _, o := range ops {
			if o < 0 {
				if _, err := s.Pop(); err == nil {
					performed++
				}
				continue
			}
			s.Push(o)
			performed++
		}
		final := append([]int(nil), s.items...)

		for i := 0; i < performed; i++ {
			_, err := s.Undo()
			require.NoError(tt, err)
		}
		assert.Equal(tt, 0, s.Len())
		assert.False(tt, s.CanUndo())

		for i := 0; i < performed; i++ {
			_, err := s.Redo()
			require.NoError(tt, err)
		}
		assert.Equal(tt, final, append([]int(nil), s.items...))
		assert.False(tt, s.CanRedo())
	})
}
