// Package ordering provides the list primitives used to keep newsletter items
// in a dense, position-ordered sequence.
package ordering

import (
	"errors"
	"fmt"
)

// ErrIndexOutOfRange is returned when an index falls outside [0, len(list)).
var ErrIndexOutOfRange = errors.New("index out of range")

// Reorder returns a new slice with the element at from removed and reinserted at to.
// The to index is measured against the list with the element already removed,
// which matches splice semantics. The input slice is never modified.
func Reorder[T any](list []T, from, to int) ([]T, error) {
	if from < 0 || from >= len(list) {
		return nil, fmt.Errorf("reorder from %d (len %d): %w", from, len(list), ErrIndexOutOfRange)
	}
	if to < 0 || to >= len(list) {
		return nil, fmt.Errorf("reorder to %d (len %d): %w", to, len(list), ErrIndexOutOfRange)
	}

	result := make([]T, 0, len(list))
	result = append(result, list[:from]...)
	result = append(result, list[from+1:]...)

	moved := list[from]
	result = append(result, moved)
	copy(result[to+1:], result[to:len(result)-1])
	result[to] = moved

	return result, nil
}

// InsertAt returns a new slice with item inserted at index.
// The index is clamped to [0, len(list)], so an index past the end appends.
func InsertAt[T any](list []T, item T, index int) []T {
	index = Clamp(index, len(list))

	result := make([]T, 0, len(list)+1)
	result = append(result, list[:index]...)
	result = append(result, item)
	result = append(result, list[index:]...)

	return result
}

// RemoveAt returns a new slice without the element at index.
func RemoveAt[T any](list []T, index int) ([]T, error) {
	if index < 0 || index >= len(list) {
		return nil, fmt.Errorf("remove at %d (len %d): %w", index, len(list), ErrIndexOutOfRange)
	}

	result := make([]T, 0, len(list)-1)
	result = append(result, list[:index]...)
	result = append(result, list[index+1:]...)

	return result, nil
}

// Clamp limits index to the insertion range [0, length].
func Clamp(index, length int) int {
	if index < 0 {
		return 0
	}
	if index > length {
		return length
	}
	return index
}
