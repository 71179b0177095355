package geometry

import (
	"github.com/Carmen-Shannon/oxy-gpu/common"
	"golang.org/x/exp/constraints"
)

// Number is the set of element types a Buffer can stage.
type Number interface {
	constraints.Integer | constraints.Float
}

// Buffer is a growable, append-only staging area for vertex and UV data.
// It alternates between write mode, where values are appended with Put, and read mode, entered with Flip,
// where the staged values are exposed for upload. Clear returns it to write mode with its capacity retained.
type Buffer[T Number] struct {
	data    []T
	reading bool
}

// NewBuffer creates a Buffer in write mode with room for initial values.
//
// Parameters:
//   - initial: the starting capacity in elements, negative values are treated as zero
//
// Returns:
//   - *Buffer[T]: the new empty buffer
func NewBuffer[T Number](initial int) *Buffer[T] {
	return &Buffer[T]{data: make([]T, 0, max(initial, 0))}
}

// EnsureCapacity guarantees that n more values can be appended without reallocating.
// Capacity grows by doubling until the request fits.
//
// Parameters:
//   - n: the number of additional values that must fit
func (b *Buffer[T]) EnsureCapacity(n int) {
	need := len(b.data) + n
	if need <= cap(b.data) {
		return
	}
	newCap := max(cap(b.data), 1)
	for newCap < need {
		newCap *= 2
	}
	grown := make([]T, len(b.data), newCap)
	copy(grown, b.data)
	b.data = grown
}

// Put appends values to the buffer, growing it when needed.
// Put panics when the buffer is in read mode.
//
// Parameters:
//   - values: the values to append
func (b *Buffer[T]) Put(values ...T) {
	if b.reading {
		panic("geometry: Put on a flipped buffer")
	}
	b.EnsureCapacity(len(values))
	b.data = append(b.data, values...)
}

// Flip switches the buffer to read mode, freezing its length.
func (b *Buffer[T]) Flip() {
	b.reading = true
}

// Clear empties the buffer and returns it to write mode. Capacity is kept.
func (b *Buffer[T]) Clear() {
	b.data = b.data[:0]
	b.reading = false
}

// Reading reports whether the buffer is in read mode.
func (b *Buffer[T]) Reading() bool {
	return b.reading
}

// Len returns the number of staged values.
func (b *Buffer[T]) Len() int {
	return len(b.data)
}

// Cap returns the number of values the buffer can hold before growing.
func (b *Buffer[T]) Cap() int {
	return cap(b.data)
}

// Values returns the staged values. The slice aliases the buffer and is only valid until the next Clear.
func (b *Buffer[T]) Values() []T {
	return b.data
}

// Bytes returns a byte view of the staged values for upload. The view aliases the buffer.
func (b *Buffer[T]) Bytes() []byte {
	return common.SliceToBytes(b.data)
}
