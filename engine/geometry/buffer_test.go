package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferPutAndFlip(t *testing.T) {
	b := NewBuffer[int32](2)
	b.Put(1, 2, 3)
	b.Put(4)
	b.Flip()

	assert.True(t, b.Reading())
	assert.Equal(t, 4, b.Len())
	assert.Equal(t, []int32{1, 2, 3, 4}, b.Values())
	assert.Len(t, b.Bytes(), 16)
}

func TestBufferEnsureCapacityDoubles(t *testing.T) {
	b := NewBuffer[float32](4)
	b.Put(1, 2, 3)

	b.EnsureCapacity(1)
	assert.Equal(t, 4, b.Cap())

	b.EnsureCapacity(2)
	assert.Equal(t, 8, b.Cap())

	b.EnsureCapacity(30)
	assert.Equal(t, 64, b.Cap())
	assert.Equal(t, []float32{1, 2, 3}, b.Values())
}

func TestBufferEnsureCapacityFromZero(t *testing.T) {
	b := NewBuffer[int32](0)
	b.EnsureCapacity(5)
	assert.GreaterOrEqual(t, b.Cap(), 5)
	assert.Equal(t, 0, b.Len())
}

func TestBufferClearKeepsCapacity(t *testing.T) {
	b := NewBuffer[int32](0)
	b.Put(make([]int32, 100)...)
	c := b.Cap()
	b.Flip()
	b.Clear()

	assert.False(t, b.Reading())
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, c, b.Cap())
	assert.Nil(t, b.Bytes())
}

func TestBufferPutAfterFlipPanics(t *testing.T) {
	b := NewBuffer[int32](4)
	b.Flip()
	require.Panics(t, func() { b.Put(1) })
}

func TestBufferBytesLittleEndian(t *testing.T) {
	b := NewBuffer[int32](1)
	b.Put(0x01020304)
	assert.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, b.Bytes())
}
