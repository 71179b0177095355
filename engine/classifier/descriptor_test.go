package classifier

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagsPack(t *testing.T) {
	f := Flags{SceneBuffer: true, Radius: 0xABC, Orientation: 0x123}
	assert.Equal(t, uint32(0x80ABC123), f.Pack())
	assert.Equal(t, f, UnpackFlags(f.Pack()))

	assert.Equal(t, uint32(0), Flags{}.Pack())
	// out-of-range fields are truncated to 12 bits
	assert.Equal(t, uint32(0x1FFF), Flags{Radius: 0x1001, Orientation: 0xFFFF}.Pack())
}

func TestBucketFor(t *testing.T) {
	assert.Equal(t, Small, BucketFor(0))
	assert.Equal(t, Small, BucketFor(511))
	assert.Equal(t, Large, BucketFor(512))
	assert.Equal(t, "large", Large.String())
	assert.Equal(t, "unknown", Bucket(9).String())
}

func TestDescriptorMarshal(t *testing.T) {
	d := DrawDescriptor{
		VertexOffset:  1,
		UVOffset:      NoUV,
		TriangleCount: 3,
		TargetOffset:  4,
		Flags:         Flags{SceneBuffer: true, Orientation: 5},
		X:             -6,
		Y:             7,
		Z:             8,
	}
	b := d.Marshal(nil)
	require.Len(t, b, DescriptorSize)

	word := func(i int) uint32 { return binary.LittleEndian.Uint32(b[i*4:]) }
	assert.Equal(t, uint32(1), word(0))
	assert.Equal(t, uint32(0xFFFFFFFF), word(1))
	assert.Equal(t, uint32(3), word(2))
	assert.Equal(t, uint32(4), word(3))
	assert.Equal(t, uint32(0x80000005), word(4))
	assert.Equal(t, int32(-6), int32(word(5)))
	assert.Equal(t, uint32(8), word(7))

	assert.Nil(t, MarshalDescriptors(nil))
	assert.Len(t, MarshalDescriptors([]DrawDescriptor{d, d}), 2*DescriptorSize)
}
