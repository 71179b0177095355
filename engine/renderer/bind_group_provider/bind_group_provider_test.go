package bind_group_provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewBindGroupProviderLabel(t *testing.T) {
	p := NewBindGroupProvider("camera")
	assert.Equal(t, "camera", p.Label())
	assert.Nil(t, p.BindGroup())
	assert.Nil(t, p.Buffer(0))
}

func TestBorrowedBindings(t *testing.T) {
	p := NewBindGroupProvider("frame", WithBorrowedBuffer(0, nil))
	assert.True(t, p.Borrowed(0))
	assert.False(t, p.Borrowed(1))

	p.SetBuffer(0, nil)
	assert.False(t, p.Borrowed(0))

	p.BorrowTextureView(2, nil)
	p.BorrowSampler(3, nil)
	assert.True(t, p.Borrowed(2))
	assert.True(t, p.Borrowed(3))
}

func TestReleaseDropsEverything(t *testing.T) {
	p := NewBindGroupProvider("empty", WithBorrowedBuffer(4, nil))
	p.SetTexture(0, nil, nil)
	assert.NotPanics(t, p.Release)
	assert.False(t, p.Borrowed(4))
	assert.Nil(t, p.TextureView(0))
}

func TestBufferWritePending(t *testing.T) {
	p := NewBindGroupProvider("uniforms")
	assert.False(t, BufferWrite{Provider: p, Data: []byte{1}}.Pending())
	assert.False(t, BufferWrite{}.Pending())
}
