package model

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-gpu/engine/geometry"
	"github.com/Carmen-Shannon/oxy-gpu/engine/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoxBounds(t *testing.T) {
	m := NewMesh(WithName("crate"), Box(30, 100, 1234))

	assert.Equal(t, "crate", m.Name())
	assert.Equal(t, 12, m.TrianglesCount())
	assert.Len(t, m.VerticesX(), 8)
	assert.Nil(t, m.FaceTextures())

	// sqrt(30² + 30²) = 42.43
	assert.Equal(t, 43, m.XYZMag())
	assert.Equal(t, 100, m.ModelHeight())
	assert.Equal(t, 0, m.BottomY())
	// sqrt(43² + 100²) = 108.85
	assert.Equal(t, 109, m.Radius())
	assert.Equal(t, -1, m.UVBufferOffset())
	assert.Same(t, m, m.Model())
}

func TestCalculateExtreme(t *testing.T) {
	m := NewMesh(WithVertices(Vertex{100, -10, 0}, Vertex{0, 5, 50}))

	m.CalculateExtreme(0)
	assert.Equal(t, Extremes{MinX: 0, MaxX: 100, MinZ: 0, MaxZ: 50, MinY: -10, MaxY: 5}, m.Extremes())

	// A quarter turn maps (x, z) to (z, -x).
	m.CalculateExtreme(512)
	e := m.Extremes()
	assert.InDelta(t, 0, e.MinX, 1)
	assert.InDelta(t, 50, e.MaxX, 1)
	assert.InDelta(t, -100, e.MinZ, 1)
	assert.InDelta(t, 0, e.MaxZ, 1)
}

func TestTexturedFacesBackfill(t *testing.T) {
	m := NewMesh(
		WithVertices(Vertex{0, 0, 0}, Vertex{1, 0, 0}, Vertex{0, 0, 1}),
		WithFaces(
			Face{A: 0, B: 1, C: 2, Color1: 1, Color2: 2, Color3: 3, Texture: Untextured},
			Face{A: 0, B: 2, C: 1, Color1: 4, Color2: 5, Color3: 6, Texture: 7, U: [3]float32{0, 1, 0}, V: [3]float32{0, 0, 1}},
		),
	)
	require.Len(t, m.FaceTextures(), 2)
	assert.Equal(t, []int16{Untextured, 7}, m.FaceTextures())
	assert.Len(t, m.FaceTextureUCoordinates(), 2)
	assert.Equal(t, [3]float32{0, 1, 0}, m.FaceTextureUCoordinates()[1])
}

func TestMeshPushesThroughSceneFaces(t *testing.T) {
	m := NewMesh(Box(64, 64, 99))
	vb := geometry.NewBuffer[int32](0)
	uv := geometry.NewBuffer[float32](0)

	written := 0
	for f := range m.TrianglesCount() {
		written += scene.PushFace(m, f, vb, uv)
	}
	assert.Equal(t, 36, written)
	assert.Equal(t, 36*4, vb.Len())
	assert.Zero(t, uv.Len())

	vb.Flip()
	v := vb.Values()
	_, _, hsl := UnpackColor(v[3])
	assert.Equal(t, int32(99), hsl)
}

func TestPackColor(t *testing.T) {
	c := PackColor(200, 7, 0x1234)
	a, p, hsl := UnpackColor(c)
	assert.Equal(t, byte(200), a)
	assert.Equal(t, byte(7), p)
	assert.Equal(t, int32(0x1234), hsl)

	b := GPUVertex{X: 1, Y: -2, Z: 3, Color: c}.Marshal(nil)
	assert.Len(t, b, VertexSize)
	assert.Equal(t, []byte{1, 0, 0, 0}, b[:4])
	assert.Equal(t, []byte{0xfe, 0xff, 0xff, 0xff}, b[4:8])
	assert.Len(t, GPUUV{Texture: 3, U: 0.5}.Marshal(nil), UVSize)
}
