package scene

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-gpu/engine/geometry"
	"github.com/Carmen-Shannon/oxy-gpu/engine/host/hosttest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStaging() (*geometry.Buffer[int32], *geometry.Buffer[float32]) {
	return geometry.NewBuffer[int32](0), geometry.NewBuffer[float32](0)
}

func TestPushFaceFlatShading(t *testing.T) {
	m := hosttest.NewTriangleModel(2)
	m.Color1[1] = 0x1234
	vb, uv := newStaging()

	require.Equal(t, 3, PushFace(m, 1, vb, uv))
	assert.Equal(t, []int32{
		1, 0, 0, 0x1234,
		1, 1, 0, 0x1234,
		1, 0, 1, 0x1234,
	}, vb.Values())
	assert.Equal(t, 0, uv.Len())
}

func TestPushFaceGouraud(t *testing.T) {
	m := hosttest.NewTriangleModel(1)
	m.Color1[0], m.Color2[0], m.Color3[0] = 10, 20, 30
	vb, uv := newStaging()

	PushFace(m, 0, vb, uv)
	v := vb.Values()
	assert.Equal(t, []int32{10, 20, 30}, []int32{v[3], v[7], v[11]})
}

func TestPushFaceHiddenDropped(t *testing.T) {
	m := hosttest.NewTriangleModel(1)
	m.Color3[0] = hiddenColor
	vb, uv := newStaging()

	assert.Equal(t, 0, PushFace(m, 0, vb, uv))
	assert.Equal(t, 0, vb.Len())
}

func TestPushFaceMissingVertexDropped(t *testing.T) {
	m := hosttest.NewTriangleModel(1)
	m.FC[0] = 99
	vb, uv := newStaging()

	assert.Equal(t, 0, PushFace(m, 0, vb, uv))
	assert.Equal(t, 0, vb.Len())
}

func TestPushFacePacksAlphaAndPriority(t *testing.T) {
	m := hosttest.NewTriangleModel(1)
	m.Color1[0] = 0x55
	m.Transparencies = []byte{0x80}
	m.Priorities = []byte{0x07}
	vb, uv := newStaging()

	PushFace(m, 0, vb, uv)
	assert.Equal(t, int32(-0x80000000|0x07<<16|0x55), vb.Values()[3])
}

func TestPushFaceTextured(t *testing.T) {
	m := hosttest.NewTriangleModel(2).Textured(4)
	m.Textures[1] = -1
	m.Transparencies = []byte{0xFF, 0xFF}
	vb, uv := newStaging()

	PushFace(m, 0, vb, uv)
	PushFace(m, 1, vb, uv)

	assert.Equal(t, []float32{
		5, 0, 0, 0,
		5, 1, 0, 0,
		5, 0, 1, 0,
		0, 0, 0, 0,
		0, 0, 0, 0,
		0, 0, 0, 0,
	}, uv.Values())
	// textured faces ignore transparency, untextured faces of a textured model keep it
	assert.Equal(t, int32(0), vb.Values()[3]>>24)
	assert.Equal(t, int32(-1), vb.Values()[15]>>24)
}
