// Package model holds the scene's GPU vertex layout and Mesh, an in-memory host.Model for clients
// that do not bring their own model type.
package model

import (
	"math"

	"github.com/Carmen-Shannon/oxy-gpu/common"
	"github.com/Carmen-Shannon/oxy-gpu/engine/host"
)

// Extremes is the horizontal footprint of a mesh rotated by an orientation, plus its height.
type Extremes struct {
	MinX, MaxX int
	MinZ, MaxZ int
	MinY, MaxY int
}

// mesh is the implementation of the Mesh interface.
type mesh struct {
	name string

	vx, vy, vz             []int32
	fa, fb, fc             []int32
	color1, color2, color3 []int32
	alphas, priorities     []byte
	textures               []int16
	us, vs                 [][3]float32

	sceneID        int
	bufferOffset   int
	uvBufferOffset int
	bufferLen      int

	xyzMag      int
	modelHeight int
	bottomY     int
	radius      int
	extremes    Extremes
}

// Mesh is a triangle model held in memory. It satisfies host.Model, so it can be pushed into the
// scene buffers and drawn as a temporary or resident model.
type Mesh interface {
	host.Model

	// Name returns the mesh's name.
	Name() string

	// BottomY returns the lowest point below the model origin, set by CalculateBoundsCylinder.
	BottomY() int

	// Extremes returns the footprint computed by the last CalculateExtreme call.
	Extremes() Extremes
}

var _ Mesh = &mesh{}

// NewMesh creates a Mesh from builder options and computes its bounds.
//
// Parameters:
//   - options: functional options supplying vertices and faces
//
// Returns:
//   - Mesh: the mesh
func NewMesh(options ...MeshBuilderOption) Mesh {
	m := &mesh{
		uvBufferOffset: -1,
	}
	for _, opt := range options {
		opt(m)
	}
	m.CalculateBoundsCylinder()
	return m
}

func (m *mesh) Name() string { return m.name }

func (m *mesh) Model() host.Model { return m }

func (m *mesh) VerticesX() []int32                    { return m.vx }
func (m *mesh) VerticesY() []int32                    { return m.vy }
func (m *mesh) VerticesZ() []int32                    { return m.vz }
func (m *mesh) TrianglesX() []int32                   { return m.fa }
func (m *mesh) TrianglesY() []int32                   { return m.fb }
func (m *mesh) TrianglesZ() []int32                   { return m.fc }
func (m *mesh) FaceColors1() []int32                  { return m.color1 }
func (m *mesh) FaceColors2() []int32                  { return m.color2 }
func (m *mesh) FaceColors3() []int32                  { return m.color3 }
func (m *mesh) FaceTransparencies() []byte            { return m.alphas }
func (m *mesh) FaceRenderPriorities() []byte          { return m.priorities }
func (m *mesh) FaceTextures() []int16                 { return m.textures }
func (m *mesh) FaceTextureUCoordinates() [][3]float32 { return m.us }
func (m *mesh) FaceTextureVCoordinates() [][3]float32 { return m.vs }

func (m *mesh) BufferOffset() int            { return m.bufferOffset }
func (m *mesh) SetBufferOffset(offset int)   { m.bufferOffset = offset }
func (m *mesh) UVBufferOffset() int          { return m.uvBufferOffset }
func (m *mesh) SetUVBufferOffset(offset int) { m.uvBufferOffset = offset }
func (m *mesh) BufferLen() int               { return m.bufferLen }
func (m *mesh) SetBufferLen(length int)      { m.bufferLen = length }
func (m *mesh) SceneID() int                 { return m.sceneID }
func (m *mesh) SetSceneID(id int)            { m.sceneID = id }
func (m *mesh) TrianglesCount() int          { return len(m.fa) }
func (m *mesh) Radius() int                  { return m.radius }
func (m *mesh) XYZMag() int                  { return m.xyzMag }
func (m *mesh) ModelHeight() int             { return m.modelHeight }
func (m *mesh) SetModelHeight(height int)    { m.modelHeight = height }
func (m *mesh) BottomY() int                 { return m.bottomY }
func (m *mesh) Extremes() Extremes           { return m.extremes }

// CalculateBoundsCylinder computes the bounding cylinder around the Y axis. Heights are measured
// upward from the origin, so the model height is the most negative Y.
func (m *mesh) CalculateBoundsCylinder() {
	var magSq int64
	m.modelHeight, m.bottomY = 0, 0
	for i := range m.vx {
		x, y, z := int64(m.vx[i]), int(m.vy[i]), int64(m.vz[i])
		magSq = max(magSq, x*x+z*z)
		m.modelHeight = max(m.modelHeight, -y)
		m.bottomY = max(m.bottomY, y)
	}
	m.xyzMag = ceilSqrt(float64(magSq))
	mag := float64(m.xyzMag)
	m.radius = ceilSqrt(mag*mag + float64(m.modelHeight)*float64(m.modelHeight))
}

// CalculateExtreme computes the footprint of the mesh rotated by orientation, for click boxes.
func (m *mesh) CalculateExtreme(orientation int) {
	if len(m.vx) == 0 {
		m.extremes = Extremes{}
		return
	}
	a := common.AngleIndex(orientation)
	sin, cos := int64(common.Sine[a]), int64(common.Cosine[a])

	e := Extremes{MinX: math.MaxInt, MaxX: math.MinInt, MinZ: math.MaxInt, MaxZ: math.MinInt, MinY: math.MaxInt, MaxY: math.MinInt}
	for i := range m.vx {
		x, y, z := int64(m.vx[i]), int(m.vy[i]), int64(m.vz[i])
		rx := int((z*sin + x*cos) >> 16)
		rz := int((z*cos - x*sin) >> 16)
		e.MinX, e.MaxX = min(e.MinX, rx), max(e.MaxX, rx)
		e.MinZ, e.MaxZ = min(e.MinZ, rz), max(e.MaxZ, rz)
		e.MinY, e.MaxY = min(e.MinY, y), max(e.MaxY, y)
	}
	m.extremes = e
}

func ceilSqrt(v float64) int {
	return int(math.Sqrt(v) + 0.99)
}
