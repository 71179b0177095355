// Package hosttest provides in-memory implementations of the host contracts for tests and demos.
package hosttest

import "github.com/Carmen-Shannon/oxy-gpu/engine/host"

// Geometry is a settable scene buffer location.
type Geometry struct {
	Offset   int
	UVOffset int
	Len      int
}

func (g *Geometry) BufferOffset() int            { return g.Offset }
func (g *Geometry) SetBufferOffset(offset int)   { g.Offset = offset }
func (g *Geometry) UVBufferOffset() int          { return g.UVOffset }
func (g *Geometry) SetUVBufferOffset(offset int) { g.UVOffset = offset }
func (g *Geometry) BufferLen() int               { return g.Len }
func (g *Geometry) SetBufferLen(length int)      { g.Len = length }

// Model is a host.Model backed by plain slices.
type Model struct {
	Geometry

	VX, VY, VZ             []int32
	FA, FB, FC             []int32
	Color1, Color2, Color3 []int32
	Transparencies         []byte
	Priorities             []byte
	Textures               []int16
	TextureU, TextureV     [][3]float32

	Scene    int
	ModelRad int
	Mag      int
	Height   int
	Extremes []int
}

var _ host.Model = &Model{}

// NewTriangleModel builds a model of n flat-shaded triangles. Face i uses vertices 3i, 3i+1 and 3i+2,
// placed at (i, 0, 0), (i, 1, 0) and (i, 0, 1) with color i.
func NewTriangleModel(n int) *Model {
	m := &Model{}
	for i := range n {
		base := int32(3 * i)
		m.VX = append(m.VX, int32(i), int32(i), int32(i))
		m.VY = append(m.VY, 0, 1, 0)
		m.VZ = append(m.VZ, 0, 0, 1)
		m.FA = append(m.FA, base)
		m.FB = append(m.FB, base+1)
		m.FC = append(m.FC, base+2)
		m.Color1 = append(m.Color1, int32(i))
		m.Color2 = append(m.Color2, int32(i))
		m.Color3 = append(m.Color3, -1)
	}
	return m
}

// Textured gives every face of the model texture id tex and unit UVs.
func (m *Model) Textured(tex int16) *Model {
	m.Textures = make([]int16, len(m.FA))
	m.TextureU = make([][3]float32, len(m.FA))
	m.TextureV = make([][3]float32, len(m.FA))
	for i := range m.Textures {
		m.Textures[i] = tex
		m.TextureU[i] = [3]float32{0, 1, 0}
		m.TextureV[i] = [3]float32{0, 0, 1}
	}
	return m
}

func (m *Model) Model() host.Model                     { return m }
func (m *Model) VerticesX() []int32                    { return m.VX }
func (m *Model) VerticesY() []int32                    { return m.VY }
func (m *Model) VerticesZ() []int32                    { return m.VZ }
func (m *Model) TrianglesX() []int32                   { return m.FA }
func (m *Model) TrianglesY() []int32                   { return m.FB }
func (m *Model) TrianglesZ() []int32                   { return m.FC }
func (m *Model) FaceColors1() []int32                  { return m.Color1 }
func (m *Model) FaceColors2() []int32                  { return m.Color2 }
func (m *Model) FaceColors3() []int32                  { return m.Color3 }
func (m *Model) FaceTransparencies() []byte            { return m.Transparencies }
func (m *Model) FaceRenderPriorities() []byte          { return m.Priorities }
func (m *Model) FaceTextures() []int16                 { return m.Textures }
func (m *Model) FaceTextureUCoordinates() [][3]float32 { return m.TextureU }
func (m *Model) FaceTextureVCoordinates() [][3]float32 { return m.TextureV }
func (m *Model) SceneID() int                          { return m.Scene }
func (m *Model) SetSceneID(id int)                     { m.Scene = id }
func (m *Model) TrianglesCount() int                   { return len(m.FA) }
func (m *Model) Radius() int                           { return m.ModelRad }
func (m *Model) XYZMag() int                           { return m.Mag }
func (m *Model) ModelHeight() int                      { return m.Height }
func (m *Model) SetModelHeight(height int)             { m.Height = height }
func (m *Model) CalculateBoundsCylinder()              {}
func (m *Model) CalculateExtreme(orientation int)      { m.Extremes = append(m.Extremes, orientation) }

// Renderable wraps a model the way non-model renderables do in the client.
type Renderable struct {
	Inner host.Model
}

func (r Renderable) Model() host.Model { return r.Inner }
