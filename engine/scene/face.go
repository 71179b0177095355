package scene

import (
	"github.com/Carmen-Shannon/oxy-gpu/engine/geometry"
	"github.com/Carmen-Shannon/oxy-gpu/engine/host"
)

const (
	// hiddenColor marks a face the client never draws.
	hiddenColor = -2
	// flatColor marks a face drawn with its first vertex color only.
	flatColor = -1
	// hiddenTile marks tile paint and tile model faces that are not drawn.
	hiddenTile = 12345678
)

// PushFace writes one face of a model as three vertices of (x, y, z, alpha<<24 | priority<<16 | hsl),
// and when the model is textured, three UVs of (texture+1, u, v, 0).
// Hidden faces and faces referencing missing vertices write nothing and return 0.
//
// Parameters:
//   - model: the model owning the face
//   - face: the face index
//   - vertices: the vertex staging buffer
//   - uvs: the UV staging buffer
//
// Returns:
//   - int: the number of vertices written
func PushFace(model host.FaceSource, face int, vertices *geometry.Buffer[int32], uvs *geometry.Buffer[float32]) int {
	color1 := model.FaceColors1()[face]
	color2 := model.FaceColors2()[face]
	color3 := model.FaceColors3()[face]
	switch color3 {
	case hiddenColor:
		return 0
	case flatColor:
		color2, color3 = color1, color1
	}

	vx, vy, vz := model.VerticesX(), model.VerticesY(), model.VerticesZ()
	a := model.TrianglesX()[face]
	b := model.TrianglesY()[face]
	c := model.TrianglesZ()[face]
	n := int32(min(len(vx), len(vy), len(vz)))
	if a < 0 || b < 0 || c < 0 || a >= n || b >= n || c >= n {
		return 0
	}

	textures := model.FaceTextures()
	textured := textures != nil && textures[face] != -1

	var packed int32
	if alpha := model.FaceTransparencies(); alpha != nil && !textured {
		packed |= int32(alpha[face]) << 24
	}
	if priority := model.FaceRenderPriorities(); priority != nil {
		packed |= int32(priority[face]) << 16
	}

	vertices.Put(
		vx[a], vy[a], vz[a], packed|color1,
		vx[b], vy[b], vz[b], packed|color2,
		vx[c], vy[c], vz[c], packed|color3,
	)

	if textures == nil {
		return 3
	}
	us, vs := model.FaceTextureUCoordinates(), model.FaceTextureVCoordinates()
	if !textured || us == nil || vs == nil {
		uvs.Put(make([]float32, 12)...)
		return 3
	}
	tex := float32(textures[face]) + 1
	u, v := us[face], vs[face]
	uvs.Put(
		tex, u[0], v[0], 0,
		tex, u[1], v[1], 0,
		tex, u[2], v[2], 0,
	)
	return 3
}

// facePusher adapts PushFace to classifier.FacePusher.
type facePusher struct{}

func (facePusher) PushFace(model host.FaceSource, face int, vertices *geometry.Buffer[int32], uvs *geometry.Buffer[float32]) int {
	return PushFace(model, face, vertices, uvs)
}
