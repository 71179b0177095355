package model

// Untextured is the Face.Texture value of a face drawn with its vertex colors only.
const Untextured = -1

// HiddenFace is the Face.Color3 value of a face that is never drawn.
const HiddenFace = -2

// FlatFace is the Face.Color3 value of a face shaded with Color1 only.
const FlatFace = -1

// Vertex is a model-space vertex position. Y grows downward, as in the client.
type Vertex struct {
	X, Y, Z int32
}

// Face is one triangle of a Mesh.
type Face struct {
	// A, B and C index the mesh's vertices.
	A, B, C int32

	// Color1, Color2 and Color3 are the HSL colors at A, B and C.
	// Color3 may instead hold FlatFace or HiddenFace.
	Color1, Color2, Color3 int32

	Alpha    byte
	Priority byte

	// Texture is the texture id, or Untextured.
	Texture int16
	// U and V are the texture coordinates at A, B and C.
	U, V [3]float32
}
