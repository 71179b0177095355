package host

// Renderable is anything the client can draw. Models are renderables that return themselves.
type Renderable interface {
	// Model returns the model to draw, or nil when there is nothing to draw.
	Model() Model
}

// FaceSource exposes the per-face data needed to emit triangles.
// Face arrays are indexed by face, vertex arrays by the indices in TrianglesX/Y/Z.
type FaceSource interface {
	VerticesX() []int32
	VerticesY() []int32
	VerticesZ() []int32
	TrianglesX() []int32
	TrianglesY() []int32
	TrianglesZ() []int32
	FaceColors1() []int32
	FaceColors2() []int32
	FaceColors3() []int32
	// FaceTransparencies returns per-face alpha or nil.
	FaceTransparencies() []byte
	// FaceRenderPriorities returns per-face priorities or nil.
	FaceRenderPriorities() []byte
	// FaceTextures returns per-face texture ids with -1 for untextured faces, or nil when the model is untextured.
	FaceTextures() []int16
	// FaceTextureUCoordinates returns the u coordinates of each face's three vertices, or nil.
	FaceTextureUCoordinates() [][3]float32
	// FaceTextureVCoordinates returns the v coordinates of each face's three vertices, or nil.
	FaceTextureVCoordinates() [][3]float32
}

// Model is a triangle mesh with the bounds the client maintains for culling.
type Model interface {
	Renderable
	SceneGeometry
	FaceSource

	// SceneID returns the id of the scene upload the model belongs to, or 0 when not resident.
	SceneID() int
	SetSceneID(id int)
	TrianglesCount() int

	// Radius returns the model's bounding radius used for priority sorting on the GPU.
	Radius() int
	// XYZMag returns the bounding cylinder radius.
	XYZMag() int
	// ModelHeight returns the bounding cylinder height.
	ModelHeight() int
	SetModelHeight(height int)
	CalculateBoundsCylinder()
	CalculateExtreme(orientation int)
}
