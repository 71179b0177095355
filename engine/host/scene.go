package host

// Scene is the loaded region of the world.
type Scene interface {
	// Planes returns the number of height planes.
	Planes() int
	// Tiles returns the tiles of a plane in the client's traversal order. Absent tiles are omitted.
	Tiles(plane int) []Tile
	// TileHeight returns the ground height at a tile corner.
	TileHeight(plane, x, y int) int
}

// Tile is a single scene tile. Getters return nil when the tile lacks that element.
type Tile interface {
	Plane() int
	X() int
	Y() int
	Paint() SceneTilePaint
	TileModel() SceneTileModel
	// Models returns the static models resting on the tile, such as walls, decorations and game objects.
	Models() []Model
	// Bridge returns the tile bridged beneath this one, or nil.
	Bridge() Tile
}

// SceneGeometry is geometry the renderer materializes into the persistent scene buffer.
// Offsets count vertices. A UV offset of -1 means the geometry is untextured.
type SceneGeometry interface {
	BufferOffset() int
	SetBufferOffset(offset int)
	UVBufferOffset() int
	SetUVBufferOffset(offset int)
	BufferLen() int
	SetBufferLen(length int)
}

// SceneTilePaint is a flat colored or textured tile quad.
type SceneTilePaint interface {
	SceneGeometry
	SwColor() int
	SeColor() int
	NeColor() int
	NwColor() int
	// Texture returns the texture id, or -1 when untextured.
	Texture() int
}

// SceneTileModel is the sloped or shaped ground model of a tile.
// Vertex positions are in world units.
type SceneTileModel interface {
	SceneGeometry
	VerticesX() []int32
	VerticesY() []int32
	VerticesZ() []int32
	FaceX() []int32
	FaceY() []int32
	FaceZ() []int32
	TriangleColorA() []int32
	TriangleColorB() []int32
	TriangleColorC() []int32
	// TriangleTextureID returns per-face texture ids with -1 for untextured faces, or nil when the model is untextured.
	TriangleTextureID() []int32
}
