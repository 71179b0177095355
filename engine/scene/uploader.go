package scene

import (
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-gpu/engine/classifier"
	"github.com/Carmen-Shannon/oxy-gpu/engine/geometry"
	"github.com/Carmen-Shannon/oxy-gpu/engine/host"
)

// sceneIDs hands out scene upload ids. Zero is reserved for models that are not resident.
var sceneIDs atomic.Int32

// Stats summarizes one scene upload.
type Stats struct {
	SceneID    int
	Paints     int
	TileModels int
	Models     int
	Vertices   int
}

type uploaderImpl struct {
	facePusher

	sceneID  int
	vertices *geometry.Buffer[int32]
	uvs      *geometry.Buffer[float32]
	offset   int
	uvOffset int
}

// Uploader materializes a scene's static geometry into the persistent scene buffers
// and records each element's buffer location back on the host objects.
type Uploader interface {
	classifier.FacePusher

	// Upload walks every tile of every plane in the scene's order and stages its paint, tile model and static models.
	// The staged buffers are left in read mode, ready for GPU upload.
	//
	// Parameters:
	//   - scene: the scene to upload
	//
	// Returns:
	//   - Stats: what was uploaded
	Upload(scene host.Scene) Stats

	// SceneID returns the id of the most recent upload, or 0 before the first.
	//
	// Returns:
	//   - int: the scene id
	SceneID() int

	// Vertices returns the staged scene vertex buffer.
	//
	// Returns:
	//   - *geometry.Buffer[int32]: 4 ints per vertex
	Vertices() *geometry.Buffer[int32]

	// UVs returns the staged scene UV buffer.
	//
	// Returns:
	//   - *geometry.Buffer[float32]: 4 floats per vertex
	UVs() *geometry.Buffer[float32]

	// Release drops the staged data once it has been copied to the GPU.
	Release()
}

var _ Uploader = &uploaderImpl{}

// NewUploader creates a new scene Uploader.
//
// Parameters:
//   - options: functional options to configure the uploader
//
// Returns:
//   - Uploader: the newly created uploader
func NewUploader(options ...UploaderBuilderOption) Uploader {
	u := &uploaderImpl{
		vertices: geometry.NewBuffer[int32](defaultCapacity),
		uvs:      geometry.NewBuffer[float32](defaultCapacity),
	}
	for _, opt := range options {
		opt(u)
	}
	return u
}

func (u *uploaderImpl) SceneID() int {
	return u.sceneID
}

func (u *uploaderImpl) Vertices() *geometry.Buffer[int32] {
	return u.vertices
}

func (u *uploaderImpl) UVs() *geometry.Buffer[float32] {
	return u.uvs
}

func (u *uploaderImpl) Release() {
	u.vertices.Clear()
	u.uvs.Clear()
}

func (u *uploaderImpl) Upload(scene host.Scene) Stats {
	u.vertices.Clear()
	u.uvs.Clear()
	u.offset, u.uvOffset = 0, 0
	u.sceneID = int(sceneIDs.Add(1))

	stats := Stats{SceneID: u.sceneID}
	for plane := range scene.Planes() {
		for _, tile := range scene.Tiles(plane) {
			u.uploadTile(scene, tile, &stats)
		}
	}
	stats.Vertices = u.offset

	u.vertices.Flip()
	u.uvs.Flip()
	return stats
}

func (u *uploaderImpl) uploadTile(scene host.Scene, tile host.Tile, stats *Stats) {
	if bridge := tile.Bridge(); bridge != nil {
		u.uploadTile(scene, bridge, stats)
	}

	if paint := tile.Paint(); paint != nil {
		paint.SetBufferOffset(u.offset)
		textured := paint.Texture() != -1
		paint.SetUVBufferOffset(u.uvOffsetFor(textured))
		n := u.uploadPaint(scene, tile, paint)
		paint.SetBufferLen(n)
		u.advance(n, textured)
		if n > 0 {
			stats.Paints++
		}
	}

	if model := tile.TileModel(); model != nil {
		model.SetBufferOffset(u.offset)
		textured := model.TriangleTextureID() != nil
		model.SetUVBufferOffset(u.uvOffsetFor(textured))
		n := u.uploadTileModel(tile, model)
		model.SetBufferLen(n)
		u.advance(n, textured)
		if n > 0 {
			stats.TileModels++
		}
	}

	for _, model := range tile.Models() {
		if model == nil || model.SceneID() == u.sceneID {
			continue
		}
		u.uploadModel(model)
		stats.Models++
	}
}

func (u *uploaderImpl) uvOffsetFor(textured bool) int {
	if textured {
		return u.uvOffset
	}
	return classifier.NoUV
}

func (u *uploaderImpl) advance(n int, textured bool) {
	u.offset += n
	if textured {
		u.uvOffset += n
	}
}

// uploadPaint writes a tile quad as two triangles with corner heights from the scene.
func (u *uploaderImpl) uploadPaint(scene host.Scene, tile host.Tile, paint host.SceneTilePaint) int {
	if paint.NeColor() == hiddenTile {
		return 0
	}
	plane, x, y := tile.Plane(), tile.X(), tile.Y()
	sw := int32(scene.TileHeight(plane, x, y))
	se := int32(scene.TileHeight(plane, x+1, y))
	ne := int32(scene.TileHeight(plane, x+1, y+1))
	nw := int32(scene.TileHeight(plane, x, y+1))

	const size = classifier.TileSize
	u.vertices.Put(
		size, ne, size, int32(paint.NeColor()),
		0, nw, size, int32(paint.NwColor()),
		size, se, 0, int32(paint.SeColor()),
		0, sw, 0, int32(paint.SwColor()),
		size, se, 0, int32(paint.SeColor()),
		0, nw, size, int32(paint.NwColor()),
	)

	if tex := paint.Texture(); tex != -1 {
		t := float32(tex) + 1
		u.uvs.Put(
			t, 1, 1, 0,
			t, 0, 1, 0,
			t, 1, 0, 0,
			t, 0, 0, 0,
			t, 1, 0, 0,
			t, 0, 1, 0,
		)
	}
	return 6
}

// uploadTileModel writes the visible faces of a tile model relative to the tile's corner.
func (u *uploaderImpl) uploadTileModel(tile host.Tile, model host.SceneTileModel) int {
	baseX := int32(tile.X() * classifier.TileSize)
	baseZ := int32(tile.Y() * classifier.TileSize)
	vx, vy, vz := model.VerticesX(), model.VerticesY(), model.VerticesZ()
	fa, fb, fc := model.FaceX(), model.FaceY(), model.FaceZ()
	ca, cb, cc := model.TriangleColorA(), model.TriangleColorB(), model.TriangleColorC()
	textures := model.TriangleTextureID()

	n := 0
	for i := range fa {
		if ca[i] == hiddenTile {
			continue
		}
		n += 3
		corners := [3]int32{fa[i], fb[i], fc[i]}
		colors := [3]int32{ca[i], cb[i], cc[i]}
		for j, v := range corners {
			u.vertices.Put(vx[v]-baseX, vy[v], vz[v]-baseZ, colors[j])
		}
		if textures == nil {
			continue
		}
		if textures[i] == -1 {
			u.uvs.Put(make([]float32, 12)...)
			continue
		}
		t := float32(textures[i]) + 1
		for _, v := range corners {
			u.uvs.Put(t, float32(vx[v]-baseX)/classifier.TileSize, float32(vz[v]-baseZ)/classifier.TileSize, 0)
		}
	}
	return n
}

// uploadModel writes every face of a static model. Dropped faces are padded with degenerate vertices
// so that face i always starts at BufferOffset + 3i, which the compaction shader relies on.
func (u *uploaderImpl) uploadModel(model host.Model) {
	textured := model.FaceTextures() != nil
	model.SetBufferOffset(u.offset)
	model.SetUVBufferOffset(u.uvOffsetFor(textured))
	model.SetSceneID(u.sceneID)

	count := model.TrianglesCount()
	u.vertices.EnsureCapacity(12 * count)
	u.uvs.EnsureCapacity(12 * count)
	for i := range count {
		if PushFace(model, i, u.vertices, u.uvs) == 0 {
			u.vertices.Put(make([]int32, 12)...)
			if textured {
				u.uvs.Put(make([]float32, 12)...)
			}
		}
	}
	n := 3 * count
	model.SetBufferLen(n)
	u.advance(n, textured)
}
