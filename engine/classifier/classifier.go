package classifier

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-gpu/engine/geometry"
	"github.com/Carmen-Shannon/oxy-gpu/engine/host"
)

// TileSize is the edge length of one scene tile in world units.
const TileSize = 128

// FacePusher emits the vertices of one model face into staging buffers.
type FacePusher interface {
	// PushFace writes one face's vertices, and its UVs when the model is textured.
	//
	// Parameters:
	//   - model: the model owning the face
	//   - face: the face index
	//   - vertices: the vertex staging buffer, 4 ints per vertex
	//   - uvs: the UV staging buffer, 4 floats per vertex
	//
	// Returns:
	//   - int: the number of vertices written, 3 or 0 when the face is dropped
	PushFace(model host.FaceSource, face int, vertices *geometry.Buffer[int32], uvs *geometry.Buffer[float32]) int
}

type classifierImpl struct {
	pusher       FacePusher
	maxTriangles int

	descriptors [BucketCount][]DrawDescriptor

	tempVertices *geometry.Buffer[int32]
	tempUVs      *geometry.Buffer[float32]
	tempOffset   int
	tempUVOffset int

	targetOffset int
}

// Classifier sorts a frame's drawables into buckets and assigns each its slot in the compacted output.
// Callers must present drawables in back-to-front priority order: the order offsets are assigned in is the draw order.
// After any sequence of Add calls, TargetBufferOffset equals the sum of TriangleCount*3 over all descriptors.
type Classifier interface {
	// AddScenePaint records a tile paint already resident in the scene buffer.
	// Paints with no geometry are skipped.
	//
	// Parameters:
	//   - paint: the paint's scene buffer location
	//   - tileX, tileY: the tile coordinates
	//
	// Returns:
	//   - bool: true when a descriptor was added
	AddScenePaint(paint host.SceneGeometry, tileX, tileY int) bool

	// AddSceneModel records a tile model already resident in the scene buffer.
	// Models with no geometry are skipped.
	//
	// Parameters:
	//   - model: the model's scene buffer location
	//   - tileX, tileY: the tile coordinates
	//
	// Returns:
	//   - bool: true when a descriptor was added
	AddSceneModel(model host.SceneGeometry, tileX, tileY int) bool

	// AddSceneResident records a static model whose faces were uploaded with the scene.
	//
	// Parameters:
	//   - model: the resident model
	//   - orientation: the model yaw as a trig table index
	//   - x, y, z: the model's world position
	//
	// Returns:
	//   - Bucket: the bucket the model was added to
	AddSceneResident(model host.Model, orientation, x, y, z int) Bucket

	// AddTemporary pushes the faces of a dynamic model into the temporary buffers and records it.
	// The triangle count of the descriptor is the number of faces actually emitted,
	// while the bucket is chosen from the model's clamped face count.
	//
	// Parameters:
	//   - model: the dynamic model
	//   - orientation: the model yaw as a trig table index
	//   - x, y, z: the model's world position
	//
	// Returns:
	//   - Bucket: the bucket the model was added to
	AddTemporary(model host.Model, orientation, x, y, z int) Bucket

	// Descriptors returns the descriptors recorded in a bucket, in insertion order.
	//
	// Parameters:
	//   - bucket: the bucket to read
	//
	// Returns:
	//   - []DrawDescriptor: the bucket's descriptors, aliasing internal storage until Reset
	Descriptors(bucket Bucket) []DrawDescriptor

	// Count returns the number of descriptors in a bucket, which is its dispatch size.
	//
	// Parameters:
	//   - bucket: the bucket to count
	//
	// Returns:
	//   - int: the descriptor count
	Count(bucket Bucket) int

	// TargetBufferOffset returns the number of output vertices assigned so far.
	//
	// Returns:
	//   - int: the output buffer size in vertices
	TargetBufferOffset() int

	// TempOffset returns the number of vertices pushed into the temporary vertex buffer.
	//
	// Returns:
	//   - int: the next temporary vertex offset
	TempOffset() int

	// TempUVOffset returns the number of vertices pushed into the temporary UV buffer.
	//
	// Returns:
	//   - int: the next temporary UV offset
	TempUVOffset() int

	// TempVertices returns the temporary vertex staging buffer.
	//
	// Returns:
	//   - *geometry.Buffer[int32]: the buffer
	TempVertices() *geometry.Buffer[int32]

	// TempUVs returns the temporary UV staging buffer.
	//
	// Returns:
	//   - *geometry.Buffer[float32]: the buffer
	TempUVs() *geometry.Buffer[float32]

	// Flip switches the temporary buffers to read mode for upload.
	Flip()

	// Reset clears every bucket, the temporary buffers, and all offsets.
	Reset()
}

var _ Classifier = &classifierImpl{}

// NewClassifier creates a new Classifier. A FacePusher must be supplied with WithFacePusher.
//
// Parameters:
//   - options: functional options to configure the classifier
//
// Returns:
//   - Classifier: the newly created classifier
func NewClassifier(options ...ClassifierBuilderOption) Classifier {
	c := &classifierImpl{
		maxTriangles: MaxTriangles,
		tempVertices: geometry.NewBuffer[int32](defaultCapacity),
		tempUVs:      geometry.NewBuffer[float32](defaultCapacity),
	}
	for _, opt := range options {
		opt(c)
	}
	if c.pusher == nil {
		panic("classifier: a face pusher is required")
	}
	return c
}

func (c *classifierImpl) AddScenePaint(paint host.SceneGeometry, tileX, tileY int) bool {
	if paint.BufferLen() <= 0 {
		return false
	}
	c.addResidentTile(paint, 2, tileX, tileY)
	return true
}

func (c *classifierImpl) AddSceneModel(model host.SceneGeometry, tileX, tileY int) bool {
	if model.BufferLen() <= 0 {
		return false
	}
	c.addResidentTile(model, model.BufferLen()/3, tileX, tileY)
	return true
}

func (c *classifierImpl) addResidentTile(g host.SceneGeometry, triangles, tileX, tileY int) {
	mustNotBeNegative("scene buffer offset", g.BufferOffset())
	c.append(Unordered, DrawDescriptor{
		VertexOffset:  int32(g.BufferOffset()),
		UVOffset:      int32(g.UVBufferOffset()),
		TriangleCount: int32(triangles),
		TargetOffset:  int32(c.targetOffset),
		Flags:         Flags{SceneBuffer: true},
		X:             int32(tileX * TileSize),
		Y:             0,
		Z:             int32(tileY * TileSize),
	})
}

func (c *classifierImpl) AddSceneResident(model host.Model, orientation, x, y, z int) Bucket {
	mustNotBeNegative("scene buffer offset", model.BufferOffset())
	tc := min(c.maxTriangles, model.TrianglesCount())
	bucket := BucketFor(tc)
	c.append(bucket, DrawDescriptor{
		VertexOffset:  int32(model.BufferOffset()),
		UVOffset:      int32(model.UVBufferOffset()),
		TriangleCount: int32(tc),
		TargetOffset:  int32(c.targetOffset),
		Flags:         Flags{SceneBuffer: true, Radius: uint16(model.Radius()), Orientation: uint16(orientation)},
		X:             int32(x),
		Y:             int32(y),
		Z:             int32(z),
	})
	return bucket
}

func (c *classifierImpl) AddTemporary(model host.Model, orientation, x, y, z int) Bucket {
	hasUV := model.FaceTextures() != nil
	faces := min(c.maxTriangles, model.TrianglesCount())

	c.tempVertices.EnsureCapacity(12 * faces)
	c.tempUVs.EnsureCapacity(12 * faces)
	emitted := 0
	for i := range faces {
		emitted += c.pusher.PushFace(model, i, c.tempVertices, c.tempUVs)
	}

	uvOffset := NoUV
	if hasUV {
		uvOffset = c.tempUVOffset
	}
	bucket := BucketFor(faces)
	c.append(bucket, DrawDescriptor{
		VertexOffset:  int32(c.tempOffset),
		UVOffset:      int32(uvOffset),
		TriangleCount: int32(emitted / 3),
		TargetOffset:  int32(c.targetOffset),
		Flags:         Flags{Radius: uint16(model.Radius()), Orientation: uint16(orientation)},
		X:             int32(x),
		Y:             int32(y),
		Z:             int32(z),
	})

	c.tempOffset += emitted
	if hasUV {
		c.tempUVOffset += emitted
	}
	return bucket
}

// append records d and advances the target offset by the vertices it writes.
func (c *classifierImpl) append(bucket Bucket, d DrawDescriptor) {
	c.descriptors[bucket] = append(c.descriptors[bucket], d)
	c.targetOffset += d.VertexCount()
}

func (c *classifierImpl) Descriptors(bucket Bucket) []DrawDescriptor {
	return c.descriptors[bucket]
}

func (c *classifierImpl) Count(bucket Bucket) int {
	return len(c.descriptors[bucket])
}

func (c *classifierImpl) TargetBufferOffset() int {
	return c.targetOffset
}

func (c *classifierImpl) TempOffset() int {
	return c.tempOffset
}

func (c *classifierImpl) TempUVOffset() int {
	return c.tempUVOffset
}

func (c *classifierImpl) TempVertices() *geometry.Buffer[int32] {
	return c.tempVertices
}

func (c *classifierImpl) TempUVs() *geometry.Buffer[float32] {
	return c.tempUVs
}

func (c *classifierImpl) Flip() {
	c.tempVertices.Flip()
	c.tempUVs.Flip()
}

func (c *classifierImpl) Reset() {
	for i := range c.descriptors {
		c.descriptors[i] = c.descriptors[i][:0]
	}
	c.tempVertices.Clear()
	c.tempUVs.Clear()
	c.tempOffset = 0
	c.tempUVOffset = 0
	c.targetOffset = 0
}

func mustNotBeNegative(what string, v int) {
	if v < 0 {
		panic(fmt.Sprintf("classifier: negative %s %d", what, v))
	}
}
