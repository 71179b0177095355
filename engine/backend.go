package engine

import (
	"github.com/Carmen-Shannon/oxy-gpu/common"
	"github.com/Carmen-Shannon/oxy-gpu/engine/classifier"
)

// FrameUpload is everything the GPU needs for one frame's compaction.
type FrameUpload struct {
	// Descriptors holds the marshaled descriptors of each bucket.
	Descriptors [classifier.BucketCount][]byte
	// TempVertices and TempUVs are the frame's dynamic geometry.
	TempVertices []byte
	TempUVs      []byte
	// VertexCount is the size of the output buffers in vertices.
	VertexCount int
	// CameraHeader is the per-frame head of the camera uniform block.
	CameraHeader []byte
}

// SceneDraw is one scene pass: a clear to the sky color and an optional draw of the compacted vertices.
type SceneDraw struct {
	Uniforms    FrameUniforms
	Viewport    common.Rect
	Clear       [4]float32
	VertexCount int
}

// UILayer is the client's interface layer for one frame.
type UILayer struct {
	// Pixels is BGRA8, Width*Height*4 bytes.
	Pixels []byte
	Width  int
	Height int
	// Realloc is set when the layer size changed and the texture must be recreated.
	Realloc bool
	// Nearest selects nearest filtering when the layer is stretched.
	Nearest bool
	// Viewport is the surface area the scene and the layer are drawn into.
	Viewport common.Rect
}

// Backend is the GPU side of the frame orchestrator. The engine drives it in the order
// UploadFrame, Compact, Barrier, DrawScene, Composite, and calls ReleaseFrame after every frame,
// including frames that failed part way.
type Backend interface {
	// Init creates the device, the programs and the uniform block.
	//
	// Returns:
	//   - error: a fatal error, such as a *shader.BuildError or an adapter failure
	Init() error

	// MaxSampleCount returns the highest multisample count the scene target supports.
	MaxSampleCount() uint32

	// Resize reconfigures the surface after the window size changed.
	//
	// Parameters:
	//   - width, height: the new surface size in pixels
	Resize(width, height int)

	// ConfigureSceneTarget recreates the offscreen scene target.
	//
	// Parameters:
	//   - width, height: the target size in pixels
	//   - samples: the multisample count, already limited to MaxSampleCount. The GPU backend rounds it down to 1 or 4
	//
	// Returns:
	//   - error: an error if the target or the rebuilt scene program cannot be created
	ConfigureSceneTarget(width, height int, samples uint32) error

	// UploadScene replaces the persistent scene buffers.
	//
	// Parameters:
	//   - vertices: the scene vertex buffer, 16 bytes per vertex
	//   - uvs: the scene UV buffer, 16 bytes per vertex
	//
	// Returns:
	//   - error: an error if the buffers cannot be created
	UploadScene(vertices, uvs []byte) error

	// TextureArrayReady reports whether the real texture array has been uploaded.
	TextureArrayReady() bool

	// UploadTextureArray replaces the placeholder texture array.
	//
	// Parameters:
	//   - data: the array layers
	//
	// Returns:
	//   - error: an error if the texture cannot be created
	UploadTextureArray(data common.TextureStagingData) error

	// UploadFrame creates the frame's buffers and writes the camera header.
	//
	// Parameters:
	//   - f: the frame's data
	//
	// Returns:
	//   - error: an error if a buffer or bind group cannot be created
	UploadFrame(f FrameUpload) error

	// Compact records and submits the compaction dispatches of the uploaded frame.
	//
	// Parameters:
	//   - counts: the descriptor count of each bucket
	//
	// Returns:
	//   - error: an error if a dispatch cannot be recorded or submitted
	Compact(counts [classifier.BucketCount]int) error

	// Barrier orders the compaction writes before the scene draw reads them.
	Barrier()

	// DrawScene begins the frame and draws the scene pass.
	//
	// Parameters:
	//   - d: the scene pass
	//
	// Returns:
	//   - error: an error if the pass cannot begin
	DrawScene(d SceneDraw) error

	// Composite draws the scene target and the UI layer onto the surface, then submits and presents.
	//
	// Parameters:
	//   - ui: the interface layer
	//
	// Returns:
	//   - error: renderer.ErrDeviceLost once the surface is gone, or another frame error
	Composite(ui UILayer) error

	// ReleaseFrame closes any open frame and frees the frame's buffers.
	ReleaseFrame()

	// Release frees every GPU resource. Init may be called again afterwards.
	Release()
}
