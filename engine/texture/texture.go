// Package texture assembles the client's loose textures into one array texture and animates their offsets.
package texture

import (
	"errors"
	"log/slog"
	"math"
	"sync"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-gpu/common"
	"github.com/Carmen-Shannon/oxy-gpu/engine/host"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrNotReady is returned by BuildArray while some textures are still loading. Callers retry on a later frame.
var ErrNotReady = errors.New("texture: textures not loaded")

const (
	// DefaultSize is the edge length of one array layer.
	DefaultSize = 128
	// MaxTextures is the number of offset slots available to the scene shader.
	MaxTextures = 64
	// OffsetStride is the number of floats per texture in an offsets slice: u, v and two padding floats.
	OffsetStride = 4

	smallTexturePixels = 64 * 64
	smallStep          = float32(1) / 64
	largeStep          = float32(1) / 128
)

type managerImpl struct {
	size     int
	pool     worker.DynamicWorkerPool
	ownsPool bool
	logger   *slog.Logger
}

// Manager builds the scene's texture array and keeps texture animation offsets moving.
type Manager interface {
	// AllTexturesLoaded reports whether every texture in the provider has pixels.
	//
	// Parameters:
	//   - provider: the client's texture provider
	//
	// Returns:
	//   - bool: true when the array can be built
	AllTexturesLoaded(provider host.TextureProvider) bool

	// BuildArray converts every texture into one RGBA8 layer of an array texture, indexed by texture id.
	// Layers of missing textures are left transparent. Conversion runs on the worker pool.
	//
	// Parameters:
	//   - provider: the client's texture provider
	//
	// Returns:
	//   - common.TextureStagingData: the array pixels ready for upload
	//   - error: ErrNotReady if any texture is still loading
	BuildArray(provider host.TextureProvider) (common.TextureStagingData, error)

	// Animate scrolls a texture's offsets by the time elapsed since the last animation step.
	//
	// Parameters:
	//   - texture: the texture to move
	//   - diff: the number of client ticks elapsed
	Animate(texture host.Texture, diff int)

	// Offsets marks every texture as in use and writes its current offsets into dst at OffsetStride floats per id.
	// Ids beyond the capacity of dst are ignored.
	//
	// Parameters:
	//   - provider: the client's texture provider
	//   - dst: the destination, normally MaxTextures*OffsetStride long
	Offsets(provider host.TextureProvider, dst []float32)

	// Size returns the edge length of an array layer.
	//
	// Returns:
	//   - int: the layer size in pixels
	Size() int

	// Close stops the worker pool if the manager created it.
	Close()
}

var _ Manager = &managerImpl{}

// NewManager creates a new texture Manager.
//
// Parameters:
//   - options: functional options to configure the manager
//
// Returns:
//   - Manager: the newly created manager
func NewManager(options ...ManagerBuilderOption) Manager {
	m := &managerImpl{
		size:   DefaultSize,
		logger: slog.Default(),
	}
	for _, opt := range options {
		opt(m)
	}
	if m.pool == nil {
		m.pool = worker.NewDynamicWorkerPool(defaultWorkers(), 256, defaultIdleTimeout)
		m.ownsPool = true
	}
	return m
}

func (m *managerImpl) Size() int {
	return m.size
}

func (m *managerImpl) Close() {
	if m.ownsPool {
		m.pool.Stop()
	}
}

func (m *managerImpl) AllTexturesLoaded(provider host.TextureProvider) bool {
	for _, t := range provider.Textures() {
		if t != nil && t.Pixels() == nil {
			return false
		}
	}
	return true
}

func (m *managerImpl) BuildArray(provider host.TextureProvider) (common.TextureStagingData, error) {
	if !m.AllTexturesLoaded(provider) {
		return common.TextureStagingData{}, ErrNotReady
	}

	textures := provider.Textures()
	layers := max(len(textures), 1)
	layerBytes := m.size * m.size * 4
	out := common.TextureStagingData{
		Pixels: make([]byte, layers*layerBytes),
		Width:  uint32(m.size),
		Height: uint32(m.size),
		Layers: uint32(layers),
		Format: wgpu.TextureFormatRGBA8Unorm,
	}

	// The pool has no per-batch completion signal, so a WaitGroup joins the layers.
	var wg sync.WaitGroup
	for id, tex := range textures {
		if tex == nil {
			continue
		}
		wg.Add(1)
		dst := out.Pixels[id*layerBytes : (id+1)*layerBytes]
		src := tex.Pixels()
		m.pool.SubmitTask(worker.Task{
			ID:      id,
			Payload: id,
			Do: func() (any, error) {
				defer wg.Done()
				if err := convertPixels(src, dst, m.size); err != nil {
					m.logger.Warn("texture skipped", "id", id, "error", err)
					return nil, err
				}
				return nil, nil
			},
		})
	}
	wg.Wait()
	return out, nil
}

func (m *managerImpl) Animate(texture host.Texture, diff int) {
	pixels := texture.Pixels()
	if pixels == nil {
		return
	}
	step := largeStep
	if len(pixels) == smallTexturePixels {
		step = smallStep
	}
	d := float32(texture.AnimationSpeed()*diff) * step

	u, v := texture.U(), texture.V()
	switch texture.AnimationDirection() {
	case 1:
		v = wrap(v - d)
	case 2:
		u = wrap(u - d)
	case 3:
		v = wrap(v + d)
	case 4:
		u = wrap(u + d)
	default:
		return
	}
	texture.SetU(u)
	texture.SetV(v)
}

func (m *managerImpl) Offsets(provider host.TextureProvider, dst []float32) {
	for id, tex := range provider.Textures() {
		if tex == nil {
			continue
		}
		provider.Load(id)
		i := id * OffsetStride
		if i+1 >= len(dst) {
			continue
		}
		dst[i] = tex.U()
		dst[i+1] = tex.V()
	}
}

// wrap maps f into [0, 1).
func wrap(f float32) float32 {
	w := f - float32(math.Floor(float64(f)))
	if w >= 1 {
		return 0
	}
	return w
}
