package scene

import "github.com/Carmen-Shannon/oxy-gpu/engine/geometry"

const defaultCapacity = 1 << 20

// UploaderBuilderOption is a functional option for configuring an Uploader.
type UploaderBuilderOption func(*uploaderImpl)

// WithInitialCapacity sets the starting capacity of the scene staging buffers, in scalars.
//
// Parameters:
//   - n: the initial capacity
//
// Returns:
//   - UploaderBuilderOption: a function that sizes the scene buffers
func WithInitialCapacity(n int) UploaderBuilderOption {
	return func(u *uploaderImpl) {
		u.vertices = geometry.NewBuffer[int32](n)
		u.uvs = geometry.NewBuffer[float32](n)
	}
}
