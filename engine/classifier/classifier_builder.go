package classifier

import "github.com/Carmen-Shannon/oxy-gpu/engine/geometry"

const defaultCapacity = 65536

// ClassifierBuilderOption is a functional option for configuring a Classifier.
type ClassifierBuilderOption func(*classifierImpl)

// WithFacePusher sets the routine used to emit the faces of temporary models.
//
// Parameters:
//   - pusher: the face pusher
//
// Returns:
//   - ClassifierBuilderOption: a function that sets the face pusher
func WithFacePusher(pusher FacePusher) ClassifierBuilderOption {
	return func(c *classifierImpl) {
		c.pusher = pusher
	}
}

// WithInitialCapacity sets the starting capacity of the temporary staging buffers, in scalars.
//
// Parameters:
//   - n: the initial capacity
//
// Returns:
//   - ClassifierBuilderOption: a function that sizes the temporary buffers
func WithInitialCapacity(n int) ClassifierBuilderOption {
	return func(c *classifierImpl) {
		c.tempVertices = geometry.NewBuffer[int32](n)
		c.tempUVs = geometry.NewBuffer[float32](n)
	}
}

// WithMaxTriangles lowers the per-model triangle cap. Values outside [1, MaxTriangles] are clamped.
//
// Parameters:
//   - n: the largest number of triangles drawn for one model
//
// Returns:
//   - ClassifierBuilderOption: a function that sets the triangle cap
func WithMaxTriangles(n int) ClassifierBuilderOption {
	return func(c *classifierImpl) {
		c.maxTriangles = min(max(n, 1), MaxTriangles)
	}
}
