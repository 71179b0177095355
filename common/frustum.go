package common

// Frustum describes the host's screen-space clip window in the fixed-point projection used for culling.
// A point at camera-space (x, y, depth) projects to (x*Zoom/depth, y*Zoom/depth) relative to the viewport center,
// and is inside the window when it lies strictly between the negative and positive bounds on each axis.
type Frustum struct {
	// Zoom is the projection scale applied before the perspective divide.
	Zoom int
	// ClipMidX2 is the right edge of the clip window relative to its center.
	ClipMidX2 int
	// ClipNegativeMidX is the left edge of the clip window relative to its center, usually negative.
	ClipNegativeMidX int
	// ClipMidY2 is the bottom edge of the clip window relative to its center.
	ClipMidY2 int
	// ClipNegativeMidY is the top edge of the clip window relative to its center, usually negative.
	ClipNegativeMidY int
}

// NewFrustum builds a symmetric clip window around the center of a viewport.
//
// Parameters:
//   - width: the viewport width in pixels
//   - height: the viewport height in pixels
//   - zoom: the projection scale
//
// Returns:
//   - Frustum: the clip window with bounds at half the viewport size on each side
func NewFrustum(width, height, zoom int) Frustum {
	return Frustum{
		Zoom:             zoom,
		ClipMidX2:        width - width/2,
		ClipNegativeMidX: -(width / 2),
		ClipMidY2:        height - height/2,
		ClipNegativeMidY: -(height / 2),
	}
}
