// Package visibility decides whether a model's bounding cylinder falls inside the client's clip window.
// The arithmetic reproduces the client's own fixed-point projection so that culling agrees with its hit testing.
package visibility

import "github.com/Carmen-Shannon/oxy-gpu/common"

// NearPlane is the smallest camera-space depth a model's nearest point may have and still be drawn.
const NearPlane = 50

// Bounds is a model's bounding cylinder.
type Bounds struct {
	// XYZMag is the cylinder radius.
	XYZMag int
	// ModelHeight is the cylinder height.
	ModelHeight int
}

// IsVisible reports whether a model at camera-relative position (x, y, z) is inside the clip window.
// The tests run in order (near plane, horizontal extent, bottom, top) and the first failure excludes the model.
// Every projection divides by the same depth. Arithmetic is 32-bit with wrapping multiplication and
// truncating division, matching the client.
//
// Parameters:
//   - model: the model's bounding cylinder
//   - clip: the client's clip window and zoom
//   - pitchSin, pitchCos, yawSin, yawCos: the camera trig values in 16.16 fixed point
//   - x, y, z: the model position relative to the camera
//
// Returns:
//   - bool: true when any part of the cylinder can be on screen
func IsVisible(model Bounds, clip common.Frustum, pitchSin, pitchCos, yawSin, yawCos, x, y, z int) bool {
	ps, pc, ys, yc := int32(pitchSin), int32(pitchCos), int32(yawSin), int32(yawCos)
	px, py, pz := int32(x), int32(y), int32(z)
	mag := int32(model.XYZMag)
	zoom := int32(clip.Zoom)

	rotZ := (yc*pz - ys*px) >> 16
	centerDepth := (ps*py + pc*rotZ) >> 16
	depthExtent := (pc * mag) >> 16
	depth := centerDepth + depthExtent
	if depth <= NearPlane {
		return false
	}

	rotX := (pz*ys + yc*px) >> 16
	if (rotX-mag)*zoom/depth >= int32(clip.ClipMidX2) {
		return false
	}
	if (rotX+mag)*zoom/depth <= int32(clip.ClipNegativeMidX) {
		return false
	}

	rotY := (pc*py - rotZ*ps) >> 16
	heightExtent := (ps * mag) >> 16
	if (rotY+heightExtent)*zoom/depth <= int32(clip.ClipNegativeMidY) {
		return false
	}

	top := ((pc * int32(model.ModelHeight)) >> 16) + heightExtent
	return (rotY-top)*zoom/depth < int32(clip.ClipMidY2)
}
