// Package host declares the contracts the renderer consumes from the game client that embeds it.
// Nothing in this package is implemented by the renderer; the client supplies every value.
package host

import "github.com/Carmen-Shannon/oxy-gpu/common"

// Client is the game client driving the renderer.
type Client interface {
	// CanvasWidth returns the width of the client's canvas in pixels.
	CanvasWidth() int
	// CanvasHeight returns the height of the client's canvas in pixels.
	CanvasHeight() int

	// ViewportWidth returns the width of the 3D viewport in pixels.
	ViewportWidth() int
	// ViewportHeight returns the height of the 3D viewport in pixels.
	ViewportHeight() int
	// ViewportXOffset returns the distance from the left canvas edge to the viewport.
	ViewportXOffset() int
	// ViewportYOffset returns the distance from the top canvas edge to the viewport.
	ViewportYOffset() int

	// StretchedEnabled reports whether the canvas is scaled to fill the window.
	StretchedEnabled() bool
	// StretchedDimensions returns the stretched canvas size. Only meaningful when StretchedEnabled is true.
	StretchedDimensions() (width, height int)
	// StretchedFast reports whether stretching should use nearest filtering instead of linear.
	StretchedFast() bool
	// SurfaceScale returns the DPI scale factors of the drawing surface.
	SurfaceScale() (sx, sy float32)

	// CenterX returns the horizontal projection center.
	CenterX() int
	// CenterY returns the vertical projection center.
	CenterY() int
	// Scale returns the projection zoom.
	Scale() int
	// CameraX2 returns the camera x position in world units.
	CameraX2() int
	// CameraY2 returns the camera height in world units.
	CameraY2() int
	// CameraZ2 returns the camera z position in world units.
	CameraZ2() int
	// CameraYaw returns the camera yaw as a trig table index.
	CameraYaw() int
	// CameraPitch returns the camera pitch as a trig table index.
	CameraPitch() int
	// Clip returns the rasterizer clip window used for culling.
	Clip() common.Frustum

	// SkyboxColor returns the sky color as packed 0xRRGGBB.
	SkyboxColor() int
	// GameState returns the current session state.
	GameState() GameState
	// Scene returns the loaded scene, or nil before the first region loads.
	Scene() Scene
	// TextureProvider returns the texture provider, or nil before it is available.
	TextureProvider() TextureProvider

	// UIPixels returns the software-rendered interface layer as packed 0xAARRGGBB pixels.
	UIPixels() (pixels []int32, width, height int)

	// CheckClickbox lets the client hit-test a model the renderer decided to draw.
	CheckClickbox(model Model, orientation, pitchSin, pitchCos, yawSin, yawCos, x, y, z int, hash int64)

	// OnRendererDisabled is called once when the renderer hits a fatal error and stops drawing.
	// The client is expected to fall back to its own software path.
	OnRendererDisabled(err error)
}

// DrawCallbacks is the fixed per-frame callback sequence the client invokes on the renderer.
// A frame is DrawScene, then DrawScenePaint and DrawSceneModel per visible tile, then Draw per renderable,
// and finally DrawFrame. Calls never overlap.
type DrawCallbacks interface {
	DrawScene(cameraX, cameraY, cameraZ, pitch, yaw, plane int)
	DrawScenePaint(orientation, pitchSin, pitchCos, yawSin, yawCos, x, y, z int, paint SceneTilePaint, tileZ, tileX, tileY, zoom, centerX, centerY int)
	DrawSceneModel(orientation, pitchSin, pitchCos, yawSin, yawCos, x, y, z int, model SceneTileModel, tileZ, tileX, tileY, zoom, centerX, centerY int)
	Draw(renderable Renderable, orientation, pitchSin, pitchCos, yawSin, yawCos, x, y, z int, hash int64)
	Animate(texture Texture, diff int)
}
