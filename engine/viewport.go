package engine

import (
	"github.com/Carmen-Shannon/oxy-gpu/common"
	"github.com/Carmen-Shannon/oxy-gpu/engine/host"
	"github.com/chewxy/math32"
)

// stretchPadding widens a stretched viewport by one pixel on each side to hide rounding seams.
const stretchPadding = 1

// Viewport is the scene viewport inside the render canvas, origin at the top-left.
type Viewport struct {
	X, Y          int
	Width, Height int

	// CanvasWidth and CanvasHeight are the size of the canvas the viewport lies in.
	CanvasWidth, CanvasHeight int
}

// StretchedViewport maps the client's viewport onto the canvas it is drawn into. Without stretching
// that is the client canvas itself. With stretching the viewport is scaled by the stretch ratio,
// its size rounded up and its offset rounded down, then padded by one pixel on every side.
//
// Parameters:
//   - c: the client
//
// Returns:
//   - Viewport: the viewport in canvas pixels
func StretchedViewport(c host.Client) Viewport {
	v := Viewport{
		X:            c.ViewportXOffset(),
		Y:            c.ViewportYOffset(),
		Width:        c.ViewportWidth(),
		Height:       c.ViewportHeight(),
		CanvasWidth:  c.CanvasWidth(),
		CanvasHeight: c.CanvasHeight(),
	}
	if !c.StretchedEnabled() || v.CanvasWidth <= 0 || v.CanvasHeight <= 0 {
		return v
	}

	sw, sh := c.StretchedDimensions()
	sx := float32(sw) / float32(v.CanvasWidth)
	sy := float32(sh) / float32(v.CanvasHeight)

	v.Height = int(math32.Ceil(sy*float32(v.Height))) + stretchPadding*2
	v.Width = int(math32.Ceil(sx*float32(v.Width))) + stretchPadding*2
	v.Y = int(math32.Floor(sy*float32(v.Y))) - stretchPadding
	v.X = int(math32.Floor(sx*float32(v.X))) - stretchPadding
	v.CanvasWidth, v.CanvasHeight = sw, sh
	return v
}

// BottomUpY returns the viewport's offset from the bottom of the canvas.
func (v Viewport) BottomUpY() int {
	return v.CanvasHeight - v.Height - v.Y
}

// Scaled converts the viewport to surface pixels.
//
// Parameters:
//   - sx, sy: the surface's DPI scale
//
// Returns:
//   - Viewport: the scaled viewport
func (v Viewport) Scaled(sx, sy float32) Viewport {
	scale := func(n int, s float32) int {
		return int(math32.Round(float32(n) * s))
	}
	return Viewport{
		X:            scale(v.X, sx),
		Y:            scale(v.Y, sy),
		Width:        scale(v.Width, sx),
		Height:       scale(v.Height, sy),
		CanvasWidth:  scale(v.CanvasWidth, sx),
		CanvasHeight: scale(v.CanvasHeight, sy),
	}
}

// Rect returns the viewport rectangle.
func (v Viewport) Rect() common.Rect {
	return common.Rect{X: v.X, Y: v.Y, Width: v.Width, Height: v.Height}
}

// Canvas returns the whole canvas as a rectangle.
func (v Viewport) Canvas() common.Rect {
	return common.Rect{Width: v.CanvasWidth, Height: v.CanvasHeight}
}
