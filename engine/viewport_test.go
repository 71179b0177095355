package engine

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-gpu/common"
	"github.com/Carmen-Shannon/oxy-gpu/engine/host/hosttest"
	"github.com/stretchr/testify/assert"
)

func TestStretchedViewportDisabled(t *testing.T) {
	c := hosttest.NewClient(765, 503)
	c.Viewport = [2]int{512, 334}
	c.ViewportOffset = [2]int{4, 4}

	v := StretchedViewport(c)
	assert.Equal(t, Viewport{X: 4, Y: 4, Width: 512, Height: 334, CanvasWidth: 765, CanvasHeight: 503}, v)
	assert.Equal(t, 503-334-4, v.BottomUpY())
}

func TestStretchedViewport(t *testing.T) {
	c := hosttest.NewClient(765, 503)
	c.Viewport = [2]int{512, 334}
	c.ViewportOffset = [2]int{4, 4}
	c.Stretched = true
	c.StretchedSize = [2]int{1530, 1006}

	v := StretchedViewport(c)
	assert.Equal(t, Viewport{X: 7, Y: 7, Width: 1026, Height: 670, CanvasWidth: 1530, CanvasHeight: 1006}, v)
	assert.Equal(t, common.Rect{X: 7, Y: 7, Width: 1026, Height: 670}, v.Rect())
	assert.Equal(t, common.Rect{Width: 1530, Height: 1006}, v.Canvas())
}

func TestStretchedViewportRoundsOutward(t *testing.T) {
	c := hosttest.NewClient(100, 100)
	c.Viewport = [2]int{33, 33}
	c.ViewportOffset = [2]int{33, 33}
	c.Stretched = true
	c.StretchedSize = [2]int{150, 150}

	v := StretchedViewport(c)
	// 33 * 1.5 = 49.5
	assert.Equal(t, 50+2, v.Width)
	assert.Equal(t, 50+2, v.Height)
	assert.Equal(t, 49-1, v.X)
	assert.Equal(t, 49-1, v.Y)
}

func TestViewportScaled(t *testing.T) {
	v := Viewport{X: 3, Y: 5, Width: 100, Height: 51, CanvasWidth: 200, CanvasHeight: 101}

	assert.Equal(t, v, v.Scaled(1, 1))
	assert.Equal(t, Viewport{X: 5, Y: 8, Width: 150, Height: 77, CanvasWidth: 300, CanvasHeight: 152}, v.Scaled(1.5, 1.5))
}
