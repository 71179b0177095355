package hosttest

import (
	"github.com/Carmen-Shannon/oxy-gpu/common"
	"github.com/Carmen-Shannon/oxy-gpu/engine/host"
)

// Client is a host.Client with public fields. The zero value needs its canvas and viewport sizes set.
type Client struct {
	Canvas           [2]int
	Viewport         [2]int
	ViewportOffset   [2]int
	Stretched        bool
	StretchedSize    [2]int
	StretchedNearest bool
	Scale2D          [2]float32

	Center     [2]int
	Zoom       int
	Camera     [3]int
	Yaw, Pitch int
	Sky        int
	State      host.GameState
	World      host.Scene
	Provider   host.TextureProvider
	UI         []int32
	UISize     [2]int

	Clickboxes int
	Disabled   []error
}

var _ host.Client = &Client{}

// NewClient returns a logged-in client with matching canvas and viewport sizes.
func NewClient(width, height int) *Client {
	return &Client{
		Canvas:   [2]int{width, height},
		Viewport: [2]int{width, height},
		Center:   [2]int{width / 2, height / 2},
		Zoom:     512,
		State:    host.GameStateLoggedIn,
		UI:       make([]int32, width*height),
		UISize:   [2]int{width, height},
	}
}

func (c *Client) CanvasWidth() int       { return c.Canvas[0] }
func (c *Client) CanvasHeight() int      { return c.Canvas[1] }
func (c *Client) ViewportWidth() int     { return c.Viewport[0] }
func (c *Client) ViewportHeight() int    { return c.Viewport[1] }
func (c *Client) ViewportXOffset() int   { return c.ViewportOffset[0] }
func (c *Client) ViewportYOffset() int   { return c.ViewportOffset[1] }
func (c *Client) StretchedEnabled() bool { return c.Stretched }
func (c *Client) StretchedFast() bool    { return c.StretchedNearest }

func (c *Client) StretchedDimensions() (int, int) {
	return c.StretchedSize[0], c.StretchedSize[1]
}

func (c *Client) SurfaceScale() (float32, float32) {
	if c.Scale2D == [2]float32{} {
		return 1, 1
	}
	return c.Scale2D[0], c.Scale2D[1]
}

func (c *Client) CenterX() int     { return c.Center[0] }
func (c *Client) CenterY() int     { return c.Center[1] }
func (c *Client) Scale() int       { return c.Zoom }
func (c *Client) CameraX2() int    { return c.Camera[0] }
func (c *Client) CameraY2() int    { return c.Camera[1] }
func (c *Client) CameraZ2() int    { return c.Camera[2] }
func (c *Client) CameraYaw() int   { return c.Yaw }
func (c *Client) CameraPitch() int { return c.Pitch }

func (c *Client) Clip() common.Frustum {
	return common.NewFrustum(c.Viewport[0], c.Viewport[1], c.Zoom)
}

func (c *Client) SkyboxColor() int                      { return c.Sky }
func (c *Client) GameState() host.GameState             { return c.State }
func (c *Client) Scene() host.Scene                     { return c.World }
func (c *Client) TextureProvider() host.TextureProvider { return c.Provider }

func (c *Client) UIPixels() ([]int32, int, int) {
	return c.UI, c.UISize[0], c.UISize[1]
}

func (c *Client) CheckClickbox(host.Model, int, int, int, int, int, int, int, int, int64) {
	c.Clickboxes++
}

func (c *Client) OnRendererDisabled(err error) {
	c.Disabled = append(c.Disabled, err)
}
