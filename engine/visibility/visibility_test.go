package visibility

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-gpu/common"
	"github.com/stretchr/testify/assert"
)

const one = common.FixedOne

var clip = common.NewFrustum(512, 334, 512)

// level camera looking down +z
func visibleAt(b Bounds, x, y, z int) bool {
	return IsVisible(b, clip, 0, one, 0, one, x, y, z)
}

func TestIsVisibleCentered(t *testing.T) {
	assert.True(t, visibleAt(Bounds{}, 0, 0, 1000))
}

func TestIsVisibleNearPlane(t *testing.T) {
	assert.False(t, visibleAt(Bounds{}, 0, 0, NearPlane))
	assert.True(t, visibleAt(Bounds{}, 0, 0, NearPlane+1))
	// the cylinder radius pulls the nearest point forward
	assert.True(t, visibleAt(Bounds{XYZMag: 10}, 0, 0, NearPlane-9))
}

func TestIsVisibleHorizontalThreshold(t *testing.T) {
	assert.True(t, visibleAt(Bounds{}, 499, 0, 1000))
	assert.False(t, visibleAt(Bounds{}, 500, 0, 1000))
	assert.True(t, visibleAt(Bounds{}, -499, 0, 1000))
	assert.False(t, visibleAt(Bounds{}, -500, 0, 1000))
}

func TestIsVisibleVerticalThreshold(t *testing.T) {
	assert.True(t, visibleAt(Bounds{}, 0, -326, 1000))
	assert.False(t, visibleAt(Bounds{}, 0, -327, 1000))
	assert.True(t, visibleAt(Bounds{}, 0, 326, 1000))
	assert.False(t, visibleAt(Bounds{}, 0, 327, 1000))
}

func TestIsVisibleHeightExtendsUpward(t *testing.T) {
	// a tall model below the bottom edge still reaches into view
	assert.False(t, visibleAt(Bounds{}, 0, 400, 1000))
	assert.True(t, visibleAt(Bounds{ModelHeight: 100}, 0, 400, 1000))
}

func TestIsVisibleRadiusWidensExtent(t *testing.T) {
	assert.False(t, visibleAt(Bounds{}, 600, 0, 1000))
	assert.True(t, visibleAt(Bounds{XYZMag: 150}, 600, 0, 1000))
}

func TestIsVisibleYaw(t *testing.T) {
	yaw := 512
	ys, yc := int(common.Sine[yaw]), int(common.Cosine[yaw])

	assert.True(t, IsVisible(Bounds{}, clip, 0, one, ys, yc, -1000, 0, 0))
	assert.False(t, IsVisible(Bounds{}, clip, 0, one, ys, yc, 1000, 0, 0))
}

func TestIsVisibleDeterministic(t *testing.T) {
	b := Bounds{XYZMag: 37, ModelHeight: 80}
	first := IsVisible(b, clip, 1200, 65000, 300, 65500, 499, -20, 1000)
	for range 100 {
		assert.Equal(t, first, IsVisible(b, clip, 1200, 65000, 300, 65500, 499, -20, 1000))
	}
}
