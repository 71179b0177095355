package shader

import (
	"embed"
	"io/fs"
)

// Built-in shader sources, loadable by name through a Loader over Assets.
const (
	CompactSource   = "compact.wgsl"
	SceneVertSource = "scene_vert.wgsl"
	SceneFragSource = "scene_frag.wgsl"
	UIVertSource    = "ui_vert.wgsl"
	UIFragSource    = "ui_frag.wgsl"
)

//go:embed assets
var assetFS embed.FS

// Assets returns the embedded WGSL sources rooted at the assets directory.
//
// Returns:
//   - fs.FS: the built-in shader file system
func Assets() fs.FS {
	sub, err := fs.Sub(assetFS, "assets")
	if err != nil {
		panic(err)
	}
	return sub
}
