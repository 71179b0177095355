package hosttest

import "github.com/Carmen-Shannon/oxy-gpu/engine/host"

// Paint is a host.SceneTilePaint with fixed corner colors.
type Paint struct {
	Geometry
	Sw, Se, Ne, Nw int
	Tex            int
}

var _ host.SceneTilePaint = &Paint{}

func (p *Paint) SwColor() int { return p.Sw }
func (p *Paint) SeColor() int { return p.Se }
func (p *Paint) NeColor() int { return p.Ne }
func (p *Paint) NwColor() int { return p.Nw }
func (p *Paint) Texture() int { return p.Tex }

// TileModel is a host.SceneTileModel backed by plain slices.
type TileModel struct {
	Geometry
	VX, VY, VZ             []int32
	FA, FB, FC             []int32
	ColorA, ColorB, ColorC []int32
	TextureIDs             []int32
}

var _ host.SceneTileModel = &TileModel{}

func (m *TileModel) VerticesX() []int32         { return m.VX }
func (m *TileModel) VerticesY() []int32         { return m.VY }
func (m *TileModel) VerticesZ() []int32         { return m.VZ }
func (m *TileModel) FaceX() []int32             { return m.FA }
func (m *TileModel) FaceY() []int32             { return m.FB }
func (m *TileModel) FaceZ() []int32             { return m.FC }
func (m *TileModel) TriangleColorA() []int32    { return m.ColorA }
func (m *TileModel) TriangleColorB() []int32    { return m.ColorB }
func (m *TileModel) TriangleColorC() []int32    { return m.ColorC }
func (m *TileModel) TriangleTextureID() []int32 { return m.TextureIDs }

// Tile is a host.Tile. Nil fields are reported as absent.
type Tile struct {
	PlaneIdx   int
	TX, TY     int
	TilePaint  *Paint
	Shape      *TileModel
	Static     []host.Model
	BridgeTile *Tile
}

var _ host.Tile = &Tile{}

func (t *Tile) Plane() int { return t.PlaneIdx }
func (t *Tile) X() int     { return t.TX }
func (t *Tile) Y() int     { return t.TY }

func (t *Tile) Paint() host.SceneTilePaint {
	if t.TilePaint == nil {
		return nil
	}
	return t.TilePaint
}

func (t *Tile) TileModel() host.SceneTileModel {
	if t.Shape == nil {
		return nil
	}
	return t.Shape
}

func (t *Tile) Models() []host.Model { return t.Static }

func (t *Tile) Bridge() host.Tile {
	if t.BridgeTile == nil {
		return nil
	}
	return t.BridgeTile
}

// Scene is a host.Scene with flat ground unless Heights is set.
type Scene struct {
	Grid    [][]*Tile
	Heights func(plane, x, y int) int
}

var _ host.Scene = &Scene{}

func (s *Scene) Planes() int { return len(s.Grid) }

func (s *Scene) Tiles(plane int) []host.Tile {
	out := make([]host.Tile, 0, len(s.Grid[plane]))
	for _, t := range s.Grid[plane] {
		out = append(out, t)
	}
	return out
}

func (s *Scene) TileHeight(plane, x, y int) int {
	if s.Heights == nil {
		return 0
	}
	return s.Heights(plane, x, y)
}
