package hosttest

import "github.com/Carmen-Shannon/oxy-gpu/engine/host"

// Texture is a host.Texture with public fields.
type Texture struct {
	Data      []int32
	OffsetU   float32
	OffsetV   float32
	Direction int
	Speed     int
}

var _ host.Texture = &Texture{}

func (t *Texture) Pixels() []int32         { return t.Data }
func (t *Texture) U() float32              { return t.OffsetU }
func (t *Texture) SetU(u float32)          { t.OffsetU = u }
func (t *Texture) V() float32              { return t.OffsetV }
func (t *Texture) SetV(v float32)          { t.OffsetV = v }
func (t *Texture) AnimationDirection() int { return t.Direction }
func (t *Texture) AnimationSpeed() int     { return t.Speed }

// SolidTexture returns a loaded size x size texture filled with rgb.
func SolidTexture(size int, rgb int32) *Texture {
	px := make([]int32, size*size)
	for i := range px {
		px[i] = rgb
	}
	return &Texture{Data: px}
}

// TextureProvider is a host.TextureProvider that records Load calls.
type TextureProvider struct {
	Table  []*Texture
	Gamma  float64
	Loaded []int
}

var _ host.TextureProvider = &TextureProvider{}

func (p *TextureProvider) Textures() []host.Texture {
	out := make([]host.Texture, len(p.Table))
	for i, t := range p.Table {
		if t != nil {
			out[i] = t
		}
	}
	return out
}

func (p *TextureProvider) Load(id int)         { p.Loaded = append(p.Loaded, id) }
func (p *TextureProvider) Brightness() float64 { return p.Gamma }
