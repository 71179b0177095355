package host

// Texture is one entry of the client's texture table.
type Texture interface {
	// Pixels returns the texture's 0xRRGGBB pixels, or nil until the texture has loaded.
	Pixels() []int32
	U() float32
	SetU(u float32)
	V() float32
	SetV(v float32)
	// AnimationDirection returns 0 for a static texture, or 1 to 4 for v-, u-, v+ and u+ scrolling.
	AnimationDirection() int
	AnimationSpeed() int
}

// TextureProvider owns the texture table.
type TextureProvider interface {
	// Textures returns the texture table. Unused ids hold nil.
	Textures() []Texture
	// Load marks a texture as in use so the client keeps animating it.
	Load(id int)
	// Brightness returns the gamma exponent applied to texels.
	Brightness() float64
}
