// Package config holds the renderer's user options and keeps them in sync with a TOML file on disk.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/Carmen-Shannon/oxy-gpu/common"
	"github.com/pelletier/go-toml/v2"
)

const (
	// MaxDrawDistance is the largest draw distance in tiles.
	MaxDrawDistance = 90
	// MaxFogDepth is the largest fog depth.
	MaxFogDepth = 100
)

// Config is the set of user options the renderer reads once per frame.
type Config struct {
	// DrawDistance is how many tiles from the camera are drawn, clamped to [0, MaxDrawDistance].
	DrawDistance int `toml:"draw_distance" comment:"Tiles drawn around the camera, 0 to 90"`
	// FogDepth is the width of the fog band at the edge of the draw distance. 0 disables fog.
	FogDepth int `toml:"fog_depth" comment:"Fog band depth, 0 disables fog"`
	// AntiAliasing selects the multisample count of the scene target.
	AntiAliasing AntiAliasingMode `toml:"anti_aliasing" comment:"disabled, msaa2, msaa4, msaa8 or msaa16"`
	// SmoothBanding interpolates colors in HSL space instead of using the client's banded palette.
	SmoothBanding bool `toml:"smooth_banding"`
}

// Default returns the options used when no file is present.
func Default() Config {
	return Config{
		DrawDistance:  25,
		FogDepth:      0,
		AntiAliasing:  AntiAliasingDisabled,
		SmoothBanding: false,
	}
}

// Clamped returns a copy of c with every numeric option inside its valid range.
func (c Config) Clamped() Config {
	c.DrawDistance = common.Clamp(c.DrawDistance, 0, MaxDrawDistance)
	c.FogDepth = common.Clamp(c.FogDepth, 0, MaxFogDepth)
	return c
}

// Load reads a TOML config file. Options missing from the file keep their defaults.
// A missing file is not an error and yields Default().
//
// Parameters:
//   - path: the file to read
//
// Returns:
//   - Config: the decoded options
//   - error: an error if the file exists but cannot be read or decoded
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	return decode(path, data)
}

func decode(path string, data []byte) (Config, error) {
	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes c to path as TOML.
//
// Parameters:
//   - path: the file to write
//   - c: the options to store
//
// Returns:
//   - error: an error if encoding or writing fails
func Save(path string, c Config) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// Source provides the current options.
type Source interface {
	// Current returns the latest options.
	//
	// Returns:
	//   - Config: the options, not yet clamped
	Current() Config
}

// Static is a Source that never changes.
type Static Config

// Current returns the fixed options.
func (s Static) Current() Config {
	return Config(s)
}
