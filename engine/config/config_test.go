package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, 25, c.DrawDistance)
	assert.Equal(t, 0, c.FogDepth)
	assert.Equal(t, AntiAliasingDisabled, c.AntiAliasing)
	assert.False(t, c.SmoothBanding)
}

func TestClampedDrawDistance(t *testing.T) {
	assert.Equal(t, 90, Config{DrawDistance: 150}.Clamped().DrawDistance)
	assert.Equal(t, 0, Config{DrawDistance: -4}.Clamped().DrawDistance)
	assert.Equal(t, 40, Config{DrawDistance: 40}.Clamped().DrawDistance)
	assert.Equal(t, 100, Config{FogDepth: 250}.Clamped().FogDepth)
}

func TestAntiAliasingSamples(t *testing.T) {
	assert.Equal(t, uint32(1), AntiAliasingDisabled.Samples())
	assert.False(t, AntiAliasingDisabled.Enabled())
	assert.Equal(t, uint32(16), AntiAliasingMSAA16.Samples())
	assert.True(t, AntiAliasingMSAA2.Enabled())
	assert.Equal(t, "msaa8", AntiAliasingMSAA8.String())
}

func TestAntiAliasingText(t *testing.T) {
	var m AntiAliasingMode
	require.NoError(t, m.UnmarshalText([]byte(" MSAA4 ")))
	assert.Equal(t, AntiAliasingMSAA4, m)
	assert.Error(t, m.UnmarshalText([]byte("fxaa")))

	_, err := AntiAliasingMode(42).MarshalText()
	assert.Error(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gpu.toml")
	want := Config{DrawDistance: 60, FogDepth: 30, AntiAliasing: AntiAliasingMSAA8, SmoothBanding: true}

	require.NoError(t, Save(path, want))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "msaa8")

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gpu.toml")
	require.NoError(t, os.WriteFile(path, []byte("fog_depth = 12\n"), 0o644))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 12, got.FogDepth)
	assert.Equal(t, 25, got.DrawDistance)
}

func TestLoadMissingFile(t *testing.T) {
	got, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), got)
}

func TestLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gpu.toml")
	require.NoError(t, os.WriteFile(path, []byte("anti_aliasing = 'fxaa'\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestStaticSource(t *testing.T) {
	var s Source = Static(Config{DrawDistance: 7})
	assert.Equal(t, 7, s.Current().DrawDistance)
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gpu.toml")
	require.NoError(t, Save(path, Config{DrawDistance: 10}))

	changed := make(chan Config, 4)
	w, err := NewWatcher(path, WithOnChange(func(c Config) {
		select {
		case changed <- c:
		default:
		}
	}))
	require.NoError(t, err)
	defer w.Close()
	<-changed
	assert.Equal(t, 10, w.Current().DrawDistance)

	require.NoError(t, Save(path, Config{DrawDistance: 80, AntiAliasing: AntiAliasingMSAA4}))
	assert.Eventually(t, func() bool {
		return w.Current().DrawDistance == 80
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, AntiAliasingMSAA4, w.Current().AntiAliasing)
}

func TestWatcherKeepsPreviousOnBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gpu.toml")
	require.NoError(t, Save(path, Config{DrawDistance: 33}))

	w, err := NewWatcher(path)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("draw_distance = [\n"), 0o644))
	assert.Error(t, w.Reload())
	assert.Equal(t, 33, w.Current().DrawDistance)
	assert.NoError(t, w.Close())
}

func TestWatcherIgnoresEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gpu.toml")
	require.NoError(t, Save(path, Config{DrawDistance: 42, AntiAliasing: AntiAliasingMSAA4}))

	w, err := NewWatcher(path)
	require.NoError(t, err)
	defer w.Close()
	require.Equal(t, 42, w.Current().DrawDistance)

	// truncate half of a truncate-then-write save
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	require.NoError(t, w.Reload())
	assert.Equal(t, 42, w.Current().DrawDistance)
	assert.Equal(t, AntiAliasingMSAA4, w.Current().AntiAliasing)

	require.NoError(t, Save(path, Config{DrawDistance: 64}))
	require.NoError(t, w.Reload())
	assert.Equal(t, 64, w.Current().DrawDistance)
}
