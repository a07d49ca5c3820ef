package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
[window]
title = "demo"
width = 1920
height = 1080
vsync = false

[renderer]
target_fps = 144
clear_color = [0.1, 0.2, 0.3, 1.0]
max_lights = 64

[camera]
fov = 60.0
`))
	require.NoError(t, err)

	assert.Equal(t, "demo", cfg.Window.Title)
	assert.Equal(t, 1920, cfg.Window.Width)
	assert.False(t, cfg.Window.VSync)
	assert.Equal(t, 144, cfg.Renderer.TargetFPS)
	assert.Equal(t, [4]float32{0.1, 0.2, 0.3, 1.0}, cfg.Renderer.ClearColor)
	assert.Equal(t, 64, cfg.Renderer.MaxLights)
	assert.Equal(t, float32(60), cfg.Camera.FOV)

	// Unset keys keep their defaults.
	assert.Equal(t, 2048, cfg.Renderer.ShadowMapSize)
	assert.Equal(t, float32(0.1), cfg.Camera.Near)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte(`
[window]
titel = "typo"
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode config")
}

func TestLoadReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "helio.toml")
	require.NoError(t, os.WriteFile(path, []byte("[profiler]\nenabled = true\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Profiler.Enabled)
	assert.Equal(t, 5.0, cfg.Profiler.IntervalSeconds)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestDefaultIsSelfConsistent(t *testing.T) {
	cfg := Default()
	assert.Positive(t, cfg.Window.Width)
	assert.Positive(t, cfg.Window.Height)
	assert.Positive(t, cfg.Renderer.MaxShapes)
	assert.Positive(t, cfg.Renderer.MaxShadowCasters)
	assert.Less(t, cfg.Camera.Near, cfg.Camera.Far)
}
