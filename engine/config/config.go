// Package config loads engine settings from TOML files. Decoding is strict:
// unknown keys are errors, so typos in a config file fail loudly instead of
// silently falling back to defaults.
package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// WindowConfig holds the window section.
type WindowConfig struct {
	// Title is the window title bar text.
	Title string `toml:"title"`

	// Width is the initial window width in pixels.
	Width int `toml:"width"`

	// Height is the initial window height in pixels.
	Height int `toml:"height"`

	// VSync synchronizes presentation with the display refresh.
	VSync bool `toml:"vsync"`
}

// CameraConfig holds the camera section.
type CameraConfig struct {
	// FOV is the vertical field of view in degrees.
	FOV float32 `toml:"fov"`

	// Near is the near clip plane distance.
	Near float32 `toml:"near"`

	// Far is the far clip plane distance.
	Far float32 `toml:"far"`
}

// RendererConfig holds the renderer section.
type RendererConfig struct {
	// TargetFPS caps the frame rate; zero disables the cap.
	TargetFPS int `toml:"target_fps"`

	// ClearColor is the RGBA clear color, each component in [0, 1].
	ClearColor [4]float32 `toml:"clear_color"`

	// MaxShapes is the model cache slot capacity.
	MaxShapes int `toml:"max_shapes"`

	// MaxMaterials is the material cache slot capacity.
	MaxMaterials int `toml:"max_materials"`

	// MaxLights is the light cache slot capacity.
	MaxLights int `toml:"max_lights"`

	// MaxShadowCasters is the shadow cache slot capacity and the shadow
	// map array depth.
	MaxShadowCasters int `toml:"max_shadow_casters"`

	// ShadowMapSize is the shadow map edge length in pixels.
	ShadowMapSize int `toml:"shadow_map_size"`
}

// ProfilerConfig holds the profiler section.
type ProfilerConfig struct {
	// Enabled turns periodic frame-time logging on.
	Enabled bool `toml:"enabled"`

	// IntervalSeconds is how often aggregated stats are logged.
	IntervalSeconds float64 `toml:"interval_seconds"`
}

// Config is the full engine configuration.
type Config struct {
	Window   WindowConfig   `toml:"window"`
	Camera   CameraConfig   `toml:"camera"`
	Renderer RendererConfig `toml:"renderer"`
	Profiler ProfilerConfig `toml:"profiler"`
}

// Default returns the configuration used when no file is given. Values
// mirror the package defaults of the components they configure.
//
// Returns:
//   - Config: the default configuration
func Default() Config {
	return Config{
		Window: WindowConfig{
			Title:  "helio",
			Width:  1280,
			Height: 720,
			VSync:  true,
		},
		Camera: CameraConfig{
			FOV:  45,
			Near: 0.1,
			Far:  100,
		},
		Renderer: RendererConfig{
			TargetFPS:        0,
			ClearColor:       [4]float32{0, 0, 0, 1},
			MaxShapes:        4096,
			MaxMaterials:     256,
			MaxLights:        1024,
			MaxShadowCasters: 8,
			ShadowMapSize:    2048,
		},
		Profiler: ProfilerConfig{
			Enabled:         false,
			IntervalSeconds: 5,
		},
	}
}

// Load reads and decodes a TOML config file. Keys absent from the file keep
// their Default values; keys not defined by Config are errors.
//
// Parameters:
//   - path: the config file path
//
// Returns:
//   - Config: the decoded configuration
//   - error: an error if the file cannot be read or decoded
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes TOML bytes over the default configuration.
//
// Parameters:
//   - data: the TOML document
//
// Returns:
//   - Config: the decoded configuration
//   - error: an error if decoding fails or an unknown key is present
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
