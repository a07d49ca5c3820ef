package sky

import (
	"github.com/helio-engine/helio-go/engine/geometry"
	"github.com/helio-engine/helio-go/engine/renderer/material"
)

// SkyBuilderOption is a functional option for configuring a Sky.
type SkyBuilderOption func(*Sky)

// WithGeometry sets the sky's dome or cube geometry.
//
// Parameters:
//   - g: the geometry to draw the sky with
//
// Returns:
//   - SkyBuilderOption: the option function
func WithGeometry(g geometry.Geometry) SkyBuilderOption {
	return func(s *Sky) {
		s.geometry = g
	}
}

// WithMaterial sets the sky's material, typically to attach a panorama texture.
//
// Parameters:
//   - m: the material to use
//
// Returns:
//   - SkyBuilderOption: the option function
func WithMaterial(m material.Material) SkyBuilderOption {
	return func(s *Sky) {
		s.material = m
	}
}

// WithTopColor sets the gradient color at the zenith.
//
// Parameters:
//   - r, g, b: color components in [0, 1]
//
// Returns:
//   - SkyBuilderOption: the option function
func WithTopColor(r, g, b float32) SkyBuilderOption {
	return func(s *Sky) {
		s.topColor = [3]float32{r, g, b}
	}
}

// WithHorizonColor sets the gradient color at the horizon.
//
// Parameters:
//   - r, g, b: color components in [0, 1]
//
// Returns:
//   - SkyBuilderOption: the option function
func WithHorizonColor(r, g, b float32) SkyBuilderOption {
	return func(s *Sky) {
		s.horizonColor = [3]float32{r, g, b}
	}
}
