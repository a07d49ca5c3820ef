package shape

import (
	"github.com/helio-engine/helio-go/engine/geometry"
	"github.com/helio-engine/helio-go/engine/renderer/material"
)

// ShapeBuilderOption is a functional option for configuring a Shape.
type ShapeBuilderOption func(*Shape)

// WithGeometry adds one unbounded LOD level drawing the given geometry at
// every distance. Shorthand for single-level shapes.
//
// Parameters:
//   - g: the geometry to draw
//
// Returns:
//   - ShapeBuilderOption: the option function
func WithGeometry(g geometry.Geometry) ShapeBuilderOption {
	return func(s *Shape) {
		s.levels = append(s.levels, LOD{Geometry: g})
	}
}

// WithLOD appends a LOD level. Register levels nearest first; the last
// registered level serves every distance past its predecessors regardless of
// its own threshold.
//
// Parameters:
//   - g: the geometry drawn while this level is selected
//   - maxDistance: the camera distance below which this level is used
//
// Returns:
//   - ShapeBuilderOption: the option function
func WithLOD(g geometry.Geometry, maxDistance float32) ShapeBuilderOption {
	return func(s *Shape) {
		s.levels = append(s.levels, LOD{Geometry: g, MaxDistance: maxDistance})
	}
}

// WithMaterial sets the shape's material.
//
// Parameters:
//   - m: the material to share across the shape's LOD levels
//
// Returns:
//   - ShapeBuilderOption: the option function
func WithMaterial(m material.Material) ShapeBuilderOption {
	return func(s *Shape) {
		s.material = m
	}
}
