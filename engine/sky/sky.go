// Package sky implements the scene backdrop: a leaf node the renderer draws
// last with depth writes off, filling every pixel the opaque pass left
// untouched.
package sky

import (
	"github.com/helio-engine/helio-go/engine/geometry"
	"github.com/helio-engine/helio-go/engine/renderer/material"
	"github.com/helio-engine/helio-go/engine/spatial"
)

// Sky is the backdrop leaf. It carries the dome (or cube) geometry it is
// drawn with, a material for an optional panorama texture, and the zenith and
// horizon colors of the fallback vertical gradient.
//
// A sky node keeps the infinite bounds it is initialized with, so it is never
// culled; it renders wherever the camera looks.
type Sky struct {
	spatial.NodeBase

	geometry     geometry.Geometry
	material     material.Material
	topColor     [3]float32
	horizonColor [3]float32
	dirty        bool
}

// NewSky creates a sky node with the specified options applied. A sky built
// without an explicit geometry gets a unit cube around the origin; one
// without a material gets a default white one.
//
// Parameters:
//   - name: the node name
//   - options: a variadic list of SkyBuilderOption functions to configure the Sky
//
// Returns:
//   - *Sky: the new sky node
func NewSky(name string, options ...SkyBuilderOption) *Sky {
	s := &Sky{
		topColor:     [3]float32{0.18, 0.32, 0.62},
		horizonColor: [3]float32{0.71, 0.78, 0.86},
		dirty:        true,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.geometry == nil {
		s.geometry = cubeGeometry(name + " cube")
	}
	if s.material == nil {
		s.material = material.NewMaterial(material.WithName(name + " material"))
	}
	s.Init(s, name)
	return s
}

// Geometry returns the geometry the sky is drawn with.
//
// Returns:
//   - geometry.Geometry: the dome or cube mesh, never nil
func (s *Sky) Geometry() geometry.Geometry {
	return s.geometry
}

// Material returns the sky's material.
//
// Returns:
//   - material.Material: the material, never nil
func (s *Sky) Material() material.Material {
	return s.material
}

// TopColor returns the gradient color at the zenith.
//
// Returns:
//   - [3]float32: the RGB zenith color
func (s *Sky) TopColor() [3]float32 {
	return s.topColor
}

// SetTopColor sets the gradient color at the zenith and marks the sky dirty.
//
// Parameters:
//   - r, g, b: color components in [0, 1]
func (s *Sky) SetTopColor(r, g, b float32) {
	s.topColor = [3]float32{r, g, b}
	s.dirty = true
}

// HorizonColor returns the gradient color at the horizon.
//
// Returns:
//   - [3]float32: the RGB horizon color
func (s *Sky) HorizonColor() [3]float32 {
	return s.horizonColor
}

// SetHorizonColor sets the gradient color at the horizon and marks the sky dirty.
//
// Parameters:
//   - r, g, b: color components in [0, 1]
func (s *Sky) SetHorizonColor(r, g, b float32) {
	s.horizonColor = [3]float32{r, g, b}
	s.dirty = true
}

// Params assembles the sky's GPU parameter block from its current state.
//
// Returns:
//   - GPUSkyParams: the gradient colors and texture flag
func (s *Sky) Params() GPUSkyParams {
	p := GPUSkyParams{
		TopColor:     [4]float32{s.topColor[0], s.topColor[1], s.topColor[2], 1},
		HorizonColor: [4]float32{s.horizonColor[0], s.horizonColor[1], s.horizonColor[2], 1},
	}
	if s.material.Texture() != nil {
		p.UseTexture = 1
	}
	return p
}

// Dirty reports whether the sky's GPU parameter block is stale.
//
// Returns:
//   - bool: true until the owning module's clean pass
func (s *Sky) Dirty() bool {
	return s.dirty
}

// Clean clears the dirty flag. Called by the owning module after it
// re-uploaded the parameter block.
func (s *Sky) Clean() {
	s.dirty = false
}

// cubeGeometry builds the default unit cube centered on the origin. The sky
// pipeline culls no faces, so winding does not matter.
func cubeGeometry(name string) geometry.Geometry {
	return geometry.NewGeometry(
		geometry.WithName(name),
		geometry.WithPositions([][3]float32{
			{-1, -1, -1}, {1, -1, -1}, {1, 1, -1}, {-1, 1, -1},
			{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1},
		}),
		geometry.WithIndices([]uint32{
			0, 1, 2, 0, 2, 3, // back
			5, 4, 7, 5, 7, 6, // front
			4, 0, 3, 4, 3, 7, // left
			1, 5, 6, 1, 6, 2, // right
			3, 2, 6, 3, 6, 7, // top
			4, 5, 1, 4, 1, 0, // bottom
		}),
	)
}
