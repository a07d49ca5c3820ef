package geometry

import (
	"github.com/helio-engine/helio-go/common"
)

// GeometryBuilderOption is a functional option for configuring a Geometry via NewGeometry.
type GeometryBuilderOption func(*geometry)

// WithName is an option builder that sets the name of the Geometry.
//
// Parameters:
//   - name: the geometry identifier
//
// Returns:
//   - GeometryBuilderOption: a function that applies the name option to a geometry
func WithName(name string) GeometryBuilderOption {
	return func(g *geometry) {
		g.name = name
	}
}

// WithPositions is an option builder that sets the vertex positions of the Geometry.
//
// Parameters:
//   - positions: the model-space vertex positions to set
//
// Returns:
//   - GeometryBuilderOption: a function that applies the positions option to a geometry
func WithPositions(positions [][3]float32) GeometryBuilderOption {
	return func(g *geometry) {
		g.positions = positions
	}
}

// WithNormals is an option builder that sets the vertex normals of the Geometry.
//
// Parameters:
//   - normals: the vertex normals to set
//
// Returns:
//   - GeometryBuilderOption: a function that applies the normals option to a geometry
func WithNormals(normals [][3]float32) GeometryBuilderOption {
	return func(g *geometry) {
		g.normals = normals
	}
}

// WithTexCoords is an option builder that sets the UV texture coordinates of the Geometry.
//
// Parameters:
//   - texCoords: the texture coordinates to set
//
// Returns:
//   - GeometryBuilderOption: a function that applies the texture coordinate option to a geometry
func WithTexCoords(texCoords [][2]float32) GeometryBuilderOption {
	return func(g *geometry) {
		g.texCoords = texCoords
	}
}

// WithIndices is an option builder that sets the triangle index buffer of the Geometry.
//
// Parameters:
//   - indices: the index array to set
//
// Returns:
//   - GeometryBuilderOption: a function that applies the indices option to a geometry
func WithIndices(indices []uint32) GeometryBuilderOption {
	return func(g *geometry) {
		g.indices = indices
	}
}

// WithBounds is an option builder that manually sets the local bounding box.
// Use this to override the box computed from positions when a manually tuned
// conservative bound is preferred.
//
// Parameters:
//   - bounds: the local bounding box to set
//
// Returns:
//   - GeometryBuilderOption: a function that applies the bounds option to a geometry
func WithBounds(bounds common.BoundingBox) GeometryBuilderOption {
	return func(g *geometry) {
		g.bounds = bounds
	}
}
