// Package shape implements the renderable scene leaf: an ordered list of
// level-of-detail geometries drawn with one shared material.
package shape

import (
	"github.com/helio-engine/helio-go/engine/geometry"
	"github.com/helio-engine/helio-go/engine/renderer/material"
	"github.com/helio-engine/helio-go/engine/renderer/shadercache"
	"github.com/helio-engine/helio-go/engine/spatial"
)

// LOD pairs a geometry with the camera distance up to which it is drawn.
type LOD struct {
	// Geometry is the mesh drawn while this level is selected.
	Geometry geometry.Geometry

	// MaxDistance is the selection threshold: the level is used while the
	// camera distance is below it. Ignored on the last level, which serves
	// every remaining distance.
	MaxDistance float32
}

// Shape is the renderable scene leaf. It carries ordered LOD levels sharing
// one material, and its local bounds come from the first level's geometry so
// culling stays stable across LOD switches.
//
// A shape's slot and dirty state expose its world matrix to the per-instance
// model cache: the dirty flag mirrors the node's transform flag, which the
// renderer clears after the frame that re-uploaded the matrix.
type Shape struct {
	spatial.NodeBase

	levels   []LOD
	material material.Material
	slot     int
}

var _ shadercache.Cacheable = &Shape{}

// NewShape creates a renderable shape node with the specified options applied.
// At least one LOD level is required; a shape built without an explicit
// material gets a default white one.
//
// Parameters:
//   - name: the node name
//   - options: a variadic list of ShapeBuilderOption functions to configure the Shape
//
// Returns:
//   - *Shape: the new shape node
func NewShape(name string, options ...ShapeBuilderOption) *Shape {
	s := &Shape{slot: shadercache.UnassignedSlot}
	for _, opt := range options {
		opt(s)
	}
	if len(s.levels) == 0 {
		panic("shape: NewShape requires at least one LOD level")
	}
	if s.material == nil {
		s.material = material.NewMaterial(material.WithName(name + " material"))
	}
	s.Init(s, name)
	s.SetBounds(s.levels[0].Geometry.Bounds())
	return s
}

// Levels returns the ordered LOD levels. The returned slice is the shape's
// own; callers must not mutate it.
//
// Returns:
//   - []LOD: the levels in selection order
func (s *Shape) Levels() []LOD {
	return s.levels
}

// Material returns the shape's material.
//
// Returns:
//   - material.Material: the shared material, never nil
func (s *Shape) Material() material.Material {
	return s.material
}

// SetMaterial replaces the shape's material.
//
// Parameters:
//   - m: the material to use, must be non-nil
func (s *Shape) SetMaterial(m material.Material) {
	if m == nil {
		panic("shape: SetMaterial requires a non-nil material")
	}
	s.material = m
}

// SelectLOD returns the geometry to draw at the given camera distance: the
// first level whose threshold exceeds the distance, or the last level for any
// distance past its predecessors.
//
// Parameters:
//   - distance: the camera-to-shape distance in world units
//
// Returns:
//   - geometry.Geometry: the selected level's geometry
func (s *Shape) SelectLOD(distance float32) geometry.Geometry {
	last := len(s.levels) - 1
	for i := 0; i < last; i++ {
		if distance < s.levels[i].MaxDistance {
			return s.levels[i].Geometry
		}
	}
	return s.levels[last].Geometry
}

// Slot returns the shape's slot in the per-instance model cache.
//
// Returns:
//   - int: the slot index, or shadercache.UnassignedSlot
func (s *Shape) Slot() int {
	return s.slot
}

// SetSlot assigns the shape's model cache slot.
//
// Parameters:
//   - slot: the slot index to assign
func (s *Shape) SetSlot(slot int) {
	s.slot = slot
}

// Dirty reports whether the shape's world matrix is stale in the model cache.
//
// Returns:
//   - bool: true until the renderer's clean pass after the re-upload
func (s *Shape) Dirty() bool {
	return s.TransformDirty()
}

// Marshal serializes the shape's world matrix and material slot as a
// GPUModelData block. The material must be cached before the shape is, so its
// slot is resolved by the time this runs.
//
// Returns:
//   - []byte: 80-byte buffer ready for GPU upload
func (s *Shape) Marshal() []byte {
	var m geometry.GPUModelData
	copy(m.Model[:], s.WorldTransform())
	if slot := s.material.Slot(); slot >= 0 {
		m.MaterialIndex = uint32(slot)
	}
	return m.Marshal()
}
