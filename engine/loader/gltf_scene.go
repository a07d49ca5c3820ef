package loader

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/helio-engine/helio-go/common"
	"github.com/helio-engine/helio-go/engine/geometry"
	"github.com/helio-engine/helio-go/engine/renderer/material"
	"github.com/helio-engine/helio-go/engine/shape"
	"github.com/helio-engine/helio-go/engine/spatial"
)

// buildScene converts the document's default scene (or its first scene) into
// a spatial hierarchy. Every glTF node becomes a Group named per nodeName,
// with one child Shape per mesh primitive.
func buildScene(parser gltfParser, fallbackName string, geometries []geometry.Geometry, byMesh [][]int, materials []material.Material) (*spatial.Group, error) {
	doc := parser.Document()

	var sceneIndex int
	if doc.Scene != nil {
		sceneIndex = *doc.Scene
	}
	if sceneIndex < 0 || sceneIndex >= len(doc.Scenes) {
		return nil, fmt.Errorf("scene index %d out of range", sceneIndex)
	}
	sc := &doc.Scenes[sceneIndex]

	rootName := sc.Name
	if rootName == "" {
		rootName = fallbackName
	}
	root := spatial.NewGroup(rootName)

	visited := make(map[int]bool)
	for _, ni := range sc.Nodes {
		child, err := buildNode(parser, ni, geometries, byMesh, materials, visited)
		if err != nil {
			return nil, err
		}
		root.AddChild(child)
	}
	return root, nil
}

func buildNode(parser gltfParser, nodeIndex int, geometries []geometry.Geometry, byMesh [][]int, materials []material.Material, visited map[int]bool) (spatial.Spatial, error) {
	doc := parser.Document()
	if nodeIndex < 0 || nodeIndex >= len(doc.Nodes) {
		return nil, fmt.Errorf("node index %d out of range", nodeIndex)
	}
	if visited[nodeIndex] {
		return nil, fmt.Errorf("node %d appears more than once in the hierarchy", nodeIndex)
	}
	visited[nodeIndex] = true

	node := &doc.Nodes[nodeIndex]
	group := spatial.NewGroup(nodeName(doc, nodeIndex))
	group.SetTransform(nodeTransform(node))

	if node.Mesh != nil {
		if *node.Mesh < 0 || *node.Mesh >= len(byMesh) {
			return nil, fmt.Errorf("node %d: mesh index %d out of range", nodeIndex, *node.Mesh)
		}
		for _, gi := range byMesh[*node.Mesh] {
			geom := geometries[gi]
			options := []shape.ShapeBuilderOption{shape.WithGeometry(geom)}
			if mi := primitiveMaterial(doc, *node.Mesh, gi, byMesh); mi != nil {
				if *mi < 0 || *mi >= len(materials) {
					return nil, fmt.Errorf("node %d: material index %d out of range", nodeIndex, *mi)
				}
				options = append(options, shape.WithMaterial(materials[*mi]))
			}
			group.AddChild(shape.NewShape(geom.Name(), options...))
		}
	}

	for _, ci := range node.Children {
		child, err := buildNode(parser, ci, geometries, byMesh, materials, visited)
		if err != nil {
			return nil, err
		}
		group.AddChild(child)
	}
	return group, nil
}

// primitiveMaterial finds the material index of the primitive whose geometry
// landed at flat index gi within the given mesh.
func primitiveMaterial(doc *gltfDocument, meshIndex, gi int, byMesh [][]int) *int {
	for pi, idx := range byMesh[meshIndex] {
		if idx == gi {
			return doc.Meshes[meshIndex].Primitives[pi].Material
		}
	}
	return nil
}

// nodeTransform reads a node's local transform from its TRS fields, or by
// decomposing its matrix when that form is used instead.
func nodeTransform(node *gltfNode) common.Transform {
	if node.Matrix != nil {
		return decomposeMatrix(*node.Matrix)
	}

	tr := common.IdentityTransform()
	if node.Translation != nil {
		tr.Translation = *node.Translation
	}
	if node.Rotation != nil {
		tr.Rotation = common.QuatNormalize(*node.Rotation)
	}
	if node.Scale != nil {
		tr.Scale = *node.Scale
	}
	return tr
}

// decomposeMatrix splits a column-major affine matrix into TRS. Shear and
// negative determinants are not representable; such matrices lose those
// components. glTF requires node matrices to be TRS-decomposable, so this
// only matters for malformed assets.
func decomposeMatrix(m [16]float32) common.Transform {
	var tr common.Transform
	tr.Translation = [3]float32{m[12], m[13], m[14]}

	sx := math32.Sqrt(m[0]*m[0] + m[1]*m[1] + m[2]*m[2])
	sy := math32.Sqrt(m[4]*m[4] + m[5]*m[5] + m[6]*m[6])
	sz := math32.Sqrt(m[8]*m[8] + m[9]*m[9] + m[10]*m[10])
	tr.Scale = [3]float32{sx, sy, sz}

	if sx == 0 || sy == 0 || sz == 0 {
		tr.Rotation = common.QuatIdentity()
		return tr
	}

	// Normalize the rotation columns and convert to a quaternion using the
	// standard trace-based method with the largest-diagonal fallback.
	r00, r10, r20 := m[0]/sx, m[1]/sx, m[2]/sx
	r01, r11, r21 := m[4]/sy, m[5]/sy, m[6]/sy
	r02, r12, r22 := m[8]/sz, m[9]/sz, m[10]/sz

	trace := r00 + r11 + r22
	var q [4]float32
	switch {
	case trace > 0:
		s := math32.Sqrt(trace+1) * 2
		q = [4]float32{(r21 - r12) / s, (r02 - r20) / s, (r10 - r01) / s, s / 4}
	case r00 > r11 && r00 > r22:
		s := math32.Sqrt(1+r00-r11-r22) * 2
		q = [4]float32{s / 4, (r01 + r10) / s, (r02 + r20) / s, (r21 - r12) / s}
	case r11 > r22:
		s := math32.Sqrt(1+r11-r00-r22) * 2
		q = [4]float32{(r01 + r10) / s, s / 4, (r12 + r21) / s, (r02 - r20) / s}
	default:
		s := math32.Sqrt(1+r22-r00-r11) * 2
		q = [4]float32{(r02 + r20) / s, (r12 + r21) / s, s / 4, (r10 - r01) / s}
	}
	tr.Rotation = common.QuatNormalize(q)
	return tr
}
