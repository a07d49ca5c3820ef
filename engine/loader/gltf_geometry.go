package loader

import (
	"fmt"

	"github.com/helio-engine/helio-go/engine/geometry"
)

// extractGeometries builds one Geometry per mesh primitive, in document
// order. The returned index maps (mesh, primitive) pairs to slices of the
// flat geometry list so the scene builder can look them up.
func extractGeometries(parser gltfParser) ([]geometry.Geometry, [][]int, error) {
	doc := parser.Document()
	geometries := make([]geometry.Geometry, 0, len(doc.Meshes))
	byMesh := make([][]int, len(doc.Meshes))

	for mi, mesh := range doc.Meshes {
		byMesh[mi] = make([]int, 0, len(mesh.Primitives))
		for pi, prim := range mesh.Primitives {
			geom, err := extractPrimitive(parser, &prim, primitiveName(&mesh, mi, pi))
			if err != nil {
				return nil, nil, fmt.Errorf("mesh %d primitive %d: %w", mi, pi, err)
			}
			byMesh[mi] = append(byMesh[mi], len(geometries))
			geometries = append(geometries, geom)
		}
	}
	return geometries, byMesh, nil
}

func primitiveName(mesh *gltfMesh, meshIndex, primIndex int) string {
	name := mesh.Name
	if name == "" {
		name = fmt.Sprintf("mesh_%d", meshIndex)
	}
	if len(mesh.Primitives) > 1 {
		name = fmt.Sprintf("%s_%d", name, primIndex)
	}
	return name
}

func extractPrimitive(parser gltfParser, prim *gltfPrimitive, name string) (geometry.Geometry, error) {
	if prim.Mode != nil && *prim.Mode != gltfPrimitiveModeTriangles {
		return nil, fmt.Errorf("unsupported primitive mode %d: only triangles are supported", *prim.Mode)
	}
	posAccessor, ok := prim.Attributes["POSITION"]
	if !ok {
		return nil, fmt.Errorf("primitive has no POSITION attribute")
	}

	positions, err := readVec3Attribute(parser, posAccessor)
	if err != nil {
		return nil, fmt.Errorf("failed to read positions: %w", err)
	}

	options := []geometry.GeometryBuilderOption{
		geometry.WithName(name),
		geometry.WithPositions(positions),
	}

	hasNormals := false
	if accessor, ok := prim.Attributes["NORMAL"]; ok {
		normals, err := readVec3Attribute(parser, accessor)
		if err != nil {
			return nil, fmt.Errorf("failed to read normals: %w", err)
		}
		if len(normals) != len(positions) {
			return nil, fmt.Errorf("normal count %d does not match position count %d", len(normals), len(positions))
		}
		options = append(options, geometry.WithNormals(normals))
		hasNormals = true
	}

	if accessor, ok := prim.Attributes["TEXCOORD_0"]; ok {
		texCoords, err := readVec2Attribute(parser, accessor)
		if err != nil {
			return nil, fmt.Errorf("failed to read texture coordinates: %w", err)
		}
		if len(texCoords) != len(positions) {
			return nil, fmt.Errorf("texcoord count %d does not match position count %d", len(texCoords), len(positions))
		}
		options = append(options, geometry.WithTexCoords(texCoords))
	}

	var indices []uint32
	if prim.Indices != nil {
		indices, err = parser.ReadIndexAccessor(*prim.Indices)
		if err != nil {
			return nil, fmt.Errorf("failed to read indices: %w", err)
		}
	} else {
		// Unindexed geometry: synthesize a sequential index buffer.
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	if len(indices)%3 != 0 {
		return nil, fmt.Errorf("index count %d is not a multiple of 3", len(indices))
	}
	for _, idx := range indices {
		if int(idx) >= len(positions) {
			return nil, fmt.Errorf("index %d out of range for %d vertices", idx, len(positions))
		}
	}
	options = append(options, geometry.WithIndices(indices))

	geom := geometry.NewGeometry(options...)
	if !hasNormals {
		geom.ComputeNormals()
	}
	return geom, nil
}

func readVec3Attribute(parser gltfParser, accessorIndex int) ([][3]float32, error) {
	flat, err := parser.ReadFloatAccessor(accessorIndex, gltfAccessorTypeVec3)
	if err != nil {
		return nil, err
	}
	out := make([][3]float32, len(flat)/3)
	for i := range out {
		out[i] = [3]float32{flat[i*3], flat[i*3+1], flat[i*3+2]}
	}
	return out, nil
}

func readVec2Attribute(parser gltfParser, accessorIndex int) ([][2]float32, error) {
	flat, err := parser.ReadFloatAccessor(accessorIndex, gltfAccessorTypeVec2)
	if err != nil {
		return nil, err
	}
	out := make([][2]float32, len(flat)/2)
	for i := range out {
		out[i] = [2]float32{flat[i*2], flat[i*2+1]}
	}
	return out, nil
}
