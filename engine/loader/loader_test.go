package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helio-engine/helio-go/engine/animation"
	"github.com/helio-engine/helio-go/engine/renderer/driver"
	"github.com/helio-engine/helio-go/engine/shape"
	"github.com/helio-engine/helio-go/engine/spatial"
)

// triangleBuffer packs the binary payload the test asset references: a unit
// triangle, its indices, and one translation animation track.
//
// Layout:
//
//	0..36   positions, 3 x VEC3 float32
//	36..42  indices, 3 x uint16 (padded to 44)
//	44..52  keyframe times, 2 x float32
//	52..76  keyframe translations, 2 x VEC3 float32
func triangleBuffer(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	write := func(v any) {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, v))
	}
	write([]float32{0, 0, 0, 1, 0, 0, 0, 1, 0})
	write([]uint16{0, 1, 2, 0})
	write([]float32{0, 2})
	write([]float32{1, 2, 3, 3, 2, 3})
	return buf.Bytes()
}

// triangleJSON renders the test asset with the given buffers entry, so the
// same document can be exercised with an embedded data URI, an external
// file, or GLB framing.
func triangleJSON(bufferJSON string) string {
	return `{
  "asset": {"version": "2.0"},
  "scene": 0,
  "scenes": [{"name": "demo", "nodes": [0]}],
  "nodes": [{"name": "pivot", "mesh": 0, "translation": [1, 2, 3]}],
  "meshes": [{"name": "tri", "primitives": [{"attributes": {"POSITION": 0}, "indices": 1, "material": 0}]}],
  "materials": [{"name": "red", "pbrMetallicRoughness": {"baseColorFactor": [1, 0, 0, 1], "metallicFactor": 0.25, "roughnessFactor": 0.5}, "emissiveFactor": [0, 1, 0], "doubleSided": true}],
  "accessors": [
    {"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"},
    {"bufferView": 1, "componentType": 5123, "count": 3, "type": "SCALAR"},
    {"bufferView": 2, "componentType": 5126, "count": 2, "type": "SCALAR"},
    {"bufferView": 3, "componentType": 5126, "count": 2, "type": "VEC3"}
  ],
  "bufferViews": [
    {"buffer": 0, "byteOffset": 0, "byteLength": 36},
    {"buffer": 0, "byteOffset": 36, "byteLength": 6},
    {"buffer": 0, "byteOffset": 44, "byteLength": 8},
    {"buffer": 0, "byteOffset": 52, "byteLength": 24}
  ],
  "animations": [{"name": "slide", "channels": [{"sampler": 0, "target": {"node": 0, "path": "translation"}}], "samplers": [{"input": 2, "output": 3, "interpolation": "LINEAR"}]}],
  "buffers": [` + bufferJSON + `]
}`
}

func embeddedTriangleJSON(t *testing.T) string {
	t.Helper()
	enc := base64.StdEncoding.EncodeToString(triangleBuffer(t))
	return triangleJSON(`{"uri": "data:application/octet-stream;base64,` + enc + `", "byteLength": 76}`)
}

// wrapGLB frames a JSON document and binary payload as a GLB container.
func wrapGLB(t *testing.T, jsonDoc string, bin []byte) []byte {
	t.Helper()
	j := []byte(jsonDoc)
	for len(j)%4 != 0 {
		j = append(j, ' ')
	}
	b := append([]byte(nil), bin...)
	for len(b)%4 != 0 {
		b = append(b, 0)
	}

	var out bytes.Buffer
	write := func(v uint32) {
		require.NoError(t, binary.Write(&out, binary.LittleEndian, v))
	}
	write(gltfGLBMagic)
	write(gltfGLBVersion)
	write(uint32(12 + 8 + len(j) + 8 + len(b)))
	write(uint32(len(j)))
	write(gltfGLBChunkJSON)
	out.Write(j)
	write(uint32(len(b)))
	write(gltfGLBChunkBIN)
	out.Write(b)
	return out.Bytes()
}

func findShape(root spatial.Spatial, name string) *shape.Shape {
	node := spatial.Find(root, name)
	if node == nil {
		return nil
	}
	s, _ := node.(*shape.Shape)
	return s
}

func TestLoadReaderBuildsSceneGraph(t *testing.T) {
	res, err := NewLoader().LoadReader(strings.NewReader(embeddedTriangleJSON(t)), false)
	require.NoError(t, err)

	assert.Equal(t, "demo", res.Root.Name())

	pivot := spatial.Find(res.Root, "pivot")
	require.NotNil(t, pivot)
	assert.Equal(t, [3]float32{1, 2, 3}, pivot.AsNode().Transform().Translation)

	s := findShape(res.Root, "tri")
	require.NotNil(t, s)
	require.Len(t, res.Geometries, 1)
	geom := res.Geometries[0]
	assert.Equal(t, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}, geom.Positions())
	assert.Equal(t, []uint32{0, 1, 2}, geom.Indices())

	// No NORMAL attribute in the asset, so normals are computed. The
	// triangle lies in the XY plane facing +Z.
	require.Len(t, geom.Normals(), 3)
	for _, n := range geom.Normals() {
		assert.InDelta(t, 1.0, n[2], 1e-5)
	}

	require.Len(t, res.Materials, 1)
	mat := res.Materials[0]
	assert.Equal(t, "red", mat.Name())
	assert.Equal(t, [4]float32{1, 0, 0, 1}, mat.BaseColor())
	assert.InDelta(t, 0.25, mat.Metallic(), 1e-6)
	assert.InDelta(t, 0.5, mat.Roughness(), 1e-6)
	assert.Equal(t, [3]float32{0, 1, 0}, mat.Emissive())
	assert.True(t, mat.DoubleSided())
	assert.Same(t, mat, s.Material())
}

func TestLoadReaderGLB(t *testing.T) {
	doc := triangleJSON(`{"byteLength": 76}`)
	glb := wrapGLB(t, doc, triangleBuffer(t))

	res, err := NewLoader().LoadReader(bytes.NewReader(glb), true)
	require.NoError(t, err)

	assert.Equal(t, "demo", res.Root.Name())
	require.Len(t, res.Geometries, 1)
	assert.Equal(t, []uint32{0, 1, 2}, res.Geometries[0].Indices())
}

func TestLoadReaderAnimationTargetsNodeNames(t *testing.T) {
	res, err := NewLoader().LoadReader(strings.NewReader(embeddedTriangleJSON(t)), false)
	require.NoError(t, err)

	require.Len(t, res.Clips, 1)
	clip := res.Clips[0]
	assert.Equal(t, "slide", clip.Name())
	assert.InDelta(t, 2.0, clip.Duration(), 1e-6)
	require.Len(t, clip.Channels(), 1)
	assert.Equal(t, "pivot", clip.Channels()[0].Target)

	player := animation.NewPlayer(clip, res.Root)
	player.Advance(1)

	pivot := spatial.Find(res.Root, "pivot")
	require.NotNil(t, pivot)
	assert.InDelta(t, 2.0, pivot.AsNode().Transform().Translation[0], 1e-5)
}

func TestLoadReaderDecodesTextures(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.SetRGBA(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	enc := base64.StdEncoding.EncodeToString(buf.Bytes())

	doc := `{
  "asset": {"version": "2.0"},
  "scene": 0,
  "scenes": [{"nodes": [0]}],
  "nodes": [{"name": "empty"}],
  "materials": [{"name": "skin", "pbrMetallicRoughness": {"baseColorTexture": {"index": 0}}}],
  "textures": [{"sampler": 0, "source": 0}],
  "samplers": [{"magFilter": 9728, "wrapS": 33071}],
  "images": [{"name": "dot", "uri": "data:image/png;base64,` + enc + `"}]
}`

	res, err := NewLoader(WithWorkers(1)).LoadReader(strings.NewReader(doc), false)
	require.NoError(t, err)

	require.Len(t, res.Textures, 1)
	tex := res.Textures[0]
	assert.Equal(t, "dot", tex.Name())
	assert.Equal(t, 1, tex.Width())
	assert.Equal(t, 1, tex.Height())
	assert.Equal(t, driver.FilterNearest, tex.Filter())
	assert.Equal(t, driver.WrapClampToEdge, tex.Wrap())

	require.Len(t, res.Materials, 1)
	assert.Same(t, tex, res.Materials[0].Texture())
}

func TestLoadReadsFileWithExternalBuffer(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tri.bin"), triangleBuffer(t), 0o644))

	doc := triangleJSON(`{"uri": "tri.bin", "byteLength": 76}`)
	path := filepath.Join(dir, "tri.gltf")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	res, err := NewLoader().Load(path)
	require.NoError(t, err)
	require.Len(t, res.Geometries, 1)
	assert.Equal(t, [3]float32{1, 0, 0}, res.Geometries[0].Positions()[1])
}

func TestLoadRootFallsBackToFileName(t *testing.T) {
	doc := `{
  "asset": {"version": "2.0"},
  "scene": 0,
  "scenes": [{"nodes": [0]}],
  "nodes": [{"name": "empty"}]
}`
	dir := t.TempDir()
	path := filepath.Join(dir, "crate.gltf")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	res, err := NewLoader().Load(path)
	require.NoError(t, err)
	assert.Equal(t, "crate", res.Root.Name())
}

func TestNodeMatrixDecomposition(t *testing.T) {
	// translate(1,2,3) * uniform scale 2, column-major.
	doc := `{
  "asset": {"version": "2.0"},
  "scene": 0,
  "scenes": [{"nodes": [0]}],
  "nodes": [{"name": "boxed", "matrix": [2, 0, 0, 0, 0, 2, 0, 0, 0, 0, 2, 0, 1, 2, 3, 1]}]
}`
	res, err := NewLoader().LoadReader(strings.NewReader(doc), false)
	require.NoError(t, err)

	node := spatial.Find(res.Root, "boxed")
	require.NotNil(t, node)
	tr := node.AsNode().Transform()
	assert.Equal(t, [3]float32{1, 2, 3}, tr.Translation)
	for i := 0; i < 3; i++ {
		assert.InDelta(t, 2.0, tr.Scale[i], 1e-5)
	}
	assert.InDelta(t, 1.0, tr.Rotation[3], 1e-5)
}

func TestLoadReaderRejectsMalformedAssets(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "wrong version",
			doc:  `{"asset": {"version": "1.0"}}`,
			want: "invalid glTF version",
		},
		{
			name: "missing position attribute",
			doc: `{
  "asset": {"version": "2.0"},
  "scenes": [{"nodes": []}],
  "meshes": [{"primitives": [{"attributes": {}}]}]
}`,
			want: "no POSITION attribute",
		},
		{
			name: "sparse accessor",
			doc: `{
  "asset": {"version": "2.0"},
  "scenes": [{"nodes": []}],
  "meshes": [{"primitives": [{"attributes": {"POSITION": 0}}]}],
  "accessors": [{"componentType": 5126, "count": 1, "type": "VEC3", "sparse": {"count": 1}}]
}`,
			want: "sparse accessors are not supported",
		},
		{
			name: "non-triangle mode",
			doc: `{
  "asset": {"version": "2.0"},
  "scenes": [{"nodes": []}],
  "meshes": [{"primitives": [{"attributes": {"POSITION": 0}, "mode": 1}]}]
}`,
			want: "unsupported primitive mode",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewLoader().LoadReader(strings.NewReader(tc.doc), false)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoadReaderRejectsBadGLB(t *testing.T) {
	data := wrapGLB(t, `{"asset": {"version": "2.0"}}`, nil)
	data[0] = 'X'

	_, err := NewLoader().LoadReader(bytes.NewReader(data), true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid GLB magic")
}
