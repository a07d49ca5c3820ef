package geometry

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUVertexSource is the canonical WGSL definition of the VertexInput struct for mesh pipelines.
// Matches GPUVertex layout exactly (64 bytes, std430 aligned).
//
//go:embed assets/vertex.wgsl
var GPUVertexSource string

// GPUVertex is the GPU-aligned representation of a single mesh vertex.
// Matches the WGSL VertexInput struct layout exactly (see GPUVertexSource).
// Size: 64 bytes (std430 aligned, no padding required).
type GPUVertex struct {
	Position [3]float32 // offset  0: vertex position in model space (12 bytes)
	Normal   [3]float32 // offset 12: vertex normal for lighting (12 bytes)
	TexCoord [2]float32 // offset 24: UV texture coordinate (8 bytes)
	Color    [4]float32 // offset 32: per-vertex RGBA color (16 bytes)
	Tangent  [4]float32 // offset 48: tangent vector (xyz) + handedness (w) for normal mapping (16 bytes)
}

// Size returns the size of the GPUVertex struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUVertex struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 64-byte buffer ready for GPU upload.
func (g *GPUVertex) Marshal() []byte {
	buf := make([]byte, 64)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Position[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.Position[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.Position[2]))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(g.Normal[0]))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(g.Normal[1]))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(g.Normal[2]))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(g.TexCoord[0]))
	binary.LittleEndian.PutUint32(buf[28:32], math.Float32bits(g.TexCoord[1]))
	binary.LittleEndian.PutUint32(buf[32:36], math.Float32bits(g.Color[0]))
	binary.LittleEndian.PutUint32(buf[36:40], math.Float32bits(g.Color[1]))
	binary.LittleEndian.PutUint32(buf[40:44], math.Float32bits(g.Color[2]))
	binary.LittleEndian.PutUint32(buf[44:48], math.Float32bits(g.Color[3]))
	binary.LittleEndian.PutUint32(buf[48:52], math.Float32bits(g.Tangent[0]))
	binary.LittleEndian.PutUint32(buf[52:56], math.Float32bits(g.Tangent[1]))
	binary.LittleEndian.PutUint32(buf[56:60], math.Float32bits(g.Tangent[2]))
	binary.LittleEndian.PutUint32(buf[60:64], math.Float32bits(g.Tangent[3]))
	return buf
}

// GPUModelDataSource is the canonical WGSL definition of the ModelData struct for per-instance model matrices.
// Matches GPUModelData layout exactly (80 bytes, std430 aligned).
//
//go:embed assets/model_data.wgsl
var GPUModelDataSource string

// GPUModelData is the GPU-aligned representation of one instance in the model
// storage buffer: the model-to-world matrix plus the slot of the instance's
// material in the material params array.
// Matches the WGSL ModelData struct layout exactly (see GPUModelDataSource).
// Size: 80 bytes.
type GPUModelData struct {
	Model         [16]float32 // offset  0: 4×4 model-to-world transform matrix (64 bytes)
	MaterialIndex uint32      // offset 64: slot into the material params array (4 bytes)
	_pad          [3]uint32   // offset 68: padding to 80-byte boundary (12 bytes)
}

// Size returns the size of the GPUModelData struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUModelData) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUModelData struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 80-byte buffer ready for GPU upload.
func (g *GPUModelData) Marshal() []byte {
	buf := make([]byte, 80)
	for i := 0; i < 16; i++ {
		binary.LittleEndian.PutUint32(buf[i*4:(i+1)*4], math.Float32bits(g.Model[i]))
	}
	binary.LittleEndian.PutUint32(buf[64:68], g.MaterialIndex)
	return buf
}
