package material

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// MaxGPUMaterials is the default slot capacity of the material shader cache.
const MaxGPUMaterials = 256

// GPUMaterialParamsSource is the canonical WGSL definition of the MaterialParams struct.
// Matches GPUMaterialParams layout exactly (48 bytes, std430 aligned).
//
//go:embed assets/material_params.wgsl
var GPUMaterialParamsSource string

// GPUMaterialParams is the GPU-aligned representation of one material's
// surface parameters as read by the lit fragment shader.
// Matches the WGSL MaterialParams struct layout exactly (see GPUMaterialParamsSource).
// Size: 48 bytes (std430 / WGSL aligned).
type GPUMaterialParams struct {
	BaseColor  [4]float32 // offset  0: albedo RGBA factor
	Emissive   [3]float32 // offset 16: emissive RGB
	Metallic   float32    // offset 28: 0 = dielectric, 1 = metal
	Roughness  float32    // offset 32: 0 = mirror, 1 = fully rough
	UseTexture uint32     // offset 36: 1 = sample the base color texture
	_pad       [2]uint32  // offset 40: padding to 48-byte alignment
}

// Size returns the size of the GPUMaterialParams struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (48)
func (g *GPUMaterialParams) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUMaterialParams struct into a byte buffer suitable
// for GPU upload.
//
// Returns:
//   - []byte: 48-byte buffer ready for GPU upload
func (g *GPUMaterialParams) Marshal() []byte {
	buf := make([]byte, 48)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.BaseColor[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.BaseColor[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.BaseColor[2]))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(g.BaseColor[3]))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(g.Emissive[0]))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(g.Emissive[1]))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(g.Emissive[2]))
	binary.LittleEndian.PutUint32(buf[28:32], math.Float32bits(g.Metallic))
	binary.LittleEndian.PutUint32(buf[32:36], math.Float32bits(g.Roughness))
	binary.LittleEndian.PutUint32(buf[36:40], g.UseTexture)
	binary.LittleEndian.PutUint32(buf[40:44], 0) // padding
	binary.LittleEndian.PutUint32(buf[44:48], 0)
	return buf
}
