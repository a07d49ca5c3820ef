package sky

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUSkyParamsSource is the canonical WGSL definition of the SkyParams struct.
// Matches GPUSkyParams layout exactly (48 bytes, std430 aligned).
//
//go:embed assets/sky_params.wgsl
var GPUSkyParamsSource string

// GPUSkyParams is the GPU-aligned representation of the sky gradient uniform.
// Matches the WGSL SkyParams struct layout exactly (see GPUSkyParamsSource).
// Size: 48 bytes.
//
// Offsets:
//   - TopColor:     offset  0 (16 bytes)
//   - HorizonColor: offset 16 (16 bytes)
//   - UseTexture:   offset 32 (4 bytes)
//   - _pad:         offset 36 (12 bytes)
type GPUSkyParams struct {
	TopColor     [4]float32 // offset  0: zenith color, RGBA (16 bytes)
	HorizonColor [4]float32 // offset 16: horizon color, RGBA (16 bytes)
	UseTexture   uint32     // offset 32: 1 when the sky material carries a texture (4 bytes)
	_pad         [3]uint32  // offset 36: padding to 48-byte boundary (12 bytes)
}

// Size returns the size of the GPUSkyParams struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUSkyParams) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUSkyParams struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 48-byte buffer ready for GPU upload.
func (g *GPUSkyParams) Marshal() []byte {
	buf := make([]byte, 48)
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint32(buf[i*4:(i+1)*4], math.Float32bits(g.TopColor[i]))
		binary.LittleEndian.PutUint32(buf[16+i*4:16+(i+1)*4], math.Float32bits(g.HorizonColor[i]))
	}
	binary.LittleEndian.PutUint32(buf[32:36], g.UseTexture)
	return buf
}
