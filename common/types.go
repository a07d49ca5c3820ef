// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

// Transform is a local translation/rotation/scale triple. Rotation is a unit
// quaternion in (x, y, z, w) order. The zero value is NOT a valid transform;
// use IdentityTransform.
type Transform struct {
	// Translation in parent space.
	Translation [3]float32

	// Rotation as a unit quaternion (x, y, z, w).
	Rotation [4]float32

	// Scale factors along each local axis.
	Scale [3]float32
}

// IdentityTransform returns the no-op transform: zero translation, identity
// rotation, unit scale.
func IdentityTransform() Transform {
	return Transform{
		Rotation: QuatIdentity(),
		Scale:    [3]float32{1, 1, 1},
	}
}

// Matrix writes the 4x4 column-major matrix composing this transform
// (translate * rotate * scale) into out.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
func (t Transform) Matrix(out []float32) {
	QuatToMatrix(out, t.Rotation)
	for col := 0; col < 3; col++ {
		s := t.Scale[col]
		out[col*4+0] *= s
		out[col*4+1] *= s
		out[col*4+2] *= s
	}
	out[12] = t.Translation[0]
	out[13] = t.Translation[1]
	out[14] = t.Translation[2]
}
