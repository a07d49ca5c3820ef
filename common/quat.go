package common

import (
	"github.com/chewxy/math32"
)

// Quaternions are stored as [4]float32 in (x, y, z, w) order, matching the
// glTF convention so imported rotation channels need no reshuffling.

// QuatIdentity returns the identity rotation.
func QuatIdentity() [4]float32 {
	return [4]float32{0, 0, 0, 1}
}

// QuatNormalize returns the unit-length quaternion. A zero quaternion
// normalizes to identity.
func QuatNormalize(q [4]float32) [4]float32 {
	l := math32.Sqrt(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])
	if l == 0 {
		return QuatIdentity()
	}
	inv := 1.0 / l
	return [4]float32{q[0] * inv, q[1] * inv, q[2] * inv, q[3] * inv}
}

// QuatFromAxisAngle builds a rotation of angle radians around the given axis.
// The axis does not need to be normalized.
//
// Parameters:
//   - axis: rotation axis
//   - angle: rotation angle in radians
//
// Returns:
//   - [4]float32: the unit quaternion
func QuatFromAxisAngle(axis [3]float32, angle float32) [4]float32 {
	l := math32.Sqrt(axis[0]*axis[0] + axis[1]*axis[1] + axis[2]*axis[2])
	if l == 0 {
		return QuatIdentity()
	}
	s := math32.Sin(angle/2) / l
	return [4]float32{axis[0] * s, axis[1] * s, axis[2] * s, math32.Cos(angle / 2)}
}

// QuatFromEuler builds a rotation from Euler angles applied in Y * X * Z
// order (yaw, pitch, roll), the engine's convention for user-facing rotation.
//
// Parameters:
//   - x, y, z: rotation angles in radians around each axis
//
// Returns:
//   - [4]float32: the unit quaternion
func QuatFromEuler(x, y, z float32) [4]float32 {
	qy := QuatFromAxisAngle([3]float32{0, 1, 0}, y)
	qx := QuatFromAxisAngle([3]float32{1, 0, 0}, x)
	qz := QuatFromAxisAngle([3]float32{0, 0, 1}, z)
	return QuatMul(QuatMul(qy, qx), qz)
}

// QuatMul returns the Hamilton product a * b (apply b first, then a).
func QuatMul(a, b [4]float32) [4]float32 {
	return [4]float32{
		a[3]*b[0] + a[0]*b[3] + a[1]*b[2] - a[2]*b[1],
		a[3]*b[1] - a[0]*b[2] + a[1]*b[3] + a[2]*b[0],
		a[3]*b[2] + a[0]*b[1] - a[1]*b[0] + a[2]*b[3],
		a[3]*b[3] - a[0]*b[0] - a[1]*b[1] - a[2]*b[2],
	}
}

// QuatSlerp spherically interpolates between two unit quaternions along the
// shortest arc. Falls back to normalized linear interpolation when the inputs
// are nearly parallel.
//
// Parameters:
//   - a: start rotation (t = 0)
//   - b: end rotation (t = 1)
//   - t: interpolation parameter in [0, 1]
//
// Returns:
//   - [4]float32: the interpolated unit quaternion
func QuatSlerp(a, b [4]float32, t float32) [4]float32 {
	dot := a[0]*b[0] + a[1]*b[1] + a[2]*b[2] + a[3]*b[3]
	if dot < 0 {
		dot = -dot
		for i := range b {
			b[i] = -b[i]
		}
	}
	if dot > 0.9995 {
		return QuatNormalize([4]float32{
			a[0] + t*(b[0]-a[0]),
			a[1] + t*(b[1]-a[1]),
			a[2] + t*(b[2]-a[2]),
			a[3] + t*(b[3]-a[3]),
		})
	}
	theta := math32.Acos(dot)
	sinTheta := math32.Sin(theta)
	wa := math32.Sin((1-t)*theta) / sinTheta
	wb := math32.Sin(t*theta) / sinTheta
	return [4]float32{
		wa*a[0] + wb*b[0],
		wa*a[1] + wb*b[1],
		wa*a[2] + wb*b[2],
		wa*a[3] + wb*b[3],
	}
}

// QuatToMatrix writes the 4x4 column-major rotation matrix for a unit
// quaternion into out.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - q: unit quaternion (x, y, z, w)
func QuatToMatrix(out []float32, q [4]float32) {
	x, y, z, w := q[0], q[1], q[2], q[3]
	xx, yy, zz := x*x, y*y, z*z
	xy, xz, yz := x*y, x*z, y*z
	wx, wy, wz := w*x, w*y, w*z

	out[0] = 1 - 2*(yy+zz)
	out[1] = 2 * (xy + wz)
	out[2] = 2 * (xz - wy)
	out[3] = 0

	out[4] = 2 * (xy - wz)
	out[5] = 1 - 2*(xx+zz)
	out[6] = 2 * (yz + wx)
	out[7] = 0

	out[8] = 2 * (xz + wy)
	out[9] = 2 * (yz - wx)
	out[10] = 1 - 2*(xx+yy)
	out[11] = 0

	out[12], out[13], out[14], out[15] = 0, 0, 0, 1
}
