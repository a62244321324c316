package spatialmath

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

type quaternion quat.Number

// Quaternion returns orientation in quaternion representation.
func (q *quaternion) Quaternion() quat.Number {
	return quat.Number(*q)
}

// EulerAngles returns orientation in Euler angle representation.
func (q *quaternion) EulerAngles() *EulerAngles {
	return QuatToEulerAngles(quat.Number(*q))
}

// NewQuaternion returns a unit quaternion orientation from its four components.
func NewQuaternion(w, x, y, z float64) Orientation {
	q := quaternion(Normalize(quat.Number{Real: w, Imag: x, Jmag: y, Kmag: z}))
	return &q
}

// QuatToEulerAngles converts a unit quaternion to roll, pitch and yaw. Pitch is clamped at the
// poles so that gimbal lock yields +-pi/2 instead of NaN.
func QuatToEulerAngles(q quat.Number) *EulerAngles {
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag

	sinPitch := 2 * (w*y - z*x)
	if sinPitch > 1 {
		sinPitch = 1
	} else if sinPitch < -1 {
		sinPitch = -1
	}

	return &EulerAngles{
		Roll:  math.Atan2(2*(w*x+y*z), 1-2*(x*x+y*y)),
		Pitch: math.Asin(sinPitch),
		Yaw:   math.Atan2(2*(w*z+x*y), 1-2*(y*y+z*z)),
	}
}

// rotateVector rotates the vector (x, y, z) by the quaternion q.
func rotateVector(q quat.Number, x, y, z float64) (float64, float64, float64) {
	v := quat.Mul(quat.Mul(q, quat.Number{Imag: x, Jmag: y, Kmag: z}), quat.Conj(q))
	return v.Imag, v.Jmag, v.Kmag
}
