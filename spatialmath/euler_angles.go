package spatialmath

import (
	"gonum.org/v1/gonum/num/quat"

	"github.com/robotloc/visionfusion/utils"
)

// EulerAngles are three angles (in radians) used to represent the rotation of an object in 3D
// Euclidean space. Yaw is applied first about Z, then pitch about the new Y, then roll about the
// new X, which matches the field convention for robot poses.
type EulerAngles struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// NewEulerAngles creates an empty EulerAngles struct.
func NewEulerAngles() *EulerAngles {
	return &EulerAngles{Roll: 0, Pitch: 0, Yaw: 0}
}

// NewEulerAnglesFromDegrees creates EulerAngles from roll, pitch and yaw given in degrees.
func NewEulerAnglesFromDegrees(roll, pitch, yaw float64) *EulerAngles {
	return &EulerAngles{Roll: utils.DegToRad(roll), Pitch: utils.DegToRad(pitch), Yaw: utils.DegToRad(yaw)}
}

// EulerAngles returns orientation in Euler angle representation.
func (ea *EulerAngles) EulerAngles() *EulerAngles {
	return ea
}

// Quaternion returns orientation in quaternion representation.
func (ea *EulerAngles) Quaternion() quat.Number {
	cr, sr := halfAngle(ea.Roll)
	cp, sp := halfAngle(ea.Pitch)
	cy, sy := halfAngle(ea.Yaw)

	return quat.Number{
		Real: cr*cp*cy + sr*sp*sy,
		Imag: sr*cp*cy - cr*sp*sy,
		Jmag: cr*sp*cy + sr*cp*sy,
		Kmag: cr*cp*sy - sr*sp*cy,
	}
}
