package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/dualquat"
	"gonum.org/v1/gonum/num/quat"
)

// Pose represents a 6dof pose, position and orientation, with respect to the origin.
// Positions are in meters.
type Pose interface {
	Point() r3.Vector
	Orientation() Orientation
}

// dualQuaternion stores a rigid transform as real (rotation) and dual (half translation times
// rotation) parts so that composition is a single dual quaternion product.
type dualQuaternion struct {
	dualquat.Number
}

func newDualQuaternion(point r3.Vector, orientation quat.Number) *dualQuaternion {
	rot := Normalize(orientation)
	return &dualQuaternion{dualquat.Number{
		Real: rot,
		Dual: quat.Scale(0.5, quat.Mul(quat.Number{Imag: point.X, Jmag: point.Y, Kmag: point.Z}, rot)),
	}}
}

func dualQuaternionFromPose(p Pose) *dualQuaternion {
	if dq, ok := p.(*dualQuaternion); ok {
		return dq
	}
	return newDualQuaternion(p.Point(), p.Orientation().Quaternion())
}

// Point multiplies the dual part by the conjugate of the rotation to recover the translation.
func (q *dualQuaternion) Point() r3.Vector {
	t := quat.Scale(2, quat.Mul(q.Dual, quat.Conj(q.Real)))
	return r3.Vector{X: t.Imag, Y: t.Jmag, Z: t.Kmag}
}

// Orientation returns the rotation part.
func (q *dualQuaternion) Orientation() Orientation {
	o := quaternion(q.Real)
	return &o
}

func (q *dualQuaternion) String() string {
	pt := q.Point()
	ea := q.Orientation().EulerAngles()
	return fmt.Sprintf("{X:%.4f Y:%.4f Z:%.4f Roll:%.4f Pitch:%.4f Yaw:%.4f}", pt.X, pt.Y, pt.Z, ea.Roll, ea.Pitch, ea.Yaw)
}

// NewZeroPose returns a pose at (0,0,0) with same orientation as whatever frame it is placed in.
func NewZeroPose() Pose {
	return newDualQuaternion(r3.Vector{}, quat.Number{Real: 1})
}

// NewPose constructs a pose from a point and an orientation. A nil orientation means no rotation.
func NewPose(p r3.Vector, o Orientation) Pose {
	if o == nil {
		return NewPoseFromPoint(p)
	}
	return newDualQuaternion(p, o.Quaternion())
}

// NewPoseFromPoint constructs a pose with a point and no rotation.
func NewPoseFromPoint(p r3.Vector) Pose {
	return newDualQuaternion(p, quat.Number{Real: 1})
}

// NewPoseFromXYZRPY constructs a pose from a translation in meters and roll, pitch, yaw in radians.
func NewPoseFromXYZRPY(x, y, z, roll, pitch, yaw float64) Pose {
	return NewPose(r3.Vector{X: x, Y: y, Z: z}, &EulerAngles{Roll: roll, Pitch: pitch, Yaw: yaw})
}

// Compose returns the pose obtained by applying b in the frame described by a.
func Compose(a, b Pose) Pose {
	return &dualQuaternion{dualquat.Mul(dualQuaternionFromPose(a).Number, dualQuaternionFromPose(b).Number)}
}

// PoseInverse returns the pose that undoes p, so Compose(p, PoseInverse(p)) is the zero pose.
func PoseInverse(p Pose) Pose {
	inv := quat.Conj(Normalize(p.Orientation().Quaternion()))
	pt := p.Point()
	x, y, z := rotateVector(inv, -pt.X, -pt.Y, -pt.Z)
	return newDualQuaternion(r3.Vector{X: x, Y: y, Z: z}, inv)
}

// TransformPoint maps a point expressed in the frame of p into p's parent frame.
func TransformPoint(p Pose, pt r3.Vector) r3.Vector {
	x, y, z := rotateVector(Normalize(p.Orientation().Quaternion()), pt.X, pt.Y, pt.Z)
	return p.Point().Add(r3.Vector{X: x, Y: y, Z: z})
}

// PoseAlmostEqual will return a bool describing whether 2 poses are approximately the same.
func PoseAlmostEqual(a, b Pose) bool {
	return PoseAlmostEqualEps(a, b, 1e-6)
}

// PoseAlmostEqualEps will return a bool describing whether 2 poses are approximately the same,
// with points compared to within eps meters.
func PoseAlmostEqualEps(a, b Pose, eps float64) bool {
	return PoseAlmostCoincidentEps(a, b, eps) && OrientationAlmostEqual(a.Orientation(), b.Orientation())
}

// PoseAlmostCoincidentEps will return a bool describing whether 2 poses approximately are at the
// same 3D coordinate location, ignoring orientation.
func PoseAlmostCoincidentEps(a, b Pose, eps float64) bool {
	return a.Point().Sub(b.Point()).Norm() < eps
}

// PoseToPose2D projects a pose onto the field plane, keeping x, y and yaw.
func PoseToPose2D(p Pose) Pose2D {
	pt := p.Point()
	return NewPose2D(Translation2D{X: pt.X, Y: pt.Y}, NewRotation2D(p.Orientation().EulerAngles().Yaw))
}

// Pose2DToPose lifts a planar pose into 3D at z=0 with only a yaw component.
func Pose2DToPose(p Pose2D) Pose {
	return NewPoseFromXYZRPY(p.Translation.X, p.Translation.Y, 0, 0, 0, p.Rotation.Radians())
}

// PoseIsFinite reports whether every component of the pose is finite.
func PoseIsFinite(p Pose) bool {
	pt := p.Point()
	q := p.Orientation().Quaternion()
	for _, v := range []float64{pt.X, pt.Y, pt.Z, q.Real, q.Imag, q.Jmag, q.Kmag} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
