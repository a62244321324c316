package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"
)

func TestZeroPose(t *testing.T) {
	zero := NewZeroPose()
	test.That(t, zero.Point(), test.ShouldResemble, r3.Vector{})
	test.That(t, zero.Orientation().Quaternion(), test.ShouldResemble, quat.Number{Real: 1})
	test.That(t, PoseAlmostEqual(zero, NewPose(r3.Vector{}, nil)), test.ShouldBeTrue)
}

func TestComposeAppliesRotationToChild(t *testing.T) {
	a := NewPoseFromXYZRPY(1, 0, 0, 0, 0, math.Pi/2)
	b := NewPoseFromPoint(r3.Vector{X: 1})

	c := Compose(a, b)
	test.That(t, c.Point().X, test.ShouldAlmostEqual, 1)
	test.That(t, c.Point().Y, test.ShouldAlmostEqual, 1)
	test.That(t, c.Point().Z, test.ShouldAlmostEqual, 0)
	test.That(t, c.Orientation().EulerAngles().Yaw, test.ShouldAlmostEqual, math.Pi/2)
}

func TestPoseInverse(t *testing.T) {
	p := NewPoseFromXYZRPY(1.5, -2, 0.3, 0.1, -0.2, 2.5)

	test.That(t, PoseAlmostEqual(Compose(p, PoseInverse(p)), NewZeroPose()), test.ShouldBeTrue)
	test.That(t, PoseAlmostEqual(Compose(PoseInverse(p), p), NewZeroPose()), test.ShouldBeTrue)
}

func TestTransformPoint(t *testing.T) {
	p := NewPoseFromXYZRPY(2, 3, 0, 0, 0, math.Pi)
	pt := TransformPoint(p, r3.Vector{X: 1, Y: 0, Z: 1})
	test.That(t, pt.X, test.ShouldAlmostEqual, 1)
	test.That(t, pt.Y, test.ShouldAlmostEqual, 3)
	test.That(t, pt.Z, test.ShouldAlmostEqual, 1)
}

func TestEulerAnglesRoundTrip(t *testing.T) {
	ea := &EulerAngles{Roll: 0.1, Pitch: -0.2, Yaw: 0.3}
	back := QuatToEulerAngles(ea.Quaternion())
	test.That(t, back.Roll, test.ShouldAlmostEqual, ea.Roll)
	test.That(t, back.Pitch, test.ShouldAlmostEqual, ea.Pitch)
	test.That(t, back.Yaw, test.ShouldAlmostEqual, ea.Yaw)

	yaw90 := NewEulerAnglesFromDegrees(0, 0, 90).Quaternion()
	test.That(t, yaw90.Real, test.ShouldAlmostEqual, math.Sqrt2/2)
	test.That(t, yaw90.Kmag, test.ShouldAlmostEqual, math.Sqrt2/2)
}

func TestOrientationAlmostEqualIgnoresSign(t *testing.T) {
	o := NewQuaternion(0.5, 0.5, 0.5, 0.5)
	flipped := NewQuaternion(-0.5, -0.5, -0.5, -0.5)
	test.That(t, OrientationAlmostEqual(o, flipped), test.ShouldBeTrue)
	test.That(t, OrientationAlmostEqual(o, NewZeroOrientation()), test.ShouldBeFalse)

	between := OrientationBetween(NewZeroOrientation(), o)
	test.That(t, OrientationAlmostEqual(between, o), test.ShouldBeTrue)
}

func TestPoseToPose2D(t *testing.T) {
	p := NewPoseFromXYZRPY(1, 2, 0.5, 0, 0, math.Pi/4)
	p2 := PoseToPose2D(p)
	test.That(t, p2.Translation.X, test.ShouldAlmostEqual, 1)
	test.That(t, p2.Translation.Y, test.ShouldAlmostEqual, 2)
	test.That(t, p2.Rotation.Degrees(), test.ShouldAlmostEqual, 45)

	test.That(t, PoseAlmostEqual(Pose2DToPose(p2), NewPoseFromXYZRPY(1, 2, 0, 0, 0, math.Pi/4)), test.ShouldBeTrue)
	test.That(t, PoseIsFinite(p), test.ShouldBeTrue)
	test.That(t, PoseIsFinite(NewPoseFromPoint(r3.Vector{X: math.NaN()})), test.ShouldBeFalse)
}
