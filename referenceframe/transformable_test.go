package referenceframe

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/robotloc/visionfusion/spatialmath"
)

func TestPoseInFrameTransform(t *testing.T) {
	inCamera := NewPoseInFrame(Camera, spatialmath.NewPoseFromPoint(r3.Vector{X: 2}))
	cameraInField := NewPoseInFrame(Field, spatialmath.NewPoseFromXYZRPY(1, 1, 0.5, 0, 0, math.Pi/2))

	inField := inCamera.Transform(cameraInField)
	test.That(t, inField.FrameName(), test.ShouldEqual, Field)
	test.That(t, inField.Pose().Point().X, test.ShouldAlmostEqual, 1)
	test.That(t, inField.Pose().Point().Y, test.ShouldAlmostEqual, 3)
	test.That(t, inField.Pose().Point().Z, test.ShouldAlmostEqual, 0.5)
	test.That(t, inField.AlmostEqual(NewPoseInFrame(Field, inField.Pose())), test.ShouldBeTrue)
	test.That(t, inField.AlmostEqual(NewPoseInFrame(Robot, inField.Pose())), test.ShouldBeFalse)
}

func TestRequireFrame(t *testing.T) {
	test.That(t, RequireFrame(NewPoseInFrame(Field, spatialmath.NewZeroPose()), Field), test.ShouldBeNil)
	err := RequireFrame(NewPoseInFrame(Camera, spatialmath.NewZeroPose()), Field)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "camera")
	test.That(t, RequireFrame(nil, Field), test.ShouldNotBeNil)
}
