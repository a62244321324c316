package estimator

import (
	"github.com/robotloc/visionfusion/detection"
	"github.com/robotloc/visionfusion/receiver"
	"github.com/robotloc/visionfusion/referenceframe"
	"github.com/robotloc/visionfusion/spatialmath"
	"github.com/robotloc/visionfusion/utils"
)

// fieldPoseLength is the size of a published [x, y, z, roll, pitch, yaw] pose.
const fieldPoseLength = 6

// TagDirect forwards the field pose the detection camera solves from the tags it sees.
type TagDirect struct {
	receiver      receiver.Receiver
	cameraToRobot spatialmath.Pose
}

// NewTagDirect returns a tag-direct source. cameraToRobot is the robot origin in the frame of
// the pose the camera publishes.
func NewTagDirect(r receiver.Receiver, cameraToRobot spatialmath.Pose) *TagDirect {
	if cameraToRobot == nil {
		cameraToRobot = spatialmath.NewZeroPose()
	}
	return &TagDirect{receiver: r, cameraToRobot: cameraToRobot}
}

// Source returns SourceTagDirect.
func (e *TagDirect) Source() Source {
	return SourceTagDirect
}

// Estimate is present only in tag mode, with a tag in view and a complete published pose.
func (e *TagDirect) Estimate(cycle Cycle) Estimate {
	if cycle.Disabled || cycle.Mode != detection.ModeTag {
		return Absent(SourceTagDirect)
	}
	r := cycle.sensors(e.receiver)
	if r.TagID() == receiver.NoTag {
		return Absent(SourceTagDirect)
	}
	arr := r.FieldPoseArray(r.Alliance())
	if len(arr) != fieldPoseLength || !utils.IsFinite(arr...) {
		return Absent(SourceTagDirect)
	}

	published := spatialmath.NewPoseFromXYZRPY(
		arr[0], arr[1], arr[2],
		utils.DegToRad(arr[3]), utils.DegToRad(arr[4]), utils.DegToRad(arr[5]),
	)
	robot := referenceframe.NewPoseInFrame(referenceframe.Camera, e.cameraToRobot).
		Transform(referenceframe.NewPoseInFrame(referenceframe.Field, published))

	timestamp := cycle.Now - r.Latency()/1000
	tp, err := NewTimestampedPose(robot, timestamp, cycle.Now)
	if err != nil {
		return Absent(SourceTagDirect)
	}
	return Estimate{Source: SourceTagDirect, Present: true, Pose: tp}
}
