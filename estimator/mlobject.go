package estimator

import (
	"github.com/robotloc/visionfusion/detection"
	"github.com/robotloc/visionfusion/rangefinder"
	"github.com/robotloc/visionfusion/receiver"
	"github.com/robotloc/visionfusion/spatialmath"
)

// MLObject locates a game piece lying on the field. The piece is anchored to the robot's
// current pose estimate and its heading is the bearing from the robot to it.
type MLObject struct {
	receiver    receiver.Receiver
	rangefinder *rangefinder.Rangefinder
}

// NewMLObject returns an ML object source.
func NewMLObject(r receiver.Receiver, rf *rangefinder.Rangefinder) *MLObject {
	return &MLObject{receiver: r, rangefinder: rf}
}

// Source returns SourceMLObject.
func (e *MLObject) Source() Source {
	return SourceMLObject
}

// Estimate is present only in ML mode with a target in view.
func (e *MLObject) Estimate(cycle Cycle) Estimate {
	if cycle.Disabled || cycle.Mode != detection.ModeML {
		return Absent(SourceMLObject)
	}
	r := cycle.sensors(e.receiver)
	if !r.TargetPresent() {
		return Absent(SourceMLObject)
	}

	// pieces are always on the ground
	rel, ok := e.rangefinder.RobotRelative(0, r.HorizontalAngle(), r.VerticalAngle())
	if !ok {
		return Absent(SourceMLObject)
	}
	fieldPose := FieldPoseOf(cycle.robotPose(), rel)
	if !fieldPose.Translation.IsFinite() {
		return Absent(SourceMLObject)
	}
	return Estimate{Source: SourceMLObject, Present: true, FieldPose: fieldPose}
}

// FieldPoseOf places a robot-relative translation on the field. The result faces along the
// bearing from the robot to the point.
func FieldPoseOf(robot spatialmath.Pose2D, robotRelative spatialmath.Translation2D) spatialmath.Pose2D {
	return robot.TransformBy(spatialmath.Transform2D{
		Translation: robotRelative,
		Rotation:    robotRelative.Angle(),
	})
}
