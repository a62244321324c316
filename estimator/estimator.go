// Package estimator holds the vision pose sources. Each source runs every fusion cycle and
// decides on its own, from the cycle's mode and its sensor readings, whether it has a
// trustworthy result.
package estimator

import (
	"github.com/pkg/errors"

	"github.com/robotloc/visionfusion/detection"
	"github.com/robotloc/visionfusion/receiver"
	"github.com/robotloc/visionfusion/referenceframe"
	"github.com/robotloc/visionfusion/spatialmath"
)

// Source identifies a pose source.
type Source int

const (
	// SourceTagDirect reads the field pose solved on the detection camera.
	SourceTagDirect Source = iota
	// SourceMultiTag solves the field pose from every tag a second camera sees.
	SourceMultiTag
	// SourceRetroreflective ranges a retroreflective target.
	SourceRetroreflective
	// SourceMLObject locates a game piece on the field.
	SourceMLObject
)

func (s Source) String() string {
	switch s {
	case SourceTagDirect:
		return "tag_direct"
	case SourceMultiTag:
		return "multi_tag"
	case SourceRetroreflective:
		return "retroreflective"
	case SourceMLObject:
		return "ml_object"
	default:
		return "unknown"
	}
}

// Cycle is what every estimator sees of the current fusion cycle.
type Cycle struct {
	// Now is the cycle's wall time in seconds.
	Now float64
	// Mode is the active detection mode.
	Mode detection.Mode
	// Disabled turns every source off.
	Disabled bool
	// RobotPose returns the consumer's current pose estimate.
	RobotPose func() spatialmath.Pose2D
	// Sensors holds the detection camera's values frozen for this cycle. When nil, estimators
	// read the receiver they were built with.
	Sensors receiver.Receiver
}

func (c Cycle) robotPose() spatialmath.Pose2D {
	if c.RobotPose == nil {
		return spatialmath.Pose2D{}
	}
	return c.RobotPose()
}

func (c Cycle) sensors(fallback receiver.Receiver) receiver.Receiver {
	if c.Sensors == nil {
		return fallback
	}
	return c.Sensors
}

// Estimate is one source's result for one cycle. Which payload is set depends on the source:
// tag sources fill Pose, the retroreflective source fills Translation and the ML source fills
// FieldPose.
type Estimate struct {
	Source  Source
	Present bool

	Pose        *TimestampedPose
	Translation spatialmath.Translation2D
	FieldPose   spatialmath.Pose2D
}

// Absent returns the empty result for src.
func Absent(src Source) Estimate {
	return Estimate{Source: src}
}

// An Estimator is a pose source.
type Estimator interface {
	Source() Source
	Estimate(cycle Cycle) Estimate
}

// TimestampedPose is a field-frame robot pose at the time the image behind it was captured.
type TimestampedPose struct {
	pose      *referenceframe.PoseInFrame
	timestamp float64
}

// NewTimestampedPose checks that pose is in the field frame and was captured no later than now.
func NewTimestampedPose(pose *referenceframe.PoseInFrame, timestamp, now float64) (*TimestampedPose, error) {
	if err := referenceframe.RequireFrame(pose, referenceframe.Field); err != nil {
		return nil, err
	}
	if timestamp > now {
		return nil, errors.Errorf("capture timestamp %.6f is after the cycle time %.6f", timestamp, now)
	}
	if !spatialmath.PoseIsFinite(pose.Pose()) {
		return nil, errors.New("pose is not finite")
	}
	return &TimestampedPose{pose: pose, timestamp: timestamp}, nil
}

// Pose returns the 3D field pose.
func (tp *TimestampedPose) Pose() *referenceframe.PoseInFrame {
	return tp.pose
}

// Pose2D returns the pose projected onto the field plane.
func (tp *TimestampedPose) Pose2D() spatialmath.Pose2D {
	return spatialmath.PoseToPose2D(tp.pose.Pose())
}

// Timestamp returns the capture time in seconds.
func (tp *TimestampedPose) Timestamp() float64 {
	return tp.timestamp
}
