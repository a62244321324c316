package estimator

import (
	"github.com/robotloc/visionfusion/apriltag"
	"github.com/robotloc/visionfusion/referenceframe"
)

// A TagCamera provides the latest processed frame of a multi-tag camera.
type TagCamera interface {
	LatestFrame() (apriltag.Frame, bool)
}

// MultiTag solves the field pose from every tag a dedicated camera sees. It runs in every
// detection mode since it does not share the detection camera.
type MultiTag struct {
	camera TagCamera
	solver *apriltag.Solver
}

// NewMultiTag returns a multi-tag source.
func NewMultiTag(camera TagCamera, solver *apriltag.Solver) *MultiTag {
	return &MultiTag{camera: camera, solver: solver}
}

// Source returns SourceMultiTag.
func (e *MultiTag) Source() Source {
	return SourceMultiTag
}

// Estimate seeds the solver with the robot's current pose and returns what it solves from the
// latest frame. A frame already solved yields nothing.
func (e *MultiTag) Estimate(cycle Cycle) Estimate {
	if cycle.Disabled {
		return Absent(SourceMultiTag)
	}
	e.solver.SetReferencePose(cycle.robotPose())

	frame, ok := e.camera.LatestFrame()
	if !ok {
		return Absent(SourceMultiTag)
	}
	sol, ok := e.solver.Update(frame)
	if !ok {
		return Absent(SourceMultiTag)
	}

	timestamp := cycle.Now - frame.LatencyMillis/1000
	tp, err := NewTimestampedPose(referenceframe.NewPoseInFrame(referenceframe.Field, sol.Pose), timestamp, cycle.Now)
	if err != nil {
		return Absent(SourceMultiTag)
	}
	return Estimate{Source: SourceMultiTag, Present: true, Pose: tp}
}
