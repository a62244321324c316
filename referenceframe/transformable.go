// Package referenceframe names the coordinate frames a vision measurement can be expressed in and
// tags poses with the frame they belong to.
package referenceframe

import (
	"fmt"

	"github.com/robotloc/visionfusion/spatialmath"
)

const (
	// Field is the fixed frame anchored to the competition field. Every pose handed to the
	// localization estimator is expressed here.
	Field = "field"
	// Robot is centered on the robot origin and rotates with its heading.
	Robot = "robot"
	// Camera is centered on a camera's optical origin.
	Camera = "camera"
)

// PoseInFrame is a data structure that packages a pose with the name of the
// frame in which it was observed.
type PoseInFrame struct {
	frame string
	pose  spatialmath.Pose
}

// NewPoseInFrame generates a new PoseInFrame.
func NewPoseInFrame(frame string, pose spatialmath.Pose) *PoseInFrame {
	return &PoseInFrame{
		frame: frame,
		pose:  pose,
	}
}

// FrameName returns the name of the frame in which the pose was observed.
func (pF *PoseInFrame) FrameName() string {
	return pF.frame
}

// Pose returns the pose that was observed.
func (pF *PoseInFrame) Pose() spatialmath.Pose {
	return pF.pose
}

// Transform re-expresses this pose in the parent frame of tf, where tf is the pose of this
// pose's frame within tf's frame.
func (pF *PoseInFrame) Transform(tf *PoseInFrame) *PoseInFrame {
	return NewPoseInFrame(tf.frame, spatialmath.Compose(tf.pose, pF.pose))
}

// AlmostEqual compares frame names and poses.
func (pF *PoseInFrame) AlmostEqual(other *PoseInFrame) bool {
	return pF.frame == other.frame && spatialmath.PoseAlmostEqual(pF.pose, other.pose)
}

func (pF *PoseInFrame) String() string {
	return fmt.Sprintf("%s@%v", pF.frame, pF.pose)
}
