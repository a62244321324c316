package apriltag

import (
	"github.com/robotloc/visionfusion/spatialmath"
)

// Transform is a 6dof transform as published by a tag camera: meters and radians.
type Transform struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// Pose converts the transform to a pose.
func (t Transform) Pose() spatialmath.Pose {
	return spatialmath.NewPoseFromXYZRPY(t.X, t.Y, t.Z, t.Roll, t.Pitch, t.Yaw)
}

// Target is one fiducial seen by the camera. Best and Alt are the two solutions of the
// single-tag perspective problem, expressed as the tag's pose in the camera frame (X forward,
// Y left, Z up). Ambiguity is the ratio of their reprojection errors, in [0, 1].
type Target struct {
	ID        int        `json:"id"`
	Best      Transform  `json:"best"`
	Alt       *Transform `json:"alt,omitempty"`
	Ambiguity float64    `json:"ambiguity"`
}

// Frame is one processed camera image.
type Frame struct {
	Sequence      int64    `json:"sequence"`
	LatencyMillis float64  `json:"latency_ms"`
	Targets       []Target `json:"targets"`
}
