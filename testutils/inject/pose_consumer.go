package inject

import (
	"sync"

	"github.com/robotloc/visionfusion/spatialmath"
)

// VisionMeasurement is one call to AddVisionMeasurement.
type VisionMeasurement struct {
	Pose      spatialmath.Pose2D
	Timestamp float64
}

// PoseConsumer is an injected pose estimator. Without injected funcs it records every
// measurement and reports Pose as its current estimate.
type PoseConsumer struct {
	mu           sync.Mutex
	Pose         spatialmath.Pose2D
	measurements []VisionMeasurement

	AddVisionMeasurementFunc func(pose spatialmath.Pose2D, timestamp float64)
	CurrentPoseFunc          func() spatialmath.Pose2D
}

// AddVisionMeasurement calls the injected AddVisionMeasurement or records the measurement.
func (pc *PoseConsumer) AddVisionMeasurement(pose spatialmath.Pose2D, timestamp float64) {
	if pc.AddVisionMeasurementFunc != nil {
		pc.AddVisionMeasurementFunc(pose, timestamp)
		return
	}
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.measurements = append(pc.measurements, VisionMeasurement{Pose: pose, Timestamp: timestamp})
}

// CurrentPose calls the injected CurrentPose or returns Pose.
func (pc *PoseConsumer) CurrentPose() spatialmath.Pose2D {
	if pc.CurrentPoseFunc != nil {
		return pc.CurrentPoseFunc()
	}
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.Pose
}

// Measurements returns the recorded measurements, oldest first.
func (pc *PoseConsumer) Measurements() []VisionMeasurement {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return append([]VisionMeasurement(nil), pc.measurements...)
}
