package fusion

import (
	"sync"

	"github.com/robotloc/visionfusion/spatialmath"
)

// LatestMeasurement is a PoseConsumer for running without a localization estimator: its current
// pose is the most recent vision measurement, ignoring timestamps older than it has seen.
type LatestMeasurement struct {
	mu        sync.RWMutex
	pose      spatialmath.Pose2D
	timestamp float64
	count     int
}

// NewLatestMeasurement returns a consumer starting at initial.
func NewLatestMeasurement(initial spatialmath.Pose2D) *LatestMeasurement {
	return &LatestMeasurement{pose: initial}
}

// AddVisionMeasurement adopts pose unless a newer measurement was already adopted.
func (lm *LatestMeasurement) AddVisionMeasurement(pose spatialmath.Pose2D, timestamp float64) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	if lm.count > 0 && timestamp < lm.timestamp {
		return
	}
	lm.pose = pose
	lm.timestamp = timestamp
	lm.count++
}

// CurrentPose returns the adopted pose.
func (lm *LatestMeasurement) CurrentPose() spatialmath.Pose2D {
	lm.mu.RLock()
	defer lm.mu.RUnlock()
	return lm.pose
}

// Count returns how many measurements were adopted.
func (lm *LatestMeasurement) Count() int {
	lm.mu.RLock()
	defer lm.mu.RUnlock()
	return lm.count
}
