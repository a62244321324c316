package messaging

import (
	"encoding/json"
	"sync"

	"github.com/robotloc/visionfusion/logging"
	"github.com/robotloc/visionfusion/spatialmath"
)

// RemoteEstimator is a pose consumer living on the other side of the broker. Measurements are
// published to it and its latest fused pose is cached as it arrives.
type RemoteEstimator struct {
	transport Transport
	prefix    string
	logger    logging.Logger

	mu   sync.RWMutex
	pose spatialmath.Pose2D
}

// NewRemoteEstimator returns a remote estimator. Its pose reads as the origin until the first
// estimate arrives.
func NewRemoteEstimator(transport Transport, prefix string, logger logging.Logger) *RemoteEstimator {
	return &RemoteEstimator{transport: transport, prefix: prefix, logger: logger}
}

// Start subscribes to the estimator's pose topic.
func (re *RemoteEstimator) Start() error {
	return re.transport.Subscribe(re.prefix+poseTopic, re.handlePose)
}

func (re *RemoteEstimator) handlePose(_ string, payload []byte) {
	var msg EstimatedPose
	if err := json.Unmarshal(payload, &msg); err != nil {
		re.logger.Debugw("dropping malformed pose estimate", "error", err)
		return
	}
	pose := spatialmath.NewPose2D(spatialmath.Translation2D{X: msg.X, Y: msg.Y}, spatialmath.NewRotation2D(msg.Theta))
	if !pose.Translation.IsFinite() {
		return
	}
	re.mu.Lock()
	re.pose = pose
	re.mu.Unlock()
}

// AddVisionMeasurement publishes the measurement. Delivery is best-effort.
func (re *RemoteEstimator) AddVisionMeasurement(pose spatialmath.Pose2D, timestamp float64) {
	payload, err := json.Marshal(Measurement{
		X:         pose.Translation.X,
		Y:         pose.Translation.Y,
		Theta:     pose.Rotation.Radians(),
		Timestamp: timestamp,
	})
	if err != nil {
		re.logger.Debugw("failed to encode measurement", "error", err)
		return
	}
	if err := re.transport.Publish(re.prefix+measurementTopic, payload); err != nil {
		re.logger.Warnw("failed to publish measurement", "error", err)
	}
}

// CurrentPose returns the latest fused pose received.
func (re *RemoteEstimator) CurrentPose() spatialmath.Pose2D {
	re.mu.RLock()
	defer re.mu.RUnlock()
	return re.pose
}
