// Package fusion runs every vision pose source once per control cycle, forwards accepted field
// poses to the localization estimator and keeps the bookkeeping the rest of the robot reads.
package fusion

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"github.com/robotloc/visionfusion/detection"
	"github.com/robotloc/visionfusion/diagnostics"
	"github.com/robotloc/visionfusion/estimator"
	"github.com/robotloc/visionfusion/logging"
	"github.com/robotloc/visionfusion/receiver"
	"github.com/robotloc/visionfusion/spatialmath"
)

// Diagnostic keys published every cycle.
const (
	KeyTagDirectPose         = "/vision/tagDirectPose"
	KeyMultiTagPose          = "/vision/multiTagPose"
	KeyRetroreflectiveTarget = "/vision/retroreflectiveTarget"
	KeyMLFieldPose           = "/vision/mlFieldPose"
	KeyHasTagDirectEstimate  = "/vision/hasTagDirectEstimate"
	KeyHasMultiTagEstimate   = "/vision/hasMultiTagEstimate"
	KeyHasRetroreflective    = "/vision/hasRetroreflectiveEstimate"
	KeyHasMLEstimate         = "/vision/hasMLEstimate"
	KeyLastTagUpdate         = "/vision/lastTagUpdate"
	KeyMode                  = "/vision/mode"
)

// ErrNoMLPoseRecorded is the panic value of LastKnownMLPose when no ML detection was ever
// accepted.
var ErrNoMLPoseRecorded = errors.New("no ML field pose has been recorded")

// A PoseConsumer is the localization estimator vision measurements are fed to.
type PoseConsumer interface {
	// AddVisionMeasurement fuses a field pose captured at timestamp seconds.
	AddVisionMeasurement(pose spatialmath.Pose2D, timestamp float64)
	// CurrentPose returns the current fused pose.
	CurrentPose() spatialmath.Pose2D
}

// A ModeSource reports the active detection mode.
type ModeSource interface {
	Mode() detection.Mode
}

// Config configures a Service.
type Config struct {
	// Disabled turns off every vision source.
	Disabled bool
	// MLMaxAge is how long the last ML pose stays available. Zero keeps it forever.
	MLMaxAge time.Duration
}

// Estimators are the sources the service runs, in the order it runs them. A nil source is
// skipped.
type Estimators struct {
	TagDirect       estimator.Estimator
	MultiTag        estimator.Estimator
	Retroreflective estimator.Estimator
	MLObject        estimator.Estimator

	// Sensors, when set, is read once at the start of every cycle and every source sees that
	// snapshot, so one cycle never mixes two camera frames.
	Sensors Snapshotter
}

// A Snapshotter freezes the detection camera's current values.
type Snapshotter interface {
	Snapshot() *receiver.Snapshot
}

// Service fuses the vision sources. Cycle must not be called concurrently with itself; the
// accessors may be called from any goroutine.
type Service struct {
	cfg        Config
	modes      ModeSource
	estimators Estimators
	consumer   PoseConsumer
	sink       diagnostics.Sink
	clk        clock.Clock
	epoch      time.Time
	logger     logging.Logger

	freshness *FreshnessClock

	mu              sync.RWMutex
	tagDirect       estimator.Estimate
	multiTag        estimator.Estimate
	retroreflective estimator.Estimate
	mlObject        estimator.Estimate
	lastML          spatialmath.Pose2D
	lastMLAt        float64
	hasLastML       bool

	diagnosticFailures atomic.Int64
}

// NewService returns a fusion service. Its timebase starts at zero seconds when it is created,
// and that is also when the tag freshness clock starts.
func NewService(
	cfg Config,
	modes ModeSource,
	estimators Estimators,
	consumer PoseConsumer,
	sink diagnostics.Sink,
	clk clock.Clock,
	logger logging.Logger,
) *Service {
	if sink == nil {
		sink = diagnostics.Noop{}
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Service{
		cfg:        cfg,
		modes:      modes,
		estimators: estimators,
		consumer:   consumer,
		sink:       sink,
		clk:        clk,
		epoch:      clk.Now(),
		logger:     logger,
		freshness:  NewFreshnessClock(0, CategoryAprilTag),
	}
}

// Now returns the service's current time in seconds.
func (s *Service) Now() float64 {
	return s.clk.Since(s.epoch).Seconds()
}

// Cycle runs every source once. Nothing a source or the diagnostics sink does can fail the
// cycle; the only error is a context that was already done.
func (s *Service) Cycle(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	now := s.Now()
	mode := s.modes.Mode()
	cycle := estimator.Cycle{
		Now:       now,
		Mode:      mode,
		Disabled:  s.cfg.Disabled,
		RobotPose: s.consumer.CurrentPose,
	}
	if s.estimators.Sensors != nil {
		cycle.Sensors = s.estimators.Sensors.Snapshot()
	}

	tagDirect := s.runSource(s.estimators.TagDirect, estimator.SourceTagDirect, cycle)
	if tagDirect.Present {
		s.forward(tagDirect, now)
		s.publish(KeyTagDirectPose, tagDirect.Pose.Pose2D().Array())
	}

	multiTag := s.runSource(s.estimators.MultiTag, estimator.SourceMultiTag, cycle)
	if multiTag.Present {
		s.forward(multiTag, now)
		s.publish(KeyMultiTagPose, multiTag.Pose.Pose2D().Array())
	}

	retro := s.runSource(s.estimators.Retroreflective, estimator.SourceRetroreflective, cycle)
	if retro.Present {
		s.freshness.Mark(CategoryRetroreflective, now)
		s.publish(KeyRetroreflectiveTarget, spatialmath.NewPose2D(retro.Translation, spatialmath.Rotation2D{}).Array())
	}

	ml := s.runSource(s.estimators.MLObject, estimator.SourceMLObject, cycle)
	if ml.Present {
		s.freshness.Mark(CategoryML, now)
		s.publish(KeyMLFieldPose, ml.FieldPose.Array())
	}

	s.mu.Lock()
	s.tagDirect = tagDirect
	s.multiTag = multiTag
	s.retroreflective = retro
	s.mlObject = ml
	if ml.Present {
		s.lastML = ml.FieldPose
		s.lastMLAt = now
		s.hasLastML = true
	}
	s.mu.Unlock()

	s.publish(KeyHasTagDirectEstimate, tagDirect.Present)
	s.publish(KeyHasMultiTagEstimate, multiTag.Present)
	s.publish(KeyHasRetroreflective, retro.Present)
	s.publish(KeyHasMLEstimate, ml.Present)
	s.publish(KeyMode, mode.String())
	if staleness, ok := s.freshness.Staleness(CategoryAprilTag, now); ok {
		s.publish(KeyLastTagUpdate, staleness)
	}

	s.logger.Debugw("vision cycle",
		"now", now,
		"mode", mode,
		"tag_direct", tagDirect.Present,
		"multi_tag", multiTag.Present,
		"retroreflective", retro.Present,
		"ml", ml.Present)
	return nil
}

// runSource runs one source, turning a panic into an absent result.
func (s *Service) runSource(e estimator.Estimator, src estimator.Source, cycle estimator.Cycle) (est estimator.Estimate) {
	if e == nil {
		return estimator.Absent(src)
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warnw("vision source panicked", "source", src, "panic", fmt.Sprint(r))
			est = estimator.Absent(src)
		}
	}()
	return e.Estimate(cycle)
}

// forward hands a tag pose to the consumer and marks the tag freshness clock with the cycle time.
func (s *Service) forward(est estimator.Estimate, now float64) {
	s.consumer.AddVisionMeasurement(est.Pose.Pose2D(), est.Pose.Timestamp())
	s.freshness.Mark(CategoryAprilTag, now)
}

// publish sends a diagnostic, swallowing any error or panic from the sink.
func (s *Service) publish(key string, value interface{}) {
	defer func() {
		if r := recover(); r != nil {
			s.diagnosticFailures.Add(1)
			s.logger.Debugw("diagnostics sink panicked", "key", key, "panic", fmt.Sprint(r))
		}
	}()
	if err := s.sink.Publish(key, value); err != nil {
		s.diagnosticFailures.Add(1)
		s.logger.Debugw("failed to publish diagnostic", "key", key, "error", err)
	}
}

// DiagnosticFailures counts the diagnostics the sink rejected.
func (s *Service) DiagnosticFailures() int64 {
	return s.diagnosticFailures.Load()
}

// FreshnessClock returns the per-category acceptance clock.
func (s *Service) FreshnessClock() *FreshnessClock {
	return s.freshness
}

// TagDirectEstimate returns the last cycle's tag-direct pose.
func (s *Service) TagDirectEstimate() (*estimator.TimestampedPose, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tagDirect.Pose, s.tagDirect.Present
}

// HasTagDirectEstimate reports whether the last cycle produced a tag-direct pose.
func (s *Service) HasTagDirectEstimate() bool {
	_, ok := s.TagDirectEstimate()
	return ok
}

// MultiTagEstimate returns the last cycle's multi-tag pose.
func (s *Service) MultiTagEstimate() (*estimator.TimestampedPose, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.multiTag.Pose, s.multiTag.Present
}

// HasMultiTagEstimate reports whether the last cycle produced a multi-tag pose.
func (s *Service) HasMultiTagEstimate() bool {
	_, ok := s.MultiTagEstimate()
	return ok
}

// RetroreflectiveEstimate returns the last cycle's field-aligned translation to the
// retroreflective target.
func (s *Service) RetroreflectiveEstimate() (spatialmath.Translation2D, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.retroreflective.Translation, s.retroreflective.Present
}

// HasRetroreflectiveEstimate reports whether the last cycle ranged a retroreflective target.
func (s *Service) HasRetroreflectiveEstimate() bool {
	_, ok := s.RetroreflectiveEstimate()
	return ok
}

// MLFieldPoseEstimate returns the last cycle's ML object pose.
func (s *Service) MLFieldPoseEstimate() (spatialmath.Pose2D, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mlObject.FieldPose, s.mlObject.Present
}

// HasMLFieldPoseEstimate reports whether the last cycle located an ML object.
func (s *Service) HasMLFieldPoseEstimate() bool {
	_, ok := s.MLFieldPoseEstimate()
	return ok
}

// HasLastKnownMLPose reports whether an ML pose was ever accepted and has not outlived
// MLMaxAge.
func (s *Service) HasLastKnownMLPose() bool {
	_, ok := s.TryLastKnownMLPose()
	return ok
}

// TryLastKnownMLPose returns the most recent accepted ML pose unless none was ever accepted or
// it has outlived MLMaxAge.
func (s *Service) TryLastKnownMLPose() (spatialmath.Pose2D, bool) {
	s.mu.RLock()
	pose, at, ok := s.lastML, s.lastMLAt, s.hasLastML
	s.mu.RUnlock()
	if !ok {
		return spatialmath.Pose2D{}, false
	}
	if s.cfg.MLMaxAge > 0 && s.Now()-at > s.cfg.MLMaxAge.Seconds() {
		return spatialmath.Pose2D{}, false
	}
	return pose, true
}

// LastKnownMLPose returns the most recent accepted ML pose regardless of its age. Calling it
// before any ML pose was accepted is a programming error and panics with ErrNoMLPoseRecorded;
// guard with HasLastKnownMLPose.
func (s *Service) LastKnownMLPose() spatialmath.Pose2D {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hasLastML {
		panic(ErrNoMLPoseRecorded)
	}
	return s.lastML
}

// MLPoseSupplier returns a func reading LastKnownMLPose, for commands that drive to the last
// seen game piece.
func (s *Service) MLPoseSupplier() func() spatialmath.Pose2D {
	return s.LastKnownMLPose
}
