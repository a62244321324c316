package main

import (
	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"github.com/robotloc/visionfusion/apriltag"
	"github.com/robotloc/visionfusion/config"
	"github.com/robotloc/visionfusion/detection"
	"github.com/robotloc/visionfusion/diagnostics"
	"github.com/robotloc/visionfusion/estimator"
	"github.com/robotloc/visionfusion/fusion"
	"github.com/robotloc/visionfusion/logging"
	"github.com/robotloc/visionfusion/messaging"
	"github.com/robotloc/visionfusion/rangefinder"
	"github.com/robotloc/visionfusion/receiver"
	"github.com/robotloc/visionfusion/spatialmath"
)

// system is every component of a running process, wired together.
type system struct {
	table      *receiver.Table
	bridge     *messaging.Bridge
	remote     *messaging.RemoteEstimator
	consumer   fusion.PoseConsumer
	controller *detection.Controller
	service    *fusion.Service
	memory     *diagnostics.Memory
}

func topicPrefix(cfg *config.Config) string {
	if cfg.Messaging != nil {
		return cfg.Messaging.TopicPrefix
	}
	return config.DefaultTopicPrefix
}

// newSystem builds the components described by cfg on top of transport. Nothing is started.
func newSystem(cfg *config.Config, transport messaging.Transport, clk clock.Clock, logger logging.Logger) (*system, error) {
	prefix := topicPrefix(cfg)
	table := receiver.NewTable()
	keys := receiver.DefaultKeys(cfg.Limelight.Name)
	limelight := receiver.NewTableReceiver(table, keys, cfg.AllianceValue())

	s := &system{
		table:  table,
		bridge: messaging.NewBridge(transport, table, prefix, keys.Pipeline, logger.Sublogger("messaging")),
		memory: diagnostics.NewMemory(),
	}
	if cfg.Messaging != nil && cfg.Messaging.RemoteEstimator {
		s.remote = messaging.NewRemoteEstimator(transport, prefix, logger.Sublogger("estimator"))
		s.consumer = s.remote
	} else {
		s.consumer = fusion.NewLatestMeasurement(spatialmath.Pose2D{})
	}

	sink := diagnostics.Multi{
		s.memory,
		diagnostics.NewLoggerSink(logger.Sublogger("diagnostics")),
		messaging.NewSink(transport, prefix),
	}
	s.controller = detection.NewController(cfg.Mode(), s.bridge, sink, logger.Sublogger("detection"))
	s.bridge.OnPipeline(func(index int) {
		if err := s.controller.Follow(index); err != nil {
			logger.Warnw("ignoring pipeline selection", "pipeline", index, "error", err)
		}
	})

	rf := rangefinder.New(cfg.Limelight.Mount(), cfg.Ranging.MaxRange())
	estimators := fusion.Estimators{
		TagDirect:       estimator.NewTagDirect(limelight, cfg.Limelight.CameraToRobot.Pose()),
		Retroreflective: estimator.NewRetroreflective(limelight, rf, cfg.Limelight.BandHeights()),
		MLObject:        estimator.NewMLObject(limelight, rf),
		Sensors:         limelight,
	}
	if cfg.MultiTag != nil {
		layout, err := apriltag.LoadFieldLayout(cfg.MultiTag.LayoutFile)
		if err != nil {
			return nil, errors.Wrap(err, "loading multi-tag field layout")
		}
		solver := apriltag.NewSolver(layout, cfg.MultiTag.RobotToCamera.Pose(), cfg.MultiTag.Ambiguity())
		estimators.MultiTag = estimator.NewMultiTag(receiver.NewTableTagCamera(table, cfg.MultiTag.Camera), solver)
	}

	s.service = fusion.NewService(cfg.Fusion(), s.controller, estimators, s.consumer, sink, clk, logger.Sublogger("fusion"))
	return s, nil
}

// selectPipeline publishes mode's pipeline on the camera's pipeline entry. Both the camera and
// a running service follow that entry.
func selectPipeline(transport messaging.Transport, prefix, cameraName string, mode detection.Mode, logger logging.Logger) {
	keys := receiver.DefaultKeys(cameraName)
	messaging.NewBridge(transport, receiver.NewTable(), prefix, keys.Pipeline, logger).SetPipeline(mode.Pipeline())
}

// start subscribes everything that listens on the transport.
func (s *system) start() error {
	if err := s.bridge.Start(); err != nil {
		return errors.Wrap(err, "starting table bridge")
	}
	if s.remote != nil {
		if err := s.remote.Start(); err != nil {
			return errors.Wrap(err, "starting remote estimator")
		}
	}
	return nil
}
