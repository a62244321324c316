package messaging

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.viam.com/test"

	"github.com/robotloc/visionfusion/diagnostics"
	"github.com/robotloc/visionfusion/logging"
	"github.com/robotloc/visionfusion/receiver"
	"github.com/robotloc/visionfusion/spatialmath"
)

type publishFailure struct{}

func (publishFailure) Publish(string, []byte) error { return errors.New("broker down") }

func (publishFailure) Subscribe(string, Handler) error { return nil }

func record(t *testing.T, l *Loopback, filter string) *[]string {
	t.Helper()
	var got []string
	test.That(t, l.Subscribe(filter, func(topic string, payload []byte) {
		got = append(got, topic+" "+string(payload))
	}), test.ShouldBeNil)
	return &got
}

func TestTopicMatches(t *testing.T) {
	for _, tc := range []struct {
		filter, topic string
		match         bool
	}{
		{"vf/table/#", "vf/table/limelight/tv", true},
		{"vf/table/#", "vf/table", true},
		{"vf/table/#", "vf/diagnostics/x", false},
		{"vf/+/pose", "vf/estimator/pose", true},
		{"vf/+/pose", "vf/estimator/measurement", false},
		{"vf/estimator/pose", "vf/estimator/pose", true},
		{"vf/estimator/pose", "vf/estimator/pose/extra", false},
		{"vf/estimator/pose/extra", "vf/estimator/pose", false},
	} {
		test.That(t, TopicMatches(tc.filter, tc.topic), test.ShouldEqual, tc.match)
	}
}

func TestBridgeFeedsTable(t *testing.T) {
	bus := NewLoopback()
	table := receiver.NewTable()
	keys := receiver.DefaultKeys("limelight")
	bridge := NewBridge(bus, table, "vf", keys.Pipeline, logging.NewTestLogger(t))
	test.That(t, bridge.Start(), test.ShouldBeNil)

	test.That(t, bus.Publish(TableTopic("vf", keys.TargetPresent), []byte("1")), test.ShouldBeNil)
	test.That(t, bus.Publish(TableTopic("vf", keys.FieldPoseBlue), []byte("[1, 2, 0, 0, 0, 90]")), test.ShouldBeNil)
	test.That(t, bus.Publish("vf/table/photon/front/frame", []byte(`{"sequence": 3, "targets": []}`)), test.ShouldBeNil)
	test.That(t, bus.Publish(TableTopic("vf", keys.VerticalAngle), []byte("not json")), test.ShouldBeNil)

	r := receiver.NewTableReceiver(table, keys, receiver.AllianceBlue)
	test.That(t, r.TargetPresent(), test.ShouldBeTrue)
	test.That(t, r.FieldPoseArray(receiver.AllianceBlue), test.ShouldResemble, []float64{1, 2, 0, 0, 0, 90})
	_, ok := table.Get(keys.VerticalAngle)
	test.That(t, ok, test.ShouldBeFalse)

	frame, ok := receiver.NewTableTagCamera(table, "photon/front").LatestFrame()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, frame.Sequence, test.ShouldEqual, int64(3))

	// an empty payload clears the entry
	test.That(t, bus.Publish(TableTopic("vf", keys.TargetPresent), nil), test.ShouldBeNil)
	test.That(t, r.TargetPresent(), test.ShouldBeFalse)
}

func TestBridgeSetPipeline(t *testing.T) {
	bus := NewLoopback()
	table := receiver.NewTable()
	keys := receiver.DefaultKeys("limelight")
	sent := record(t, bus, "vf/table/limelight/pipeline")

	bridge := NewBridge(bus, table, "vf", keys.Pipeline, logging.NewTestLogger(t))
	bridge.SetPipeline(3)

	test.That(t, *sent, test.ShouldResemble, []string{"vf/table/limelight/pipeline 3"})
	test.That(t, table.Int(keys.Pipeline, -1), test.ShouldEqual, 3)

	logger, observed := logging.NewObservedTestLogger(t)
	NewBridge(publishFailure{}, table, "vf", keys.Pipeline, logger).SetPipeline(1)
	test.That(t, observed.FilterMessage("failed to publish pipeline").Len(), test.ShouldEqual, 1)
	test.That(t, table.Int(keys.Pipeline, -1), test.ShouldEqual, 1)
}

func TestBridgeOnPipeline(t *testing.T) {
	bus := NewLoopback()
	table := receiver.NewTable()
	keys := receiver.DefaultKeys("limelight")
	bridge := NewBridge(bus, table, "vf", keys.Pipeline, logging.NewTestLogger(t))
	var selected []int
	bridge.OnPipeline(func(index int) { selected = append(selected, index) })
	test.That(t, bridge.Start(), test.ShouldBeNil)

	test.That(t, bus.Publish(TableTopic("vf", keys.TargetPresent), []byte("1")), test.ShouldBeNil)
	test.That(t, bus.Publish(TableTopic("vf", keys.Pipeline), []byte("2")), test.ShouldBeNil)
	test.That(t, bus.Publish(TableTopic("vf", keys.Pipeline), []byte("oops")), test.ShouldBeNil)
	bridge.SetPipeline(3)

	test.That(t, selected, test.ShouldResemble, []int{2, 3})
}

func TestSink(t *testing.T) {
	bus := NewLoopback()
	sent := record(t, bus, "vf/diagnostics/#")
	var sink diagnostics.Sink = NewSink(bus, "vf")

	test.That(t, sink.Publish("/vision/mlFieldPose", []float64{1, 2, 45}), test.ShouldBeNil)
	test.That(t, sink.Publish("vision/hasMLEstimate", true), test.ShouldBeNil)
	test.That(t, *sent, test.ShouldResemble, []string{
		"vf/diagnostics/vision/mlFieldPose [1,2,45]",
		"vf/diagnostics/vision/hasMLEstimate true",
	})

	test.That(t, sink.Publish("/bad", math.Inf(1)), test.ShouldNotBeNil)
	test.That(t, NewSink(publishFailure{}, "vf").Publish("/x", 1), test.ShouldNotBeNil)
}

func TestRemoteEstimator(t *testing.T) {
	bus := NewLoopback()
	var measurements []Measurement
	test.That(t, bus.Subscribe("vf/estimator/measurement", func(_ string, payload []byte) {
		var m Measurement
		test.That(t, json.Unmarshal(payload, &m), test.ShouldBeNil)
		measurements = append(measurements, m)
	}), test.ShouldBeNil)

	re := NewRemoteEstimator(bus, "vf", logging.NewTestLogger(t))
	test.That(t, re.Start(), test.ShouldBeNil)
	test.That(t, re.CurrentPose(), test.ShouldResemble, spatialmath.Pose2D{})

	re.AddVisionMeasurement(spatialmath.NewPose2DFromXYDegrees(1, 2, 90), 4.25)
	test.That(t, measurements, test.ShouldHaveLength, 1)
	test.That(t, measurements[0].X, test.ShouldEqual, 1.0)
	test.That(t, measurements[0].Theta, test.ShouldAlmostEqual, math.Pi/2)
	test.That(t, measurements[0].Timestamp, test.ShouldEqual, 4.25)

	test.That(t, bus.Publish("vf/estimator/pose", []byte(`{"x": 3, "y": -1, "theta": 3.0}`)), test.ShouldBeNil)
	pose := re.CurrentPose()
	test.That(t, pose.AlmostEqual(spatialmath.NewPose2D(spatialmath.Translation2D{X: 3, Y: -1}, spatialmath.NewRotation2D(3)), 1e-12),
		test.ShouldBeTrue)

	test.That(t, bus.Publish("vf/estimator/pose", []byte(`{"x": "nope"}`)), test.ShouldBeNil)
	test.That(t, re.CurrentPose(), test.ShouldResemble, pose)

	logger, observed := logging.NewObservedTestLogger(t)
	NewRemoteEstimator(publishFailure{}, "vf", logger).AddVisionMeasurement(spatialmath.Pose2D{}, 1)
	test.That(t, observed.FilterMessage("failed to publish measurement").Len(), test.ShouldEqual, 1)
}

func TestClientNotConnected(t *testing.T) {
	c := NewClient(Options{Broker: "tcp://127.0.0.1:1", ClientID: "test"}, logging.NewTestLogger(t))
	test.That(t, c.IsConnected(), test.ShouldBeFalse)
	test.That(t, c.Publish("x", nil), test.ShouldNotBeNil)
	test.That(t, c.Subscribe("x", func(string, []byte) {}), test.ShouldNotBeNil)
	c.Close()
}

func TestClientGeneratesID(t *testing.T) {
	first := NewClient(Options{Broker: "tcp://127.0.0.1:1"}, logging.NewTestLogger(t))
	second := NewClient(Options{Broker: "tcp://127.0.0.1:1"}, logging.NewTestLogger(t))
	test.That(t, first.opts.ClientID, test.ShouldStartWith, "visionfusion-")
	test.That(t, first.opts.ClientID, test.ShouldNotEqual, second.opts.ClientID)
}

// stalledConn is a broker connection that never acknowledges a publish.
type stalledConn struct {
	mqtt.Client
}

func (stalledConn) IsConnected() bool { return true }

func (stalledConn) Publish(string, byte, bool, interface{}) mqtt.Token {
	return stalledToken{}
}

type stalledToken struct{}

func (stalledToken) Wait() bool { select {} }

func (stalledToken) WaitTimeout(d time.Duration) bool {
	time.Sleep(d)
	return false
}

func (stalledToken) Done() <-chan struct{} { return make(chan struct{}) }

func (stalledToken) Error() error { return nil }

func TestClientPublishTimesOut(t *testing.T) {
	c := NewClient(Options{Broker: "tcp://127.0.0.1:1", QoS: 1, PublishTimeout: 10 * time.Millisecond}, logging.NewTestLogger(t))
	c.conn = stalledConn{}

	start := time.Now()
	err := c.Publish("vf/diagnostics/vision/mode", []byte(`"TAG"`))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "timed out")
	test.That(t, time.Since(start), test.ShouldBeLessThan, time.Second)

	test.That(t, NewClient(Options{}, logging.NewTestLogger(t)).opts.PublishTimeout, test.ShouldEqual, DefaultPublishTimeout)
}
