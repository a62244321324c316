package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/samber/lo"
	"go.uber.org/multierr"
	"go.viam.com/test"

	"github.com/robotloc/visionfusion/detection"
	"github.com/robotloc/visionfusion/logging"
	"github.com/robotloc/visionfusion/receiver"
	"github.com/robotloc/visionfusion/spatialmath"
	"github.com/robotloc/visionfusion/utils"
)

const jsonConfig = `{
	"period": "25ms",
	"alliance": "red",
	"initial_mode": "range_primary",
	"limelight": {
		"height_meters": 0.85,
		"pitch_degrees": -12,
		"robot_to_camera": {"x": 0.2, "y": -0.05},
		"camera_to_robot": {"x": -0.2, "z": -0.85, "yaw_degrees": 180},
		"upper_target_height_meters": 1.12,
		"lower_target_height_meters": 0.61
	},
	"ml": {"max_age": "3s"},
	"multi_tag": {
		"layout_file": "field.json",
		"camera": "photon/front",
		"robot_to_camera": {"x": 0.3, "z": 0.5, "pitch_degrees": -15}
	},
	"messaging": {"broker": "${VF_TEST_BROKER}", "qos": 1, "publish_timeout": "250ms"}
}`

const yamlConfig = `
period: 20ms
vision_disabled: true
log_level: debug
limelight:
  name: ll3
  height_meters: 0.5
  pitch_degrees: 30
ranging:
  max_range_meters: 6
`

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	test.That(t, os.WriteFile(path, []byte(content), 0o600), test.ShouldBeNil)
	return path
}

func TestReadJSON(t *testing.T) {
	t.Setenv("VF_TEST_BROKER", "tcp://broker.local:1883")
	path := writeConfig(t, "robot.json", jsonConfig)

	cfg, err := Read(context.Background(), path, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	expected := &Config{
		ConfigFilePath: path,
		Period:         25 * time.Millisecond,
		Alliance:       "red",
		LogLevel:       "info",
		InitialMode:    "range_primary",
		Limelight: LimelightConfig{
			Name:              DefaultCameraName,
			HeightMeters:      0.85,
			PitchDegrees:      -12,
			RobotToCamera:     Offset2D{X: 0.2, Y: -0.05},
			CameraToRobot:     Transform6D{X: -0.2, Z: -0.85, YawDegrees: 180},
			UpperTargetMeters: 1.12,
			LowerTargetMeters: 0.61,
		},
		Ranging: RangingConfig{MaxRangeMeters: lo.ToPtr(10.0)},
		ML:      MLConfig{MaxAge: 3 * time.Second},
		MultiTag: &MultiTagConfig{
			LayoutFile:    "field.json",
			Camera:        "photon/front",
			RobotToCamera: Transform6D{X: 0.3, Z: 0.5, PitchDegrees: -15},
			MaxAmbiguity:  lo.ToPtr(0.2),
		},
		Messaging: &MessagingConfig{
			Broker:         "tcp://broker.local:1883",
			ClientID:       DefaultClientID,
			TopicPrefix:    DefaultTopicPrefix,
			QoS:            1,
			PublishTimeout: 250 * time.Millisecond,
		},
	}
	test.That(t, cmp.Diff(expected, cfg), test.ShouldBeEmpty)

	test.That(t, cfg.Mode(), test.ShouldEqual, detection.ModeRangePrimary)
	test.That(t, cfg.AllianceValue(), test.ShouldEqual, receiver.AllianceRed)
	test.That(t, cfg.Fusion().MLMaxAge, test.ShouldEqual, 3*time.Second)
	test.That(t, cfg.Fusion().Disabled, test.ShouldBeFalse)

	mount := cfg.Limelight.Mount()
	test.That(t, mount.Pitch, test.ShouldAlmostEqual, utils.DegToRad(-12))
	test.That(t, mount.RobotToCamera, test.ShouldResemble, spatialmath.Translation2D{X: 0.2, Y: -0.05})
	test.That(t, cfg.Limelight.BandHeights().Lower, test.ShouldEqual, 0.61)

	cameraToRobot := spatialmath.PoseToPose2D(cfg.Limelight.CameraToRobot.Pose())
	test.That(t, cameraToRobot.AlmostEqual(spatialmath.NewPose2DFromXYDegrees(-0.2, 0, 180), 1e-9), test.ShouldBeTrue)
}

func TestReadYAML(t *testing.T) {
	path := writeConfig(t, "robot.yaml", yamlConfig)

	cfg, err := Read(context.Background(), path, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Period, test.ShouldEqual, 20*time.Millisecond)
	test.That(t, cfg.VisionDisabled, test.ShouldBeTrue)
	test.That(t, cfg.Fusion().Disabled, test.ShouldBeTrue)
	test.That(t, cfg.Level(), test.ShouldEqual, logging.DEBUG)
	test.That(t, cfg.Limelight.Name, test.ShouldEqual, "ll3")
	test.That(t, cfg.Ranging.MaxRange(), test.ShouldEqual, 6.0)
	test.That(t, cfg.Mode(), test.ShouldEqual, detection.ModeTag)
	test.That(t, cfg.AllianceValue(), test.ShouldEqual, receiver.AllianceUnknown)
	test.That(t, cfg.MultiTag, test.ShouldBeNil)
	test.That(t, cfg.Messaging, test.ShouldBeNil)
}

func TestReadDefaults(t *testing.T) {
	cfg, err := FromReader(context.Background(), "empty.json", strings.NewReader("{}"), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Period, test.ShouldEqual, 20*time.Millisecond)
	test.That(t, cfg.Limelight.Name, test.ShouldEqual, DefaultCameraName)
	test.That(t, cfg.Ranging.MaxRange(), test.ShouldEqual, 10.0)
	test.That(t, cfg.ML.MaxAge, test.ShouldEqual, time.Duration(0))
	test.That(t, cfg.Level(), test.ShouldEqual, logging.INFO)
}

func TestReadExplicitZeroDisablesLimits(t *testing.T) {
	doc := `{
		"ranging": {"max_range_meters": 0},
		"multi_tag": {"layout_file": "field.json", "camera": "front", "max_ambiguity": 0}
	}`
	cfg, err := FromReader(context.Background(), "zero.json", strings.NewReader(doc), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Ranging.MaxRange(), test.ShouldEqual, 0.0)
	test.That(t, cfg.MultiTag.Ambiguity(), test.ShouldEqual, 0.0)

	cfg, err = FromReader(context.Background(), "unset.json", strings.NewReader(`{"multi_tag": {"layout_file": "f", "camera": "c"}}`),
		logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Ranging.MaxRange(), test.ShouldEqual, 10.0)
	test.That(t, cfg.MultiTag.Ambiguity(), test.ShouldEqual, 0.2)
}

func TestReadErrors(t *testing.T) {
	logger := logging.NewTestLogger(t)

	_, err := Read(context.Background(), filepath.Join(t.TempDir(), "missing.json"), logger)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = FromReader(context.Background(), "bad.json", strings.NewReader("{"), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "json")

	_, err = FromReader(context.Background(), "typo.json", strings.NewReader(`{"perod": "20ms"}`), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "perod")

	_, err = FromReader(context.Background(), "dur.json", strings.NewReader(`{"period": "fast"}`), logger)
	test.That(t, err, test.ShouldNotBeNil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = FromReader(ctx, "x.json", strings.NewReader("{}"), logger)
	test.That(t, err, test.ShouldBeError, context.Canceled)
}

func TestValidateCollectsEveryError(t *testing.T) {
	cfg := &Config{
		Period:      -time.Second,
		Alliance:    "green",
		LogLevel:    "loud",
		InitialMode: "lidar",
		Limelight:   LimelightConfig{HeightMeters: -1, UpperTargetMeters: 0.5, LowerTargetMeters: 1},
		Ranging:     RangingConfig{MaxRangeMeters: lo.ToPtr(-2.0)},
		ML:          MLConfig{MaxAge: -time.Second},
		MultiTag:    &MultiTagConfig{MaxAmbiguity: lo.ToPtr(1.5)},
		Messaging:   &MessagingConfig{QoS: 3, PublishTimeout: -time.Second},
	}
	err := cfg.Validate()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, multierr.Errors(err), test.ShouldHaveLength, 14)

	msg := err.Error()
	for _, want := range []string{
		"period", "green", "loud", "lidar", "height_meters", "lower_target_height_meters",
		"max_range_meters", "max_age", "layout_file", `"camera"`, "max_ambiguity", "broker", "qos",
		"publish_timeout",
	} {
		test.That(t, msg, test.ShouldContainSubstring, want)
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	cfg := &Config{MultiTag: &MultiTagConfig{LayoutFile: "f.json", Camera: "c"}, Messaging: &MessagingConfig{Broker: "tcp://x:1883"}}
	cfg.ApplyDefaults()
	test.That(t, cfg.Validate(), test.ShouldBeNil)
	test.That(t, cfg.MultiTag.Ambiguity(), test.ShouldEqual, 0.2)
	test.That(t, cfg.Messaging.TopicPrefix, test.ShouldEqual, DefaultTopicPrefix)
}

func TestFormatFromPath(t *testing.T) {
	test.That(t, FormatFromPath("a.json"), test.ShouldEqual, FormatJSON)
	test.That(t, FormatFromPath("a.YML"), test.ShouldEqual, FormatYAML)
	test.That(t, FormatFromPath("a.yaml"), test.ShouldEqual, FormatYAML)
	test.That(t, FormatFromPath("a"), test.ShouldEqual, FormatJSON)
}
