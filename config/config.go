// Package config defines the structures to configure the vision fusion service and the cameras
// feeding it.
package config

import (
	"fmt"
	"time"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"github.com/robotloc/visionfusion/apriltag"
	"github.com/robotloc/visionfusion/detection"
	"github.com/robotloc/visionfusion/estimator"
	"github.com/robotloc/visionfusion/fusion"
	"github.com/robotloc/visionfusion/logging"
	"github.com/robotloc/visionfusion/rangefinder"
	"github.com/robotloc/visionfusion/receiver"
	"github.com/robotloc/visionfusion/spatialmath"
	rutils "github.com/robotloc/visionfusion/utils"
)

// Defaults applied to fields left empty.
const (
	DefaultCameraName  = "limelight"
	DefaultTopicPrefix = "visionfusion"
	DefaultClientID    = "visionfusion"
)

// Config is the complete configuration of a vision fusion process.
type Config struct {
	ConfigFilePath string `json:"-"`

	// Period is the control period between fusion cycles.
	Period         time.Duration    `json:"period"`
	VisionDisabled bool             `json:"vision_disabled"`
	Alliance       string           `json:"alliance"`
	LogLevel       string           `json:"log_level"`
	LogFile        string           `json:"log_file,omitempty"`
	InitialMode    string           `json:"initial_mode"`
	Limelight      LimelightConfig  `json:"limelight"`
	Ranging        RangingConfig    `json:"ranging"`
	ML             MLConfig         `json:"ml"`
	MultiTag       *MultiTagConfig  `json:"multi_tag,omitempty"`
	Messaging      *MessagingConfig `json:"messaging,omitempty"`
}

// Offset2D is a planar offset in meters.
type Offset2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Transform6D is a rigid transform in meters and degrees.
type Transform6D struct {
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Z            float64 `json:"z"`
	RollDegrees  float64 `json:"roll_degrees"`
	PitchDegrees float64 `json:"pitch_degrees"`
	YawDegrees   float64 `json:"yaw_degrees"`
}

// Pose converts the transform to a pose.
func (t Transform6D) Pose() spatialmath.Pose {
	return spatialmath.NewPose(
		r3.Vector{X: t.X, Y: t.Y, Z: t.Z},
		spatialmath.NewEulerAnglesFromDegrees(t.RollDegrees, t.PitchDegrees, t.YawDegrees),
	)
}

// LimelightConfig describes the detection camera and the targets it ranges.
type LimelightConfig struct {
	// Name prefixes the camera's table keys.
	Name          string      `json:"name"`
	HeightMeters  float64     `json:"height_meters"`
	PitchDegrees  float64     `json:"pitch_degrees"`
	YawDegrees    float64     `json:"yaw_degrees"`
	RobotToCamera Offset2D    `json:"robot_to_camera"`
	CameraToRobot Transform6D `json:"camera_to_robot"`
	// UpperTargetMeters and LowerTargetMeters are the retroreflective band heights.
	UpperTargetMeters float64 `json:"upper_target_height_meters"`
	LowerTargetMeters float64 `json:"lower_target_height_meters"`
}

// Validate ensures all parts of the config are valid.
func (cfg *LimelightConfig) Validate(path string) error {
	var errs error
	if cfg.HeightMeters < 0 {
		errs = multierr.Append(errs, utils.NewConfigValidationError(path, errors.New("height_meters must not be negative")))
	}
	if cfg.LowerTargetMeters > cfg.UpperTargetMeters {
		errs = multierr.Append(errs, utils.NewConfigValidationError(path,
			errors.Errorf("lower_target_height_meters (%v) is above upper_target_height_meters (%v)",
				cfg.LowerTargetMeters, cfg.UpperTargetMeters)))
	}
	return errs
}

// Mount returns the camera mount used for ranging.
func (cfg *LimelightConfig) Mount() rangefinder.Mount {
	return rangefinder.Mount{
		Height:        cfg.HeightMeters,
		Pitch:         rutils.DegToRad(cfg.PitchDegrees),
		Yaw:           rutils.DegToRad(cfg.YawDegrees),
		RobotToCamera: spatialmath.Translation2D{X: cfg.RobotToCamera.X, Y: cfg.RobotToCamera.Y},
	}
}

// BandHeights returns the retroreflective band heights.
func (cfg *LimelightConfig) BandHeights() estimator.BandHeights {
	return estimator.BandHeights{Upper: cfg.UpperTargetMeters, Lower: cfg.LowerTargetMeters}
}

// RangingConfig bounds rangefinder results.
type RangingConfig struct {
	// MaxRangeMeters is the farthest accepted distance. Unset means the default; 0 removes the
	// limit.
	MaxRangeMeters *float64 `json:"max_range_meters,omitempty"`
}

// MaxRange returns the configured limit, or the default when it is unset.
func (cfg RangingConfig) MaxRange() float64 {
	if cfg.MaxRangeMeters == nil {
		return rangefinder.DefaultMaxRange
	}
	return *cfg.MaxRangeMeters
}

// MLConfig configures the ML object cache.
type MLConfig struct {
	// MaxAge is how long the last ML pose stays available. Zero keeps it forever.
	MaxAge time.Duration `json:"max_age"`
}

// MultiTagConfig describes the multi-tag camera.
type MultiTagConfig struct {
	LayoutFile    string      `json:"layout_file"`
	Camera        string      `json:"camera"`
	RobotToCamera Transform6D `json:"robot_to_camera"`
	// MaxAmbiguity drops ambiguous tags when several are visible. Unset means the default; 0
	// keeps every tag.
	MaxAmbiguity *float64 `json:"max_ambiguity,omitempty"`
}

// Ambiguity returns the configured limit, or the default when it is unset.
func (cfg *MultiTagConfig) Ambiguity() float64 {
	if cfg.MaxAmbiguity == nil {
		return apriltag.DefaultMaxAmbiguity
	}
	return *cfg.MaxAmbiguity
}

// Validate ensures all parts of the config are valid.
func (cfg *MultiTagConfig) Validate(path string) error {
	var errs error
	if cfg.LayoutFile == "" {
		errs = multierr.Append(errs, utils.NewConfigValidationFieldRequiredError(path, "layout_file"))
	}
	if cfg.Camera == "" {
		errs = multierr.Append(errs, utils.NewConfigValidationFieldRequiredError(path, "camera"))
	}
	if ambiguity := cfg.Ambiguity(); ambiguity < 0 || ambiguity > 1 {
		errs = multierr.Append(errs, utils.NewConfigValidationError(path,
			errors.Errorf("max_ambiguity must be within [0, 1], got %v", ambiguity)))
	}
	return errs
}

// MessagingConfig describes the MQTT broker the camera values arrive through.
type MessagingConfig struct {
	Broker      string `json:"broker"`
	ClientID    string `json:"client_id"`
	TopicPrefix string `json:"topic_prefix"`
	QoS         int    `json:"qos"`
	// PublishTimeout bounds how long a publish waits for the broker. Zero uses the client default.
	PublishTimeout time.Duration `json:"publish_timeout,omitempty"`
	// RemoteEstimator sends measurements to an estimator listening on the broker.
	RemoteEstimator bool `json:"remote_estimator"`
}

// Validate ensures all parts of the config are valid.
func (cfg *MessagingConfig) Validate(path string) error {
	var errs error
	if cfg.Broker == "" {
		errs = multierr.Append(errs, utils.NewConfigValidationFieldRequiredError(path, "broker"))
	}
	if cfg.QoS < 0 || cfg.QoS > 2 {
		errs = multierr.Append(errs, utils.NewConfigValidationError(path, errors.Errorf("qos must be 0, 1 or 2, got %d", cfg.QoS)))
	}
	if cfg.PublishTimeout < 0 {
		errs = multierr.Append(errs, utils.NewConfigValidationError(path,
			errors.Errorf("publish_timeout must not be negative, got %v", cfg.PublishTimeout)))
	}
	return errs
}

// ApplyDefaults fills in every field left empty.
func (c *Config) ApplyDefaults() {
	if c.Period == 0 {
		c.Period = fusion.DefaultPeriod
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.InitialMode == "" {
		c.InitialMode = detection.ModeTag.String()
	}
	if c.Limelight.Name == "" {
		c.Limelight.Name = DefaultCameraName
	}
	if c.Ranging.MaxRangeMeters == nil {
		c.Ranging.MaxRangeMeters = lo.ToPtr(rangefinder.DefaultMaxRange)
	}
	if c.MultiTag != nil && c.MultiTag.MaxAmbiguity == nil {
		c.MultiTag.MaxAmbiguity = lo.ToPtr(apriltag.DefaultMaxAmbiguity)
	}
	if c.Messaging != nil {
		if c.Messaging.TopicPrefix == "" {
			c.Messaging.TopicPrefix = DefaultTopicPrefix
		}
		if c.Messaging.ClientID == "" {
			c.Messaging.ClientID = DefaultClientID
		}
	}
}

// Validate ensures all parts of the config are valid, reporting every problem at once.
func (c *Config) Validate() error {
	var errs error
	if c.Period <= 0 {
		errs = multierr.Append(errs, utils.NewConfigValidationError("period", errors.Errorf("must be positive, got %v", c.Period)))
	}
	if _, err := receiver.AllianceFromString(c.Alliance); err != nil {
		errs = multierr.Append(errs, utils.NewConfigValidationError("alliance", err))
	}
	if _, err := logging.LevelFromString(c.LogLevel); err != nil {
		errs = multierr.Append(errs, utils.NewConfigValidationError("log_level", err))
	}
	if _, err := detection.ModeFromString(c.InitialMode); err != nil {
		errs = multierr.Append(errs, utils.NewConfigValidationError("initial_mode", err))
	}
	errs = multierr.Append(errs, c.Limelight.Validate("limelight"))
	if maxRange := c.Ranging.MaxRange(); maxRange < 0 {
		errs = multierr.Append(errs, utils.NewConfigValidationError("ranging",
			errors.Errorf("max_range_meters must not be negative, got %v", maxRange)))
	}
	if c.ML.MaxAge < 0 {
		errs = multierr.Append(errs, utils.NewConfigValidationError("ml", errors.Errorf("max_age must not be negative, got %v", c.ML.MaxAge)))
	}
	if c.MultiTag != nil {
		errs = multierr.Append(errs, c.MultiTag.Validate("multi_tag"))
	}
	if c.Messaging != nil {
		errs = multierr.Append(errs, c.Messaging.Validate("messaging"))
	}
	return errs
}

// AllianceValue returns the configured alliance. Call only on a validated config.
func (c *Config) AllianceValue() receiver.Alliance {
	alliance, err := receiver.AllianceFromString(c.Alliance)
	if err != nil {
		return receiver.AllianceUnknown
	}
	return alliance
}

// Mode returns the initial detection mode. Call only on a validated config.
func (c *Config) Mode() detection.Mode {
	mode, err := detection.ModeFromString(c.InitialMode)
	if err != nil {
		return detection.ModeTag
	}
	return mode
}

// Level returns the log level. Call only on a validated config.
func (c *Config) Level() logging.Level {
	level, err := logging.LevelFromString(c.LogLevel)
	if err != nil {
		return logging.INFO
	}
	return level
}

// Fusion returns the fusion service configuration.
func (c *Config) Fusion() fusion.Config {
	return fusion.Config{Disabled: c.VisionDisabled, MLMaxAge: c.ML.MaxAge}
}

func (c *Config) String() string {
	return fmt.Sprintf("config(%s, period=%v, mode=%s)", c.ConfigFilePath, c.Period, c.InitialMode)
}
