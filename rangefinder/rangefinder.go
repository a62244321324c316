// Package rangefinder estimates the distance to a target of known height from the vertical angle
// at which a fixed camera sees it, and turns that distance into a translation from the robot.
//
// The model is a pinhole camera over flat ground with the target at a fixed height. It has no
// answer when the ray to the target is parallel to the ground; those cases, and any distance
// that is not finite, negative or beyond the configured range, are reported as absent.
package rangefinder

import (
	"math"

	"github.com/robotloc/visionfusion/spatialmath"
	"github.com/robotloc/visionfusion/utils"
)

// DefaultMaxRange bounds accepted distances, in meters.
const DefaultMaxRange = 10.0

// tanEpsilon is the smallest |tan| of the ray elevation treated as non-parallel to the ground.
const tanEpsilon = 1e-9

// Mount describes where a camera sits on the robot.
type Mount struct {
	// Height of the lens above the ground in meters.
	Height float64
	// Pitch of the optical axis above horizontal in radians.
	Pitch float64
	// Yaw of the optical axis relative to the robot's forward axis in radians.
	Yaw float64
	// RobotToCamera is the lens position in the robot frame.
	RobotToCamera spatialmath.Translation2D
}

// Rangefinder ranges targets seen by one camera.
type Rangefinder struct {
	Mount Mount
	// MaxRange rejects longer distances. Zero or less disables the check.
	MaxRange float64
}

// New returns a rangefinder for the given mount.
func New(mount Mount, maxRange float64) *Rangefinder {
	return &Rangefinder{Mount: mount, MaxRange: maxRange}
}

// Distance returns the ground distance from the camera to a target at targetHeight seen at
// verticalDeg degrees above the optical axis.
func (rf *Rangefinder) Distance(targetHeight, verticalDeg float64) (float64, bool) {
	tan := math.Tan(rf.Mount.Pitch + utils.DegToRad(verticalDeg))
	if !utils.IsFinite(tan) || math.Abs(tan) < tanEpsilon {
		return 0, false
	}
	distance := (targetHeight - rf.Mount.Height) / tan
	if !utils.IsFinite(distance) || distance < 0 {
		return 0, false
	}
	if rf.MaxRange > 0 && distance > rf.MaxRange {
		return 0, false
	}
	return distance, true
}

// RobotRelative returns the target's position in the robot frame: the camera-relative vector at
// bearing -horizontalDeg off the optical axis, moved by the camera's offset from the robot origin.
func (rf *Rangefinder) RobotRelative(targetHeight, horizontalDeg, verticalDeg float64) (spatialmath.Translation2D, bool) {
	distance, ok := rf.Distance(targetHeight, verticalDeg)
	if !ok {
		return spatialmath.Translation2D{}, false
	}
	bearing := spatialmath.Rotation2DFromDegrees(-horizontalDeg).Plus(spatialmath.NewRotation2D(rf.Mount.Yaw))
	cameraToTarget := spatialmath.NewTranslation2DPolar(distance, bearing)
	return rf.Mount.RobotToCamera.Plus(cameraToTarget), true
}

// FieldAligned returns the robot-relative target rotated by the robot's heading, so its axes
// line up with the field while its origin stays on the robot.
func (rf *Rangefinder) FieldAligned(
	targetHeight, horizontalDeg, verticalDeg float64,
	heading spatialmath.Rotation2D,
) (spatialmath.Translation2D, bool) {
	rel, ok := rf.RobotRelative(targetHeight, horizontalDeg, verticalDeg)
	if !ok {
		return spatialmath.Translation2D{}, false
	}
	return rel.RotateBy(heading), true
}
