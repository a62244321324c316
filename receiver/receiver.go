package receiver

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Alliance is the side of the field the robot plays for. It selects which field-pose array the
// detection hardware's solution is read from.
type Alliance int

const (
	// AllianceUnknown is reported before the field management system says otherwise.
	AllianceUnknown Alliance = iota
	// AllianceBlue is the blue alliance.
	AllianceBlue
	// AllianceRed is the red alliance.
	AllianceRed
)

func (a Alliance) String() string {
	switch a {
	case AllianceBlue:
		return "blue"
	case AllianceRed:
		return "red"
	case AllianceUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("Alliance(%d)", int(a))
	}
}

// AllianceFromString parses "blue", "red" or "" (unknown).
func AllianceFromString(s string) (Alliance, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return AllianceUnknown, nil
	case "blue":
		return AllianceBlue, nil
	case "red":
		return AllianceRed, nil
	}
	return AllianceUnknown, errors.Errorf("unknown alliance %q", s)
}

// NoTag is the tag id reported when no fiducial is in view.
const NoTag = -1

// A Receiver is a per-cycle view of the values published by a single detection camera. Absent
// or invalid data reads as false, -1 or an empty array; no method fails.
type Receiver interface {
	// TargetPresent reports whether the active pipeline sees any target.
	TargetPresent() bool
	// HorizontalAngle is the horizontal offset to the target in degrees.
	HorizontalAngle() float64
	// VerticalAngle is the vertical offset to the target in degrees.
	VerticalAngle() float64
	// TagID is the primary fiducial id in view, or NoTag.
	TagID() int
	// Latency is the pipeline latency in milliseconds.
	Latency() float64
	// FieldPoseArray is the published field pose [x, y, z, roll, pitch, yaw] (meters, degrees)
	// in the given alliance's coordinate convention, or an empty array.
	FieldPoseArray(alliance Alliance) []float64
	// Alliance is the alliance the robot currently plays for.
	Alliance() Alliance
}

// Keys names the table entries a TableReceiver reads.
type Keys struct {
	TargetPresent   string `json:"target_present"`
	HorizontalAngle string `json:"horizontal_angle"`
	VerticalAngle   string `json:"vertical_angle"`
	TagID           string `json:"tag_id"`
	Latency         string `json:"latency"`
	FieldPoseBlue   string `json:"field_pose_blue"`
	FieldPoseRed    string `json:"field_pose_red"`
	IsRedAlliance   string `json:"is_red_alliance"`
	Pipeline        string `json:"pipeline"`
}

// DefaultKeys returns the standard entry names for a camera publishing under /<name>.
func DefaultKeys(name string) Keys {
	prefix := NormalizeKey(name)
	return Keys{
		TargetPresent:   prefix + "/tv",
		HorizontalAngle: prefix + "/tx",
		VerticalAngle:   prefix + "/ty",
		TagID:           prefix + "/tid",
		Latency:         prefix + "/tl",
		FieldPoseBlue:   prefix + "/botpose_wpiblue",
		FieldPoseRed:    prefix + "/botpose_wpired",
		IsRedAlliance:   "/FMSInfo/IsRedAlliance",
		Pipeline:        prefix + "/pipeline",
	}
}

// TableReceiver reads a camera's values from a Table.
type TableReceiver struct {
	table    *Table
	keys     Keys
	alliance Alliance
}

// NewTableReceiver returns a receiver over table. A known alliance overrides the one published
// in the table.
func NewTableReceiver(table *Table, keys Keys, alliance Alliance) *TableReceiver {
	return &TableReceiver{table: table, keys: keys, alliance: alliance}
}

// TargetPresent is true only when the published flag equals 1.
func (r *TableReceiver) TargetPresent() bool {
	return r.table.Int(r.keys.TargetPresent, 0) == 1
}

// HorizontalAngle returns tx in degrees.
func (r *TableReceiver) HorizontalAngle() float64 {
	return r.table.Float64(r.keys.HorizontalAngle, 0)
}

// VerticalAngle returns ty in degrees.
func (r *TableReceiver) VerticalAngle() float64 {
	return r.table.Float64(r.keys.VerticalAngle, 0)
}

// TagID returns the fiducial id or NoTag.
func (r *TableReceiver) TagID() int {
	return r.table.Int(r.keys.TagID, NoTag)
}

// Latency returns the pipeline latency in milliseconds.
func (r *TableReceiver) Latency() float64 {
	return r.table.Float64(r.keys.Latency, 0)
}

// FieldPoseArray reads the red array for the red alliance and the blue array otherwise.
func (r *TableReceiver) FieldPoseArray(alliance Alliance) []float64 {
	if alliance == AllianceRed {
		return r.table.Float64Array(r.keys.FieldPoseRed)
	}
	return r.table.Float64Array(r.keys.FieldPoseBlue)
}

// Alliance returns the configured alliance or, when none was configured, the published one.
func (r *TableReceiver) Alliance() Alliance {
	if r.alliance != AllianceUnknown {
		return r.alliance
	}
	if _, ok := r.table.Get(r.keys.IsRedAlliance); !ok {
		return AllianceUnknown
	}
	if r.table.Bool(r.keys.IsRedAlliance, false) {
		return AllianceRed
	}
	return AllianceBlue
}

// Snapshot is a Receiver over fixed values. Its zero value sees nothing except tag id 0, so
// construct it with NewSnapshot when no tag is in view.
type Snapshot struct {
	Present       bool
	TX            float64
	TY            float64
	Tag           int
	LatencyMillis float64
	BluePose      []float64
	RedPose       []float64
	Side          Alliance
}

// NewSnapshot returns a snapshot with no target and no tag in view.
func NewSnapshot() *Snapshot {
	return &Snapshot{Tag: NoTag}
}

// Snapshot copies the receiver's current values so a cycle reads one consistent set.
func (r *TableReceiver) Snapshot() *Snapshot {
	return &Snapshot{
		Present:       r.TargetPresent(),
		TX:            r.HorizontalAngle(),
		TY:            r.VerticalAngle(),
		Tag:           r.TagID(),
		LatencyMillis: r.Latency(),
		BluePose:      r.FieldPoseArray(AllianceBlue),
		RedPose:       r.FieldPoseArray(AllianceRed),
		Side:          r.Alliance(),
	}
}

// TargetPresent returns Present.
func (s *Snapshot) TargetPresent() bool { return s.Present }

// HorizontalAngle returns TX.
func (s *Snapshot) HorizontalAngle() float64 { return s.TX }

// VerticalAngle returns TY.
func (s *Snapshot) VerticalAngle() float64 { return s.TY }

// TagID returns Tag.
func (s *Snapshot) TagID() int { return s.Tag }

// Latency returns LatencyMillis.
func (s *Snapshot) Latency() float64 { return s.LatencyMillis }

// FieldPoseArray returns RedPose for the red alliance and BluePose otherwise.
func (s *Snapshot) FieldPoseArray(alliance Alliance) []float64 {
	if alliance == AllianceRed {
		return append([]float64{}, s.RedPose...)
	}
	return append([]float64{}, s.BluePose...)
}

// Alliance returns Side.
func (s *Snapshot) Alliance() Alliance { return s.Side }
