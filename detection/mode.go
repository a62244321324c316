// Package detection tracks which processing pipeline the detection camera is running.
package detection

import (
	"strings"

	"github.com/pkg/errors"
)

// Mode is one of the camera's mutually exclusive detection pipelines.
type Mode int

const (
	// ModeTag solves the robot's field pose from fiducial tags on the camera itself.
	ModeTag Mode = iota
	// ModeRangePrimary ranges retroreflective targets with the primary exposure settings.
	ModeRangePrimary
	// ModeRangeSecondary ranges retroreflective targets with the secondary exposure settings.
	ModeRangeSecondary
	// ModeML detects game pieces on the ground with a neural detector.
	ModeML
)

// Modes lists every mode in pipeline order.
var Modes = []Mode{ModeTag, ModeRangePrimary, ModeRangeSecondary, ModeML}

func (m Mode) String() string {
	switch m {
	case ModeTag:
		return "TAG"
	case ModeRangePrimary:
		return "RANGE_PRIMARY"
	case ModeRangeSecondary:
		return "RANGE_SECONDARY"
	case ModeML:
		return "ML"
	default:
		return "UNKNOWN"
	}
}

// Pipeline is the selector index the camera uses for this mode.
func (m Mode) Pipeline() int {
	return int(m)
}

// IsRanging reports whether the mode feeds the retroreflective rangefinder.
func (m Mode) IsRanging() bool {
	return m == ModeRangePrimary || m == ModeRangeSecondary
}

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	return m >= ModeTag && m <= ModeML
}

// ModeFromString parses a mode name. It is case-insensitive and accepts dashes for underscores.
func ModeFromString(s string) (Mode, error) {
	name := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	for _, m := range Modes {
		if m.String() == name {
			return m, nil
		}
	}
	return ModeTag, errors.Errorf("unknown detection mode %q", s)
}

// ModeFromPipeline returns the mode whose camera pipeline is index.
func ModeFromPipeline(index int) (Mode, error) {
	m := Mode(index)
	if !m.Valid() {
		return ModeTag, errors.Errorf("no detection mode runs pipeline %d", index)
	}
	return m, nil
}

// MarshalText encodes the mode by name.
func (m Mode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, errors.Errorf("invalid detection mode %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText decodes a mode name.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ModeFromString(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
