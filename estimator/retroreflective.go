package estimator

import (
	"github.com/robotloc/visionfusion/rangefinder"
	"github.com/robotloc/visionfusion/receiver"
)

// BandHeights are the heights of the two retroreflective bands in meters.
type BandHeights struct {
	Upper float64
	Lower float64
}

// Retroreflective ranges the retroreflective target the detection camera sees. Its result is a
// translation from the robot to the target with field-aligned axes.
type Retroreflective struct {
	receiver    receiver.Receiver
	rangefinder *rangefinder.Rangefinder
	heights     BandHeights
}

// NewRetroreflective returns a retroreflective source.
func NewRetroreflective(r receiver.Receiver, rf *rangefinder.Rangefinder, heights BandHeights) *Retroreflective {
	return &Retroreflective{receiver: r, rangefinder: rf, heights: heights}
}

// Source returns SourceRetroreflective.
func (e *Retroreflective) Source() Source {
	return SourceRetroreflective
}

// Estimate is present only in either ranging mode with a target in view. A target below the
// optical axis is taken to be the lower band.
func (e *Retroreflective) Estimate(cycle Cycle) Estimate {
	if cycle.Disabled || !cycle.Mode.IsRanging() {
		return Absent(SourceRetroreflective)
	}
	r := cycle.sensors(e.receiver)
	if !r.TargetPresent() {
		return Absent(SourceRetroreflective)
	}
	tx := r.HorizontalAngle()
	ty := r.VerticalAngle()

	height := e.heights.Upper
	if ty < 0 {
		height = e.heights.Lower
	}

	translation, ok := e.rangefinder.FieldAligned(height, tx, ty, cycle.robotPose().Rotation)
	if !ok {
		return Absent(SourceRetroreflective)
	}
	return Estimate{Source: SourceRetroreflective, Present: true, Translation: translation}
}
