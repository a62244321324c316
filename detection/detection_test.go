package detection

import (
	"errors"
	"testing"

	"go.viam.com/test"

	"github.com/robotloc/visionfusion/diagnostics"
	"github.com/robotloc/visionfusion/logging"
	"github.com/robotloc/visionfusion/testutils/inject"
)

func TestModePipelines(t *testing.T) {
	test.That(t, ModeTag.Pipeline(), test.ShouldEqual, 0)
	test.That(t, ModeRangePrimary.Pipeline(), test.ShouldEqual, 1)
	test.That(t, ModeRangeSecondary.Pipeline(), test.ShouldEqual, 2)
	test.That(t, ModeML.Pipeline(), test.ShouldEqual, 3)

	test.That(t, ModeRangePrimary.IsRanging(), test.ShouldBeTrue)
	test.That(t, ModeRangeSecondary.IsRanging(), test.ShouldBeTrue)
	test.That(t, ModeTag.IsRanging(), test.ShouldBeFalse)
	test.That(t, ModeML.IsRanging(), test.ShouldBeFalse)

	test.That(t, Mode(7).Valid(), test.ShouldBeFalse)
	test.That(t, Mode(7).String(), test.ShouldEqual, "UNKNOWN")
}

func TestModeFromString(t *testing.T) {
	for _, m := range Modes {
		parsed, err := ModeFromString(m.String())
		test.That(t, err, test.ShouldBeNil)
		test.That(t, parsed, test.ShouldEqual, m)
	}

	parsed, err := ModeFromString(" range-secondary ")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, parsed, test.ShouldEqual, ModeRangeSecondary)

	parsed, err = ModeFromString("ml")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, parsed, test.ShouldEqual, ModeML)

	_, err = ModeFromString("lidar")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "lidar")
}

func TestModeText(t *testing.T) {
	text, err := ModeRangePrimary.MarshalText()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(text), test.ShouldEqual, "RANGE_PRIMARY")

	var m Mode
	test.That(t, m.UnmarshalText([]byte("ml")), test.ShouldBeNil)
	test.That(t, m, test.ShouldEqual, ModeML)
	test.That(t, m.UnmarshalText([]byte("nope")), test.ShouldNotBeNil)

	_, err = Mode(-3).MarshalText()
	test.That(t, err, test.ShouldNotBeNil)
}

func TestControllerAppliesInitialMode(t *testing.T) {
	selector := &inject.PipelineSelector{}
	sink := diagnostics.NewMemory()

	c := NewController(ModeML, selector, sink, logging.NewTestLogger(t))
	test.That(t, c.Mode(), test.ShouldEqual, ModeML)
	test.That(t, selector.Selections(), test.ShouldResemble, []int{3})

	v, ok := sink.Latest(PipelineDiagnosticKey)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, v, test.ShouldEqual, 3)
}

func TestControllerSetMode(t *testing.T) {
	selector := &inject.PipelineSelector{}
	logger, observed := logging.NewObservedTestLogger(t)
	c := NewController(ModeTag, selector, nil, logger)

	c.SetMode(ModeRangePrimary)
	c.SetMode(ModeRangePrimary)
	c.SetMode(ModeTag)

	test.That(t, c.Mode(), test.ShouldEqual, ModeTag)
	test.That(t, selector.Selections(), test.ShouldResemble, []int{0, 1, 1, 0})
	test.That(t, observed.FilterMessage("detection mode changed").Len(), test.ShouldEqual, 2)
}

func TestControllerIgnoresSinkFailure(t *testing.T) {
	selector := &inject.PipelineSelector{}
	sink := &inject.Sink{PublishFunc: func(string, interface{}) error {
		return errors.New("dashboard offline")
	}}

	c := NewController(ModeTag, selector, sink, logging.NewTestLogger(t))
	c.SetMode(ModeML)
	test.That(t, c.Mode(), test.ShouldEqual, ModeML)
	test.That(t, selector.Selections(), test.ShouldResemble, []int{0, 3})
}

func TestModeFromPipeline(t *testing.T) {
	for _, m := range Modes {
		parsed, err := ModeFromPipeline(m.Pipeline())
		test.That(t, err, test.ShouldBeNil)
		test.That(t, parsed, test.ShouldEqual, m)
	}
	_, err := ModeFromPipeline(9)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = ModeFromPipeline(-1)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestControllerFollow(t *testing.T) {
	selector := &inject.PipelineSelector{}
	c := NewController(ModeTag, selector, nil, logging.NewTestLogger(t))

	test.That(t, c.Follow(3), test.ShouldBeNil)
	test.That(t, c.Mode(), test.ShouldEqual, ModeML)
	test.That(t, selector.Selections(), test.ShouldResemble, []int{0, 3})

	// the echo of the active pipeline is not sent again
	test.That(t, c.Follow(3), test.ShouldBeNil)
	test.That(t, selector.Selections(), test.ShouldResemble, []int{0, 3})

	test.That(t, c.Follow(12), test.ShouldNotBeNil)
	test.That(t, c.Mode(), test.ShouldEqual, ModeML)
}
