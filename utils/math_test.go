package utils

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func TestAngleConversions(t *testing.T) {
	test.That(t, DegToRad(180), test.ShouldAlmostEqual, math.Pi)
	test.That(t, RadToDeg(math.Pi/2), test.ShouldAlmostEqual, 90)
	test.That(t, RadToDeg(DegToRad(-37.5)), test.ShouldAlmostEqual, -37.5)
}

func TestWrapRadians(t *testing.T) {
	test.That(t, WrapRadians(0), test.ShouldAlmostEqual, 0)
	test.That(t, WrapRadians(math.Pi), test.ShouldAlmostEqual, math.Pi)
	test.That(t, WrapRadians(-math.Pi), test.ShouldAlmostEqual, math.Pi)
	test.That(t, WrapRadians(3*math.Pi/2), test.ShouldAlmostEqual, -math.Pi/2)
	test.That(t, WrapRadians(-5*math.Pi/2), test.ShouldAlmostEqual, -math.Pi/2)
}

func TestIsFinite(t *testing.T) {
	test.That(t, IsFinite(1, 2, -3), test.ShouldBeTrue)
	test.That(t, IsFinite(1, math.NaN()), test.ShouldBeFalse)
	test.That(t, IsFinite(math.Inf(-1)), test.ShouldBeFalse)
	test.That(t, Float64AlmostEqual(1, 1+1e-9, 1e-6), test.ShouldBeTrue)
}
