package spatialmath

import (
	"fmt"
	"math"

	"github.com/robotloc/visionfusion/utils"
)

// Translation2D is a planar offset in meters.
type Translation2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewTranslation2DPolar returns the translation of length distance pointing along angle.
func NewTranslation2DPolar(distance float64, angle Rotation2D) Translation2D {
	return Translation2D{X: distance * angle.Cos(), Y: distance * angle.Sin()}
}

// Plus returns t + other.
func (t Translation2D) Plus(other Translation2D) Translation2D {
	return Translation2D{X: t.X + other.X, Y: t.Y + other.Y}
}

// Minus returns t - other.
func (t Translation2D) Minus(other Translation2D) Translation2D {
	return Translation2D{X: t.X - other.X, Y: t.Y - other.Y}
}

// Times scales the translation.
func (t Translation2D) Times(scalar float64) Translation2D {
	return Translation2D{X: t.X * scalar, Y: t.Y * scalar}
}

// RotateBy rotates the translation counter-clockwise about the origin.
func (t Translation2D) RotateBy(r Rotation2D) Translation2D {
	c, s := r.Cos(), r.Sin()
	return Translation2D{X: t.X*c - t.Y*s, Y: t.X*s + t.Y*c}
}

// Norm is the distance from the origin.
func (t Translation2D) Norm() float64 {
	return math.Hypot(t.X, t.Y)
}

// Distance is the distance between two translations.
func (t Translation2D) Distance(other Translation2D) float64 {
	return t.Minus(other).Norm()
}

// Angle is the direction of the translation from the origin.
func (t Translation2D) Angle() Rotation2D {
	return NewRotation2D(math.Atan2(t.Y, t.X))
}

// AlmostEqual compares both components to within eps.
func (t Translation2D) AlmostEqual(other Translation2D, eps float64) bool {
	return utils.Float64AlmostEqual(t.X, other.X, eps) && utils.Float64AlmostEqual(t.Y, other.Y, eps)
}

// IsFinite reports whether both components are finite.
func (t Translation2D) IsFinite() bool {
	return utils.IsFinite(t.X, t.Y)
}

func (t Translation2D) String() string {
	return fmt.Sprintf("(%.4f, %.4f)", t.X, t.Y)
}

// Rotation2D is a planar heading, kept normalized to (-pi, pi].
type Rotation2D struct {
	theta float64
}

// NewRotation2D returns a rotation of the given radians.
func NewRotation2D(radians float64) Rotation2D {
	return Rotation2D{theta: utils.WrapRadians(radians)}
}

// Rotation2DFromDegrees returns a rotation of the given degrees.
func Rotation2DFromDegrees(degrees float64) Rotation2D {
	return NewRotation2D(utils.DegToRad(degrees))
}

// Radians returns the rotation in radians.
func (r Rotation2D) Radians() float64 {
	return r.theta
}

// Degrees returns the rotation in degrees.
func (r Rotation2D) Degrees() float64 {
	return utils.RadToDeg(r.theta)
}

// Cos returns the cosine of the rotation.
func (r Rotation2D) Cos() float64 {
	return math.Cos(r.theta)
}

// Sin returns the sine of the rotation.
func (r Rotation2D) Sin() float64 {
	return math.Sin(r.theta)
}

// Plus adds two rotations.
func (r Rotation2D) Plus(other Rotation2D) Rotation2D {
	return NewRotation2D(r.theta + other.theta)
}

// Minus subtracts other from r.
func (r Rotation2D) Minus(other Rotation2D) Rotation2D {
	return NewRotation2D(r.theta - other.theta)
}

// Inverse returns the opposite rotation.
func (r Rotation2D) Inverse() Rotation2D {
	return NewRotation2D(-r.theta)
}

// AlmostEqual compares two rotations on the circle to within eps radians.
func (r Rotation2D) AlmostEqual(other Rotation2D, eps float64) bool {
	return math.Abs(r.Minus(other).theta) < eps
}

func (r Rotation2D) String() string {
	return fmt.Sprintf("%.2fdeg", r.Degrees())
}

// Transform2D is a rigid planar motion expressed in the frame it is applied in.
type Transform2D struct {
	Translation Translation2D
	Rotation    Rotation2D
}

// NewTransform2DBetween returns the transform that maps from onto to.
func NewTransform2DBetween(from, to Pose2D) Transform2D {
	rel := to.RelativeTo(from)
	return Transform2D{Translation: rel.Translation, Rotation: rel.Rotation}
}

// Pose2D is a position and heading on the field plane.
type Pose2D struct {
	Translation Translation2D
	Rotation    Rotation2D
}

// NewPose2D returns a planar pose.
func NewPose2D(t Translation2D, r Rotation2D) Pose2D {
	return Pose2D{Translation: t, Rotation: r}
}

// NewPose2DFromXYDegrees returns a planar pose from meters and a heading in degrees.
func NewPose2DFromXYDegrees(x, y, degrees float64) Pose2D {
	return NewPose2D(Translation2D{X: x, Y: y}, Rotation2DFromDegrees(degrees))
}

// TransformBy applies tr in the frame of p.
func (p Pose2D) TransformBy(tr Transform2D) Pose2D {
	return Pose2D{
		Translation: p.Translation.Plus(tr.Translation.RotateBy(p.Rotation)),
		Rotation:    p.Rotation.Plus(tr.Rotation),
	}
}

// RelativeTo expresses p in the frame of other.
func (p Pose2D) RelativeTo(other Pose2D) Pose2D {
	return Pose2D{
		Translation: p.Translation.Minus(other.Translation).RotateBy(other.Rotation.Inverse()),
		Rotation:    p.Rotation.Minus(other.Rotation),
	}
}

// AlmostEqual compares translation to within eps meters and rotation to within eps radians.
func (p Pose2D) AlmostEqual(other Pose2D, eps float64) bool {
	return p.Translation.AlmostEqual(other.Translation, eps) && p.Rotation.AlmostEqual(other.Rotation, eps)
}

// Array returns the pose as [x, y, degrees], the shape diagnostics are published in.
func (p Pose2D) Array() []float64 {
	return []float64{p.Translation.X, p.Translation.Y, p.Rotation.Degrees()}
}

func (p Pose2D) String() string {
	return fmt.Sprintf("Pose2D{%v, %v}", p.Translation, p.Rotation)
}
