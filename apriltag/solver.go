package apriltag

import (
	"github.com/golang/geo/r3"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/num/quat"

	"github.com/robotloc/visionfusion/spatialmath"
)

// DefaultMaxAmbiguity drops single-tag solutions whose two candidate poses are too alike to
// tell apart when other tags are visible.
const DefaultMaxAmbiguity = 0.2

// Solution is a field-to-robot pose solved from one frame.
type Solution struct {
	Pose   spatialmath.Pose
	TagIDs []int
}

// Solver combines every known tag in a frame into a single robot pose. It is seeded with the
// latest fused pose to pick between the two candidate solutions of a lone tag.
type Solver struct {
	layout       *FieldLayout
	cameraToBot  spatialmath.Pose
	maxAmbiguity float64

	reference    spatialmath.Pose2D
	hasReference bool

	lastSequence int64
	sawFrame     bool
}

// NewSolver returns a solver for a camera mounted at robotToCamera.
func NewSolver(layout *FieldLayout, robotToCamera spatialmath.Pose, maxAmbiguity float64) *Solver {
	return &Solver{
		layout:       layout,
		cameraToBot:  spatialmath.PoseInverse(robotToCamera),
		maxAmbiguity: maxAmbiguity,
	}
}

// SetReferencePose sets the pose used to disambiguate single-tag solutions.
func (s *Solver) SetReferencePose(p spatialmath.Pose2D) {
	s.reference = p
	s.hasReference = true
}

// Update solves the frame. A frame whose sequence number was already solved yields nothing, so
// the same image is never reported twice.
func (s *Solver) Update(frame Frame) (Solution, bool) {
	if s.sawFrame && frame.Sequence == s.lastSequence {
		return Solution{}, false
	}
	s.sawFrame = true
	s.lastSequence = frame.Sequence

	known := lo.Filter(frame.Targets, func(target Target, _ int) bool {
		_, ok := s.layout.TagPose(target.ID)
		return ok
	})

	var sol Solution
	switch len(known) {
	case 0:
		return Solution{}, false
	case 1:
		sol = s.solveSingle(known[0])
	default:
		var ok bool
		if sol, ok = s.solveMulti(known); !ok {
			return Solution{}, false
		}
	}

	if !spatialmath.PoseIsFinite(sol.Pose) {
		return Solution{}, false
	}
	// a robot off the field means the tags were misread
	if !s.layout.Contains(spatialmath.PoseToPose2D(sol.Pose).Translation) {
		return Solution{}, false
	}
	return sol, true
}

// robotPose chains field->tag, tag->camera and camera->robot.
func (s *Solver) robotPose(id int, cameraToTarget spatialmath.Pose) spatialmath.Pose {
	fieldToTag, _ := s.layout.TagPose(id)
	fieldToCamera := spatialmath.Compose(fieldToTag, spatialmath.PoseInverse(cameraToTarget))
	return spatialmath.Compose(fieldToCamera, s.cameraToBot)
}

func (s *Solver) solveSingle(target Target) Solution {
	best := s.robotPose(target.ID, target.Best.Pose())
	if target.Alt == nil || !s.hasReference {
		return Solution{Pose: best, TagIDs: []int{target.ID}}
	}

	alt := s.robotPose(target.ID, target.Alt.Pose())
	ref := s.reference.Translation
	if distanceToReference(alt, ref) < distanceToReference(best, ref) {
		return Solution{Pose: alt, TagIDs: []int{target.ID}}
	}
	return Solution{Pose: best, TagIDs: []int{target.ID}}
}

func (s *Solver) solveMulti(targets []Target) (Solution, bool) {
	if s.maxAmbiguity > 0 {
		targets = lo.Filter(targets, func(target Target, _ int) bool {
			return target.Ambiguity <= s.maxAmbiguity
		})
	}
	if len(targets) == 0 {
		return Solution{}, false
	}

	poses := lo.Map(targets, func(target Target, _ int) spatialmath.Pose {
		return s.robotPose(target.ID, target.Best.Pose())
	})
	return Solution{
		Pose:   averagePoses(poses),
		TagIDs: lo.Map(targets, func(target Target, _ int) int { return target.ID }),
	}, true
}

func distanceToReference(p spatialmath.Pose, ref spatialmath.Translation2D) float64 {
	return spatialmath.PoseToPose2D(p).Translation.Distance(ref)
}

// averagePoses takes the mean point and the normalized sum of sign-aligned quaternions, which is
// a close approximation of the mean rotation when the inputs are near each other.
func averagePoses(poses []spatialmath.Pose) spatialmath.Pose {
	var point r3.Vector
	var sum quat.Number
	first := poses[0].Orientation().Quaternion()
	for _, p := range poses {
		point = point.Add(p.Point())
		q := p.Orientation().Quaternion()
		if first.Real*q.Real+first.Imag*q.Imag+first.Jmag*q.Jmag+first.Kmag*q.Kmag < 0 {
			q = spatialmath.Flip(q)
		}
		sum = quat.Add(sum, q)
	}
	sum = spatialmath.Normalize(sum)
	return spatialmath.NewPose(
		point.Mul(1/float64(len(poses))),
		spatialmath.NewQuaternion(sum.Real, sum.Imag, sum.Jmag, sum.Kmag),
	)
}
