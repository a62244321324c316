// Package apriltag holds the field's fiducial layout and the multi-tag solver that turns a
// camera's tag detections into a field pose for the robot.
package apriltag

import (
	"encoding/json"
	"io"
	"os"
	"sort"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/robotloc/visionfusion/spatialmath"
)

// FieldLayout is the known pose of every fiducial on the field, in the field frame.
type FieldLayout struct {
	Length float64
	Width  float64
	tags   map[int]spatialmath.Pose
}

type layoutTagJSON struct {
	ID   int `json:"ID"`
	Pose struct {
		Translation struct {
			X float64 `json:"x"`
			Y float64 `json:"y"`
			Z float64 `json:"z"`
		} `json:"translation"`
		Rotation struct {
			Quaternion struct {
				W float64 `json:"W"`
				X float64 `json:"X"`
				Y float64 `json:"Y"`
				Z float64 `json:"Z"`
			} `json:"quaternion"`
		} `json:"rotation"`
	} `json:"pose"`
}

type layoutJSON struct {
	Tags  []layoutTagJSON `json:"tags"`
	Field struct {
		Length float64 `json:"length"`
		Width  float64 `json:"width"`
	} `json:"field"`
}

// NewFieldLayout builds a layout from tag poses.
func NewFieldLayout(length, width float64, tags map[int]spatialmath.Pose) *FieldLayout {
	return &FieldLayout{Length: length, Width: width, tags: tags}
}

// LoadFieldLayout reads a field layout JSON file.
func LoadFieldLayout(path string) (*FieldLayout, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	layout, err := ParseFieldLayout(f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading field layout %q", path)
	}
	return layout, nil
}

// ParseFieldLayout decodes a field layout in the standard JSON format: a list of tags with an ID,
// a translation in meters and a rotation quaternion, plus the field dimensions.
func ParseFieldLayout(r io.Reader) (*FieldLayout, error) {
	var raw layoutJSON
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, err
	}
	if len(raw.Tags) == 0 {
		return nil, errors.New("field layout has no tags")
	}
	if dups := lo.FindDuplicatesBy(raw.Tags, func(tag layoutTagJSON) int { return tag.ID }); len(dups) > 0 {
		return nil, errors.Errorf("field layout lists tag %d more than once", dups[0].ID)
	}

	tags := lo.SliceToMap(raw.Tags, func(tag layoutTagJSON) (int, spatialmath.Pose) {
		tr, q := tag.Pose.Translation, tag.Pose.Rotation.Quaternion
		return tag.ID, spatialmath.NewPose(
			r3.Vector{X: tr.X, Y: tr.Y, Z: tr.Z},
			spatialmath.NewQuaternion(q.W, q.X, q.Y, q.Z),
		)
	})
	return NewFieldLayout(raw.Field.Length, raw.Field.Width, tags), nil
}

// TagPose returns the field pose of the tag with the given id.
func (l *FieldLayout) TagPose(id int) (spatialmath.Pose, bool) {
	pose, ok := l.tags[id]
	return pose, ok
}

// TagIDs returns every tag id in ascending order.
func (l *FieldLayout) TagIDs() []int {
	ids := lo.Keys(l.tags)
	sort.Ints(ids)
	return ids
}

// Contains reports whether a field-plane position lies on the field. A layout without
// dimensions contains everything.
func (l *FieldLayout) Contains(t spatialmath.Translation2D) bool {
	if l.Length <= 0 || l.Width <= 0 {
		return true
	}
	return t.X >= 0 && t.X <= l.Length && t.Y >= 0 && t.Y <= l.Width
}
