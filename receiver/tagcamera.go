package receiver

import (
	"encoding/json"

	"github.com/robotloc/visionfusion/apriltag"
)

// A TagCamera reports the latest frame processed by a fiducial camera.
type TagCamera interface {
	LatestFrame() (apriltag.Frame, bool)
}

// TableTagCamera reads frames published as JSON objects under a single table key.
type TableTagCamera struct {
	table *Table
	key   string
}

// NewTableTagCamera returns a tag camera reading /<name>/frame from table.
func NewTableTagCamera(table *Table, name string) *TableTagCamera {
	return &TableTagCamera{table: table, key: NormalizeKey(name) + "/frame"}
}

// Key is the table key frames are read from.
func (c *TableTagCamera) Key() string {
	return c.key
}

// LatestFrame decodes the latest frame. Nothing published or an undecodable payload reads as no
// frame.
func (c *TableTagCamera) LatestFrame() (apriltag.Frame, bool) {
	payload := c.table.Bytes(c.key)
	if len(payload) == 0 {
		return apriltag.Frame{}, false
	}
	var frame apriltag.Frame
	if err := json.Unmarshal(payload, &frame); err != nil {
		return apriltag.Frame{}, false
	}
	return frame, true
}
