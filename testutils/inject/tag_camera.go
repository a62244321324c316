package inject

import (
	"github.com/robotloc/visionfusion/apriltag"
)

// TagCamera is an injected multi-tag camera.
type TagCamera struct {
	LatestFrameFunc func() (apriltag.Frame, bool)
}

// LatestFrame calls the injected LatestFrame or reports no frame.
func (c *TagCamera) LatestFrame() (apriltag.Frame, bool) {
	if c.LatestFrameFunc == nil {
		return apriltag.Frame{}, false
	}
	return c.LatestFrameFunc()
}
