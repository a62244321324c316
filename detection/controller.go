package detection

import (
	"sync"

	"github.com/robotloc/visionfusion/diagnostics"
	"github.com/robotloc/visionfusion/logging"
)

// PipelineDiagnosticKey is where the active pipeline index is published.
const PipelineDiagnosticKey = "/limelight/pipeline"

// A PipelineSelector commands the camera to run a pipeline. Delivery is fire-and-forget.
type PipelineSelector interface {
	SetPipeline(index int)
}

// Controller holds the active mode. Mode changes only happen through SetMode and are visible to
// the next fusion cycle.
type Controller struct {
	mu       sync.RWMutex
	mode     Mode
	selector PipelineSelector
	sink     diagnostics.Sink
	logger   logging.Logger
}

// NewController selects initial on the camera and returns a controller for it.
func NewController(initial Mode, selector PipelineSelector, sink diagnostics.Sink, logger logging.Logger) *Controller {
	if sink == nil {
		sink = diagnostics.Noop{}
	}
	c := &Controller{selector: selector, sink: sink, logger: logger}
	c.SetMode(initial)
	return c
}

// SetMode switches the camera to mode.
func (c *Controller) SetMode(mode Mode) {
	c.mu.Lock()
	previous := c.mode
	c.mode = mode
	c.mu.Unlock()

	c.selector.SetPipeline(mode.Pipeline())
	if err := c.sink.Publish(PipelineDiagnosticKey, mode.Pipeline()); err != nil {
		c.logger.Debugw("failed to publish pipeline", "error", err)
	}
	if previous != mode {
		c.logger.Infow("detection mode changed", "from", previous, "to", mode)
	}
}

// Follow adopts a pipeline that was selected outside this controller, such as by the one-shot
// mode command. Selecting the already active pipeline does nothing, so the echo of this
// controller's own selection is ignored.
func (c *Controller) Follow(index int) error {
	mode, err := ModeFromPipeline(index)
	if err != nil {
		return err
	}
	if mode == c.Mode() {
		return nil
	}
	c.SetMode(mode)
	return nil
}

// Mode returns the active mode.
func (c *Controller) Mode() Mode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mode
}
