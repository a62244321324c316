package fusion

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/robotloc/visionfusion/logging"
	"github.com/robotloc/visionfusion/utils"
)

// DefaultPeriod is the control period of the robot loop.
const DefaultPeriod = 20 * time.Millisecond

// Runner calls Cycle on a fixed period until closed.
type Runner struct {
	workers *utils.Workers
}

// NewRunner starts cycling svc every period.
func NewRunner(svc *Service, period time.Duration, clk clock.Clock, logger logging.Logger) *Runner {
	if period <= 0 {
		period = DefaultPeriod
	}
	if clk == nil {
		clk = clock.New()
	}
	// create the ticker before the worker starts so a mock clock sees it immediately
	ticker := clk.Ticker(period)
	return &Runner{workers: utils.StartWorkers(func(ctx context.Context) {
		defer ticker.Stop()
		for {
			if ctx.Err() != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := svc.Cycle(ctx); err != nil && ctx.Err() == nil {
					logger.Warnw("vision cycle failed", "error", err)
				}
			}
		}
	})}
}

// Close stops the runner and waits for the cycle in flight to finish.
func (r *Runner) Close() {
	r.workers.Stop()
}
