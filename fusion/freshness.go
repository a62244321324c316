package fusion

import (
	"sync"

	"github.com/samber/lo"
)

// Category groups pose sources whose updates count toward the same freshness clock.
type Category string

const (
	// CategoryAprilTag covers both tag sources.
	CategoryAprilTag Category = "apriltag"
	// CategoryRetroreflective covers the retroreflective source.
	CategoryRetroreflective Category = "retroreflective"
	// CategoryML covers the ML object source.
	CategoryML Category = "ml"
)

// FreshnessClock remembers when each category last produced an accepted result. It only moves
// forward on acceptance and never invalidates anything by itself.
type FreshnessClock struct {
	mu   sync.RWMutex
	last map[Category]float64
}

// NewFreshnessClock returns a clock with the given categories already marked at start.
func NewFreshnessClock(start float64, categories ...Category) *FreshnessClock {
	return &FreshnessClock{
		last: lo.SliceToMap(categories, func(c Category) (Category, float64) { return c, start }),
	}
}

// Mark records an acceptance at t.
func (fc *FreshnessClock) Mark(category Category, t float64) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.last[category] = t
}

// Last returns the time of the category's last acceptance.
func (fc *FreshnessClock) Last(category Category) (float64, bool) {
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	t, ok := fc.last[category]
	return t, ok
}

// Staleness returns how long before now the category was last accepted.
func (fc *FreshnessClock) Staleness(category Category, now float64) (float64, bool) {
	last, ok := fc.Last(category)
	if !ok {
		return 0, false
	}
	return now - last, true
}
