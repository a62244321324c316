// Package diagnostics publishes best-effort telemetry values by key.
package diagnostics

import (
	"sort"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/multierr"

	"github.com/robotloc/visionfusion/logging"
)

// A Sink accepts telemetry values. Callers treat any error as informational.
type Sink interface {
	Publish(key string, value interface{}) error
}

// Noop discards everything.
type Noop struct{}

// Publish does nothing.
func (Noop) Publish(string, interface{}) error {
	return nil
}

// Memory keeps the latest value of every key along with the history of values published to it.
// It is safe for concurrent use.
type Memory struct {
	mu      sync.Mutex
	latest  map[string]interface{}
	history map[string][]interface{}
}

// NewMemory returns an empty in-memory sink.
func NewMemory() *Memory {
	return &Memory{
		latest:  map[string]interface{}{},
		history: map[string][]interface{}{},
	}
}

// Publish records the value.
func (m *Memory) Publish(key string, value interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latest[key] = value
	m.history[key] = append(m.history[key], value)
	return nil
}

// Latest returns the last value published under key.
func (m *Memory) Latest(key string) (interface{}, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.latest[key]
	return v, ok
}

// History returns a copy of every value published under key, oldest first.
func (m *Memory) History(key string) []interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]interface{}(nil), m.history[key]...)
}

// Keys returns every key published so far, sorted.
func (m *Memory) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := lo.Keys(m.latest)
	sort.Strings(keys)
	return keys
}

// Reset forgets everything published so far.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latest = map[string]interface{}{}
	m.history = map[string][]interface{}{}
}

// LoggerSink writes every value to a logger at DEBUG.
type LoggerSink struct {
	logger logging.Logger
}

// NewLoggerSink returns a sink logging to logger.
func NewLoggerSink(logger logging.Logger) *LoggerSink {
	return &LoggerSink{logger: logger}
}

// Publish logs the value.
func (s *LoggerSink) Publish(key string, value interface{}) error {
	s.logger.Debugw("diagnostic", "key", key, "value", value)
	return nil
}

// Multi fans every value out to a list of sinks.
type Multi []Sink

// Publish forwards the value to every sink, even after one fails, and combines the errors.
func (m Multi) Publish(key string, value interface{}) error {
	var errs error
	for _, sink := range m {
		errs = multierr.Append(errs, sink.Publish(key, value))
	}
	return errs
}
