package messaging

import (
	"encoding/json"
	"strconv"
	"strings"
	"sync"

	"github.com/robotloc/visionfusion/logging"
	"github.com/robotloc/visionfusion/receiver"
)

// Topic layout under a prefix.
const (
	tableSegment       = "/table"
	diagnosticsSegment = "/diagnostics"
	measurementTopic   = "/estimator/measurement"
	poseTopic          = "/estimator/pose"
)

// TableTopic returns the topic carrying the table entry key.
func TableTopic(prefix, key string) string {
	return prefix + tableSegment + receiver.NormalizeKey(key)
}

// Bridge mirrors table entries published on the broker into a receiver.Table and publishes
// pipeline selections back to the camera.
type Bridge struct {
	transport   Transport
	table       *receiver.Table
	prefix      string
	pipelineKey string
	logger      logging.Logger

	mu         sync.RWMutex
	onPipeline func(index int)
}

// NewBridge returns a bridge feeding table. pipelineKey is the table entry the camera reads its
// pipeline index from.
func NewBridge(transport Transport, table *receiver.Table, prefix, pipelineKey string, logger logging.Logger) *Bridge {
	return &Bridge{
		transport:   transport,
		table:       table,
		prefix:      prefix,
		pipelineKey: pipelineKey,
		logger:      logger,
	}
}

// Start subscribes to every table topic.
func (b *Bridge) Start() error {
	return b.transport.Subscribe(b.prefix+tableSegment+"/#", b.handleTable)
}

// OnPipeline registers fn to run whenever a pipeline index arrives on the pipeline entry,
// including this bridge's own selections as the broker echoes them back.
func (b *Bridge) OnPipeline(fn func(index int)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onPipeline = fn
}

func (b *Bridge) handleTable(topic string, payload []byte) {
	key := strings.TrimPrefix(topic, b.prefix+tableSegment)
	if len(payload) == 0 {
		b.table.Delete(key)
		return
	}
	if err := b.table.PutJSON(key, payload); err != nil {
		b.logger.Debugw("dropping malformed table entry", "key", key, "error", err)
		return
	}
	if receiver.NormalizeKey(key) != receiver.NormalizeKey(b.pipelineKey) {
		return
	}
	b.mu.RLock()
	fn := b.onPipeline
	b.mu.RUnlock()
	if index := b.table.Int(key, -1); fn != nil && index >= 0 {
		fn(index)
	}
}

// SetPipeline publishes the pipeline index to the camera.
func (b *Bridge) SetPipeline(index int) {
	b.table.Put(b.pipelineKey, index)
	if err := b.transport.Publish(TableTopic(b.prefix, b.pipelineKey), []byte(strconv.Itoa(index))); err != nil {
		b.logger.Warnw("failed to publish pipeline", "pipeline", index, "error", err)
	}
}

// Sink publishes diagnostics as JSON under <prefix>/diagnostics.
type Sink struct {
	transport Transport
	prefix    string
}

// NewSink returns a diagnostics sink publishing through transport.
func NewSink(transport Transport, prefix string) *Sink {
	return &Sink{transport: transport, prefix: prefix}
}

// Publish encodes value and publishes it on the key's topic.
func (s *Sink) Publish(key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.transport.Publish(s.prefix+diagnosticsSegment+receiver.NormalizeKey(key), payload)
}

// Measurement is a vision pose measurement on the wire. Theta is in radians and Timestamp in
// seconds.
type Measurement struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Theta     float64 `json:"theta"`
	Timestamp float64 `json:"timestamp"`
}

// EstimatedPose is the remote estimator's fused pose on the wire.
type EstimatedPose struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Theta float64 `json:"theta"`
}
