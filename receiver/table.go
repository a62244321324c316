// Package receiver gives read-only access to the raw values published by the detection
// hardware. Values land in a Table, keyed like a network table, and are read back with typed
// getters that fall back to a default instead of failing.
package receiver

import (
	"encoding/json"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Table is a concurrency-safe key/value store of the latest value published under each key.
type Table struct {
	mu     sync.RWMutex
	values map[string]interface{}
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{values: map[string]interface{}{}}
}

// NormalizeKey gives every key exactly one leading slash.
func NormalizeKey(key string) string {
	return "/" + strings.TrimLeft(key, "/")
}

// Put stores value under key, replacing any previous value.
func (t *Table) Put(key string, value interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.values[NormalizeKey(key)] = value
}

// PutJSON decodes a JSON payload and stores it under key. Objects are kept as raw JSON so
// structured readers can decode them into their own types.
func (t *Table) PutJSON(key string, payload []byte) error {
	var value interface{}
	if err := json.Unmarshal(payload, &value); err != nil {
		return errors.Wrapf(err, "decoding value for %q", key)
	}
	if _, isObject := value.(map[string]interface{}); isObject {
		value = json.RawMessage(append([]byte(nil), payload...))
	}
	t.Put(key, value)
	return nil
}

// Delete removes key.
func (t *Table) Delete(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.values, NormalizeKey(key))
}

// Get returns the raw value stored under key.
func (t *Table) Get(key string) (interface{}, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	value, ok := t.values[NormalizeKey(key)]
	return value, ok
}

// Keys returns every key in sorted order.
func (t *Table) Keys() []string {
	t.mu.RLock()
	keys := lo.Keys(t.values)
	t.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// Float64 reads a number. Booleans read as 0 or 1. Missing or mistyped values read as def.
func (t *Table) Float64(key string, def float64) float64 {
	value, ok := t.Get(key)
	if !ok {
		return def
	}
	if f, ok := toFloat64(value); ok {
		return f
	}
	return def
}

// Int reads a number rounded to the nearest integer.
func (t *Table) Int(key string, def int) int {
	f := t.Float64(key, math.NaN())
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return int(math.Round(f))
}

// Bool reads a boolean. Numbers read as true when non-zero.
func (t *Table) Bool(key string, def bool) bool {
	value, ok := t.Get(key)
	if !ok {
		return def
	}
	if b, ok := value.(bool); ok {
		return b
	}
	if f, ok := toFloat64(value); ok {
		return f != 0
	}
	return def
}

// Float64Array reads an array of numbers. Missing values, non-arrays and arrays with
// non-numeric members all read as an empty array.
func (t *Table) Float64Array(key string) []float64 {
	value, ok := t.Get(key)
	if !ok {
		return []float64{}
	}
	switch v := value.(type) {
	case []float64:
		return append([]float64{}, v...)
	case []interface{}:
		out := make([]float64, 0, len(v))
		for _, member := range v {
			f, ok := toFloat64(member)
			if !ok {
				return []float64{}
			}
			out = append(out, f)
		}
		return out
	default:
		return []float64{}
	}
}

// Bytes reads a raw payload, returning nil when absent.
func (t *Table) Bytes(key string) []byte {
	value, ok := t.Get(key)
	if !ok {
		return nil
	}
	switch v := value.(type) {
	case json.RawMessage:
		return v
	case []byte:
		return v
	case string:
		return []byte(v)
	default:
		return nil
	}
}

func toFloat64(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
