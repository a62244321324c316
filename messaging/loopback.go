package messaging

import (
	"strings"
	"sync"
)

// Loopback is an in-process Transport. Published messages are delivered synchronously to every
// matching subscriber, which lets the service run without a broker.
type Loopback struct {
	mu   sync.RWMutex
	subs []subscription
}

type subscription struct {
	filter  string
	handler Handler
}

// NewLoopback returns an empty loopback transport.
func NewLoopback() *Loopback {
	return &Loopback{}
}

// Publish delivers the message to every matching subscriber.
func (l *Loopback) Publish(topic string, payload []byte) error {
	l.mu.RLock()
	matched := make([]Handler, 0, len(l.subs))
	for _, sub := range l.subs {
		if TopicMatches(sub.filter, topic) {
			matched = append(matched, sub.handler)
		}
	}
	l.mu.RUnlock()

	for _, handler := range matched {
		handler(topic, append([]byte(nil), payload...))
	}
	return nil
}

// Subscribe registers handler for every topic matching filter.
func (l *Loopback) Subscribe(filter string, handler Handler) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.subs = append(l.subs, subscription{filter: filter, handler: handler})
	return nil
}

// TopicMatches reports whether topic matches an MQTT subscription filter.
func TopicMatches(filter, topic string) bool {
	filterLevels := strings.Split(filter, "/")
	topicLevels := strings.Split(topic, "/")
	for i, level := range filterLevels {
		switch {
		case level == "#":
			return true
		case i >= len(topicLevels):
			return false
		case level == "+":
			continue
		case level != topicLevels[i]:
			return false
		}
	}
	return len(filterLevels) == len(topicLevels)
}
