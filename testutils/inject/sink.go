package inject

// Sink is an injected diagnostics sink.
type Sink struct {
	PublishFunc func(key string, value interface{}) error
}

// Publish calls the injected Publish or discards the value.
func (s *Sink) Publish(key string, value interface{}) error {
	if s.PublishFunc == nil {
		return nil
	}
	return s.PublishFunc(key, value)
}
