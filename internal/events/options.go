package events

type ProducerOptions func(e *EventProducer)

func WithOutputTopic(topic string) ProducerOptions {
	return func(e *EventProducer) {
		e.topic = topic
	}
}

// WithBufferSize bounds the number of pending events. Zero means unbounded.
func WithBufferSize(size int) ProducerOptions {
	return func(e *EventProducer) {
		e.buffer = newBuffer(size)
	}
}

// WithFailureHook is called for every event the writer could not deliver.
func WithFailureHook(fn func(kind string, err error)) ProducerOptions {
	return func(e *EventProducer) {
		e.onFailure = fn
	}
}
