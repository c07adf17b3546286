package stream

// Sink receives the messages broadcast by its parent source.
type Sink[T any] struct {
	id      string
	channel chan T

	source *Source[T]
}

// ID uniquely identifies the sink within its source.
func (s *Sink[T]) ID() string {
	return s.id
}

// Messages returns the read channel of messages broadcast by the source.
// The channel is buffered, but a sink that falls behind misses messages rather than blocking the source.
func (s *Sink[T]) Messages() <-chan T {
	return s.channel
}

// Close detaches the sink from the source and closes the message channel.
func (s *Sink[T]) Close() {
	s.source.removeSink(s)
	close(s.channel)
}
