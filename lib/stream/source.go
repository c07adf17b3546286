package stream

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const sinkBufferSize = 10

// Source broadcasts messages to every attached sink.
type Source[T any] struct {
	logger *zap.Logger

	sinks     map[string]*Sink[T]
	sinksLock sync.Mutex
}

// NewSource creates a new message source.
func NewSource[T any](logger *zap.Logger) *Source[T] {
	return &Source[T]{
		logger: logger,
		sinks:  map[string]*Sink[T]{},
	}
}

// NewSink attaches a new sink to this source.
func (s *Source[T]) NewSink() *Sink[T] {
	sink := &Sink[T]{
		id:      uuid.New().String(),
		channel: make(chan T, sinkBufferSize),
		source:  s,
	}

	s.sinksLock.Lock()
	s.sinks[sink.id] = sink
	s.sinksLock.Unlock()

	s.logger.Debug("added watcher",
		zap.String("channel_id", sink.id))
	return sink
}

// SinkCount returns the number of attached sinks.
func (s *Source[T]) SinkCount() int {
	s.sinksLock.Lock()
	defer s.sinksLock.Unlock()

	return len(s.sinks)
}

// SendMessage sends a message to all attached sinks without blocking.
func (s *Source[T]) SendMessage(msg T) {
	s.sinksLock.Lock()
	defer s.sinksLock.Unlock()

	for _, sink := range s.sinks {
		select {
		case sink.channel <- msg:
		default:
			s.logger.Debug("channel blocked, dropping message",
				zap.String("channel_id", sink.id),
			)
		}
	}
}

func (s *Source[T]) removeSink(sink *Sink[T]) {
	s.sinksLock.Lock()
	delete(s.sinks, sink.id)
	s.sinksLock.Unlock()

	s.logger.Debug("removed watcher",
		zap.String("channel_id", sink.id))
}
