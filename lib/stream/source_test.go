package stream

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

type testMessage struct {
	value string
}

func TestNewSink(t *testing.T) {
	s := NewSource[*testMessage](zaptest.NewLogger(t))

	var wg sync.WaitGroup

	for i := 0; i < 1000; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sink := s.NewSink()
			assert.NotNil(t, sink)
			assert.NotEmpty(t, sink.ID())
		}()
	}

	wg.Wait()
	assert.Equal(t, 1000, s.SinkCount())
}

func TestSinkRemove(t *testing.T) {
	s := NewSource[*testMessage](zaptest.NewLogger(t))

	var wg sync.WaitGroup

	for i := 0; i < 1000; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sink := s.NewSink()
			assert.NotNil(t, sink)
			sink.Close()
		}()
	}

	wg.Wait()
	assert.Equal(t, 0, s.SinkCount())
}

func TestMessaging(t *testing.T) {
	s := NewSource[*testMessage](zaptest.NewLogger(t))

	var sendMessageWg sync.WaitGroup
	var messageReceivedWg sync.WaitGroup

	testMsg := &testMessage{"asdf123"}

	for i := 0; i < 1000; i++ {
		sendMessageWg.Add(1)
		messageReceivedWg.Add(1)
		max := rand.Intn(5)
		go func() {
			defer messageReceivedWg.Done()
			sink := s.NewSink()
			assert.NotNil(t, sink)
			sendMessageWg.Done()

			for i := 0; i < max; i++ {
				msg := <-sink.Messages()
				assert.Equal(t, testMsg, msg)
			}

			sink.Close()
		}()
	}

	sendMessageWg.Wait()

	for i := 0; i < 5; i++ {
		s.SendMessage(testMsg)
	}

	messageReceivedWg.Wait()
	assert.Equal(t, 0, s.SinkCount())
}

func TestSlowSinkDropsMessages(t *testing.T) {
	s := NewSource[int](zaptest.NewLogger(t))
	sink := s.NewSink()
	defer sink.Close()

	for i := 0; i < sinkBufferSize+5; i++ {
		s.SendMessage(i)
	}

	assert.Len(t, sink.Messages(), sinkBufferSize)
	assert.Equal(t, 0, <-sink.Messages())
}
