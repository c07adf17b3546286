package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rmrobinson/timetables/lib/stream"
	"github.com/rmrobinson/timetables/services/transit/timetable"
	"go.uber.org/zap"
)

const keepAliveInterval = 30 * time.Second

// BuildEvent describes the outcome of a build as sent to event stream clients.
type BuildEvent struct {
	RunID      string    `json:"run_id,omitempty"`
	Started    time.Time `json:"started,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	Pairs      int       `json:"pairs"`
	Segments   int       `json:"segments"`
	Pages      int       `json:"pages"`
	Error      string    `json:"error,omitempty"`
}

// Events broadcasts build outcomes to clients of GET /api/events as server-sent events.
type Events struct {
	logger *zap.Logger
	source *stream.Source[*BuildEvent]
}

// NewEvents creates an event stream with no clients.
func NewEvents(logger *zap.Logger) *Events {
	return &Events{
		logger: logger,
		source: stream.NewSource[*BuildEvent](logger),
	}
}

// ObserveBuild broadcasts the build outcome to every connected client.
func (e *Events) ObserveBuild(res *timetable.BuildResult, err error) {
	event := &BuildEvent{}
	if res != nil {
		event.RunID = res.RunID
		event.Started = res.Started.UTC()
		event.DurationMS = res.Duration.Milliseconds()
		event.Pairs = res.Pairs
		event.Segments = res.Segments
		event.Pages = res.Pages
	}
	if err != nil {
		event.Error = err.Error()
	}
	e.source.SendMessage(event)
}

// ServeHTTP handles GET /api/events
// The connection stays open until the client goes away.
func (e *Events) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	sink := e.source.NewSink()
	defer sink.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case event := <-sink.Messages():
			body, err := json.Marshal(event)
			if err != nil {
				e.logger.Warn("unable to encode build event",
					zap.Error(err),
				)
				continue
			}
			fmt.Fprintf(w, "event: build\ndata: %s\n\n", body)
			flusher.Flush()
		}
	}
}
