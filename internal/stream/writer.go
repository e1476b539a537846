package stream

import (
	"io"
	"net/http"

	"github.com/gin-contrib/sse"
	"github.com/pkg/errors"
)

// SetHeaders prepares a response for event streaming.
func SetHeaders(h http.Header) {
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
}

// Write encodes a single event. Non-string data is JSON-encoded. The
// writer is flushed when it supports it.
func Write(w io.Writer, event string, data any) error {
	if err := sse.Encode(w, sse.Event{Event: event, Data: data}); err != nil {
		return errors.Wrap(err, "stream: write")
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}
