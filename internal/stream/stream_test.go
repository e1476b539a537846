package stream

import (
	"bytes"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, body string) []Event {
	t.Helper()
	var out []Event
	require.NoError(t, NewReader(strings.NewReader(body)).Each(func(ev Event) error {
		out = append(out, ev)
		return nil
	}))
	return out
}

func TestReader_DataEvents(t *testing.T) {
	body := "data: {\"a\":1}\n\ndata:{\"b\":2}\n\ndata: [DONE]\n\n"
	evs := collect(t, body)

	require.Len(t, evs, 3)
	assert.Equal(t, `{"a":1}`, evs[0].Data)
	assert.Equal(t, `{"b":2}`, evs[1].Data, "space after colon is optional")
	assert.Equal(t, "[DONE]", evs[2].Data)
}

func TestReader_FieldsCommentsAndCRLF(t *testing.T) {
	body := ": keep-alive\r\nid: 7\r\nevent: update\r\ndata: line one\r\ndata: line two\r\n\r\n"
	evs := collect(t, body)

	require.Len(t, evs, 1)
	assert.Equal(t, "7", evs[0].ID)
	assert.Equal(t, "update", evs[0].Event)
	assert.Equal(t, "line one\nline two", evs[0].Data)
}

func TestReader_SkipsDatalessBlocks(t *testing.T) {
	body := "event: heartbeat\n\n\n\ndata: x\n\n"
	evs := collect(t, body)

	require.Len(t, evs, 1)
	assert.Equal(t, "x", evs[0].Data)
	assert.Empty(t, evs[0].Event, "fields of a dataless block do not leak")
}

func TestReader_UnterminatedTrailingEvent(t *testing.T) {
	r := NewReader(strings.NewReader("data: tail"))

	ev, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "tail", ev.Data)

	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestReader_EachStopsOnCallbackError(t *testing.T) {
	stop := io.ErrClosedPipe
	n := 0
	err := NewReader(strings.NewReader("data: 1\n\ndata: 2\n\n")).Each(func(Event) error {
		n++
		return stop
	})
	assert.Equal(t, stop, err)
	assert.Equal(t, 1, n)
}

func TestWrite_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "update", map[string]string{"content": "<think>hi"}))
	require.NoError(t, Write(&buf, "", "[DONE]"))

	evs := collect(t, buf.String())
	require.Len(t, evs, 2)
	assert.Equal(t, "update", evs[0].Event)
	assert.JSONEq(t, `{"content":"<think>hi"}`, evs[0].Data)
	assert.Equal(t, "[DONE]", evs[1].Data)
}

func TestSetHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SetHeaders(rec.Header())
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
}

func TestWrite_FlushesRecorder(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, Write(rec, "", "ping"))
	assert.True(t, rec.Flushed)
	assert.Contains(t, rec.Body.String(), "data:ping")
}
