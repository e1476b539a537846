package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zulandar/educode/internal/auth"
	"github.com/zulandar/educode/internal/chat"
)

// llmServer streams a short reasoning-then-answer completion.
func llmServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"reasoning_content\":\"check weather\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"sunny\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	t.Cleanup(srv.Close)
	return srv
}

func loggedInFlagFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "isLoggedIn")
	require.NoError(t, auth.FileFlags{Path: path}.SetLoggedIn(true))
	return path
}

func TestChat_AsksAndManagesSessions(t *testing.T) {
	srv := llmServer(t)
	cfg := writeConfig(t, fmt.Sprintf("llm:\n  base_url: %s\nchat:\n  settle_delay: 1ms\nlog:\n  level: error\n", srv.URL))

	stdin := "hello\n/sessions\n/new\n/new\n/switch 4\n/switch nope\n/quit\n"
	out, err := runCmd(t, stdin, "--config", cfg, "--flag-file", loggedInFlagFile(t), "chat")
	require.NoError(t, err)

	assert.Contains(t, out, "(thinking) check weather\n\nsunny")
	assert.Contains(t, out, "[current] hello")
	assert.Contains(t, out, "Started conversation")
	assert.Contains(t, out, "It is now a new conversation.")
	assert.Contains(t, out, "(empty conversation)")
	assert.Contains(t, out, "switch:")
}

func TestChat_BackendFailureShowsFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()
	cfg := writeConfig(t, fmt.Sprintf("llm:\n  base_url: %s\nlog:\n  level: error\n", srv.URL))

	out, err := runCmd(t, "hi\n", "--config", cfg, "--flag-file", loggedInFlagFile(t), "chat")
	require.NoError(t, err)
	assert.Contains(t, out, "Request failed, please try again!")
}

func TestRender(t *testing.T) {
	assert.Equal(t, "(thinking) a\n\nb", render("<think>a</think>b"))
	assert.Equal(t, "plain", render("plain"))
}

// syncBuffer is a bytes.Buffer safe for concurrent use.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// blockingAgent streams nothing and returns once ctx ends.
type blockingAgent struct{}

func (blockingAgent) Stream(ctx context.Context, _ []chat.Message, _ func(string) error) error {
	<-ctx.Done()
	return ctx.Err()
}

// startChat runs the REPL in the background with piped input.
func startChat(t *testing.T) (*chat.Copilot, *io.PipeWriter, *syncBuffer, chan os.Signal, <-chan error) {
	t.Helper()
	cp, err := chat.New(chat.Options{Agent: blockingAgent{}})
	require.NoError(t, err)

	inR, inW := io.Pipe()
	out := &syncBuffer{}
	interrupts := make(chan os.Signal, 1)
	errCh := make(chan error, 1)
	go func() { errCh <- runChat(context.Background(), cp, inR, out, interrupts) }()
	t.Cleanup(func() { inW.Close() })
	return cp, inW, out, interrupts, errCh
}

func TestRunChat_IdleInterruptPrintsHint(t *testing.T) {
	_, in, out, interrupts, errCh := startChat(t)

	interrupts <- os.Interrupt
	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "(type /quit to leave)")
	}, 2*time.Second, 5*time.Millisecond)

	_, err := io.WriteString(in, "/quit\n")
	require.NoError(t, err)
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("chat did not exit")
	}
}

func TestRunChat_InterruptAbortsStreamingAnswer(t *testing.T) {
	cp, in, out, interrupts, errCh := startChat(t)

	_, err := io.WriteString(in, "explain closures\n")
	require.NoError(t, err)
	assert.Eventually(t, cp.Requesting, 2*time.Second, 5*time.Millisecond)

	interrupts <- os.Interrupt
	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), chat.AbortedContent)
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, in.Close())
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("chat did not exit")
	}
}
