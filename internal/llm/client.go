// Package llm streams chat completions from an OpenAI-style endpoint.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/zulandar/educode/internal/chat"
	"github.com/zulandar/educode/internal/stream"
)

// maxErrorBody bounds how much of a failed response is kept in the error.
const maxErrorBody = 512

// ClientOpts holds parameters for creating a Client.
type ClientOpts struct {
	BaseURL    string // full completion URL
	Model      string
	APIKey     string       // sent verbatim as the Authorization header
	HTTPClient *http.Client // defaults to a client without timeout
}

// Client posts a conversation and yields the raw data field of every
// streamed event. It implements chat.Agent.
type Client struct {
	url    string
	model  string
	apiKey string
	http   *http.Client
}

var _ chat.Agent = (*Client)(nil)

// NewClient creates a Client.
func NewClient(opts ClientOpts) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("llm: client: base URL is required")
	}
	if opts.Model == "" {
		return nil, errors.New("llm: client: model is required")
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{url: opts.BaseURL, model: opts.Model, apiKey: opts.APIKey, http: hc}, nil
}

// message is the wire form of a chat turn.
type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// completionRequest is the body sent to the completion endpoint.
type completionRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
	Stream   bool      `json:"stream"`
}

// Stream sends msgs and calls onChunk for each event in stream order.
// It returns when the stream ends, ctx is cancelled, or onChunk fails.
func (c *Client) Stream(ctx context.Context, msgs []chat.Message, onChunk func(data string) error) error {
	body, err := json.Marshal(completionRequest{Model: c.model, Messages: wireMessages(msgs), Stream: true})
	if err != nil {
		return errors.Wrap(err, "llm: encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "llm: build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if c.apiKey != "" {
		req.Header.Set("Authorization", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errors.Wrap(err, "llm: post")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return errors.Errorf("llm: status %d: %s", resp.StatusCode, strings.TrimSpace(string(excerpt)))
	}

	log.Debug().Str("model", c.model).Int("messages", len(msgs)).Msg("llm: stream opened")

	err = stream.NewReader(resp.Body).Each(func(ev stream.Event) error {
		return onChunk(ev.Data)
	})
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// wireMessages drops assistant turns that carry no settled text.
func wireMessages(msgs []chat.Message) []message {
	out := make([]message, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == chat.RoleAssistant && m.Status != chat.StatusDone {
			continue
		}
		out = append(out, message{Role: m.Role, Content: m.Content})
	}
	return out
}
