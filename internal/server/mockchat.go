package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/zulandar/educode/internal/stream"
)

// completionRequest is the body accepted by the mock completion endpoint.
type completionRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	Stream bool `json:"stream"`
}

type delta struct {
	ReasoningContent string `json:"reasoning_content,omitempty"`
	Content          string `json:"content,omitempty"`
}

type choice struct {
	Index int   `json:"index"`
	Delta delta `json:"delta"`
}

// completionChunk is one streamed event of the mock endpoint.
type completionChunk struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Model   string   `json:"model"`
	Choices []choice `json:"choices"`
}

// mockReply returns the reasoning and answer fragments for question.
func mockReply(question string) (reasoning, answer []string) {
	reasoning = []string{
		"The user asks: ", question, ". ",
		"Let me recall what I know ", "and keep the answer short.",
	}
	answer = []string{
		"Here is what I found about ", "\"" + question + "\"", ": ",
		"start from the official documentation, ", "then try the examples in your workspace.",
	}
	return reasoning, answer
}

// handleChatCompletion streams a canned completion: reasoning fragments,
// answer fragments, then [DONE]. It stops when the client goes away.
func (s *Server) handleChatCompletion(c *gin.Context) {
	var req completionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid completion request")
		return
	}
	question := ""
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			question = strings.TrimSpace(req.Messages[i].Content)
			break
		}
	}
	if question == "" {
		jsonError(c, http.StatusBadRequest, "no user message")
		return
	}

	stream.SetHeaders(c.Writer.Header())
	c.Status(http.StatusOK)

	ctx := c.Request.Context()
	id := fmt.Sprintf("chatcmpl-%d", s.now().UnixNano())
	reasoning, answer := mockReply(question)

	var frags []delta
	for _, r := range reasoning {
		frags = append(frags, delta{ReasoningContent: r})
	}
	for _, a := range answer {
		frags = append(frags, delta{Content: a})
	}

	delay := s.cfg.LLM.ChunkDelay
	for _, d := range frags {
		if delay > 0 {
			select {
			case <-ctx.Done():
				log.Debug().Str("id", id).Msg("server: completion client went away")
				return
			case <-time.After(delay):
			}
		} else if ctx.Err() != nil {
			return
		}
		chunk := completionChunk{ID: id, Object: "chat.completion.chunk", Model: req.Model, Choices: []choice{{Delta: d}}}
		if err := stream.Write(c.Writer, "", chunk); err != nil {
			log.Debug().Err(err).Str("id", id).Msg("server: completion write")
			return
		}
	}
	_ = stream.Write(c.Writer, "", "[DONE]")
}
