package chat

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Markers delimiting reasoning text inside an assistant message.
const (
	ThinkOpen  = "<think>"
	ThinkClose = "</think>"
)

// doneSentinel marks the terminating chunk of a completion stream.
const doneSentinel = "DONE"

// Fragment is one incremental unit of a streamed response.
type Fragment struct {
	Reasoning string
	Answer    string
}

// Empty reports whether the fragment carries no text.
func (f Fragment) Empty() bool {
	return f.Reasoning == "" && f.Answer == ""
}

// completionChunk is the subset of a streamed completion chunk we read.
type completionChunk struct {
	Choices []struct {
		Delta struct {
			ReasoningContent string `json:"reasoning_content"`
			Content          string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Transform folds f into prior:
//
//   - empty prior with reasoning starts a think block;
//   - an open, unclosed think block is closed before the first answer text;
//   - anything else is appended as-is.
//
// An answer carried by the very first fragment alongside reasoning is not
// emitted.
func Transform(prior string, f Fragment) string {
	switch {
	case prior == "" && f.Reasoning != "":
		return ThinkOpen + f.Reasoning
	case strings.Contains(prior, ThinkOpen) && !strings.Contains(prior, ThinkClose) && f.Answer != "":
		return prior + ThinkClose + f.Answer
	default:
		return prior + f.Reasoning + f.Answer
	}
}

// ParseChunk decodes the data field of one stream event. Empty data and
// the stream terminator yield an empty fragment.
func ParseChunk(data string) (Fragment, error) {
	if data == "" || strings.Contains(data, doneSentinel) {
		return Fragment{}, nil
	}
	var chunk completionChunk
	if err := json.Unmarshal([]byte(data), &chunk); err != nil {
		return Fragment{}, errors.Wrap(err, "chat: parse chunk")
	}
	if len(chunk.Choices) == 0 {
		return Fragment{}, nil
	}
	d := chunk.Choices[0].Delta
	return Fragment{Reasoning: d.ReasoningContent, Answer: d.Content}, nil
}

// Fold parses data and folds it into prior. Parse failures are logged and
// leave prior unchanged.
func Fold(prior, data string) string {
	f, err := ParseChunk(data)
	if err != nil {
		log.Warn().Err(err).Str("data", data).Msg("chat: skipping malformed chunk")
	}
	return Transform(prior, f)
}

// SplitThinking separates folded content into its reasoning and answer
// parts. thinking is true while the think block is still open.
func SplitThinking(content string) (reasoning, answer string, thinking bool) {
	rest, ok := strings.CutPrefix(content, ThinkOpen)
	if !ok {
		return "", content, false
	}
	reasoning, answer, closed := strings.Cut(rest, ThinkClose)
	if !closed {
		return rest, "", true
	}
	return reasoning, answer, false
}
