// Package chat implements the copilot conversation core: folding streamed
// fragments into messages, tracking the in-flight request, and switching
// between sessions.
package chat

import (
	"strconv"
	"time"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message statuses.
const (
	StatusLoading = "loading"
	StatusDone    = "done"
	StatusError   = "error"
)

// Session groups.
const (
	GroupToday     = "Today"
	GroupYesterday = "Yesterday"
	GroupEarlier   = "Earlier"
)

// NewSessionLabel is the placeholder label of a session that has not
// received its first message yet.
const NewSessionLabel = "New session"

// currentPrefix marks the active entry in Sessions.
const currentPrefix = "[current] "

// Fallback contents for failed requests.
const (
	AbortedContent = "Request is aborted"
	FailedContent  = "Request failed, please try again!"
)

// Session is one entry of the conversation list.
type Session struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Group string `json:"group"`
}

// Message is a single chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Status  string `json:"status"`
}

// DefaultSessions returns the conversation list shown on first start.
func DefaultSessions() []Session {
	return []Session{
		{Key: "5", Label: NewSessionLabel, Group: GroupToday},
		{Key: "4", Label: "What has Ant Design X upgraded?", Group: GroupToday},
		{Key: "3", Label: "New AGI Hybrid Interface", Group: GroupToday},
		{Key: "2", Label: "How to quickly install and import components?", Group: GroupYesterday},
		{Key: "1", Label: "What is Ant Design X?", Group: GroupYesterday},
	}
}

// Prompt is a canned question offered on an empty conversation.
type Prompt struct {
	Key         string `json:"key"`
	Description string `json:"description"`
}

// Prompts returns the welcome-screen questions.
func Prompts() []Prompt {
	questions := []string{
		"What has Ant Design X upgraded?",
		"What components are in Ant Design X?",
		"How to quickly install and import components?",
	}
	out := make([]Prompt, len(questions))
	for i, q := range questions {
		out[i] = Prompt{Key: q, Description: q}
	}
	return out
}

// QuickActions maps the sender's shortcut buttons to the text they submit.
var QuickActions = map[string]string{
	"Upgrades":   "What has Ant Design X upgraded?",
	"Components": "What component assets are available in Ant Design X?",
}

// truncateLabel returns at most max runes of s. max <= 0 disables it.
func truncateLabel(s string, max int) string {
	if max <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

// minTimestampKey separates millisecond-timestamp keys from the small
// integer keys of the default list.
const minTimestampKey = 1_000_000_000_000

// groupFor returns the group of a session created at the instant encoded
// in key, relative to now. ok is false when key is not a timestamp.
func groupFor(key string, now time.Time) (string, bool) {
	ms, err := strconv.ParseInt(key, 10, 64)
	if err != nil || ms < minTimestampKey {
		return "", false
	}
	created := time.UnixMilli(ms).In(now.Location())
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	switch {
	case !created.Before(today):
		return GroupToday, true
	case !created.Before(today.AddDate(0, 0, -1)):
		return GroupYesterday, true
	default:
		return GroupEarlier, true
	}
}
