package chat

import (
	"slices"
	"sync"
)

// History maps session keys to their stored message lists. It lives in
// memory only.
type History struct {
	mu       sync.RWMutex
	sessions map[string][]Message
}

// NewHistory creates an empty History.
func NewHistory() *History {
	return &History{sessions: make(map[string][]Message)}
}

// Save stores a copy of msgs under key. Empty lists are ignored so that
// an emptied view never wipes a session's stored history.
func (h *History) Save(key string, msgs []Message) {
	if len(msgs) == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[key] = slices.Clone(msgs)
}

// Load returns a copy of the messages stored under key, or nil.
func (h *History) Load(key string) []Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.sessions[key])
}

// Keys returns the keys that have stored history, sorted.
func (h *History) Keys() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	keys := make([]string, 0, len(h.sessions))
	for k := range h.sessions {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
