// Package chat implements the conversation core: per-session state, the
// process-wide conversation registry, command parsing, and the per-message
// response pipeline.
package chat

import (
	"strings"
	"sync"

	"tonebot/internal/memory"
	"tonebot/internal/tone"
)

// Message roles as sent to the completion provider
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-tagged transcript entry
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// HistoryEntry is a transcript entry as exposed to API clients
type HistoryEntry struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// Conversation is the mutable per-session record: transcript, active tone,
// extracted memory facts, and metadata. Messages[0] is always the current
// tone's system prompt once a tone is set.
//
// Methods do not lock; mu serializes whole turns. The Orchestrator and the
// Registry acquire it so that two in-flight requests never interleave writes
// to the same conversation. Snapshot accessors (History, Summary fields via
// Registry.List) take it internally.
type Conversation struct {
	mu sync.Mutex

	Messages    []Message
	Active      bool
	ToneSet     bool
	CurrentTone string
	Memory      map[string]string
	Title       string
}

// NewConversation creates a conversation with the given tone and title.
// Returns tone.ErrInvalid when the tone is unrecognized.
func NewConversation(toneName string, title string) (*Conversation, error) {
	c := &Conversation{
		Active: true,
		Memory: map[string]string{},
		Title:  title,
	}
	if err := c.SetTone(toneName); err != nil {
		return nil, err
	}
	return c, nil
}

// SetTone switches the active tone, discarding the transcript and replacing
// it with the new tone's system prompt. Memory and title are preserved. The
// switch is atomic: on tone.ErrInvalid no state changes.
func (c *Conversation) SetTone(name string) error {
	prompt, err := tone.Prompt(name)
	if err != nil {
		return err
	}
	c.Messages = []Message{{Role: RoleSystem, Content: prompt}}
	c.CurrentTone = tone.Normalize(name)
	c.ToneSet = true
	return nil
}

// MergeFacts merges extracted memory facts, last write wins
func (c *Conversation) MergeFacts(facts memory.Facts) {
	if facts.Name != "" {
		c.Memory["name"] = facts.Name
	}
	if facts.Mood != "" {
		c.Memory["mood"] = facts.Mood
	}
}

// InjectMemoryContext inserts a system message describing known memory facts
// at index 1. It is idempotent: if a system message already carries the
// context marker for the facts that would be written, nothing is inserted.
func (c *Conversation) InjectMemoryContext() {
	if len(c.Memory) == 0 {
		return
	}

	var facts []string
	marker := "mentioned they were feeling"
	if name, ok := c.Memory["name"]; ok {
		facts = append(facts, "The user's name is "+name+".")
		marker = "user's name"
	}
	if mood, ok := c.Memory["mood"]; ok {
		facts = append(facts, "The user mentioned they were feeling "+mood+" earlier.")
	}

	for _, msg := range c.Messages {
		if msg.Role == RoleSystem && strings.Contains(msg.Content, marker) {
			return
		}
	}

	context := Message{Role: RoleSystem, Content: strings.Join(facts, " ")}
	c.Messages = append(c.Messages[:1], append([]Message{context}, c.Messages[1:]...)...)
}

// Append adds a transcript entry. The transcript is unbounded; no size cap
// is applied.
func (c *Conversation) Append(role string, content string) {
	c.Messages = append(c.Messages, Message{Role: role, Content: content})
}

// History returns the transcript filtered to user and assistant entries,
// in order. System entries are never exposed to clients.
func (c *Conversation) History() []HistoryEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	history := []HistoryEntry{}
	for _, msg := range c.Messages {
		if msg.Role == RoleUser || msg.Role == RoleAssistant {
			history = append(history, HistoryEntry{Sender: msg.Role, Text: msg.Content})
		}
	}
	return history
}
