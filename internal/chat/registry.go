package chat

import (
	"fmt"
	"sync"
)

const (
	DefaultTone  = "funny"
	DefaultTitle = "New Chat"
)

// Summary describes one conversation for listing
type Summary struct {
	ID    string `json:"conversationId"`
	Title string `json:"title"`
	Tone  string `json:"tone"`
}

// Registry is the process-wide store of conversations, keyed by
// caller-supplied id. It is safe for concurrent use; insertion order is
// preserved for List.
type Registry struct {
	mu            sync.Mutex
	conversations map[string]*Conversation
	order         []string
}

func NewRegistry() *Registry {
	return &Registry{
		conversations: map[string]*Conversation{},
	}
}

// GetOrCreate returns the conversation for id, creating one with the default
// tone and title when the id is unknown.
func (r *Registry) GetOrCreate(id string) *Conversation {
	r.mu.Lock()
	defer r.mu.Unlock()

	if conv, ok := r.conversations[id]; ok {
		return conv
	}
	conv, err := NewConversation(DefaultTone, DefaultTitle)
	if err != nil {
		panic(fmt.Sprintf("default tone %q not registered: %v", DefaultTone, err))
	}
	// Implicitly created conversations carry the default persona but still
	// await an explicit tone choice before free-form chat
	conv.ToneSet = false
	r.conversations[id] = conv
	r.order = append(r.order, id)
	return conv
}

// Create adds a conversation with an explicit tone and title. Returns
// ErrAlreadyExists if the id is taken, or tone.ErrInvalid for an unknown
// tone; in both cases existing state is untouched.
func (r *Registry) Create(id string, toneName string, title string) (*Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conversations[id]; ok {
		return nil, fmt.Errorf("create conversation %q: %w", id, ErrAlreadyExists)
	}
	conv, err := NewConversation(toneName, title)
	if err != nil {
		return nil, fmt.Errorf("create conversation %q: %w", id, err)
	}
	r.conversations[id] = conv
	r.order = append(r.order, id)
	return conv, nil
}

// Get returns the conversation for id, or ErrNotFound
func (r *Registry) Get(id string) (*Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.conversations[id]
	if !ok {
		return nil, fmt.Errorf("conversation %q: %w", id, ErrNotFound)
	}
	return conv, nil
}

// Delete removes the conversation for id, or returns ErrNotFound
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conversations[id]; !ok {
		return fmt.Errorf("delete conversation %q: %w", id, ErrNotFound)
	}
	delete(r.conversations, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// Rename changes only the conversation title
func (r *Registry) Rename(id string, newTitle string) error {
	conv, err := r.Get(id)
	if err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	conv.mu.Lock()
	defer conv.mu.Unlock()
	conv.Title = newTitle
	return nil
}

// List returns conversation summaries in insertion order
func (r *Registry) List() []Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	summaries := make([]Summary, 0, len(r.order))
	for _, id := range r.order {
		conv := r.conversations[id]
		conv.mu.Lock()
		summaries = append(summaries, Summary{ID: id, Title: conv.Title, Tone: conv.CurrentTone})
		conv.mu.Unlock()
	}
	return summaries
}
