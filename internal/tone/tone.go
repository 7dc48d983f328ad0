// Package tone holds the registry of chat personas. Each tone maps to a
// system prompt that is prepended to every conversation transcript.
package tone

import (
	"errors"
	"strings"
)

// ErrInvalid is returned when a tone name is not registered.
var ErrInvalid = errors.New("invalid tone: options are funny, serious, poetic, dark_humor")

// prompts maps normalized tone names to their system prompts
var prompts = map[string]string{
	"serious":    "You are a serious and professional assistant. 📘",
	"funny":      "You are a funny and witty assistant 😂✨",
	"poetic":     "You are a poetic AI who speaks in rhymes 🌸🎵",
	"dark_humor": "You are a dark-humored assistant 🖤💀🦃",
}

// Normalize converts a user-supplied tone name to its registry key
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Prompt looks up the system prompt for a tone. Lookup is case-insensitive
// and ignores surrounding whitespace.
func Prompt(name string) (string, error) {
	prompt, ok := prompts[Normalize(name)]
	if !ok {
		return "", ErrInvalid
	}
	return prompt, nil
}

// Names returns the registered tone names
func Names() []string {
	return []string{"funny", "serious", "poetic", "dark_humor"}
}
