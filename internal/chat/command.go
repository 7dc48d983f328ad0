package chat

import "strings"

// Command is the closed set of things an inbound message can be: a GIF
// request, a tone switch, or a plain chat message. ParseCommand is the only
// constructor; handlers dispatch with an exhaustive type switch.
type Command interface {
	isCommand()
}

// GifCommand requests a GIF for a topic ("/gif <topic>")
type GifCommand struct {
	Topic string
}

// ToneCommand switches the conversation tone ("/tone <name>")
type ToneCommand struct {
	Tone string
}

// ChatMessage is any message that is not a recognized command
type ChatMessage struct {
	Text string
}

func (GifCommand) isCommand()  {}
func (ToneCommand) isCommand() {}
func (ChatMessage) isCommand() {}

// ParseCommand classifies a raw user message. Command prefixes are matched
// case-insensitively on the trimmed message; the argument keeps its original
// casing.
func ParseCommand(raw string) Command {
	msg := strings.TrimSpace(raw)
	lower := strings.ToLower(msg)

	switch {
	case strings.HasPrefix(lower, "/gif"):
		return GifCommand{Topic: argAfterPrefix(msg, len("/gif "))}
	case strings.HasPrefix(lower, "/tone"):
		return ToneCommand{Tone: argAfterPrefix(msg, len("/tone"))}
	default:
		return ChatMessage{Text: msg}
	}
}

func argAfterPrefix(msg string, prefixLen int) string {
	if len(msg) <= prefixLen {
		return ""
	}
	return strings.TrimSpace(msg[prefixLen:])
}
