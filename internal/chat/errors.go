package chat

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the conversation id is unknown to the registry
	ErrNotFound = errors.New("conversation not found")
	// ErrAlreadyExists means a create collided with an existing conversation id
	ErrAlreadyExists = errors.New("conversation already exists")
	// ErrSessionEnded means a chat turn was attempted on a deactivated conversation
	ErrSessionEnded = errors.New("chat session ended")
)

// UpstreamError reports a failure of one of the external collaborators
// (completion provider or sentiment classifier) while handling a turn.
type UpstreamError struct {
	Op             string // which upstream call failed
	ConversationID string
	Err            error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s failed for conversation %q: %v", e.Op, e.ConversationID, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
