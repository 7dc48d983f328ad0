package server

type chatRequest struct {
	Message        string `json:"message"`
	Role           string `json:"role"`
	ConversationID string `json:"conversationId"`
}

type chatResponse struct {
	Response       string `json:"response"`
	ConversationID string `json:"conversationId"`
	Gif            string `json:"gif,omitempty"`
}

type newChatRequest struct {
	ConversationID string `json:"conversationId"`
	Tone           string `json:"tone"`
	Title          string `json:"title"`
}

type renameChatRequest struct {
	ConversationID string `json:"conversationId"`
	NewTitle       string `json:"newTitle"`
}

type gifResponse struct {
	Topic   string `json:"topic"`
	GifURL  string `json:"gifUrl"`
	Message string `json:"message,omitempty"`
}

type confirmationResponse struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversationId,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}
