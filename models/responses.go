package models

import "time"

// WidgetState is a snapshot of a conversation controller.
type WidgetState struct {
	SessionID  string    `json:"session_id"`
	Visibility string    `json:"visibility"`
	Composing  bool      `json:"composing"`
	Online     bool      `json:"online"`
	Input      string    `json:"input"`
	Messages   []Message `json:"messages"`
}

type CreateSessionResponse struct {
	SessionID string      `json:"session_id"`
	State     WidgetState `json:"state"`
}

type SubmitResponse struct {
	Accepted    bool     `json:"accepted"`
	UserMessage *Message `json:"user_message,omitempty"`
	BotMessage  *Message `json:"bot_message,omitempty"`
}

type ActionResponse struct {
	Path       string `json:"path"`
	Visibility string `json:"visibility"`
}

type ContactResponse struct {
	ID        uint      `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
