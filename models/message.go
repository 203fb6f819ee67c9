package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Action is a navigation shortcut attached to a bot message.
type Action struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

// Validate checks the label is present and the path is a known route.
func (a Action) Validate() error {
	if strings.TrimSpace(a.Label) == "" {
		return fmt.Errorf("%w: action label is empty", ErrInvalidMessage)
	}
	if !IsValidRoute(a.Path) {
		return fmt.Errorf("%w: %q", ErrInvalidRoute, a.Path)
	}
	return nil
}

// Reply is the normalized output of either response path.
type Reply struct {
	Text   string  `json:"text" jsonschema:"required,description=Response shown to the visitor"`
	Action *Action `json:"action,omitempty" jsonschema:"description=Optional navigation button"`
}

// HasAction reports whether the reply carries a navigation action.
func (r Reply) HasAction() bool {
	return r.Action != nil
}

// Message is one immutable turn entry of a conversation.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
	Action    *Action   `json:"action,omitempty"`
}

// NewMessage builds a validated message. User messages must carry text and
// may not carry actions; bot actions must point into the route set.
func NewMessage(sender Sender, text string, action *Action, now time.Time) (Message, error) {
	switch sender {
	case SenderUser:
		if strings.TrimSpace(text) == "" {
			return Message{}, fmt.Errorf("%w: user message text is empty", ErrInvalidMessage)
		}
		if action != nil {
			return Message{}, fmt.Errorf("%w: user messages cannot carry actions", ErrInvalidMessage)
		}
	case SenderBot:
	default:
		return Message{}, fmt.Errorf("%w: unknown sender %q", ErrInvalidMessage, sender)
	}

	var act *Action
	if action != nil {
		if err := action.Validate(); err != nil {
			return Message{}, err
		}
		copied := *action
		act = &copied
	}

	return Message{
		ID:        newMessageID(),
		Text:      text,
		Sender:    sender,
		Timestamp: now,
		Action:    act,
	}, nil
}

// Clone returns a deep copy so callers cannot reach shared action state.
func (m Message) Clone() Message {
	if m.Action != nil {
		a := *m.Action
		m.Action = &a
	}
	return m
}

// newMessageID uses UUIDv7, whose timestamp prefix keeps ids in creation order.
func newMessageID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
