package sessions

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/defendhub/sentinel/models"
	"github.com/gorilla/websocket"
)

// Visibility is the widget's three-state UI mode.
type Visibility string

const (
	VisibilityClosed    Visibility = "closed"
	VisibilityOpen      Visibility = "open"
	VisibilityMinimized Visibility = "minimized"
)

// Trigger requests a visibility change.
type Trigger string

const (
	TriggerOpen     Trigger = "open"
	TriggerMinimize Trigger = "minimize"
	TriggerRestore  Trigger = "restore"
	TriggerClose    Trigger = "close"
)

var transitions = map[Visibility]map[Trigger]Visibility{
	VisibilityClosed: {
		TriggerOpen: VisibilityOpen,
	},
	VisibilityOpen: {
		TriggerMinimize: VisibilityMinimized,
		TriggerClose:    VisibilityClosed,
	},
	VisibilityMinimized: {
		TriggerOpen:    VisibilityOpen,
		TriggerRestore: VisibilityOpen,
		TriggerClose:   VisibilityClosed,
	},
}

// NextVisibility returns the state reached from v on t, or
// models.ErrInvalidTransition.
func NextVisibility(v Visibility, t Trigger) (Visibility, error) {
	next, ok := transitions[v][t]
	if !ok {
		return v, fmt.Errorf("%w: %s from %s", models.ErrInvalidTransition, t, v)
	}
	return next, nil
}

// Mode is the response path a turn was dispatched to.
type Mode string

const (
	ModeOnline  Mode = "online"
	ModeOffline Mode = "offline"
)

// Outcomes recorded on turn traces.
const (
	OutcomeGreeting    = "greeting"
	OutcomeReply       = "reply"
	OutcomeOffline     = "offline"
	OutcomeRemoteError = "remote_error"
	OutcomeUnavailable = "unavailable"
)

// EventType names the kind of change an Event carries.
type EventType string

const (
	EventState        EventType = "state"
	EventMessage      EventType = "message"
	EventComposing    EventType = "composing"
	EventVisibility   EventType = "visibility"
	EventConnectivity EventType = "connectivity"
	EventNavigate     EventType = "navigate"
	EventError        EventType = "error"
)

// Event is pushed to subscribers after every state change, in the order the
// changes happened.
type Event struct {
	Type       EventType           `json:"type"`
	SessionID  string              `json:"session_id"`
	Message    *models.Message     `json:"message,omitempty"`
	Composing  bool                `json:"composing"`
	Visibility Visibility          `json:"visibility,omitempty"`
	Online     bool                `json:"online"`
	Path       string              `json:"path,omitempty"`
	State      *models.WidgetState `json:"state,omitempty"`
	Error      string              `json:"error,omitempty"`
}

// Listener receives controller events. Listeners run synchronously and must
// not call back into the Controller.
type Listener func(Event)

// Navigator performs client-side navigation to an application route.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

// Command is a client instruction received over the live channel.
type Command struct {
	Type           string  `json:"type"` // input, submit, visibility, connectivity, open, action
	Text           string  `json:"text,omitempty"`
	Trigger        Trigger `json:"trigger,omitempty"`
	Online         *bool   `json:"online,omitempty"`
	MessageID      string  `json:"message_id,omitempty"`
	NarrowViewport bool    `json:"narrow_viewport,omitempty"`
}

// WebSocketWriter serialises writes to a WebSocket connection.
type WebSocketWriter struct {
	Conn         *websocket.Conn
	Logger       *log.Logger
	WriteTimeout time.Duration
	mu           sync.Mutex
}

func (w *WebSocketWriter) WriteEvent(ev Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.WriteTimeout > 0 {
		_ = w.Conn.SetWriteDeadline(time.Now().Add(w.WriteTimeout))
	}
	return w.Conn.WriteJSON(ev)
}

func (w *WebSocketWriter) WriteError(sessionID, message string) error {
	return w.WriteEvent(Event{Type: EventError, SessionID: sessionID, Error: message})
}

// WriteClose sends a normal closure frame.
func (w *WebSocketWriter) WriteClose(reason string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
	return w.Conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}

// SSEWriter handles Server-Sent Events writing
type SSEWriter interface {
	WriteEvent(ev Event) error
	Flush()
}
