package sessions

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/gorilla/websocket"
)

// SocketSession bridges one WebSocket connection to a Controller: controller
// events are pushed to the client and client commands drive the controller.
type SocketSession struct {
	Controller *Controller
	Writer     *WebSocketWriter
	Logger     *log.Logger
	conn       *websocket.Conn
}

// Run blocks until the client disconnects, ctx is cancelled or the
// controller stops. A clean close by the client is not an error.
func (s *SocketSession) Run(ctx context.Context) error {
	unsubscribe := s.Controller.Subscribe(func(ev Event) {
		if err := s.Writer.WriteEvent(ev); err != nil {
			s.Logger.Printf("Error writing %s event: %v", ev.Type, err)
		}
	})
	defer unsubscribe()

	state := s.Controller.State()
	initial := Event{
		Type:       EventState,
		SessionID:  state.SessionID,
		Composing:  state.Composing,
		Visibility: Visibility(state.Visibility),
		Online:     state.Online,
		State:      &state,
	}
	if err := s.Writer.WriteEvent(initial); err != nil {
		return fmt.Errorf("failed to write initial state: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-ctx.Done():
		case <-s.Controller.Done():
			if err := s.Writer.WriteClose("session ended"); err != nil {
				s.Logger.Printf("Error writing close frame: %v", err)
			}
		}
		s.conn.Close()
	}()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.Logger.Printf("Connection closed")
				return nil
			}
			select {
			case <-s.Controller.Done():
				return nil
			default:
			}
			return fmt.Errorf("failed to read command: %w", err)
		}

		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			s.writeError("malformed command: " + err.Error())
			continue
		}
		s.handle(cmd)
	}
}

func (s *SocketSession) handle(cmd Command) {
	ctrl := s.Controller
	switch cmd.Type {
	case "input":
		ctrl.SetInput(cmd.Text)

	case "submit":
		var accepted bool
		if cmd.Text != "" {
			_, accepted = ctrl.SubmitText(cmd.Text)
		} else {
			_, accepted = ctrl.Submit()
		}
		if !accepted {
			s.Logger.Printf("Submit ignored (empty input or reply pending)")
		}

	case "visibility":
		if _, err := ctrl.Transition(cmd.Trigger); err != nil {
			s.writeError(err.Error())
		}

	case "connectivity":
		if cmd.Online == nil {
			s.writeError("connectivity command requires \"online\"")
			return
		}
		ctrl.Monitor().Set(*cmd.Online)

	case "open":
		ctrl.Signal().Fire()

	case "action":
		if _, _, err := ctrl.ActivateAction(cmd.MessageID, cmd.NarrowViewport); err != nil {
			s.writeError(err.Error())
		}

	default:
		s.writeError(fmt.Sprintf("unknown command type %q", cmd.Type))
	}
}

func (s *SocketSession) writeError(message string) {
	s.Logger.Printf("Error: %s", message)
	if err := s.Writer.WriteError(s.Controller.ID(), message); err != nil {
		s.Logger.Printf("Error writing error event: %v", err)
	}
}
