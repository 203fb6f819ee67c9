package sessions

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/defendhub/sentinel/models"
)

// ErrStreamOverflow ends an event stream whose client cannot keep up.
var ErrStreamOverflow = errors.New("event stream overflow")

const streamBuffer = 128

// HTTPSession drives a Controller from request/response handlers.
type HTTPSession struct {
	Controller *Controller
	Logger     *log.Logger
}

// SubmitAndWait submits text (or the current input when text is empty) and
// blocks until the bot reply of that turn is appended. A rejected submission
// returns Accepted=false immediately.
func (s *HTTPSession) SubmitAndWait(ctx context.Context, text string) (models.SubmitResponse, error) {
	replies := make(chan models.Message, 1)
	var (
		mu       sync.Mutex
		userSeen bool
	)
	unsubscribe := s.Controller.Subscribe(func(ev Event) {
		if ev.Type != EventMessage || ev.Message == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		switch {
		case ev.Message.Sender == models.SenderUser && !userSeen:
			userSeen = true
		case ev.Message.Sender == models.SenderBot && userSeen:
			select {
			case replies <- *ev.Message:
			default:
			}
		}
	})
	defer unsubscribe()

	var (
		user     models.Message
		accepted bool
	)
	if text != "" {
		user, accepted = s.Controller.SubmitText(text)
	} else {
		user, accepted = s.Controller.Submit()
	}
	if !accepted {
		return models.SubmitResponse{Accepted: false}, nil
	}

	resp := models.SubmitResponse{Accepted: true, UserMessage: &user}
	select {
	case bot := <-replies:
		resp.BotMessage = &bot
		return resp, nil
	case <-ctx.Done():
		return resp, fmt.Errorf("waiting for reply: %w", ctx.Err())
	case <-s.Controller.Done():
		return resp, fmt.Errorf("waiting for reply: widget session stopped")
	}
}

// StreamEvents writes the current state followed by every controller event
// to w until ctx ends or the controller stops.
func (s *HTTPSession) StreamEvents(ctx context.Context, w SSEWriter) error {
	events := make(chan Event, streamBuffer)
	overflow := make(chan struct{})
	var once sync.Once
	unsubscribe := s.Controller.Subscribe(func(ev Event) {
		select {
		case events <- ev:
		default:
			once.Do(func() { close(overflow) })
		}
	})
	defer unsubscribe()

	state := s.Controller.State()
	if err := w.WriteEvent(Event{
		Type:       EventState,
		SessionID:  state.SessionID,
		Composing:  state.Composing,
		Visibility: Visibility(state.Visibility),
		Online:     state.Online,
		State:      &state,
	}); err != nil {
		return err
	}
	w.Flush()

	for {
		select {
		case ev := <-events:
			if err := w.WriteEvent(ev); err != nil {
				return err
			}
			w.Flush()
		case <-overflow:
			s.Logger.Printf("Event stream overflow, closing")
			return ErrStreamOverflow
		case <-ctx.Done():
			return nil
		case <-s.Controller.Done():
			return nil
		}
	}
}
