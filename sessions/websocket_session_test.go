package sessions

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/defendhub/sentinel/models"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startSocketServer(t *testing.T, ctrl *Controller) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_ = NewSocketSession(ctrl, conn).Run(context.Background())
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev Event
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func readUntil(t *testing.T, conn *websocket.Conn, match func(Event) bool) Event {
	t.Helper()
	for i := 0; i < 20; i++ {
		ev := readEvent(t, conn)
		if match(ev) {
			return ev
		}
	}
	t.Fatal("expected event not received")
	return Event{}
}

func TestSocketSession_SubmitAndNavigate(t *testing.T) {
	nav := &recordingNavigator{}
	ctrl := NewController(ControllerConfig{SessionID: "ws", Monitor: NewMonitor(false), Navigator: nav})
	defer ctrl.Stop()
	conn := startSocketServer(t, ctrl)

	initial := readEvent(t, conn)
	assert.Equal(t, EventState, initial.Type)
	require.NotNil(t, initial.State)
	assert.Equal(t, "ws", initial.State.SessionID)
	assert.False(t, initial.Online)

	require.NoError(t, conn.WriteJSON(Command{Type: "submit", Text: "aramco"}))
	bot := readUntil(t, conn, func(ev Event) bool {
		return ev.Type == EventMessage && ev.Message.Sender == models.SenderBot
	})
	require.NotNil(t, bot.Message.Action)
	assert.Equal(t, "/portfolio/p1", bot.Message.Action.Path)

	require.NoError(t, conn.WriteJSON(Command{Type: "action", MessageID: bot.Message.ID}))
	navEv := readUntil(t, conn, func(ev Event) bool { return ev.Type == EventNavigate })
	assert.Equal(t, "/portfolio/p1", navEv.Path)

	nav.mu.Lock()
	assert.Equal(t, []string{"/portfolio/p1"}, nav.paths)
	nav.mu.Unlock()
}

func TestSocketSession_Commands(t *testing.T) {
	ctrl := NewController(ControllerConfig{SessionID: "ws", Monitor: NewMonitor(false)})
	defer ctrl.Stop()
	conn := startSocketServer(t, ctrl)
	readEvent(t, conn)

	require.NoError(t, conn.WriteJSON(Command{Type: "open"}))
	ev := readUntil(t, conn, func(ev Event) bool { return ev.Type == EventVisibility })
	assert.Equal(t, VisibilityOpen, ev.Visibility)

	require.NoError(t, conn.WriteJSON(Command{Type: "visibility", Trigger: TriggerRestore}))
	ev = readUntil(t, conn, func(ev Event) bool { return ev.Type == EventError })
	assert.Contains(t, ev.Error, "invalid visibility transition")

	online := true
	require.NoError(t, conn.WriteJSON(Command{Type: "connectivity", Online: &online}))
	ev = readUntil(t, conn, func(ev Event) bool { return ev.Type == EventConnectivity })
	assert.True(t, ev.Online)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	ev = readUntil(t, conn, func(ev Event) bool { return ev.Type == EventError })
	assert.Contains(t, ev.Error, "malformed command")

	require.NoError(t, conn.WriteJSON(Command{Type: "dance"}))
	ev = readUntil(t, conn, func(ev Event) bool { return ev.Type == EventError })
	assert.Contains(t, ev.Error, "unknown command type")
}

func TestSocketSession_ClosesWhenControllerStops(t *testing.T) {
	ctrl := NewController(ControllerConfig{SessionID: "ws"})
	conn := startSocketServer(t, ctrl)
	readEvent(t, conn)

	ctrl.Stop()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

type bufferSSE struct {
	mu     sync.Mutex
	events []Event
	notify chan struct{}
}

func (b *bufferSSE) WriteEvent(ev Event) error {
	b.mu.Lock()
	b.events = append(b.events, ev)
	b.mu.Unlock()
	select {
	case b.notify <- struct{}{}:
	default:
	}
	return nil
}

func (b *bufferSSE) Flush() {}

func TestHTTPSession_SubmitAndWait(t *testing.T) {
	ctrl := NewController(ControllerConfig{
		SessionID: "http",
		Monitor:   NewMonitor(false),
		Options:   Options{OfflineLatency: 10 * time.Millisecond},
	})
	defer ctrl.Stop()
	s := NewHTTPSession(ctrl)

	resp, err := s.SubmitAndWait(context.Background(), "where is your office")
	require.NoError(t, err)
	assert.True(t, resp.Accepted)
	require.NotNil(t, resp.UserMessage)
	require.NotNil(t, resp.BotMessage)
	assert.Equal(t, "where is your office", resp.UserMessage.Text)
	assert.Contains(t, resp.BotMessage.Text, "Lagos")

	resp, err = s.SubmitAndWait(context.Background(), "   ")
	require.NoError(t, err)
	assert.False(t, resp.Accepted)
}

func TestHTTPSession_SubmitAndWaitRejectedWhileComposing(t *testing.T) {
	remote := &fakeRemote{reply: models.Reply{Text: "ok"}, release: make(chan struct{})}
	ctrl := NewController(ControllerConfig{SessionID: "http", Dialer: &fakeDialer{session: remote}})
	defer ctrl.Stop()
	s := NewHTTPSession(ctrl)

	_, ok := ctrl.SubmitText("first")
	require.True(t, ok)

	resp, err := s.SubmitAndWait(context.Background(), "second")
	require.NoError(t, err)
	assert.False(t, resp.Accepted)

	close(remote.release)
	ctrl.Wait()
}

func TestHTTPSession_SubmitAndWaitContextEnds(t *testing.T) {
	remote := &fakeRemote{reply: models.Reply{Text: "ok"}, release: make(chan struct{})}
	ctrl := NewController(ControllerConfig{SessionID: "http", Dialer: &fakeDialer{session: remote}})
	defer ctrl.Stop()
	s := NewHTTPSession(ctrl)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	resp, err := s.SubmitAndWait(ctx, "hello")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, resp.Accepted)
	assert.Nil(t, resp.BotMessage)

	close(remote.release)
	ctrl.Wait()
	assert.Len(t, ctrl.Messages(), 2)
}

func TestHTTPSession_StreamEvents(t *testing.T) {
	ctrl := NewController(ControllerConfig{SessionID: "sse", Monitor: NewMonitor(false)})
	defer ctrl.Stop()
	s := NewHTTPSession(ctrl)
	w := &bufferSSE{notify: make(chan struct{}, 1)}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.StreamEvents(ctx, w) }()

	<-w.notify
	_, ok := ctrl.SubmitText("hello")
	require.True(t, ok)
	ctrl.Wait()

	require.Eventually(t, func() bool {
		w.mu.Lock()
		defer w.mu.Unlock()
		return len(w.events) >= 5
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	w.mu.Lock()
	defer w.mu.Unlock()
	assert.Equal(t, EventState, w.events[0].Type)
	assert.Equal(t, EventMessage, w.events[1].Type)
	assert.Equal(t, EventMessage, w.events[3].Type)
	assert.Equal(t, models.SenderBot, w.events[3].Message.Sender)
}
