package sessions

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/defendhub/sentinel/models"
	"github.com/defendhub/sentinel/models/gemini"
	"github.com/defendhub/sentinel/stores"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRemote struct {
	mu      sync.Mutex
	reply   models.Reply
	err     error
	release chan struct{}
	sent    []string
}

func (f *fakeRemote) Send(ctx context.Context, text string) (models.Reply, error) {
	f.mu.Lock()
	f.sent = append(f.sent, text)
	release := f.release
	f.mu.Unlock()
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return models.Reply{}, &models.RemoteError{Op: "send message", Err: ctx.Err()}
		}
	}
	return f.reply, f.err
}

type fakeDialer struct {
	mu      sync.Mutex
	dials   int
	session models.RemoteSession
	err     error
}

func (d *fakeDialer) Dial(context.Context) (models.RemoteSession, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if d.err != nil {
		return nil, d.err
	}
	return d.session, nil
}

func (d *fakeDialer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

type scriptedChat struct {
	raw string
}

func (c scriptedChat) SendMessage(context.Context, string) (string, error) {
	return c.raw, nil
}

type recordingNavigator struct {
	mu    sync.Mutex
	paths []string
}

func (n *recordingNavigator) Navigate(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, path)
}

func newTestController(t *testing.T, online bool, dialer models.RemoteDialer) *Controller {
	t.Helper()
	c := NewController(ControllerConfig{
		SessionID: "test",
		Dialer:    dialer,
		Monitor:   NewMonitor(online),
	})
	t.Cleanup(c.Stop)
	return c
}

func TestNextVisibility(t *testing.T) {
	tests := []struct {
		from    Visibility
		trigger Trigger
		want    Visibility
		wantErr bool
	}{
		{VisibilityClosed, TriggerOpen, VisibilityOpen, false},
		{VisibilityOpen, TriggerMinimize, VisibilityMinimized, false},
		{VisibilityMinimized, TriggerRestore, VisibilityOpen, false},
		{VisibilityMinimized, TriggerOpen, VisibilityOpen, false},
		{VisibilityOpen, TriggerClose, VisibilityClosed, false},
		{VisibilityMinimized, TriggerClose, VisibilityClosed, false},
		{VisibilityClosed, TriggerMinimize, VisibilityClosed, true},
		{VisibilityClosed, TriggerClose, VisibilityClosed, true},
		{VisibilityOpen, TriggerOpen, VisibilityOpen, true},
		{VisibilityOpen, TriggerRestore, VisibilityOpen, true},
		{VisibilityClosed, Trigger("explode"), VisibilityClosed, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.trigger), func(t *testing.T) {
			got, err := NextVisibility(tt.from, tt.trigger)
			if tt.wantErr {
				assert.ErrorIs(t, err, models.ErrInvalidTransition)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestController_SubmitOfflineAppendsTwoMessages(t *testing.T) {
	dialer := &fakeDialer{}
	c := newTestController(t, false, dialer)

	for i, text := range []string{"Do you have pentesting services?", "asdkjasd", "aramco"} {
		user, ok := c.SubmitText(text)
		require.True(t, ok)
		assert.Equal(t, models.SenderUser, user.Sender)
		c.Wait()

		msgs := c.Messages()
		require.Len(t, msgs, 2*(i+1))
		assert.Equal(t, models.SenderUser, msgs[2*i].Sender)
		assert.Equal(t, text, msgs[2*i].Text)
		assert.Equal(t, models.SenderBot, msgs[2*i+1].Sender)
		assert.False(t, c.State().Composing)
	}
	assert.Zero(t, dialer.count(), "offline turns must never dial")
}

func TestController_SubmitUsesInputBox(t *testing.T) {
	c := newTestController(t, false, nil)

	c.SetInput("   ")
	_, ok := c.Submit()
	assert.False(t, ok)
	assert.Empty(t, c.Messages())

	c.SetInput("  hello  ")
	user, ok := c.Submit()
	require.True(t, ok)
	assert.Equal(t, "hello", user.Text)
	assert.Empty(t, c.State().Input)
	c.Wait()
	assert.Len(t, c.Messages(), 2)
}

func TestController_ReentrantSubmitIsIgnored(t *testing.T) {
	remote := &fakeRemote{reply: models.Reply{Text: "Acknowledged."}, release: make(chan struct{})}
	c := newTestController(t, true, &fakeDialer{session: remote})

	_, ok := c.SubmitText("first")
	require.True(t, ok)
	assert.True(t, c.State().Composing)

	c.SetInput("second")
	_, ok = c.Submit()
	assert.False(t, ok)
	_, ok = c.SubmitText("third")
	assert.False(t, ok)
	assert.Len(t, c.Messages(), 1)
	assert.Equal(t, "second", c.State().Input, "a rejected submit leaves the input box alone")

	close(remote.release)
	c.Wait()

	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "Acknowledged.", msgs[1].Text)
	assert.Equal(t, []string{"first"}, remote.sent)
}

func TestController_GreetingOnce(t *testing.T) {
	c := NewController(ControllerConfig{
		SessionID: "greet",
		Options:   Options{GreetingDelay: 20 * time.Millisecond},
	})
	defer c.Stop()

	vis, err := c.Open()
	require.NoError(t, err)
	assert.Equal(t, VisibilityOpen, vis)
	assert.True(t, c.State().Composing, "composing during the greeting delay")

	_, ok := c.SubmitText("too early")
	assert.False(t, ok)

	c.Wait()
	msgs := c.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, GreetingText, msgs[0].Text)
	assert.Equal(t, models.SenderBot, msgs[0].Sender)
	assert.False(t, c.State().Composing)

	_, err = c.Transition(TriggerClose)
	require.NoError(t, err)
	_, err = c.Open()
	require.NoError(t, err)
	c.Wait()
	assert.Len(t, c.Messages(), 1)
}

func TestController_GreetingNotRescheduledWhilePending(t *testing.T) {
	c := NewController(ControllerConfig{
		SessionID: "greet",
		Options:   Options{GreetingDelay: 30 * time.Millisecond},
	})
	defer c.Stop()

	_, err := c.Open()
	require.NoError(t, err)
	_, err = c.Transition(TriggerMinimize)
	require.NoError(t, err)
	_, err = c.Transition(TriggerClose)
	require.NoError(t, err)
	_, err = c.Open()
	require.NoError(t, err)

	c.Wait()
	assert.Len(t, c.Messages(), 1)
}

func TestController_NoGreetingWhenHistoryExists(t *testing.T) {
	c := newTestController(t, false, nil)

	_, ok := c.SubmitText("hello")
	require.True(t, ok)
	c.Wait()

	_, err := c.Open()
	require.NoError(t, err)
	c.Wait()
	assert.Len(t, c.Messages(), 2)
	assert.False(t, c.State().Composing)
}

func TestController_InvalidTransition(t *testing.T) {
	c := newTestController(t, false, nil)

	vis, err := c.Transition(TriggerMinimize)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
	assert.Equal(t, VisibilityClosed, vis)
	assert.Equal(t, "closed", c.State().Visibility)
}

func TestController_OfflineScenarios(t *testing.T) {
	c := newTestController(t, false, &fakeDialer{})

	_, ok := c.SubmitText("where is your office")
	require.True(t, ok)
	c.Wait()
	bot := c.Messages()[1]
	assert.Contains(t, bot.Text, "Victoria Island, Lagos")
	require.NotNil(t, bot.Action)
	assert.Equal(t, "VIEW MAP", bot.Action.Label)
	assert.Equal(t, "/contact", bot.Action.Path)

	_, ok = c.SubmitText("aramco")
	require.True(t, ok)
	c.Wait()
	bot = c.Messages()[3]
	require.NotNil(t, bot.Action)
	assert.Equal(t, "/portfolio/p1", bot.Action.Path)
}

func TestController_RemoteReply(t *testing.T) {
	remote := &fakeRemote{reply: models.Reply{
		Text:   "Our SOC is standing by.",
		Action: &models.Action{Label: "OPEN CHANNEL", Path: "/contact"},
	}}
	c := newTestController(t, true, &fakeDialer{session: remote})

	_, ok := c.SubmitText("how do I reach you")
	require.True(t, ok)
	c.Wait()

	bot := c.Messages()[1]
	assert.Equal(t, "Our SOC is standing by.", bot.Text)
	require.NotNil(t, bot.Action)
	assert.Equal(t, "/contact", bot.Action.Path)
}

func TestController_RemoteMalformedReply(t *testing.T) {
	session := gemini.NewSession(scriptedChat{raw: "```json\n{\"text\": broken\n```"}, nil)
	c := newTestController(t, true, &fakeDialer{session: session})

	_, ok := c.SubmitText("hello")
	require.True(t, ok)
	c.Wait()

	bot := c.Messages()[1]
	assert.Equal(t, "{\"text\": broken", bot.Text)
	assert.Nil(t, bot.Action)
}

func TestController_RemoteEmptyReply(t *testing.T) {
	remote := &fakeRemote{reply: models.Reply{Text: "  "}}
	c := newTestController(t, true, &fakeDialer{session: remote})

	_, ok := c.SubmitText("hello")
	require.True(t, ok)
	c.Wait()
	assert.Equal(t, gemini.InterruptedText, c.Messages()[1].Text)
}

func TestController_RemoteInvalidActionDropped(t *testing.T) {
	remote := &fakeRemote{reply: models.Reply{
		Text:   "Go here.",
		Action: &models.Action{Label: "ADMIN", Path: "/admin"},
	}}
	c := newTestController(t, true, &fakeDialer{session: remote})

	_, ok := c.SubmitText("hello")
	require.True(t, ok)
	c.Wait()

	bot := c.Messages()[1]
	assert.Equal(t, "Go here.", bot.Text)
	assert.Nil(t, bot.Action)
}

func TestController_RemoteFailure(t *testing.T) {
	remote := &fakeRemote{err: &models.RemoteError{Op: "send message", Err: errors.New("connection reset")}}
	c := newTestController(t, true, &fakeDialer{session: remote})

	_, ok := c.SubmitText("hello")
	require.True(t, ok)
	c.Wait()

	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, FailureText, msgs[1].Text)
	require.NotNil(t, msgs[1].Action)
	assert.Equal(t, "REPORT ISSUE", msgs[1].Action.Label)
	assert.Equal(t, "/contact", msgs[1].Action.Path)
	assert.False(t, c.State().Composing)

	// Not retried: one send for one submission.
	assert.Len(t, remote.sent, 1)
}

func TestController_RemoteTimeout(t *testing.T) {
	remote := &fakeRemote{release: make(chan struct{})}
	c := NewController(ControllerConfig{
		SessionID: "timeout",
		Dialer:    &fakeDialer{session: remote},
		Options:   Options{RemoteTimeout: 20 * time.Millisecond},
	})
	defer c.Stop()

	_, ok := c.SubmitText("hello")
	require.True(t, ok)
	c.Wait()
	assert.Equal(t, FailureText, c.Messages()[1].Text)
}

// slowDialer takes delay to dial and records the deadline it was given.
type slowDialer struct {
	delay    time.Duration
	session  models.RemoteSession
	deadline time.Time
}

func (d *slowDialer) Dial(ctx context.Context) (models.RemoteSession, error) {
	d.deadline, _ = ctx.Deadline()
	select {
	case <-time.After(d.delay):
		return d.session, nil
	case <-ctx.Done():
		return nil, &models.RemoteError{Op: "create chat", Err: ctx.Err()}
	}
}

// deadlineRemote blocks until its context ends and records the deadline.
type deadlineRemote struct {
	deadline time.Time
}

func (r *deadlineRemote) Send(ctx context.Context, _ string) (models.Reply, error) {
	r.deadline, _ = ctx.Deadline()
	<-ctx.Done()
	return models.Reply{}, &models.RemoteError{Op: "send message", Err: ctx.Err()}
}

func TestController_RemoteTimeoutCoversDialAndSend(t *testing.T) {
	timeout := 200 * time.Millisecond
	remote := &deadlineRemote{}
	dialer := &slowDialer{delay: 120 * time.Millisecond, session: remote}
	c := NewController(ControllerConfig{
		SessionID: "shared-deadline",
		Dialer:    dialer,
		Options:   Options{RemoteTimeout: timeout},
	})
	defer c.Stop()

	start := time.Now()
	_, ok := c.SubmitText("hello")
	require.True(t, ok)
	c.Wait()
	elapsed := time.Since(start)

	assert.Equal(t, FailureText, c.Messages()[1].Text)
	require.False(t, dialer.deadline.IsZero())
	assert.Equal(t, dialer.deadline, remote.deadline, "dial and send share one deadline")
	assert.Less(t, elapsed, timeout+120*time.Millisecond)
}

func TestController_ConfigurationMissing(t *testing.T) {
	dialer := &fakeDialer{err: models.ErrConfigurationMissing}
	c := newTestController(t, true, dialer)

	for i := 0; i < 2; i++ {
		_, ok := c.SubmitText("hello")
		require.True(t, ok)
		c.Wait()
	}

	msgs := c.Messages()
	require.Len(t, msgs, 4)
	for _, bot := range []models.Message{msgs[1], msgs[3]} {
		assert.Equal(t, UnavailableText, bot.Text)
		require.NotNil(t, bot.Action)
		assert.Equal(t, "CONTACT", bot.Action.Label)
		assert.Equal(t, "/contact", bot.Action.Path)
	}
	assert.Equal(t, 2, dialer.count(), "dial is retried on each submit")
}

func TestController_DialFailure(t *testing.T) {
	c := newTestController(t, true, &fakeDialer{err: &models.RemoteError{Op: "create chat", Err: errors.New("dns")}})

	_, ok := c.SubmitText("hello")
	require.True(t, ok)
	c.Wait()
	assert.Equal(t, FailureText, c.Messages()[1].Text)
}

func TestController_SessionLifecycleFollowsConnectivity(t *testing.T) {
	remote := &fakeRemote{reply: models.Reply{Text: "ok"}}
	dialer := &fakeDialer{session: remote}
	monitor := NewMonitor(true)
	c := NewController(ControllerConfig{SessionID: "net", Dialer: dialer, Monitor: monitor})
	defer c.Stop()

	assert.Zero(t, dialer.count(), "dialed lazily")

	for i := 0; i < 2; i++ {
		_, ok := c.SubmitText("ping")
		require.True(t, ok)
		c.Wait()
	}
	assert.Equal(t, 1, dialer.count(), "one session per online period")

	monitor.Set(false)
	assert.False(t, c.State().Online)
	_, ok := c.SubmitText("aramco")
	require.True(t, ok)
	c.Wait()
	assert.Equal(t, "/portfolio/p1", c.Messages()[5].Action.Path)
	assert.Equal(t, 1, dialer.count())

	monitor.Set(true)
	_, ok = c.SubmitText("ping")
	require.True(t, ok)
	c.Wait()
	assert.Equal(t, 2, dialer.count(), "a new session after reconnecting")
}

func TestController_ActivateAction(t *testing.T) {
	nav := &recordingNavigator{}
	c := NewController(ControllerConfig{
		SessionID: "nav",
		Monitor:   NewMonitor(false),
		Navigator: nav,
	})
	defer c.Stop()

	_, err := c.Open()
	require.NoError(t, err)
	c.Wait()
	greeting := c.Messages()[0]

	_, ok := c.SubmitText("aramco")
	require.True(t, ok)
	c.Wait()
	bot := c.Messages()[2]

	path, vis, err := c.ActivateAction(bot.ID, false)
	require.NoError(t, err)
	assert.Equal(t, "/portfolio/p1", path)
	assert.Equal(t, VisibilityOpen, vis)

	path, vis, err = c.ActivateAction(bot.ID, true)
	require.NoError(t, err)
	assert.Equal(t, "/portfolio/p1", path)
	assert.Equal(t, VisibilityClosed, vis)
	assert.Equal(t, []string{"/portfolio/p1", "/portfolio/p1"}, nav.paths)

	_, _, err = c.ActivateAction(greeting.ID, false)
	assert.ErrorIs(t, err, models.ErrInvalidMessage)
	_, _, err = c.ActivateAction("missing", false)
	assert.ErrorIs(t, err, models.ErrInvalidMessage)
	assert.Len(t, nav.paths, 2)
}

func TestController_OpenSignal(t *testing.T) {
	signal := NewSignal()
	c := NewController(ControllerConfig{SessionID: "sig", Signal: signal})
	defer c.Stop()

	signal.Fire()
	assert.Equal(t, "open", c.State().Visibility)
	signal.Fire()
	assert.Equal(t, "open", c.State().Visibility)
	c.Wait()
	assert.Len(t, c.Messages(), 1)
}

func TestController_EventsInOrder(t *testing.T) {
	c := newTestController(t, false, nil)

	var (
		mu     sync.Mutex
		events []Event
	)
	unsubscribe := c.Subscribe(func(ev Event) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, ev)
	})

	_, err := c.Open()
	require.NoError(t, err)
	c.Wait()
	_, ok := c.SubmitText("hello")
	require.True(t, ok)
	c.Wait()
	c.Monitor().Set(true)
	unsubscribe()
	c.Monitor().Set(false)

	mu.Lock()
	defer mu.Unlock()
	var types []EventType
	for _, ev := range events {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []EventType{
		EventVisibility, EventComposing, // open schedules greeting
		EventMessage, EventComposing, // greeting
		EventMessage, EventComposing, // user
		EventMessage, EventComposing, // bot
		EventConnectivity,
	}, types)
	assert.True(t, events[1].Composing)
	assert.False(t, events[3].Composing)
	assert.Equal(t, models.SenderUser, events[4].Message.Sender)
	assert.Equal(t, models.SenderBot, events[6].Message.Sender)
	assert.True(t, events[8].Online)
}

func TestController_MessagesAreCopies(t *testing.T) {
	c := newTestController(t, false, nil)
	_, ok := c.SubmitText("aramco")
	require.True(t, ok)
	c.Wait()

	msgs := c.Messages()
	msgs[1].Action.Path = "/evil"
	msgs[0].Text = "rewritten"

	again := c.Messages()
	assert.Equal(t, "/portfolio/p1", again[1].Action.Path)
	assert.Equal(t, "aramco", again[0].Text)
}

func TestController_RecordsTraces(t *testing.T) {
	traces := stores.NewMemoryStore()
	remote := &fakeRemote{reply: models.Reply{Text: "ok", Action: &models.Action{Label: "VIEW", Path: "/services"}}}
	c := NewController(ControllerConfig{
		SessionID: "trace",
		Dialer:    &fakeDialer{session: remote},
		Traces:    traces,
	})
	defer c.Stop()

	_, err := c.Open()
	require.NoError(t, err)
	c.Wait()
	_, ok := c.SubmitText("services")
	require.True(t, ok)
	c.Wait()

	got, err := traces.GetTracesBySession("trace")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "greeting", got[0].Kind)
	assert.Equal(t, OutcomeGreeting, got[0].Outcome)
	assert.Equal(t, "turn", got[1].Kind)
	assert.Equal(t, "online", got[1].Mode)
	assert.Equal(t, OutcomeReply, got[1].Outcome)
	assert.Equal(t, "/services", got[1].ActionPath)
	assert.Equal(t, c.Messages()[2].ID, got[1].MessageID)
}

func TestController_StopDiscardsPendingReply(t *testing.T) {
	remote := &fakeRemote{reply: models.Reply{Text: "late"}, release: make(chan struct{})}
	c := NewController(ControllerConfig{SessionID: "stop", Dialer: &fakeDialer{session: remote}})

	_, ok := c.SubmitText("hello")
	require.True(t, ok)
	c.Stop()
	c.Wait()

	assert.Len(t, c.Messages(), 1)
	select {
	case <-c.Done():
	default:
		t.Fatal("Done should be closed after Stop")
	}
	_, ok = c.SubmitText("again")
	assert.False(t, ok)
}
