package sessions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/defendhub/sentinel/models"
	"github.com/defendhub/sentinel/models/gemini"
	"github.com/defendhub/sentinel/models/offline"
	"github.com/defendhub/sentinel/stores"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/defendhub/sentinel/sessions")

// Canned bot texts.
const (
	GreetingText    = "Identity verified. Sentinel AI online. Monitoring active. How can I assist with your defense protocols?"
	UnavailableText = "System offline. Please contact support manually."
	FailureText     = "Error: Neural link unstable. Please try again or contact HQ directly."
)

func unavailableReply() models.Reply {
	return models.Reply{
		Text:   UnavailableText,
		Action: &models.Action{Label: "CONTACT", Path: string(models.RouteContact)},
	}
}

func failureReply() models.Reply {
	return models.Reply{
		Text:   FailureText,
		Action: &models.Action{Label: "REPORT ISSUE", Path: string(models.RouteContact)},
	}
}

// Options tunes controller timing. Zero durations mean "no delay" and, for
// RemoteTimeout, no deadline beyond the transport's own.
type Options struct {
	GreetingDelay  time.Duration
	OfflineLatency time.Duration
	RemoteTimeout  time.Duration
}

// DefaultOptions mirrors the timings of the browser widget.
func DefaultOptions() Options {
	return Options{
		GreetingDelay:  time.Second,
		OfflineLatency: 800 * time.Millisecond,
		RemoteTimeout:  30 * time.Second,
	}
}

// ControllerConfig holds the collaborators handed to a Controller.
// Only SessionID is required.
type ControllerConfig struct {
	SessionID string
	Dialer    models.RemoteDialer
	Offline   models.Responder
	Monitor   *Monitor
	Signal    *Signal
	Navigator Navigator
	Traces    stores.TraceStore
	Logger    *log.Logger
	Options   Options
	Now       func() time.Time
}

// Controller owns one widget conversation: message history, input box,
// composing flag, visibility, and the lazily dialed remote session.
type Controller struct {
	id        string
	dialer    models.RemoteDialer
	offline   models.Responder
	monitor   *Monitor
	signal    *Signal
	navigator Navigator
	traces    stores.TraceStore
	logger    *log.Logger
	opts      Options
	now       func() time.Time

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	cleanup []func()

	mu              sync.Mutex
	messages        []models.Message
	input           string
	composing       bool
	visibility      Visibility
	greetingPending bool
	online          bool
	remote          models.RemoteSession
	remoteGen       int
	lastActivity    time.Time
	stopped         bool

	// emitMu is taken before mu is released so listeners observe changes in
	// the order they were made.
	emitMu    sync.Mutex
	listeners subscribers[Event]
}

func NewController(cfg ControllerConfig) *Controller {
	if cfg.Dialer == nil {
		cfg.Dialer = models.UnavailableDialer{}
	}
	if cfg.Offline == nil {
		cfg.Offline = offline.Default()
	}
	if cfg.Monitor == nil {
		cfg.Monitor = NewMonitor(true)
	}
	if cfg.Signal == nil {
		cfg.Signal = NewSignal()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard, "", 0)
	}
	if cfg.Navigator == nil {
		logger := cfg.Logger
		cfg.Navigator = NavigatorFunc(func(path string) {
			logger.Printf("Navigate %s", path)
		})
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		id:           cfg.SessionID,
		dialer:       cfg.Dialer,
		offline:      cfg.Offline,
		monitor:      cfg.Monitor,
		signal:       cfg.Signal,
		navigator:    cfg.Navigator,
		traces:       cfg.Traces,
		logger:       cfg.Logger,
		opts:         cfg.Options,
		now:          cfg.Now,
		ctx:          ctx,
		cancel:       cancel,
		visibility:   VisibilityClosed,
		online:       cfg.Monitor.Online(),
		lastActivity: cfg.Now(),
	}
	c.cleanup = append(c.cleanup,
		c.monitor.Subscribe(c.onConnectivity),
		c.signal.Subscribe(c.onOpenSignal),
	)
	return c
}

func (c *Controller) ID() string { return c.id }

// Monitor returns the connectivity source this controller follows.
func (c *Controller) Monitor() *Monitor { return c.monitor }

// Signal returns the "open chat" trigger this controller listens to.
func (c *Controller) Signal() *Signal { return c.signal }

// Done is closed once the controller is stopped.
func (c *Controller) Done() <-chan struct{} { return c.ctx.Done() }

// Subscribe registers a listener and returns its cleanup function.
func (c *Controller) Subscribe(l Listener) (unsubscribe func()) {
	return c.listeners.add(l)
}

// State returns a snapshot; the message slice is a deep copy.
func (c *Controller) State() models.WidgetState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// Messages returns a copy of the history in insertion order.
func (c *Controller) Messages() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.messagesLocked()
}

func (c *Controller) LastActivity() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActivity
}

// SetInput replaces the contents of the input box.
func (c *Controller) SetInput(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.input = text
	c.lastActivity = c.now()
}

// Submit sends the current input. It reports false, and changes nothing,
// when the trimmed input is empty or a reply is still being composed.
func (c *Controller) Submit() (models.Message, bool) {
	c.mu.Lock()
	return c.submitLocked(c.input)
}

// SubmitText behaves like SetInput followed by Submit, atomically.
func (c *Controller) SubmitText(text string) (models.Message, bool) {
	c.mu.Lock()
	return c.submitLocked(text)
}

// submitLocked must be called with c.mu held; it releases it.
func (c *Controller) submitLocked(raw string) (models.Message, bool) {
	text := strings.TrimSpace(raw)
	if c.stopped || c.composing || text == "" {
		c.mu.Unlock()
		return models.Message{}, false
	}

	msg, err := models.NewMessage(models.SenderUser, text, nil, c.now())
	if err != nil {
		c.mu.Unlock()
		c.logger.Printf("Rejected submission: %v", err)
		return models.Message{}, false
	}
	c.messages = append(c.messages, msg)
	c.input = ""
	c.composing = true
	c.lastActivity = c.now()

	mode := ModeOffline
	if c.online {
		mode = ModeOnline
	}
	c.wg.Add(1)
	go c.runTurn(text, mode)

	c.commit(c.messageEvent(msg), c.event(EventComposing))
	return msg.Clone(), true
}

// Transition applies a visibility trigger. Opening with an empty history
// schedules the greeting once.
func (c *Controller) Transition(t Trigger) (Visibility, error) {
	c.mu.Lock()
	next, err := NextVisibility(c.visibility, t)
	if err != nil {
		c.mu.Unlock()
		return next, err
	}
	c.visibility = next
	c.lastActivity = c.now()

	events := []Event{c.event(EventVisibility)}
	if next == VisibilityOpen && len(c.messages) == 0 && !c.greetingPending && !c.stopped {
		c.greetingPending = true
		c.composing = true
		events = append(events, c.event(EventComposing))
		c.wg.Add(1)
		go c.greet()
	}
	c.commit(events...)
	return next, nil
}

// Open is Transition(TriggerOpen).
func (c *Controller) Open() (Visibility, error) {
	return c.Transition(TriggerOpen)
}

// ActivateAction hands the action path of messageID to the Navigator. On a
// narrow viewport the widget is also closed.
func (c *Controller) ActivateAction(messageID string, narrowViewport bool) (string, Visibility, error) {
	c.mu.Lock()
	var (
		found  bool
		action *models.Action
	)
	for i := range c.messages {
		if c.messages[i].ID == messageID {
			found = true
			action = c.messages[i].Action
			break
		}
	}
	if !found {
		vis := c.visibility
		c.mu.Unlock()
		return "", vis, fmt.Errorf("%w: no message %q", models.ErrInvalidMessage, messageID)
	}
	if action == nil {
		vis := c.visibility
		c.mu.Unlock()
		return "", vis, fmt.Errorf("%w: message %q has no action", models.ErrInvalidMessage, messageID)
	}

	path := action.Path
	c.lastActivity = c.now()
	nav := c.event(EventNavigate)
	nav.Path = path
	events := []Event{nav}
	if narrowViewport && c.visibility != VisibilityClosed {
		c.visibility = VisibilityClosed
		events = append(events, c.event(EventVisibility))
	}
	vis := c.visibility
	c.commit(events...)

	c.navigator.Navigate(path)
	return path, vis, nil
}

// Wait blocks until pending greetings and turns have settled.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Stop unsubscribes from the monitor and signal, cancels in-flight work and
// drops all listeners. Pending replies are discarded.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	c.remote = nil
	c.mu.Unlock()

	c.cancel()
	for _, fn := range c.cleanup {
		fn()
	}
	c.listeners.clear()
	c.logger.Printf("Widget session stopped")
}

func (c *Controller) onConnectivity(online bool) {
	c.mu.Lock()
	if c.online == online || c.stopped {
		c.mu.Unlock()
		return
	}
	c.online = online
	if !online {
		// The next online turn dials a new session.
		c.remote = nil
		c.remoteGen++
	}
	c.logger.Printf("Connectivity changed (online=%v)", online)
	c.commit(c.event(EventConnectivity))
}

func (c *Controller) onOpenSignal() {
	if _, err := c.Transition(TriggerOpen); err != nil && !errors.Is(err, models.ErrInvalidTransition) {
		c.logger.Printf("Open signal failed: %v", err)
	}
}

func (c *Controller) greet() {
	defer c.wg.Done()
	start := time.Now()
	if !c.sleep(c.opts.GreetingDelay) {
		return
	}

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	msg, _ := models.NewMessage(models.SenderBot, GreetingText, nil, c.now())
	c.messages = append(c.messages, msg)
	c.greetingPending = false
	c.composing = false
	mode := ModeOffline
	if c.online {
		mode = ModeOnline
	}
	c.commit(c.messageEvent(msg), c.event(EventComposing))

	c.recordTrace("greeting", mode, OutcomeGreeting, msg, time.Since(start))
}

func (c *Controller) runTurn(text string, mode Mode) {
	defer c.wg.Done()

	ctx, span := tracer.Start(c.ctx, "widget.turn", trace.WithAttributes(
		attribute.String("session.id", c.id),
		attribute.String("turn.mode", string(mode)),
	))
	defer span.End()
	start := time.Now()
	c.logger.Printf("Dispatching turn (mode=%s)", mode)

	var (
		reply   models.Reply
		outcome string
	)
	if mode == ModeOffline {
		if !c.sleep(c.opts.OfflineLatency) {
			return
		}
		reply, outcome = c.offline.Respond(text), OutcomeOffline
	} else {
		reply, outcome = c.askRemote(ctx, text)
	}

	span.SetAttributes(attribute.String("turn.outcome", outcome))
	if outcome == OutcomeRemoteError || outcome == OutcomeUnavailable {
		span.SetStatus(codes.Error, outcome)
	}

	msg, ok := c.appendReply(reply)
	if !ok {
		return
	}
	c.recordTrace("turn", mode, outcome, msg, time.Since(start))
}

// askRemote runs one remote turn. Dialing and sending share a single
// RemoteTimeout deadline.
func (c *Controller) askRemote(ctx context.Context, text string) (models.Reply, string) {
	if c.opts.RemoteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.RemoteTimeout)
		defer cancel()
	}

	session, err := c.remoteSession(ctx)
	if err != nil {
		if errors.Is(err, models.ErrConfigurationMissing) {
			c.logger.Printf("Remote adapter unavailable: %v", err)
			return unavailableReply(), OutcomeUnavailable
		}
		c.logger.Printf("Failed to open remote session: %v", err)
		return failureReply(), OutcomeRemoteError
	}

	reply, err := session.Send(ctx, text)
	if err != nil {
		c.logger.Printf("Remote call failed: %v", err)
		return failureReply(), OutcomeRemoteError
	}
	return reply, OutcomeReply
}

// remoteSession returns the cached session or dials one. A session dialed
// while connectivity dropped is used for this turn but not cached.
func (c *Controller) remoteSession(ctx context.Context) (models.RemoteSession, error) {
	c.mu.Lock()
	if c.remote != nil {
		s := c.remote
		c.mu.Unlock()
		return s, nil
	}
	gen := c.remoteGen
	c.mu.Unlock()

	s, err := c.dialer.Dial(ctx)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, models.ErrConfigurationMissing
	}

	c.mu.Lock()
	if c.remoteGen == gen && c.remote == nil && !c.stopped {
		c.remote = s
	}
	c.mu.Unlock()
	return s, nil
}

// appendReply converts reply into a bot message. Empty text is replaced and
// actions outside the route set are dropped.
func (c *Controller) appendReply(reply models.Reply) (models.Message, bool) {
	text := reply.Text
	if strings.TrimSpace(text) == "" {
		text = gemini.InterruptedText
	}

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return models.Message{}, false
	}
	msg, err := models.NewMessage(models.SenderBot, text, reply.Action, c.now())
	if err != nil {
		c.logger.Printf("Dropping reply action: %v", err)
		msg, _ = models.NewMessage(models.SenderBot, text, nil, c.now())
	}
	c.messages = append(c.messages, msg)
	c.composing = false
	c.lastActivity = c.now()
	c.commit(c.messageEvent(msg), c.event(EventComposing))
	return msg.Clone(), true
}

func (c *Controller) recordTrace(kind string, mode Mode, outcome string, msg models.Message, elapsed time.Duration) {
	if c.traces == nil {
		return
	}
	t := &stores.TurnTrace{
		SessionID:  c.id,
		MessageID:  msg.ID,
		Kind:       kind,
		Mode:       string(mode),
		Outcome:    outcome,
		DurationMS: elapsed.Milliseconds(),
	}
	if msg.Action != nil {
		t.ActionPath = msg.Action.Path
	}
	if err := c.traces.SaveTrace(t); err != nil {
		c.logger.Printf("Failed to save turn trace: %v", err)
	}
}

// sleep waits d or until Stop; it reports whether the controller is live.
func (c *Controller) sleep(d time.Duration) bool {
	if d <= 0 {
		return c.ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-c.ctx.Done():
		return false
	}
}

// commit must be called with c.mu held. It releases c.mu and delivers
// events to listeners before any later change can be delivered.
func (c *Controller) commit(events ...Event) {
	c.emitMu.Lock()
	c.mu.Unlock()
	defer c.emitMu.Unlock()

	for _, fn := range c.listeners.snapshot() {
		for _, ev := range events {
			fn(ev)
		}
	}
}

func (c *Controller) event(t EventType) Event {
	return Event{
		Type:       t,
		SessionID:  c.id,
		Composing:  c.composing,
		Visibility: c.visibility,
		Online:     c.online,
	}
}

func (c *Controller) messageEvent(msg models.Message) Event {
	ev := c.event(EventMessage)
	m := msg.Clone()
	ev.Message = &m
	return ev
}

func (c *Controller) messagesLocked() []models.Message {
	out := make([]models.Message, len(c.messages))
	for i, m := range c.messages {
		out[i] = m.Clone()
	}
	return out
}

func (c *Controller) stateLocked() models.WidgetState {
	return models.WidgetState{
		SessionID:  c.id,
		Visibility: string(c.visibility),
		Composing:  c.composing,
		Online:     c.online,
		Input:      c.input,
		Messages:   c.messagesLocked(),
	}
}
