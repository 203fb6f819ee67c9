package server

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/defendhub/sentinel/models"
	"github.com/defendhub/sentinel/sessions"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// ControllerFactory builds the controller for a new widget session.
type ControllerFactory interface {
	NewController(sessionID string, online bool) *sessions.Controller
}

// ControllerFactoryFunc adapts a function to ControllerFactory.
type ControllerFactoryFunc func(sessionID string, online bool) *sessions.Controller

func (f ControllerFactoryFunc) NewController(sessionID string, online bool) *sessions.Controller {
	return f(sessionID, online)
}

type entry struct {
	ctrl     *sessions.Controller
	attached int // live WebSocket/SSE connections
}

// Registry owns the widget sessions hosted by this process. Sessions idle
// for longer than the TTL are stopped by the reaper.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*entry
	factory  ControllerFactory
	ttl      time.Duration
	logger   *log.Logger
	now      func() time.Time

	scheduler *cron.Cron
	jobs      []func()
}

func NewRegistry(factory ControllerFactory, ttl time.Duration, logger *log.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]*entry),
		factory:  factory,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
	}
}

// Create starts a new widget session.
func (r *Registry) Create(online bool) *sessions.Controller {
	id := uuid.NewString()
	ctrl := r.factory.NewController(id, online)

	r.mu.Lock()
	r.sessions[id] = &entry{ctrl: ctrl}
	r.mu.Unlock()

	r.logger.Printf("Created widget session %s (online=%v)", id, online)
	return ctrl
}

func (r *Registry) Get(id string) (*sessions.Controller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrSessionNotFound, id)
	}
	return e.ctrl, nil
}

// Remove stops the session and forgets it.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	e, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", models.ErrSessionNotFound, id)
	}
	e.ctrl.Stop()
	r.logger.Printf("Removed widget session %s", id)
	return nil
}

// Attach marks a live connection on the session; call the returned
// function when it ends. Attached sessions are never reaped.
func (r *Registry) Attach(id string) (detach func(), err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrSessionNotFound, id)
	}
	e.attached++

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			e.attached--
		})
	}, nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Reap stops sessions without a live connection whose last activity is
// older than the TTL. It returns the number of sessions removed.
func (r *Registry) Reap() int {
	if r.ttl <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	var expired []*entry
	for id, e := range r.sessions {
		if e.attached == 0 && e.ctrl.LastActivity().Before(cutoff) {
			expired = append(expired, e)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, e := range expired {
		e.ctrl.Stop()
		r.logger.Printf("Reaped idle widget session %s", e.ctrl.ID())
	}
	return len(expired)
}

// AddJob runs fn on every reaper tick, after Reap.
func (r *Registry) AddJob(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, fn)
}

// StartReaper schedules Reap with a cron spec such as "@every 1m".
func (r *Registry) StartReaper(schedule string) error {
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(schedule, r.tick); err != nil {
		return fmt.Errorf("invalid reap schedule %q: %w", schedule, err)
	}
	scheduler.Start()

	r.mu.Lock()
	r.scheduler = scheduler
	r.mu.Unlock()
	return nil
}

func (r *Registry) tick() {
	r.Reap()
	r.mu.Lock()
	jobs := append([]func(){}, r.jobs...)
	r.mu.Unlock()
	for _, fn := range jobs {
		fn()
	}
}

// Close stops the reaper and every session.
func (r *Registry) Close() {
	r.mu.Lock()
	scheduler := r.scheduler
	r.scheduler = nil
	all := r.sessions
	r.sessions = make(map[string]*entry)
	r.mu.Unlock()

	if scheduler != nil {
		<-scheduler.Stop().Done()
	}
	for _, e := range all {
		e.ctrl.Stop()
	}
}
