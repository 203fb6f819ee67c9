package sessions

import "sync"

// subscribers is an ordered listener registry with explicit cleanup.
type subscribers[T any] struct {
	mu     sync.Mutex
	nextID int
	order  []int
	fns    map[int]func(T)
}

func (s *subscribers[T]) add(fn func(T)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fns == nil {
		s.fns = make(map[int]func(T))
	}
	id := s.nextID
	s.nextID++
	s.fns[id] = fn
	s.order = append(s.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.fns, id)
			for i, v := range s.order {
				if v == id {
					s.order = append(s.order[:i], s.order[i+1:]...)
					break
				}
			}
		})
	}
}

func (s *subscribers[T]) snapshot() []func(T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]func(T), 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.fns[id])
	}
	return out
}

func (s *subscribers[T]) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fns = nil
	s.order = nil
}

// Monitor tracks the host's online/offline flag and notifies subscribers on
// transitions. It never probes the network itself.
type Monitor struct {
	mu       sync.Mutex
	notifyMu sync.Mutex
	online   bool
	subs     subscribers[bool]
}

func NewMonitor(online bool) *Monitor {
	return &Monitor{online: online}
}

// Online reports the current connectivity.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Set records a connectivity report. Subscribers are only called when the
// value actually changes.
func (m *Monitor) Set(online bool) {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	m.mu.Lock()
	changed := m.online != online
	m.online = online
	m.mu.Unlock()

	if !changed {
		return
	}
	for _, fn := range m.subs.snapshot() {
		fn(online)
	}
}

// Subscribe registers fn for transitions and returns its cleanup function.
func (m *Monitor) Subscribe(fn func(online bool)) (unsubscribe func()) {
	return m.subs.add(fn)
}

// Signal is the fire-and-forget "open chat" trigger other parts of the
// application use.
type Signal struct {
	subs subscribers[struct{}]
}

func NewSignal() *Signal {
	return &Signal{}
}

// Fire notifies every subscriber.
func (s *Signal) Fire() {
	for _, fn := range s.subs.snapshot() {
		fn(struct{}{})
	}
}

// Subscribe registers fn and returns its cleanup function.
func (s *Signal) Subscribe(fn func()) (unsubscribe func()) {
	return s.subs.add(func(struct{}) { fn() })
}
