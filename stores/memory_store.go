package stores

import (
	"sync"
	"time"

	"gorm.io/gorm"
)

// MemoryStore keeps traces and inquiries in process memory. It is used for
// tests and for deployments configured with SENTINEL_STORE=memory.
type MemoryStore struct {
	mu        sync.Mutex
	traces    []*TurnTrace
	inquiries []ContactInquiry
	nextID    uint
	now       func() time.Time
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (s *MemoryStore) Connect() error { return nil }
func (s *MemoryStore) Close() error   { return nil }
func (s *MemoryStore) Ping() error    { return nil }

func (s *MemoryStore) SaveTrace(trace *TurnTrace) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	trace.ID = s.nextID
	if trace.CreatedAt.IsZero() {
		trace.CreatedAt = s.now()
	}
	copied := *trace
	s.traces = append(s.traces, &copied)
	return nil
}

func (s *MemoryStore) GetTracesBySession(sessionID string) ([]*TurnTrace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*TurnTrace
	for _, t := range s.traces {
		if t.SessionID == sessionID {
			copied := *t
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *MemoryStore) DeleteTracesBySession(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.traces[:0]
	for _, t := range s.traces {
		if t.SessionID != sessionID {
			kept = append(kept, t)
		}
	}
	s.traces = kept
	return nil
}

func (s *MemoryStore) SaveInquiry(inquiry *ContactInquiry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	now := s.now()
	inquiry.Model = gorm.Model{ID: s.nextID, CreatedAt: now, UpdatedAt: now}
	s.inquiries = append(s.inquiries, *inquiry)
	return nil
}

func (s *MemoryStore) ListInquiries(limit int) ([]ContactInquiry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.inquiries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]ContactInquiry, 0, n)
	for i := len(s.inquiries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.inquiries[i])
	}
	return out, nil
}
