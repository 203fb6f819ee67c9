package stores

import (
	"time"

	"gorm.io/gorm"
)

// TurnTrace records the metadata of one bot reply. Conversation text is
// never stored.
type TurnTrace struct {
	ID         uint      `gorm:"primarykey" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	SessionID  string    `gorm:"index:idx_turn_session;not null" json:"session_id"`
	MessageID  string    `gorm:"index;not null" json:"message_id"`
	Kind       string    `gorm:"not null" json:"kind"`    // "greeting", "turn"
	Mode       string    `gorm:"not null" json:"mode"`    // "online", "offline"
	Outcome    string    `gorm:"not null" json:"outcome"` // see sessions.Outcome*
	ActionPath string    `json:"action_path,omitempty"`
	DurationMS int64     `json:"duration_ms"`
}

// ContactInquiry is a submission of the contact form.
type ContactInquiry struct {
	gorm.Model
	Name    string `gorm:"not null"`
	Email   string `gorm:"index;not null"`
	Service string
	Message string `gorm:"type:text;not null"`
}

// TraceStore persists turn traces.
type TraceStore interface {
	SaveTrace(trace *TurnTrace) error
	GetTracesBySession(sessionID string) ([]*TurnTrace, error)
	DeleteTracesBySession(sessionID string) error
}

// InquiryStore persists contact inquiries.
type InquiryStore interface {
	SaveInquiry(inquiry *ContactInquiry) error
	// ListInquiries returns the newest inquiries first (0 = all).
	ListInquiries(limit int) ([]ContactInquiry, error)
}

// Store is the full persistence surface used by the server.
type Store interface {
	TraceStore
	InquiryStore

	// Connection management
	Connect() error
	Close() error

	// Health check
	Ping() error
}

// StoreConfig holds configuration for database stores
type StoreConfig struct {
	Type       string            `json:"type"`       // "sqlite", "postgres", "memory"
	Connection string            `json:"connection"` // connection string
	Options    map[string]string `json:"options"`    // additional options
}

// NewStoreConfig creates a new store configuration
func NewStoreConfig(storeType, connection string) *StoreConfig {
	return &StoreConfig{
		Type:       storeType,
		Connection: connection,
		Options:    make(map[string]string),
	}
}

// WithOption adds an option to the store configuration
func (c *StoreConfig) WithOption(key, value string) *StoreConfig {
	c.Options[key] = value
	return c
}
