package stores

import (
	"fmt"

	"gorm.io/gorm"
)

// gormStore implements TraceStore and InquiryStore on any GORM dialect.
// SQLiteStore and PostgresStore embed it and own the connection.
type gormStore struct {
	db *gorm.DB
}

func (s *gormStore) migrate() error {
	if err := s.db.AutoMigrate(&TurnTrace{}, &ContactInquiry{}); err != nil {
		return fmt.Errorf("failed to migrate database schema: %w", err)
	}
	return nil
}

// SaveTrace saves a single turn trace
func (s *gormStore) SaveTrace(trace *TurnTrace) error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	return s.db.Create(trace).Error
}

// GetTracesBySession retrieves all traces for a widget session, oldest first
func (s *gormStore) GetTracesBySession(sessionID string) ([]*TurnTrace, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	var traces []*TurnTrace
	err := s.db.Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&traces).Error

	return traces, err
}

// DeleteTracesBySession removes all traces for a widget session
func (s *gormStore) DeleteTracesBySession(sessionID string) error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	return s.db.Where("session_id = ?", sessionID).Delete(&TurnTrace{}).Error
}

// SaveInquiry stores a contact inquiry and fills in its ID and timestamps
func (s *gormStore) SaveInquiry(inquiry *ContactInquiry) error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	if err := s.db.Create(inquiry).Error; err != nil {
		return fmt.Errorf("failed to create inquiry record: %w", err)
	}
	return nil
}

// ListInquiries returns inquiries newest first
func (s *gormStore) ListInquiries(limit int) ([]ContactInquiry, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	var inquiries []ContactInquiry
	query := s.db.Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&inquiries).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch inquiries: %w", err)
	}
	return inquiries, nil
}

func (s *gormStore) close() error {
	if s.db != nil {
		sqlDB, err := s.db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}

func (s *gormStore) ping() error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Ping()
}
