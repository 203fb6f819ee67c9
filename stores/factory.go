package stores

import (
	"fmt"
)

// NewStore creates a store based on the configuration
func NewStore(config *StoreConfig) (Store, error) {
	switch config.Type {
	case "sqlite":
		store, err := NewSQLiteStore(config)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "postgres":
		store, err := NewPostgresStore(config)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store type: %s", config.Type)
	}
}

// NewSQLiteStoreDefault creates a SQLite store with default settings
func NewSQLiteStoreDefault() (Store, error) {
	return NewStore(NewStoreConfig("sqlite", "sentinel.sqlite"))
}

// NewPostgresStoreDefault creates a PostgreSQL store from connection parameters
func NewPostgresStoreDefault(host, user, password, dbname string, port int) (Store, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		host, user, password, dbname, port)
	return NewStore(NewStoreConfig("postgres", dsn))
}
