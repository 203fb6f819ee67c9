package sentinel

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/defendhub/sentinel/models/gemini"
	"github.com/defendhub/sentinel/server"
	"github.com/defendhub/sentinel/sessions"
	"github.com/defendhub/sentinel/stores"
	"github.com/joho/godotenv"
)

// Config holds everything needed to host widget sessions
type Config struct {
	APIKey    string
	ModelName string
	Addr      string

	StoreType string // "sqlite", "postgres" or "memory"
	StoreDSN  string
	Store     stores.Store

	GreetingDelay  time.Duration
	OfflineLatency time.Duration
	RemoteTimeout  time.Duration

	SessionTTL     time.Duration
	ReapSchedule   string
	RateLimit      float64
	RateBurst      int
	AllowedOrigins []string
}

// NewConfig returns the defaults without reading the environment.
func NewConfig() *Config {
	opts := sessions.DefaultOptions()
	srv := server.DefaultConfig()
	return &Config{
		ModelName:      gemini.DefaultModel,
		Addr:           srv.Addr,
		StoreType:      "sqlite",
		StoreDSN:       "sentinel.sqlite",
		GreetingDelay:  opts.GreetingDelay,
		OfflineLatency: opts.OfflineLatency,
		RemoteTimeout:  opts.RemoteTimeout,
		SessionTTL:     srv.SessionTTL,
		ReapSchedule:   srv.ReapSchedule,
		RateLimit:      srv.RateLimit,
		RateBurst:      srv.RateBurst,
		AllowedOrigins: srv.AllowedOrigins,
	}
}

// LoadConfig reads SENTINEL_* variables, loading a .env file first when one
// exists. A missing API key is not an error: the widget then runs offline.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	c := NewConfig()
	c.APIKey = firstEnv("SENTINEL_API_KEY", "GEMINI_API_KEY", "API_KEY")
	c.ModelName = getEnv("SENTINEL_MODEL", c.ModelName)
	c.Addr = getEnv("SENTINEL_ADDR", c.Addr)
	c.StoreType = strings.ToLower(getEnv("SENTINEL_STORE", c.StoreType))
	c.StoreDSN = getEnv("SENTINEL_STORE_DSN", c.StoreDSN)
	c.ReapSchedule = getEnv("SENTINEL_REAP_SCHEDULE", c.ReapSchedule)

	var errs []error
	parseDuration := func(key string, dst *time.Duration) {
		v, ok := lookupEnv(key)
		if !ok {
			return
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = d
	}
	parseDuration("SENTINEL_GREETING_DELAY", &c.GreetingDelay)
	parseDuration("SENTINEL_OFFLINE_LATENCY", &c.OfflineLatency)
	parseDuration("SENTINEL_REMOTE_TIMEOUT", &c.RemoteTimeout)
	parseDuration("SENTINEL_SESSION_TTL", &c.SessionTTL)

	if v, ok := lookupEnv("SENTINEL_RATE_LIMIT"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("SENTINEL_RATE_LIMIT: %w", err))
		} else {
			c.RateLimit = f
		}
	}
	if v, ok := lookupEnv("SENTINEL_RATE_BURST"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("SENTINEL_RATE_BURST: %w", err))
		} else {
			c.RateBurst = n
		}
	}
	if v, ok := lookupEnv("SENTINEL_ALLOWED_ORIGINS"); ok {
		c.AllowedOrigins = splitList(v)
	}

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return c, nil
}

// Validate checks the fields that have no safe fallback.
func (c *Config) Validate() error {
	switch c.StoreType {
	case "sqlite", "postgres":
		if c.StoreDSN == "" && c.Store == nil {
			return fmt.Errorf("SENTINEL_STORE_DSN cannot be empty for %s", c.StoreType)
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported store type: %s", c.StoreType)
	}
	if c.Addr == "" {
		return errors.New("SENTINEL_ADDR cannot be empty")
	}
	if c.GreetingDelay < 0 || c.OfflineLatency < 0 || c.RemoteTimeout < 0 || c.SessionTTL < 0 {
		return errors.New("durations cannot be negative")
	}
	return nil
}

// WithAPIKey sets the Gemini API key
func (c *Config) WithAPIKey(key string) *Config {
	c.APIKey = key
	return c
}

// WithModelName sets the model name for the configuration
func (c *Config) WithModelName(modelName string) *Config {
	c.ModelName = modelName
	return c
}

// WithStore sets an already connected store
func (c *Config) WithStore(store stores.Store) *Config {
	c.Store = store
	return c
}

// WithSQLiteStore selects a SQLite store at dbPath
func (c *Config) WithSQLiteStore(dbPath string) *Config {
	c.Store = nil
	c.StoreType = "sqlite"
	c.StoreDSN = dbPath
	return c
}

// WithPostgresStore selects a PostgreSQL store with the specified connection parameters
func (c *Config) WithPostgresStore(host, user, password, dbname string, port int) *Config {
	c.Store = nil
	c.StoreType = "postgres"
	c.StoreDSN = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		host, user, password, dbname, port)
	return c
}

// WithMemoryStore keeps traces and inquiries in process memory
func (c *Config) WithMemoryStore() *Config {
	c.Store = nil
	c.StoreType = "memory"
	c.StoreDSN = ""
	return c
}

func (c *Config) WithGreetingDelay(d time.Duration) *Config {
	c.GreetingDelay = d
	return c
}

func (c *Config) WithOfflineLatency(d time.Duration) *Config {
	c.OfflineLatency = d
	return c
}

func (c *Config) WithRemoteTimeout(d time.Duration) *Config {
	c.RemoteTimeout = d
	return c
}

// WithSessionTTL sets how long an idle widget session is kept
func (c *Config) WithSessionTTL(d time.Duration) *Config {
	c.SessionTTL = d
	return c
}

// Options returns the controller timings.
func (c *Config) Options() sessions.Options {
	return sessions.Options{
		GreetingDelay:  c.GreetingDelay,
		OfflineLatency: c.OfflineLatency,
		RemoteTimeout:  c.RemoteTimeout,
	}
}

// ServerConfig returns the HTTP settings.
func (c *Config) ServerConfig() server.Config {
	return server.Config{
		Addr:           c.Addr,
		AllowedOrigins: c.AllowedOrigins,
		RateLimit:      c.RateLimit,
		RateBurst:      c.RateBurst,
		RemoteTimeout:  c.RemoteTimeout,
		SessionTTL:     c.SessionTTL,
		ReapSchedule:   c.ReapSchedule,
	}
}

// OpenStore returns the configured store, connecting it when needed.
func (c *Config) OpenStore() (stores.Store, error) {
	if c.Store != nil {
		return c.Store, nil
	}
	store, err := stores.NewStore(stores.NewStoreConfig(c.StoreType, c.StoreDSN))
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", c.StoreType, err)
	}
	return store, nil
}

// lookupEnv treats a blank variable as unset.
func lookupEnv(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	value = strings.TrimSpace(value)
	return value, ok && value != ""
}

func getEnv(key, fallback string) string {
	if value, ok := lookupEnv(key); ok {
		return value
	}
	return fallback
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := getEnv(key, ""); v != "" {
			return v
		}
	}
	return ""
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
