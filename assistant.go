// Package sentinel hosts the conversation core of the DEFENDHUB chat widget.
package sentinel

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/defendhub/sentinel/models"
	"github.com/defendhub/sentinel/models/gemini"
	"github.com/defendhub/sentinel/models/knowledge"
	"github.com/defendhub/sentinel/models/offline"
	"github.com/defendhub/sentinel/server"
	"github.com/defendhub/sentinel/sessions"
	"github.com/defendhub/sentinel/stores"
)

// Assistant wires the remote model, the offline responder and the store
// together and builds one Controller per widget session.
type Assistant struct {
	cfg     *Config
	kb      *knowledge.Base
	dialer  models.RemoteDialer
	offline models.Responder
	store   stores.Store
	logger  *log.Logger
}

// NewAssistant opens the store and prepares the Gemini client. Without an
// API key every session answers from the offline responder when offline
// and with the unavailable reply when online.
func NewAssistant(ctx context.Context, cfg *Config) (*Assistant, error) {
	if cfg == nil {
		cfg = NewConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := log.New(os.Stdout, "[SENTINEL] ", log.LstdFlags)
	kb := knowledge.Default()

	store, err := cfg.OpenStore()
	if err != nil {
		return nil, err
	}

	var dialer models.RemoteDialer
	client, err := gemini.NewClient(ctx, gemini.Config{
		APIKey:    cfg.APIKey,
		Model:     cfg.ModelName,
		Knowledge: kb,
	})
	switch {
	case errors.Is(err, models.ErrConfigurationMissing):
		logger.Println("No API key configured, remote replies are unavailable")
		dialer = models.UnavailableDialer{}
	case err != nil:
		if cerr := store.Close(); cerr != nil {
			logger.Printf("Failed to close store: %v", cerr)
		}
		return nil, fmt.Errorf("create gemini client: %w", err)
	default:
		dialer = client
	}

	return &Assistant{
		cfg:     cfg,
		kb:      kb,
		dialer:  dialer,
		offline: offline.New(kb),
		store:   store,
		logger:  logger,
	}, nil
}

// NewController builds the controller of a new widget session. It satisfies
// server.ControllerFactory.
func (a *Assistant) NewController(sessionID string, online bool) *sessions.Controller {
	return sessions.NewController(sessions.ControllerConfig{
		SessionID: sessionID,
		Dialer:    a.dialer,
		Offline:   a.offline,
		Monitor:   sessions.NewMonitor(online),
		Traces:    a.store,
		Logger:    sessions.NewWidgetLogger(sessionID),
		Options:   a.cfg.Options(),
	})
}

// NewServer returns an HTTP server whose sessions come from a.
func (a *Assistant) NewServer() (*server.Server, error) {
	return server.New(a.cfg.ServerConfig(), a, a.store, a.kb)
}

func (a *Assistant) Store() stores.Store {
	return a.store
}

func (a *Assistant) Knowledge() *knowledge.Base {
	return a.kb
}

func (a *Assistant) Close() error {
	return a.store.Close()
}
