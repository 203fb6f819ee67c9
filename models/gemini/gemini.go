// Package gemini adapts a Gemini chat session to models.RemoteSession.
package gemini

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/defendhub/sentinel/models"
	"github.com/defendhub/sentinel/models/knowledge"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/genai"
)

var tracer = otel.Tracer("github.com/defendhub/sentinel/models/gemini")

// Config configures a Client.
type Config struct {
	APIKey    string
	Model     string
	Knowledge *knowledge.Base
	Logger    *log.Logger
}

// Client dials Gemini chat sessions sharing one system instruction.
type Client struct {
	client      *genai.Client
	model       string
	instruction string
	logger      *log.Logger
}

// NewClient returns models.ErrConfigurationMissing when no API key is set.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, models.ErrConfigurationMissing
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Knowledge == nil {
		cfg.Knowledge = knowledge.Default()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stdout, "[GEMINI] ", log.LstdFlags)
	}

	instruction, err := BuildSystemInstruction(cfg.Knowledge)
	if err != nil {
		return nil, fmt.Errorf("failed to build system instruction: %w", err)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: creating Gemini client: %v", models.ErrConfigurationMissing, err)
	}

	return &Client{
		client:      client,
		model:       cfg.Model,
		instruction: instruction,
		logger:      cfg.Logger,
	}, nil
}

// Dial creates a fresh chat session. No history is carried over.
func (c *Client) Dial(ctx context.Context) (models.RemoteSession, error) {
	chat, err := c.client.Chats.Create(ctx, c.model, generateConfig(c.instruction), nil)
	if err != nil {
		return nil, &models.RemoteError{Op: "create chat", Err: err}
	}
	c.logger.Printf("Opened chat session (model=%s)", c.model)
	return NewSession(&sdkChat{chat: chat}, c.logger), nil
}

// Chat sends one user turn and returns the raw reply text.
type Chat interface {
	SendMessage(ctx context.Context, text string) (string, error)
}

type sdkChat struct {
	chat *genai.Chat
}

func (s *sdkChat) SendMessage(ctx context.Context, text string) (string, error) {
	resp, err := s.chat.SendMessage(ctx, genai.Part{Text: text})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// Session is one remote conversation. Turns are serialised.
type Session struct {
	mu     sync.Mutex
	chat   Chat
	logger *log.Logger
}

func NewSession(chat Chat, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Session{chat: chat, logger: logger}
}

// Send performs exactly one request/response turn. Transport failures are
// returned as *models.RemoteError; malformed payloads are not errors.
func (s *Session) Send(ctx context.Context, userText string) (models.Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, span := tracer.Start(ctx, "gemini.send")
	defer span.End()

	raw, err := s.chat.SendMessage(ctx, userText)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "remote call failed")
		return models.Reply{}, &models.RemoteError{Op: "send message", Err: err}
	}

	reply, perr := NormalizeReply(raw)
	if perr != nil {
		s.logger.Printf("Delivering raw reply text: %v", perr)
	}
	span.SetAttributes(
		attribute.Bool("reply.malformed", perr != nil),
		attribute.Bool("reply.has_action", reply.HasAction()),
	)
	return reply, nil
}
