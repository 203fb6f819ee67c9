// Package server exposes widget sessions over HTTP, SSE and WebSocket.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/defendhub/sentinel/docs"
	"github.com/defendhub/sentinel/models/knowledge"
	"github.com/defendhub/sentinel/stores"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Config controls the HTTP surface.
type Config struct {
	Addr           string
	AllowedOrigins []string
	RateLimit      float64 // requests per second per client, <= 0 disables
	RateBurst      int
	RemoteTimeout  time.Duration
	SessionTTL     time.Duration
	ReapSchedule   string
	Logger         *log.Logger
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Addr:           ":8080",
		AllowedOrigins: []string{"*"},
		RateLimit:      5,
		RateBurst:      20,
		RemoteTimeout:  30 * time.Second,
		SessionTTL:     30 * time.Minute,
		ReapSchedule:   "@every 1m",
	}
}

// submitMargin is added to the remote timeout when an HTTP caller waits for
// the reply, so the controller's own failure reply arrives first.
const submitMargin = 5 * time.Second

type Server struct {
	cfg      Config
	engine   *gin.Engine
	registry *Registry
	limiter  *RateLimiter
	logger   *log.Logger
	http     *http.Server
}

// New builds the engine and starts the session reaper.
func New(cfg Config, factory ControllerFactory, store stores.Store, kb *knowledge.Base) (*Server, error) {
	if factory == nil {
		return nil, errors.New("controller factory is required")
	}
	if store == nil {
		return nil, errors.New("store is required")
	}
	if kb == nil {
		kb = knowledge.Default()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stdout, "[SERVER] ", log.LstdFlags)
	}
	if cfg.ReapSchedule == "" {
		cfg.ReapSchedule = DefaultConfig().ReapSchedule
	}

	registry := NewRegistry(factory, cfg.SessionTTL, logger)
	limiter := NewRateLimiter(cfg.RateLimit, cfg.RateBurst)

	h := &handlers{
		registry:      registry,
		store:         store,
		kb:            kb,
		logger:        logger,
		submitTimeout: cfg.RemoteTimeout + submitMargin,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || originAllowed(cfg.AllowedOrigins, origin)
			},
		},
	}

	docs.SwaggerInfo.BasePath = "/api/v1"

	engine := gin.New()
	engine.Use(gin.Recovery(), gin.Logger())
	engine.Use(CORS(cfg.AllowedOrigins))
	registerRoutes(engine, h, limiter)

	if err := registry.StartReaper(cfg.ReapSchedule); err != nil {
		return nil, err
	}
	registry.AddJob(func() {
		if n := limiter.Cleanup(10 * time.Minute); n > 0 {
			logger.Printf("Dropped %d idle rate limiters", n)
		}
	})

	return &Server{
		cfg:      cfg,
		engine:   engine,
		registry: registry,
		limiter:  limiter,
		logger:   logger,
	}, nil
}

func registerRoutes(engine *gin.Engine, h *handlers, limiter *RateLimiter) {
	engine.GET("/healthz", h.healthz)
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := engine.Group("/api/v1")
	v1.Use(limiter.Middleware())

	widget := v1.Group("/widget/sessions")
	widget.POST("", h.createSession)
	widget.GET("/:id", h.getSession)
	widget.DELETE("/:id", h.deleteSession)
	widget.POST("/:id/visibility", h.visibility)
	widget.POST("/:id/open", h.openSignal)
	widget.PUT("/:id/input", h.input)
	widget.POST("/:id/submit", h.submit)
	widget.POST("/:id/connectivity", h.connectivity)
	widget.POST("/:id/messages/:messageID/action", h.activateAction)
	widget.GET("/:id/events", h.events)
	widget.GET("/:id/ws", h.liveChannel)

	v1.POST("/contact", h.contact)
}

// Router returns the gin engine, mostly for tests.
func (s *Server) Router() http.Handler {
	return s.engine
}

func (s *Server) Registry() *Registry {
	return s.registry
}

// ListenAndServe serves until ctx ends, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.http = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("Listening on %s", s.cfg.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.logger.Println("Context cancelled, shutting down")
	case err := <-errCh:
		s.registry.Close()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown stops every widget session, which ends open event streams and
// WebSocket channels, then drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.registry.Close()
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
