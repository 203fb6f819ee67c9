package sessions

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

// NewWidgetLogger returns the logger used for a widget session.
func NewWidgetLogger(sessionID string) *log.Logger {
	return log.New(os.Stdout, fmt.Sprintf("[WIDGET %s] ", sessionID), log.LstdFlags)
}

// NewSocketSession creates a WebSocket host for ctrl
func NewSocketSession(ctrl *Controller, conn *websocket.Conn) *SocketSession {
	logger := log.New(os.Stdout, fmt.Sprintf("[WS %s] ", ctrl.ID()), log.LstdFlags)
	writer := &WebSocketWriter{
		Conn:         conn,
		Logger:       logger,
		WriteTimeout: 10 * time.Second,
	}

	return &SocketSession{
		Controller: ctrl,
		Writer:     writer,
		Logger:     logger,
		conn:       conn,
	}
}

// NewHTTPSession creates an HTTP driver for ctrl
func NewHTTPSession(ctrl *Controller) *HTTPSession {
	logger := log.New(os.Stdout, fmt.Sprintf("[HTTP %s] ", ctrl.ID()), log.LstdFlags)

	return &HTTPSession{
		Controller: ctrl,
		Logger:     logger,
	}
}
