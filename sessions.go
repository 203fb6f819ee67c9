package sentinel

import (
	"github.com/defendhub/sentinel/sessions"
	"github.com/gorilla/websocket"
)

// Re-export session types so callers only import the root package
type Controller = sessions.Controller
type ControllerConfig = sessions.ControllerConfig
type Event = sessions.Event
type Command = sessions.Command
type Monitor = sessions.Monitor
type Signal = sessions.Signal
type Navigator = sessions.Navigator
type SocketSession = sessions.SocketSession
type HTTPSession = sessions.HTTPSession
type SSEWriter = sessions.SSEWriter

// Re-export constructor functions
func NewController(cfg ControllerConfig) *Controller {
	return sessions.NewController(cfg)
}

func NewSocketSession(ctrl *Controller, conn *websocket.Conn) *SocketSession {
	return sessions.NewSocketSession(ctrl, conn)
}

func NewHTTPSession(ctrl *Controller) *HTTPSession {
	return sessions.NewHTTPSession(ctrl)
}
