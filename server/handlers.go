package server

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/defendhub/sentinel/models"
	"github.com/defendhub/sentinel/models/knowledge"
	"github.com/defendhub/sentinel/sessions"
	"github.com/defendhub/sentinel/stores"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type handlers struct {
	registry      *Registry
	store         stores.Store
	kb            *knowledge.Base
	logger        *log.Logger
	submitTimeout time.Duration
	upgrader      websocket.Upgrader
}

func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, models.ErrInvalidMessage), errors.Is(err, models.ErrInvalidRoute):
		status = http.StatusBadRequest
	}
	c.JSON(status, models.ErrorResponse{Error: err.Error()})
}

// bindOptionalJSON accepts an empty body as the zero value.
func bindOptionalJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return false
	}
	return true
}

func (h *handlers) controller(c *gin.Context) (*sessions.Controller, bool) {
	ctrl, err := h.registry.Get(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return ctrl, true
}

// createSession godoc
// @Summary  Create a widget session
// @Tags     widget
// @Accept   json
// @Produce  json
// @Param    request body models.CreateSessionRequest false "Initial connectivity"
// @Success  201 {object} models.CreateSessionResponse
// @Router   /widget/sessions [post]
func (h *handlers) createSession(c *gin.Context) {
	var req models.CreateSessionRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	online := true
	if req.Online != nil {
		online = *req.Online
	}

	ctrl := h.registry.Create(online)
	c.JSON(http.StatusCreated, models.CreateSessionResponse{
		SessionID: ctrl.ID(),
		State:     ctrl.State(),
	})
}

// getSession godoc
// @Summary  Get the state of a widget session
// @Tags     widget
// @Produce  json
// @Param    id path string true "Session ID"
// @Success  200 {object} models.WidgetState
// @Failure  404 {object} models.ErrorResponse
// @Router   /widget/sessions/{id} [get]
func (h *handlers) getSession(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ctrl.State())
}

// deleteSession godoc
// @Summary  Stop and discard a widget session
// @Tags     widget
// @Param    id path string true "Session ID"
// @Success  204
// @Failure  404 {object} models.ErrorResponse
// @Router   /widget/sessions/{id} [delete]
func (h *handlers) deleteSession(c *gin.Context) {
	if err := h.registry.Remove(c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// visibility godoc
// @Summary  Apply a visibility trigger
// @Tags     widget
// @Accept   json
// @Produce  json
// @Param    id      path string                   true "Session ID"
// @Param    request body models.VisibilityRequest true "Trigger"
// @Success  200 {object} models.WidgetState
// @Failure  409 {object} models.ErrorResponse
// @Router   /widget/sessions/{id}/visibility [post]
func (h *handlers) visibility(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	var req models.VisibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	if _, err := ctrl.Transition(sessions.Trigger(req.Trigger)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ctrl.State())
}

// openSignal godoc
// @Summary  Fire the external open-chat signal
// @Tags     widget
// @Param    id path string true "Session ID"
// @Success  202
// @Router   /widget/sessions/{id}/open [post]
func (h *handlers) openSignal(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	ctrl.Signal().Fire()
	c.Status(http.StatusAccepted)
}

// input godoc
// @Summary  Replace the input box contents
// @Tags     widget
// @Accept   json
// @Param    id      path string              true "Session ID"
// @Param    request body models.InputRequest true "Input"
// @Success  204
// @Router   /widget/sessions/{id}/input [put]
func (h *handlers) input(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	var req models.InputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	ctrl.SetInput(req.Text)
	c.Status(http.StatusNoContent)
}

// submit godoc
// @Summary  Submit the input (or the given text)
// @Tags     widget
// @Accept   json
// @Produce  json
// @Param    id      path string               true  "Session ID"
// @Param    request body models.SubmitRequest false "Submission"
// @Success  200 {object} models.SubmitResponse
// @Success  202 {object} models.SubmitResponse
// @Failure  504 {object} models.SubmitResponse
// @Router   /widget/sessions/{id}/submit [post]
func (h *handlers) submit(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	var req models.SubmitRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	if !req.Wait {
		var (
			user     models.Message
			accepted bool
		)
		if req.Text != "" {
			user, accepted = ctrl.SubmitText(req.Text)
		} else {
			user, accepted = ctrl.Submit()
		}
		resp := models.SubmitResponse{Accepted: accepted}
		if accepted {
			resp.UserMessage = &user
		}
		c.JSON(http.StatusAccepted, resp)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.submitTimeout)
	defer cancel()
	resp, err := sessions.NewHTTPSession(ctrl).SubmitAndWait(ctx, req.Text)
	switch {
	case err != nil && errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, resp)
	case err != nil:
		h.logger.Printf("Submit on %s failed: %v", ctrl.ID(), err)
		c.JSON(http.StatusServiceUnavailable, resp)
	case !resp.Accepted:
		c.JSON(http.StatusAccepted, resp)
	default:
		c.JSON(http.StatusOK, resp)
	}
}

// connectivity godoc
// @Summary  Report browser connectivity
// @Tags     widget
// @Accept   json
// @Produce  json
// @Param    id      path string                     true "Session ID"
// @Param    request body models.ConnectivityRequest true "Connectivity"
// @Success  200 {object} models.WidgetState
// @Router   /widget/sessions/{id}/connectivity [post]
func (h *handlers) connectivity(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	var req models.ConnectivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	ctrl.Monitor().Set(req.Online)
	c.JSON(http.StatusOK, ctrl.State())
}

// activateAction godoc
// @Summary  Activate the navigation action of a message
// @Tags     widget
// @Accept   json
// @Produce  json
// @Param    id        path string               true  "Session ID"
// @Param    messageID path string               true  "Message ID"
// @Param    request   body models.ActionRequest false "Viewport"
// @Success  200 {object} models.ActionResponse
// @Failure  400 {object} models.ErrorResponse
// @Router   /widget/sessions/{id}/messages/{messageID}/action [post]
func (h *handlers) activateAction(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	var req models.ActionRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	path, vis, err := ctrl.ActivateAction(c.Param("messageID"), req.NarrowViewport)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ActionResponse{Path: path, Visibility: string(vis)})
}

// GinSSEWriter implements sessions.SSEWriter for a gin context
type GinSSEWriter struct {
	Context *gin.Context
}

func (w *GinSSEWriter) WriteEvent(ev sessions.Event) error {
	w.Context.SSEvent(string(ev.Type), ev)
	return w.Context.Err()
}

func (w *GinSSEWriter) Flush() {
	w.Context.Writer.Flush()
}

// events godoc
// @Summary  Stream widget events (SSE)
// @Tags     widget
// @Produce  text/event-stream
// @Param    id path string true "Session ID"
// @Router   /widget/sessions/{id}/events [get]
func (h *handlers) events(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	detach, err := h.registry.Attach(ctrl.ID())
	if err != nil {
		writeError(c, err)
		return
	}
	defer detach()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	s := sessions.NewHTTPSession(ctrl)
	if err := s.StreamEvents(c.Request.Context(), &GinSSEWriter{Context: c}); err != nil {
		h.logger.Printf("Event stream for %s ended: %v", ctrl.ID(), err)
	}
}

// liveChannel godoc
// @Summary  Live widget channel (WebSocket)
// @Tags     widget
// @Param    id path string true "Session ID"
// @Router   /widget/sessions/{id}/ws [get]
func (h *handlers) liveChannel(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	detach, err := h.registry.Attach(ctrl.ID())
	if err != nil {
		writeError(c, err)
		return
	}
	defer detach()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	if err := sessions.NewSocketSession(ctrl, conn).Run(c.Request.Context()); err != nil {
		h.logger.Printf("WebSocket session %s ended: %v", ctrl.ID(), err)
	}
}

// contact godoc
// @Summary  Submit a contact inquiry
// @Tags     contact
// @Accept   json
// @Produce  json
// @Param    request body models.ContactRequest true "Inquiry"
// @Success  201 {object} models.ContactResponse
// @Failure  400 {object} models.ErrorResponse
// @Router   /contact [post]
func (h *handlers) contact(c *gin.Context) {
	var req models.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	service := strings.TrimSpace(req.Service)
	if service != "" && service != knowledge.GeneralInquiry && !h.kb.HasService(service) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "unknown service: " + service})
		return
	}

	inquiry := &stores.ContactInquiry{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.TrimSpace(req.Email),
		Service: service,
		Message: strings.TrimSpace(req.Message),
	}
	if err := h.store.SaveInquiry(inquiry); err != nil {
		h.logger.Printf("Failed to save inquiry: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to save inquiry"})
		return
	}
	c.JSON(http.StatusCreated, models.ContactResponse{ID: inquiry.ID, CreatedAt: inquiry.CreatedAt})
}

func (h *handlers) healthz(c *gin.Context) {
	if err := h.store.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": h.registry.Len()})
}
