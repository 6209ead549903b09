package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/civic-issue-reporter/internal/service"
	"github.com/iliyamo/civic-issue-reporter/internal/stream"
)

// StreamHandler upgrades authenticated requests to the live issue feed.
type StreamHandler struct {
	Issues *service.IssueService
	Hub    *stream.Hub
}

func NewStreamHandler(s *service.IssueService, hub *stream.Hub) *StreamHandler {
	return &StreamHandler{Issues: s, Hub: hub}
}

// Watch handles GET /api/issues/stream.  It blocks for the lifetime of the
// websocket connection.
func (h *StreamHandler) Watch(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	scope, err := h.Issues.Watch(caller)
	if err != nil {
		return err
	}
	// The upgrader answers its own failures; the response is committed
	// either way.
	if err := h.Hub.Serve(c.Response(), c.Request(), caller.ID, scope); err != nil {
		log.Debug().Err(err).Str("caller_id", caller.ID).Msg("stream upgrade failed")
	}
	return nil
}
