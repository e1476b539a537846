package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/zulandar/educode/internal/chat"
	"github.com/zulandar/educode/internal/stream"
)

// heartbeatInterval is how often idle event streams send a heartbeat.
const heartbeatInterval = 15 * time.Second

// copilotError maps copilot errors to HTTP responses.
func copilotError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, chat.ErrUnknownSession):
		jsonError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, chat.ErrEmptyMessage):
		jsonError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, chat.ErrRequestInFlight),
		errors.Is(err, chat.ErrAlreadyNew),
		errors.Is(err, chat.ErrSwitching):
		jsonError(c, http.StatusConflict, errors.Cause(err).Error())
	default:
		jsonError(c, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) copilotState() gin.H {
	return gin.H{
		"current":    s.copilot.Current(),
		"state":      s.copilot.State().String(),
		"requesting": s.copilot.Requesting(),
		"sessions":   s.copilot.Sessions(),
		"prompts":    chat.Prompts(),
	}
}

func (s *Server) handleSessions(c *gin.Context) {
	c.JSON(http.StatusOK, s.copilotState())
}

func (s *Server) handleNewConversation(c *gin.Context) {
	sess, err := s.copilot.NewConversation(c.Request.Context())
	if err != nil {
		copilotError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": sess})
}

func (s *Server) handleSwitchSession(c *gin.Context) {
	if err := s.copilot.SwitchSession(c.Request.Context(), c.Param("key")); err != nil {
		copilotError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": s.copilot.Messages()})
}

func (s *Server) handleMessages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": s.copilot.Messages()})
}

func (s *Server) handleCancel(c *gin.Context) {
	s.copilot.Cancel()
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// handleSubmit sends a message and streams Update snapshots until the
// request settles. The request outlives the HTTP stream: closing the
// connection does not abort it.
func (s *Server) handleSubmit(c *gin.Context) {
	var body struct {
		Text   string `json:"text"`
		Action string `json:"action"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid body")
		return
	}
	text := body.Text
	if q, ok := chat.QuickActions[body.Action]; ok && text == "" {
		text = q
	}

	updates, stop := s.copilot.Subscribe()
	defer stop()

	reqCtx := context.WithoutCancel(c.Request.Context())
	if err := s.copilot.Submit(reqCtx, text); err != nil {
		copilotError(c, err)
		return
	}

	stream.SetHeaders(c.Writer.Header())
	c.Status(http.StatusOK)
	s.streamUpdates(c, updates, true)
}

// handleEvents streams every Update until the client disconnects.
func (s *Server) handleEvents(c *gin.Context) {
	updates, stop := s.copilot.Subscribe()
	defer stop()

	stream.SetHeaders(c.Writer.Header())
	c.Status(http.StatusOK)
	if err := stream.Write(c.Writer, "connected", gin.H{"type": "connected"}); err != nil {
		return
	}
	s.streamUpdates(c, updates, false)
}

// streamUpdates relays snapshots as "update" events. With untilSettled
// it returns once a snapshot shows no request in flight.
func (s *Server) streamUpdates(c *gin.Context, updates <-chan chat.Update, untilSettled bool) {
	ctx := c.Request.Context()
	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			if err := stream.Write(c.Writer, "heartbeat", gin.H{
				"timestamp": s.now().UTC().Format(time.RFC3339),
			}); err != nil {
				return
			}
		case u, ok := <-updates:
			if !ok {
				return
			}
			if err := stream.Write(c.Writer, "update", u); err != nil {
				log.Debug().Err(err).Msg("server: copilot stream write")
				return
			}
			if untilSettled && !u.Requesting {
				return
			}
		}
	}
}
