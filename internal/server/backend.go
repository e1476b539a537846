package server

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/zulandar/educode/internal/account"
	"github.com/zulandar/educode/internal/container"
	"github.com/zulandar/educode/internal/course"
	"github.com/zulandar/educode/internal/models"
	"github.com/zulandar/educode/internal/workspace"
)

// handleUsers answers the login check: 200 for a matching pair, 401
// otherwise.
func (s *Server) handleUsers(c *gin.Context) {
	username, password := c.Query("username"), c.Query("password")
	if username == "" || password == "" {
		jsonError(c, http.StatusBadRequest, "username and password are required")
		return
	}
	u, err := account.Authenticate(s.db.WithContext(c.Request.Context()), username, password)
	if errors.Is(err, account.ErrMismatch) {
		jsonError(c, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("server: users")
		jsonError(c, http.StatusInternalServerError, "login check failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"username": u.Username}})
}

// containerError maps container package errors to HTTP responses.
func containerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, container.ErrNotFound):
		jsonError(c, http.StatusNotFound, "container not found")
	case errors.Is(err, container.ErrInvalidField):
		jsonError(c, http.StatusBadRequest, err.Error())
	default:
		log.Error().Err(err).Str("container", c.Param("id")).Msg("server: container")
		jsonError(c, http.StatusInternalServerError, "container operation failed")
	}
}

func (s *Server) withAgo(ct *models.Container) *models.Container {
	ct.LastRunAgo = workspace.TimeAgo(ct.LastRunAt, s.now())
	return ct
}

func (s *Server) handleListContainers(c *gin.Context) {
	cs, err := container.List(s.db)
	if err != nil {
		containerError(c, err)
		return
	}
	for i := range cs {
		s.withAgo(&cs[i])
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": cs})
}

func (s *Server) handleGetContainer(c *gin.Context) {
	ct, err := container.Get(s.db, c.Param("id"))
	if err != nil {
		containerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": s.withAgo(ct)})
}

func (s *Server) handleCreateContainer(c *gin.Context) {
	var body struct {
		Name        string   `json:"name"`
		Description string   `json:"description"`
		Tags        []string `json:"tags"`
	}
	if c.Request.Body != nil && c.Request.Body != http.NoBody {
		if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
			jsonError(c, http.StatusBadRequest, "invalid body")
			return
		}
	}
	ct, err := container.Create(s.db, container.CreateOpts{Name: body.Name, Description: body.Description, Tags: body.Tags})
	if err != nil {
		containerError(c, err)
		return
	}
	log.Info().Str("container", ct.ID).Msg("server: container created")
	c.JSON(http.StatusOK, gin.H{"success": true, "data": s.withAgo(ct)})
}

// handlePatchContainer applies a single-field update.
func (s *Server) handlePatchContainer(c *gin.Context) {
	var body map[string]json.RawMessage
	if err := c.ShouldBindJSON(&body); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid body")
		return
	}
	if len(body) != 1 {
		jsonError(c, http.StatusBadRequest, "exactly one field must be updated")
		return
	}
	for field, raw := range body {
		if _, err := container.Update(s.db, c.Param("id"), field, raw); err != nil {
			containerError(c, err)
			return
		}
		log.Info().Str("container", c.Param("id")).Str("field", field).Msg("server: container updated")
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleDeleteContainer(c *gin.Context) {
	if err := container.Delete(s.db, c.Param("id")); err != nil {
		containerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// handleContainerAction runs start, stop or restart. A restart settles
// back to running after the configured delay.
func (s *Server) handleContainerAction(c *gin.Context) {
	id, action := c.Param("id"), c.Param("action")
	if _, ok := container.ValidTransitions[action]; !ok {
		jsonError(c, http.StatusBadRequest, "unknown action "+action)
		return
	}
	ct, err := container.Transition(s.db, id, action, s.now())
	if err != nil {
		containerError(c, err)
		return
	}
	if action == "restart" {
		s.scheduleRestart(id, s.cfg.Server.RestartDelay)
	}
	log.Info().Str("container", id).Str("action", action).Msg("server: container action")
	c.JSON(http.StatusOK, gin.H{"success": true, "data": s.withAgo(ct)})
}

// scheduleRestart flips a restarting container to running after delay.
func (s *Server) scheduleRestart(id string, delay time.Duration) {
	time.AfterFunc(delay, func() {
		if err := container.FinishRestart(s.db, id); err != nil {
			log.Error().Err(err).Str("container", id).Msg("server: finish restart")
		}
	})
}

func (s *Server) handleListCourses(c *gin.Context) {
	cs, err := course.List(s.db)
	if err != nil {
		log.Error().Err(err).Msg("server: courses")
		jsonError(c, http.StatusInternalServerError, "could not load courses")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": cs})
}

func (s *Server) handleAddCourse(c *gin.Context) {
	card, err := course.AddCard(s.db)
	if err != nil {
		log.Error().Err(err).Msg("server: add course")
		jsonError(c, http.StatusInternalServerError, "could not add course")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": card})
}
