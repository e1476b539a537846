package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/zulandar/educode/internal/account"
	"github.com/zulandar/educode/internal/auth"
	"github.com/zulandar/educode/internal/chat"
	"github.com/zulandar/educode/internal/container"
	"github.com/zulandar/educode/internal/course"
	"github.com/zulandar/educode/internal/workspace"
)

// dbVerifier checks credentials against the users table directly.
type dbVerifier struct {
	db *gorm.DB
}

func (v dbVerifier) Verify(ctx context.Context, username, password string) error {
	_, err := account.Authenticate(v.db.WithContext(ctx), username, password)
	if errors.Is(err, account.ErrMismatch) {
		return auth.ErrInvalidCredentials
	}
	return err
}

// loginMessage turns a login error into the text shown on the form.
func loginMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrInvalidMobile):
		return "Please enter a valid mobile number"
	case errors.Is(err, auth.ErrMissingField):
		return "Please fill in every field"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Invalid username or password"
	default:
		return "Login failed, please try again"
	}
}

// wantsJSON reports whether the client posted JSON.
func wantsJSON(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "application/json")
}

func (s *Server) handleLoginPage(c *gin.Context) {
	mode := c.DefaultQuery("mode", string(auth.ModeAccount))
	c.HTML(http.StatusOK, "login.html", gin.H{
		"page":    "login",
		"mode":    mode,
		"captcha": auth.DemoCaptcha,
	})
}

func (s *Server) handleLogin(c *gin.Context) {
	var creds auth.Credentials
	if err := c.ShouldBind(&creds); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid login form")
		return
	}

	flow, err := auth.NewFlow(auth.FlowOpts{Verifier: dbVerifier{db: s.db}, Flags: cookieFlags{c: c}})
	if err != nil {
		jsonError(c, http.StatusInternalServerError, err.Error())
		return
	}
	res, err := flow.Login(c.Request.Context(), creds)
	if err != nil {
		msg := loginMessage(err)
		if wantsJSON(c) {
			jsonError(c, http.StatusUnauthorized, msg)
			return
		}
		c.HTML(http.StatusUnauthorized, "login.html", gin.H{
			"page":    "login",
			"mode":    string(creds.Mode),
			"captcha": auth.DemoCaptcha,
			"error":   msg,
		})
		return
	}

	if wantsJSON(c) {
		c.JSON(http.StatusOK, gin.H{"success": true, "redirect": res.Redirect, "message": res.Message})
		return
	}
	c.Redirect(http.StatusSeeOther, res.Redirect)
}

func (s *Server) handleLogout(c *gin.Context) {
	_ = cookieFlags{c: c}.SetLoggedIn(false)
	c.Redirect(http.StatusSeeOther, "/login")
}

func (s *Server) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"page":     "copilot",
		"sessions": s.copilot.Sessions(),
		"prompts":  chat.Prompts(),
		"actions":  chat.QuickActions,
	})
}

func (s *Server) handleWorkspace(c *gin.Context) {
	containers, err := container.List(s.db)
	if err != nil {
		log.Error().Err(err).Msg("server: workspace containers")
	}
	now := s.now()
	for i := range containers {
		containers[i].LastRunAgo = workspace.TimeAgo(containers[i].LastRunAt, now)
	}
	courses, err := course.List(s.db)
	if err != nil {
		log.Error().Err(err).Msg("server: workspace courses")
	}
	c.HTML(http.StatusOK, "workspace.html", gin.H{
		"page":       "workspace",
		"containers": containers,
		"courses":    courses,
	})
}
