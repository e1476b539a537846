// Package server hosts the Educode web app: the mock backend API, the
// guarded pages, and the copilot API.
package server

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/zulandar/educode/internal/chat"
	"github.com/zulandar/educode/internal/config"
)

// StartOpts holds configuration for the web server.
type StartOpts struct {
	DB      *gorm.DB
	Config  *config.Config
	Copilot *chat.Copilot
	Out     io.Writer
	Now     func() time.Time // defaults to time.Now
}

// Server is the assembled gin application.
type Server struct {
	db      *gorm.DB
	cfg     *config.Config
	copilot *chat.Copilot
	now     func() time.Time
	router  *gin.Engine
}

// New validates opts and builds the router.
func New(opts StartOpts) (*Server, error) {
	if opts.DB == nil {
		return nil, errors.New("server: db is required")
	}
	if opts.Config == nil {
		return nil, errors.New("server: config is required")
	}
	if opts.Copilot == nil {
		return nil, errors.New("server: copilot is required")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestID(), requestLogger())

	tmpl, err := parseTemplates()
	if err != nil {
		return nil, errors.Wrap(err, "server")
	}
	router.SetHTMLTemplate(tmpl)

	s := &Server{db: opts.DB, cfg: opts.Config, copilot: opts.Copilot, now: now, router: router}
	s.registerRoutes()
	return s, nil
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start launches the web server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	s, err := New(opts)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler: s.router,
	}

	go s.runRegroupScheduler(ctx, s.cfg.Chat.RegroupCron)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("server: shutdown")
		}
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Educode running at http://localhost:%d\n", s.cfg.Server.Port)
	}
	log.Info().Int("port", s.cfg.Server.Port).Msg("server: listening")

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "server")
	}
	s.copilot.Cancel()
	s.copilot.Wait()
	return nil
}

// parseTemplates loads the embedded HTML templates.
func parseTemplates() (*template.Template, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "parse templates")
	}
	return tmpl, nil
}
