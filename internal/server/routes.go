package server

import (
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
)

// registerRoutes sets up all routes on the Gin router.
func (s *Server) registerRoutes() {
	r := s.router

	// Embedded static assets (served from assets/ subdir of the embed.FS).
	staticFS, _ := fs.Sub(assetsFS, "assets")
	r.StaticFS("/static", http.FS(staticFS))

	// Pages.
	r.GET("/login", s.handleLoginPage)
	r.POST("/login", s.handleLogin)
	r.POST("/logout", s.handleLogout)
	pages := r.Group("", requireLogin())
	pages.GET("/", s.handleIndex)
	pages.GET("/workspace", s.handleWorkspace)

	// Mock backend.
	r.GET("/users", s.handleUsers)
	api := r.Group("/api")
	api.GET("/containers", s.handleListContainers)
	api.POST("/containers", s.handleCreateContainer)
	api.GET("/containers/:id", s.handleGetContainer)
	api.PATCH("/containers/:id", s.handlePatchContainer)
	api.DELETE("/containers/:id", s.handleDeleteContainer)
	api.POST("/containers/:id/:action", s.handleContainerAction)
	api.GET("/courses", s.handleListCourses)
	api.POST("/courses", s.handleAddCourse)
	api.POST("/chat", s.handleChatCompletion)

	// Copilot.
	cp := r.Group("/copilot", requireLoginAPI())
	cp.GET("/sessions", s.handleSessions)
	cp.POST("/sessions", s.handleNewConversation)
	cp.POST("/sessions/:key/switch", s.handleSwitchSession)
	cp.GET("/messages", s.handleMessages)
	cp.POST("/messages", s.handleSubmit)
	cp.POST("/cancel", s.handleCancel)
	cp.GET("/events", s.handleEvents)
}

// jsonError writes the error body shared by every JSON endpoint.
func jsonError(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"success": false, "message": msg})
}
