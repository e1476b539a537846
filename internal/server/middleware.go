package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	loggedInCookie  = "isLoggedIn"
)

// requestID tags every request with an ID, reusing the caller's header
// when present.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// requestLogger writes one zerolog line per request.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		ev := log.Debug()
		if c.Writer.Status() >= http.StatusInternalServerError {
			ev = log.Error()
		}
		ev.Str(requestIDKey, c.GetString(requestIDKey)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("server: request")
	}
}

// requireLogin redirects to the login page unless the logged-in cookie
// is set.
func requireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if on, _ := (cookieFlags{c: c}).LoggedIn(); !on {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// cookieFlags stores the logged-in flag in the isLoggedIn cookie of the
// current request.
type cookieFlags struct {
	c *gin.Context
}

func (f cookieFlags) LoggedIn() (bool, error) {
	v, err := f.c.Cookie(loggedInCookie)
	if err != nil {
		return false, nil
	}
	return v == "true", nil
}

func (f cookieFlags) SetLoggedIn(on bool) error {
	if on {
		f.c.SetCookie(loggedInCookie, "true", 0, "/", "", false, false)
		return nil
	}
	f.c.SetCookie(loggedInCookie, "", -1, "/", "", false, false)
	return nil
}

// requireLoginAPI is requireLogin for JSON endpoints: it answers 401
// instead of redirecting.
func requireLoginAPI() gin.HandlerFunc {
	return func(c *gin.Context) {
		if on, _ := (cookieFlags{c: c}).LoggedIn(); !on {
			jsonError(c, http.StatusUnauthorized, "login required")
			c.Abort()
			return
		}
		c.Next()
	}
}
