// Package middleware provides HTTP middleware for the presentation layer.
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// SessionHeader carries the anonymous reader session id.
	SessionHeader = "X-Reader-Session-ID"

	sessionKey = "readerSession"
)

// SessionMiddleware copies the reader session id from the header, or from the
// session query parameter for websocket upgrades, into the gin context. It does
// not reject requests; engagement writes validate the id themselves.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := strings.TrimSpace(c.GetHeader(SessionHeader))
		if session == "" {
			session = strings.TrimSpace(c.Query("session"))
		}
		c.Set(sessionKey, session)
		c.Next()
	}
}

// GetSession returns the reader session id for the request, or "".
func GetSession(c *gin.Context) string {
	return c.GetString(sessionKey)
}
