package middleware

import (
	"net/http"
	"strings"

	"github.com/AtRiskMedia/storyreader-go/internal/domain/authoring"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/security"
	"github.com/gin-gonic/gin"
)

const capabilityKey = "capability"

// CapabilityResolver turns a bearer token into an authoring capability.
type CapabilityResolver interface {
	CapabilityFor(token string) authoring.Capability
}

// AdminToken extracts the admin token from the Authorization header, falling
// back to the admin_auth cookie.
func AdminToken(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	if cookie, err := c.Cookie(security.AdminTokenType); err == nil {
		return cookie
	}
	return ""
}

// AdminMiddleware rejects requests that do not carry a valid admin token and
// stores the capability for handlers.
func AdminMiddleware(resolver CapabilityResolver, logger *logging.ChanneledLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		capability := resolver.CapabilityFor(AdminToken(c))
		if !capability.Admin {
			logger.Auth().Warn("Admin route rejected", "path", c.Request.URL.Path, "method", c.Request.Method)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "admin authentication required"})
			c.Abort()
			return
		}
		c.Set(capabilityKey, capability)
		c.Next()
	}
}

// GetCapability returns the capability stored by AdminMiddleware. Requests that
// did not pass through it get a capability without admin rights.
func GetCapability(c *gin.Context) authoring.Capability {
	if v, ok := c.Get(capabilityKey); ok {
		if capability, ok := v.(authoring.Capability); ok {
			return capability
		}
	}
	return authoring.Capability{}
}
