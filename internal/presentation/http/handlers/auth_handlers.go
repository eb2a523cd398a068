// Package handlers provides HTTP handlers for authentication endpoints
package handlers

import (
	"net/http"
	"time"

	"github.com/AtRiskMedia/storyreader-go/internal/application/services"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/performance"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/security"
	"github.com/AtRiskMedia/storyreader-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// AuthHandlers contains all authentication-related HTTP handlers
type AuthHandlers struct {
	authService *services.AuthService
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewAuthHandlers creates auth handlers with injected dependencies
func NewAuthHandlers(authService *services.AuthService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// PostLogin handles POST /api/v1/auth/login - admin authentication
func (h *AuthHandlers) PostLogin(c *gin.Context) {
	start := time.Now()
	marker := h.perfTracker.StartOperation("post_login_request", "admin")
	defer marker.Complete()
	h.logger.Auth().Debug("Received login request", "method", c.Request.Method, "path", c.Request.URL.Path)

	var loginReq struct {
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&loginReq); err != nil {
		h.logger.Auth().Error("Login request JSON binding failed", "error", err.Error())
		marker.SetSuccess(false)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	result := h.authService.AuthenticateAdmin(loginReq.Password)

	if !result.Success {
		h.logger.Auth().Warn("Login attempt failed", "error", result.Error, "duration", time.Since(start))
		marker.SetSuccess(false)
		h.logger.Perf().Info("Performance for PostLogin request", "duration", time.Since(start), "success", false)

		c.JSON(http.StatusUnauthorized, gin.H{"error": result.Error})
		return
	}

	c.SetCookie(
		security.AdminTokenType,
		result.Token,
		int(h.authService.TokenTTL().Seconds()),
		"/",
		"",
		false,
		true,
	)

	h.logger.Auth().Info("Login successful", "role", result.Role, "duration", time.Since(start))
	marker.SetSuccess(true)
	h.logger.Perf().Info("Performance for PostLogin request", "duration", time.Since(start), "success", true)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"role":    result.Role,
		"token":   result.Token,
		"message": "Login successful",
	})
}

// PostLogout handles POST /api/v1/auth/logout - clears the admin cookie
func (h *AuthHandlers) PostLogout(c *gin.Context) {
	c.SetCookie(security.AdminTokenType, "", -1, "/", "", false, true)
	h.logger.Auth().Info("Logout completed")

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Logout successful",
	})
}

// GetAuthStatus handles GET /api/v1/auth/status - reports whether the caller holds admin rights
func (h *AuthHandlers) GetAuthStatus(c *gin.Context) {
	capability := h.authService.CapabilityFor(middleware.AdminToken(c))
	c.JSON(http.StatusOK, gin.H{
		"isAuthenticated": capability.Admin,
		"isAdmin":         capability.Admin,
	})
}
