package handlers

import (
	"net/http"

	"github.com/AtRiskMedia/storyreader-go/internal/application/services"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/logging"
	"github.com/gin-gonic/gin"
)

// ContactHandlers accepts contact form submissions
type ContactHandlers struct {
	contact *services.ContactService
	logger  *logging.ChanneledLogger
}

// NewContactHandlers creates contact handlers with injected dependencies
func NewContactHandlers(contact *services.ContactService, logger *logging.ChanneledLogger) *ContactHandlers {
	return &ContactHandlers{contact: contact, logger: logger}
}

// PostContact handles POST /api/v1/contact
func (h *ContactHandlers) PostContact(c *gin.Context) {
	var input services.ContactInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	if err := h.contact.Send(c.Request.Context(), input); err != nil {
		respondError(c, h.logger, logging.ChannelSystem, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"success": true})
}
