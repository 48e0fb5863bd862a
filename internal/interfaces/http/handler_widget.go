package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"project_amharicAI/internal/usecases"
)

type startWidgetRequest struct {
	VisitorID string `json:"visitorId" binding:"omitempty,visitorid"`
	Language  string `json:"language" binding:"omitempty,language"`
}

type widgetMessageRequest struct {
	Content   string `json:"content" binding:"max=10000"`
	VisitorID string `json:"visitorId" binding:"omitempty,visitorid"`
	Language  string `json:"language" binding:"omitempty,language"`
}

func (h *Handler) WidgetConfig(c *gin.Context) {
	cfg, err := h.widgets.Config(c.Request.Context(), companyID(c))
	if err != nil {
		h.respondError(c, err, "Failed to retrieve widget configuration")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "config": cfg})
}

// StartWidgetConversation resumes the visitor's conversation or starts one.
func (h *Handler) StartWidgetConversation(c *gin.Context) {
	var req startWidgetRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := h.widgets.StartConversation(c.Request.Context(), companyID(c), req.VisitorID, req.Language)
	if err != nil {
		h.respondError(c, err, "Failed to initialize conversation")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"conversationId": session.ConversationID,
		"messages":       session.Messages,
	})
}

func (h *Handler) SendWidgetMessage(c *gin.Context) {
	var req widgetMessageRequest
	if !bindJSON(c, &req) {
		return
	}

	conversationID := c.Param("id")
	if !h.replies.TryAcquire(companyID(c), conversationID) {
		h.respondError(c, errReplyInProgress, "Failed to process message")
		return
	}
	defer h.replies.Release(companyID(c), conversationID)

	result, err := h.widgets.SendMessage(c.Request.Context(), usecases.WidgetMessageInput{
		CompanyID:      companyID(c),
		ConversationID: conversationID,
		VisitorID:      req.VisitorID,
		Content:        SanitizeString(req.Content),
		Language:       req.Language,
	})
	if err != nil {
		h.respondError(c, err, "Failed to process message")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"userMessage": result.UserMessage,
		"aiMessage":   result.AIMessage,
	})
}
