package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"project_amharicAI/internal/usecases"
)

const (
	defaultConversationLimit = 20
	defaultMessageLimit      = 50
)

type createConversationRequest struct {
	Title    string `json:"title"`
	Language string `json:"language" binding:"omitempty,language"`
}

type sendMessageRequest struct {
	Content  string `json:"content" binding:"max=10000"`
	Language string `json:"language" binding:"omitempty,language"`
}

type chatRequest struct {
	Message  string `json:"message" binding:"max=10000"`
	Language string `json:"language" binding:"omitempty,language"`
	Context  string `json:"context" binding:"max=20000"`
}

func (h *Handler) CreateConversation(c *gin.Context) {
	var req createConversationRequest
	if !bindJSON(c, &req) {
		return
	}

	conv, err := h.conversations.Create(c.Request.Context(), companyID(c), TruncateString(SanitizeString(req.Title), MaxTitleLength), req.Language)
	if err != nil {
		h.respondError(c, err, "Failed to create conversation")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "conversation": conv})
}

func (h *Handler) ListConversations(c *gin.Context) {
	page, limit := pageParams(c, defaultConversationLimit)
	convs, err := h.conversations.List(c.Request.Context(), companyID(c), page, limit)
	if err != nil {
		h.respondError(c, err, "Failed to retrieve conversations")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "conversations": convs})
}

func (h *Handler) GetMessages(c *gin.Context) {
	page, limit := pageParams(c, defaultMessageLimit)
	conv, msgs, err := h.conversations.Messages(c.Request.Context(), companyID(c), c.Param("id"), page, limit)
	if err != nil {
		h.respondError(c, err, "Failed to retrieve messages")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"messages":     msgs,
		"conversation": conv,
	})
}

func (h *Handler) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if !bindJSON(c, &req) {
		return
	}

	conversationID := c.Param("id")
	if !h.replies.TryAcquire(companyID(c), conversationID) {
		h.respondError(c, errReplyInProgress, "Failed to process message")
		return
	}
	defer h.replies.Release(companyID(c), conversationID)

	result, err := h.messages.ProcessMessage(c.Request.Context(), usecases.SendMessageInput{
		CompanyID:      companyID(c),
		ConversationID: conversationID,
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

func (h *Handler) DeleteConversation(c *gin.Context) {
	if err := h.conversations.Delete(c.Request.Context(), companyID(c), c.Param("id")); err != nil {
		h.respondError(c, err, "Failed to delete conversation")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Conversation deleted successfully"})
}

// Chat is the stateless single-shot endpoint. Nothing is stored.
func (h *Handler) Chat(c *gin.Context) {
	var req chatRequest
	if !bindJSON(c, &req) {
		return
	}

	reply, lang, err := h.messages.Chat(c.Request.Context(), SanitizeString(req.Message), req.Language, SanitizeString(req.Context))
	if err != nil {
		h.respondError(c, err, "Failed to process chat request")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"response": reply,
		"language": lang,
	})
}
