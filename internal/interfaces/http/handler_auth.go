package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Name     string `json:"name" binding:"max=255"`
	Email    string `json:"email" binding:"omitempty,email,max=255"`
	Password string `json:"password" binding:"max=72"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.auth.Register(c.Request.Context(), SanitizeString(req.Name), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err, "Internal server error")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"token":   result.Token,
		"company": result.Company,
	})
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err, "Internal server error")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   result.Token,
		"company": result.Company,
	})
}

func (h *Handler) Profile(c *gin.Context) {
	company, err := h.auth.Profile(c.Request.Context(), companyID(c))
	if err != nil {
		h.respondError(c, err, "Internal server error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "company": company})
}

func (h *Handler) RefreshAPIKey(c *gin.Context) {
	apiKey, err := h.auth.RefreshAPIKey(c.Request.Context(), companyID(c))
	if err != nil {
		h.respondError(c, err, "Internal server error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "apiKey": apiKey})
}
