package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"project_amharicAI/internal/entities"
	"project_amharicAI/internal/usecases"
)

const uploadField = "document"

func (h *Handler) UploadDocument(c *gin.Context) {
	fh, err := c.FormFile(uploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "File too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		h.respondError(c, err, "Failed to upload document")
		return
	}
	defer f.Close()

	doc, err := h.documents.Upload(c.Request.Context(), usecases.UploadInput{
		CompanyID:    companyID(c),
		OriginalName: fh.Filename,
		ContentType:  fh.Header.Get("Content-Type"),
		Size:         fh.Size,
		File:         f,
		Language:     c.PostForm("language"),
	})
	if err != nil {
		h.respondError(c, err, "Failed to upload document")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"document": gin.H{
			"id":           doc.ID,
			"originalName": doc.OriginalName,
			"fileType":     doc.MimeType,
			"fileSize":     doc.FileSize,
			"language":     doc.Language,
			"createdAt":    doc.CreatedAt,
		},
	})
}

func (h *Handler) ListDocuments(c *gin.Context) {
	page, limit := pageParams(c, defaultLimit)
	filter := entities.DocumentFilter{
		Search:   c.Query("search"),
		Language: c.Query("language"),
		Page:     page,
		Limit:    limit,
	}

	docs, pagination, err := h.documents.List(c.Request.Context(), companyID(c), filter)
	if err != nil {
		h.respondError(c, err, "Failed to retrieve documents")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"documents":  docs,
		"pagination": pagination,
	})
}

func (h *Handler) GetDocument(c *gin.Context) {
	doc, err := h.documents.Get(c.Request.Context(), companyID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Failed to retrieve document")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "document": doc})
}

func (h *Handler) DeleteDocument(c *gin.Context) {
	if err := h.documents.Delete(c.Request.Context(), companyID(c), c.Param("id")); err != nil {
		h.respondError(c, err, "Failed to delete document")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Document deleted successfully"})
}
