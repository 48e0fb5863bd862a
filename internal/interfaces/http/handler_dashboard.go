package http

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"project_amharicAI/internal/entities"
	"project_amharicAI/internal/usecases"
)

const (
	defaultActivityLimit = 20
	defaultPeriodDays    = 30
)

// DashboardStats returns the tenant overview for the last 30 days
func (h *Handler) DashboardStats(c *gin.Context) {
	stats, err := h.dashboard.Stats(c.Request.Context(), companyID(c))
	if err != nil {
		h.respondError(c, err, "Failed to retrieve dashboard statistics")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": stats})
}

func (h *Handler) DashboardActivities(c *gin.Context) {
	limit := min(queryInt(c, "limit", defaultActivityLimit), maxLimit)
	activities, err := h.dashboard.Activities(c.Request.Context(), companyID(c), limit)
	if err != nil {
		h.respondError(c, err, "Failed to retrieve activities")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "activities": activities})
}

func (h *Handler) DashboardAnalytics(c *gin.Context) {
	period := min(queryInt(c, "period", defaultPeriodDays), 365)
	analytics, err := h.dashboard.Analytics(c.Request.Context(), companyID(c), period)
	if err != nil {
		h.respondError(c, err, "Failed to retrieve analytics")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "analytics": analytics})
}

// ExportData returns one export type as JSON, or documents as CSV when format=csv.
func (h *Handler) ExportData(c *gin.Context) {
	exportType := usecases.ExportType(c.DefaultQuery("type", string(usecases.ExportDocuments)))
	data, count, err := h.dashboard.Export(c.Request.Context(), companyID(c), exportType)
	if err != nil {
		h.respondError(c, err, "Failed to export data")
		return
	}

	if c.Query("format") == "csv" && exportType == usecases.ExportDocuments {
		docs, _ := data.([]entities.ExportedDocument)
		var buf bytes.Buffer
		if err := usecases.WriteDocumentsCSV(&buf, docs); err != nil {
			h.respondError(c, err, "Failed to export data")
			return
		}
		c.Header("Content-Disposition", `attachment; filename="documents_export.csv"`)
		c.Data(http.StatusOK, "text/csv", buf.Bytes())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       data,
		"exportedAt": time.Now().UTC(),
		"type":       exportType,
		"count":      count,
	})
}

// GetWidgetSettings returns the full settings plus the embed snippet for the dashboard.
func (h *Handler) GetWidgetSettings(c *gin.Context) {
	settings, err := h.widgets.Settings(c.Request.Context(), companyID(c))
	if err != nil {
		h.respondError(c, err, "Failed to retrieve widget settings")
		return
	}

	apiKey := ""
	if company := currentCompany(c); company != nil {
		apiKey = company.APIKey
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"settings":   settings,
		"embedCode":  h.widgets.EmbedSnippet(apiKey),
		"previewUrl": h.widgets.PreviewURL(apiKey),
	})
}

func (h *Handler) UpdateWidgetSettings(c *gin.Context) {
	var req entities.WidgetSettingsUpdate
	if !bindJSON(c, &req) {
		return
	}

	settings, err := h.widgets.UpdateSettings(c.Request.Context(), companyID(c), req)
	if err != nil {
		h.respondError(c, err, "Failed to update widget settings")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "settings": settings})
}

// WidgetQRCode renders the widget preview link as a PNG
func (h *Handler) WidgetQRCode(c *gin.Context) {
	png, err := h.widgets.QRCode(c.Request.Context(), companyID(c))
	if err != nil {
		h.respondError(c, err, "Failed to generate QR code")
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
