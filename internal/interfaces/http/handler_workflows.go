package http

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"project_amharicAI/internal/entities"
	"project_amharicAI/internal/usecases"
)

const defaultExecutionLimit = 20

type executeRequest struct {
	Input json.RawMessage `json:"input"`
}

func (h *Handler) CreateWorkflow(c *gin.Context) {
	var req usecases.CreateWorkflowInput
	if !bindJSON(c, &req) {
		return
	}
	req.Name = SanitizeString(req.Name)

	w, err := h.workflows.Create(c.Request.Context(), companyID(c), req)
	if err != nil {
		h.respondError(c, err, "Failed to create workflow")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "workflow": w})
}

func (h *Handler) ListWorkflows(c *gin.Context) {
	flows, err := h.workflows.List(c.Request.Context(), companyID(c))
	if err != nil {
		h.respondError(c, err, "Failed to retrieve workflows")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "workflows": flows})
}

func (h *Handler) UpdateWorkflow(c *gin.Context) {
	var req entities.WorkflowUpdate
	if !bindJSON(c, &req) {
		return
	}

	w, err := h.workflows.Update(c.Request.Context(), companyID(c), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err, "Failed to update workflow")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "workflow": w})
}

func (h *Handler) DeleteWorkflow(c *gin.Context) {
	if err := h.workflows.Delete(c.Request.Context(), companyID(c), c.Param("id")); err != nil {
		h.respondError(c, err, "Failed to delete workflow")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Workflow deleted successfully"})
}

func (h *Handler) ExecuteWorkflow(c *gin.Context) {
	var req executeRequest
	if !bindJSON(c, &req) {
		return
	}

	exec, err := h.workflows.Execute(c.Request.Context(), companyID(c), c.Param("id"), req.Input)
	if err != nil {
		h.respondError(c, err, "Failed to execute workflow")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"execution": gin.H{
			"id":     exec.ID,
			"status": exec.Status,
			"output": exec.Output,
		},
	})
}

func (h *Handler) ListExecutions(c *gin.Context) {
	page, limit := pageParams(c, defaultExecutionLimit)
	execs, pagination, err := h.workflows.Executions(c.Request.Context(), companyID(c), c.Param("id"), page, limit)
	if err != nil {
		h.respondError(c, err, "Failed to retrieve executions")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"executions": execs,
		"pagination": pagination,
	})
}
