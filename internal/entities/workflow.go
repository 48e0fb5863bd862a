package entities

import (
	"encoding/json"
	"time"

	"project_amharicAI/internal/apperrors"
)

type ExecutionStatus string

const (
	ExecutionRunning   ExecutionStatus = "running"
	ExecutionCompleted ExecutionStatus = "completed"
	ExecutionFailed    ExecutionStatus = "failed"
)

func (s ExecutionStatus) Terminal() bool {
	return s == ExecutionCompleted || s == ExecutionFailed
}

type Workflow struct {
	ID             string          `json:"id"`
	CompanyID      string          `json:"companyId"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Config         json.RawMessage `json:"config"`
	WebhookURL     string          `json:"webhookUrl,omitempty"`
	IsActive       bool            `json:"isActive"`
	ExecutionCount int             `json:"executionCount"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// WorkflowUpdate is a partial update; nil fields keep their stored value.
type WorkflowUpdate struct {
	Name        *string          `json:"name" binding:"omitempty,min=1,max=255"`
	Description *string          `json:"description"`
	Config      *json.RawMessage `json:"config"`
	WebhookURL  *string          `json:"webhookUrl" binding:"omitempty,url"`
	IsActive    *bool            `json:"isActive"`
}

type WorkflowExecution struct {
	ID          string          `json:"id"`
	WorkflowID  string          `json:"workflowId"`
	Status      ExecutionStatus `json:"status"`
	Input       json.RawMessage `json:"input"`
	Output      json.RawMessage `json:"output,omitempty"`
	Error       string          `json:"error,omitempty"`
	StartedAt   time.Time       `json:"startedAt"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
}

// WebhookEnvelope is the body POSTed to an external workflow runner.
type WebhookEnvelope struct {
	CompanyID   string          `json:"companyId"`
	WorkflowID  string          `json:"workflowId"`
	ExecutionID string          `json:"executionId"`
	Input       json.RawMessage `json:"input"`
	Timestamp   time.Time       `json:"timestamp"`
}

// Built-in workflow types selected by the config "type" field.
const (
	WorkflowTypeDocumentSummary           = "document-summary"
	WorkflowTypeLanguageTranslation       = "language-translation"
	WorkflowTypeAmharicEnglishTranslation = "amharic-english-translation"
	WorkflowTypeDataExtraction            = "data-extraction"
)

// WorkflowAction is one of the variants below. Runners switch over it exhaustively.
type WorkflowAction interface {
	workflowAction()
}

type WebhookAction struct {
	URL string
}

type DocumentSummaryAction struct{}

type LanguageTranslationAction struct{}

type AmharicEnglishTranslationAction struct{}

type DataExtractionAction struct{}

func (WebhookAction) workflowAction() {}
func (DocumentSummaryAction) workflowAction() {}
func (LanguageTranslationAction) workflowAction() {}
func (AmharicEnglishTranslationAction) workflowAction() {}
func (DataExtractionAction) workflowAction() {}

type workflowConfig struct {
	Type string `json:"type"`
}

// Action resolves how the workflow runs. A webhook URL wins over the config type.
func (w *Workflow) Action() (WorkflowAction, error) {
	if w.WebhookURL != "" {
		return WebhookAction{URL: w.WebhookURL}, nil
	}

	var cfg workflowConfig
	if len(w.Config) > 0 {
		// A malformed config is treated like a missing type.
		_ = json.Unmarshal(w.Config, &cfg)
	}

	switch cfg.Type {
	case WorkflowTypeDocumentSummary:
		return DocumentSummaryAction{}, nil
	case WorkflowTypeLanguageTranslation:
		return LanguageTranslationAction{}, nil
	case WorkflowTypeAmharicEnglishTranslation:
		return AmharicEnglishTranslationAction{}, nil
	case WorkflowTypeDataExtraction:
		return DataExtractionAction{}, nil
	}
	return nil, apperrors.New(apperrors.ErrUnknownWorkflowType, "Unknown workflow type")
}
