package interfaces

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"project_amharicAI/internal/entities"
)

type AIClient interface {
	Complete(ctx context.Context, req entities.CompletionRequest) (string, error)
}

// EventPublisher delivers domain events to the company's realtime room.
type EventPublisher interface {
	Publish(ctx context.Context, event entities.Event)
}

// WebhookPoster runs a workflow on an external runner and returns its response body.
type WebhookPoster interface {
	Post(ctx context.Context, url string, envelope entities.WebhookEnvelope) ([]byte, error)
}

type FileStorage interface {
	Save(name string, r io.Reader) (path string, err error)
	Remove(name string) error
}

type TextExtractor interface {
	Extract(path, mimeType string) string
}

type CompanyStore interface {
	Create(ctx context.Context, c *entities.Company) error
	GetByID(ctx context.Context, id string) (*entities.Company, error)
	GetByEmail(ctx context.Context, email string) (*entities.Company, error)
	GetByAPIKey(ctx context.Context, apiKey string) (*entities.Company, error)
	UpdateAPIKey(ctx context.Context, id, apiKey string) error
}

type DocumentStore interface {
	Create(ctx context.Context, d *entities.Document) error
	Get(ctx context.Context, companyID, id string) (*entities.Document, error)
	List(ctx context.Context, companyID string, f entities.DocumentFilter) ([]entities.Document, int, error)
	Delete(ctx context.Context, companyID, id string) error
	// ForLanguage returns up to limit documents tagged lang or auto.
	ForLanguage(ctx context.Context, companyID string, lang entities.Language, limit int) ([]entities.Document, error)
	// All returns documents with content; limit <= 0 means no limit.
	All(ctx context.Context, companyID string, limit int) ([]entities.Document, error)
}

type ConversationStore interface {
	Create(ctx context.Context, c *entities.Conversation) error
	Get(ctx context.Context, companyID, id string) (*entities.Conversation, error)
	// GetOrCreateWidget returns the visitor's widget conversation, creating it at most once.
	GetOrCreateWidget(ctx context.Context, c *entities.Conversation) (conv *entities.Conversation, created bool, err error)
	GetWidget(ctx context.Context, companyID, id, visitorID string) (*entities.Conversation, error)
	List(ctx context.Context, companyID string, page, limit int) ([]entities.ConversationSummary, error)
	Delete(ctx context.Context, companyID, id string) error
	Touch(ctx context.Context, companyID, id string) error

	AddMessage(ctx context.Context, companyID string, m *entities.Message) error
	// RecentMessages returns the newest messages first.
	RecentMessages(ctx context.Context, companyID, conversationID string, limit int) ([]entities.Message, error)
	// Messages returns a page in chronological order.
	Messages(ctx context.Context, companyID, conversationID string, page, limit int) ([]entities.Message, error)
}

type WorkflowStore interface {
	Create(ctx context.Context, w *entities.Workflow) error
	Get(ctx context.Context, companyID, id string) (*entities.Workflow, error)
	List(ctx context.Context, companyID string) ([]entities.Workflow, error)
	Update(ctx context.Context, companyID, id string, u entities.WorkflowUpdate) (*entities.Workflow, error)
	Delete(ctx context.Context, companyID, id string) error

	CreateExecution(ctx context.Context, e *entities.WorkflowExecution) error
	// FinishExecution moves a running execution to a terminal status. It fails with
	// apperrors.ErrConflict when the execution is no longer running.
	FinishExecution(ctx context.Context, id string, status entities.ExecutionStatus, output json.RawMessage, errText string) (*entities.WorkflowExecution, error)
	Executions(ctx context.Context, companyID, workflowID string, page, limit int) ([]entities.WorkflowExecution, int, error)
}

type WidgetStore interface {
	// Get lazily creates default settings on first read.
	Get(ctx context.Context, companyID string) (*entities.WidgetSettings, error)
	Save(ctx context.Context, s *entities.WidgetSettings) error
}

type DashboardStore interface {
	Stats(ctx context.Context, companyID string, since time.Time) (*entities.DashboardStats, error)
	Activities(ctx context.Context, companyID string, perSource int) ([]entities.Activity, error)
	Analytics(ctx context.Context, companyID string, since time.Time) (*entities.Analytics, error)
	ExportDocuments(ctx context.Context, companyID string) ([]entities.ExportedDocument, error)
	ExportConversations(ctx context.Context, companyID string) ([]entities.ExportedConversation, error)
	ExportWorkflows(ctx context.Context, companyID string) ([]entities.ExportedWorkflow, error)
}
