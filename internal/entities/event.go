package entities

import "time"

type EventType string

const (
	EventNewMessage        EventType = "new-message"
	EventDocumentUploaded  EventType = "document-uploaded"
	EventDocumentDeleted   EventType = "document-deleted"
	EventWorkflowCompleted EventType = "workflow-completed"
)

// Event is published after a successful write and delivered to the company's room.
type Event struct {
	Type      EventType `json:"event"`
	CompanyID string    `json:"companyId"`
	Data      any       `json:"data"`
}

type NewMessagePayload struct {
	ConversationID string   `json:"conversationId"`
	UserMessage    *Message `json:"userMessage"`
	AIMessage      *Message `json:"aiMessage"`
}

type DocumentUploadedPayload struct {
	ID           string    `json:"id"`
	OriginalName string    `json:"originalName"`
	Language     Language  `json:"language"`
	CreatedAt    time.Time `json:"createdAt"`
}

type DocumentDeletedPayload struct {
	ID string `json:"id"`
}

type WorkflowCompletedPayload struct {
	WorkflowID  string          `json:"workflowId"`
	ExecutionID string          `json:"executionId"`
	Status      ExecutionStatus `json:"status"`
	Output      any             `json:"output"`
}
