package entities

import "time"

type Overview struct {
	TotalDocuments     int     `json:"totalDocuments"`
	TotalConversations int     `json:"totalConversations"`
	TotalWorkflows     int     `json:"totalWorkflows"`
	ActiveWorkflows    int     `json:"activeWorkflows"`
	StorageUsedMB      float64 `json:"storageUsedMB"`
}

type RecentActivity struct {
	DocumentsUploaded    int `json:"documentsUploaded"`
	ConversationsStarted int `json:"conversationsStarted"`
	WorkflowExecutions   int `json:"workflowExecutions"`
}

type LanguageCount struct {
	Language string `json:"language"`
	Count    int    `json:"count"`
}

type StatusTotal struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type DashboardStats struct {
	Overview             Overview        `json:"overview"`
	RecentActivity       RecentActivity  `json:"recentActivity"`
	LanguageDistribution []LanguageCount `json:"languageDistribution"`
	WorkflowExecutions   []StatusTotal   `json:"workflowExecutions"`
}

type ActivityType string

const (
	ActivityDocument     ActivityType = "document"
	ActivityConversation ActivityType = "conversation"
	ActivityWorkflow     ActivityType = "workflow"
)

type Activity struct {
	ID        string         `json:"id"`
	Type      ActivityType   `json:"type"`
	Title     string         `json:"title"`
	Language  Language       `json:"language,omitempty"`
	Status    string         `json:"status,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata"`
}

// DailyCount is one bucket of a per-day series. Date is YYYY-MM-DD.
type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type StatusCount struct {
	Date   string `json:"date"`
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type Analytics struct {
	Period             int             `json:"period"`
	DailyDocuments     []DailyCount    `json:"dailyDocuments"`
	DailyConversations []DailyCount    `json:"dailyConversations"`
	WorkflowTrends     []StatusCount   `json:"workflowTrends"`
	LanguageUsage      []LanguageCount `json:"languageUsage"`
}

type ExportedDocument struct {
	OriginalName string    `json:"originalName"`
	FileType     string    `json:"fileType"`
	FileSize     int64     `json:"fileSize"`
	Language     Language  `json:"language"`
	CreatedAt    time.Time `json:"createdAt"`
}

type ExportedConversation struct {
	Conversation
	Messages []Message `json:"messages"`
}

type ExecutionSummary struct {
	Status      ExecutionStatus `json:"status"`
	StartedAt   time.Time       `json:"startedAt"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
}

type ExportedWorkflow struct {
	Workflow
	Executions []ExecutionSummary `json:"executions"`
}
