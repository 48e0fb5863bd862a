package entities

import "time"

type ConversationSource string

const (
	SourceDashboard ConversationSource = "dashboard"
	SourceWidget    ConversationSource = "widget"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Conversation struct {
	ID        string             `json:"id"`
	CompanyID string             `json:"companyId"`
	VisitorID string             `json:"visitorId,omitempty"` // Widget conversations only
	Source    ConversationSource `json:"source"`
	Title     string             `json:"title"`
	Language  Language           `json:"language"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// ConversationSummary is a list row with the newest message and the message count.
type ConversationSummary struct {
	Conversation
	LastMessage  *Message `json:"lastMessage,omitempty"`
	MessageCount int      `json:"messageCount"`
}

type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	Language       Language  `json:"language"`
	CreatedAt      time.Time `json:"createdAt"`
}
