package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"project_amharicAI/internal/apperrors"
	"project_amharicAI/internal/entities"
	"project_amharicAI/internal/interfaces"
)

// MemoryStore keeps every table in process memory. It backs STORAGE=memory
// for local runs and the usecase and handler tests. All reads return copies.
type MemoryStore struct {
	mu            sync.RWMutex
	last          time.Time
	companies     map[string]*entities.Company
	documents     map[string]*entities.Document
	conversations map[string]*entities.Conversation
	messages      []entities.Message
	workflows     map[string]*entities.Workflow
	executions    map[string]*entities.WorkflowExecution
	widgets       map[string]*entities.WidgetSettings
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		companies:     make(map[string]*entities.Company),
		documents:     make(map[string]*entities.Document),
		conversations: make(map[string]*entities.Conversation),
		workflows:     make(map[string]*entities.Workflow),
		executions:    make(map[string]*entities.WorkflowExecution),
		widgets:       make(map[string]*entities.WidgetSettings),
	}
}

// now returns a strictly increasing timestamp so creation order is stable.
// Callers must hold the write lock.
func (s *MemoryStore) now() time.Time {
	t := time.Now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

func (s *MemoryStore) Companies() interfaces.CompanyStore         { return memCompanies{s} }
func (s *MemoryStore) Documents() interfaces.DocumentStore         { return memDocuments{s} }
func (s *MemoryStore) Conversations() interfaces.ConversationStore { return memConversations{s} }
func (s *MemoryStore) Workflows() interfaces.WorkflowStore         { return memWorkflows{s} }
func (s *MemoryStore) Widgets() interfaces.WidgetStore             { return memWidgets{s} }
func (s *MemoryStore) Dashboard() interfaces.DashboardStore        { return memDashboard{s} }

func paginate[T any](items []T, page, limit int) []T {
	start := (page - 1) * limit
	if start < 0 || limit <= 0 || start >= len(items) {
		return []T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// Companies

type memCompanies struct{ s *MemoryStore }

func (m memCompanies) Create(_ context.Context, c *entities.Company) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, existing := range m.s.companies {
		if existing.Email == c.Email {
			return apperrors.Conflict("Company with this email already exists")
		}
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = m.s.now()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	m.s.companies[c.ID] = &cp
	return nil
}

func (m memCompanies) find(match func(*entities.Company) bool) (*entities.Company, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	for _, c := range m.s.companies {
		if match(c) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("Company not found")
}

func (m memCompanies) GetByID(_ context.Context, id string) (*entities.Company, error) {
	return m.find(func(c *entities.Company) bool { return c.ID == id })
}

func (m memCompanies) GetByEmail(_ context.Context, email string) (*entities.Company, error) {
	return m.find(func(c *entities.Company) bool { return c.Email == email })
}

func (m memCompanies) GetByAPIKey(_ context.Context, apiKey string) (*entities.Company, error) {
	return m.find(func(c *entities.Company) bool { return c.APIKey == apiKey })
}

func (m memCompanies) UpdateAPIKey(_ context.Context, id, apiKey string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	c, ok := m.s.companies[id]
	if !ok {
		return apperrors.NotFound("Company not found")
	}
	c.APIKey = apiKey
	c.UpdatedAt = m.s.now()
	return nil
}

// SetActive toggles a company's active flag. Used by tests and seeding.
func (s *MemoryStore) SetActive(id string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.companies[id]; ok {
		c.IsActive = active
	}
}

// Documents

type memDocuments struct{ s *MemoryStore }

func (m memDocuments) Create(_ context.Context, d *entities.Document) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	d.CreatedAt = m.s.now()
	d.UpdatedAt = d.CreatedAt
	cp := *d
	m.s.documents[d.ID] = &cp
	return nil
}

func (m memDocuments) Get(_ context.Context, companyID, id string) (*entities.Document, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	d, ok := m.s.documents[id]
	if !ok || d.CompanyID != companyID {
		return nil, apperrors.NotFound("Document not found")
	}
	cp := *d
	return &cp, nil
}

// newest returns the company's documents that pass keep, newest first.
func (m memDocuments) newest(companyID string, keep func(*entities.Document) bool) []entities.Document {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	docs := []entities.Document{}
	for _, d := range m.s.documents {
		if d.CompanyID == companyID && keep(d) {
			docs = append(docs, *d)
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].CreatedAt.After(docs[j].CreatedAt) })
	return docs
}

func (m memDocuments) List(_ context.Context, companyID string, f entities.DocumentFilter) ([]entities.Document, int, error) {
	search := strings.ToLower(f.Search)
	docs := m.newest(companyID, func(d *entities.Document) bool {
		if f.Language != "" && f.Language != "all" && string(d.Language) != f.Language {
			return false
		}
		if search == "" {
			return true
		}
		return strings.Contains(strings.ToLower(d.OriginalName), search) ||
			strings.Contains(strings.ToLower(d.Content), search)
	})
	page := paginate(docs, f.Page, f.Limit)
	for i := range page {
		page[i].Content = ""
	}
	return page, len(docs), nil
}

func (m memDocuments) Delete(_ context.Context, companyID, id string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	d, ok := m.s.documents[id]
	if !ok || d.CompanyID != companyID {
		return apperrors.NotFound("Document not found")
	}
	delete(m.s.documents, id)
	return nil
}

func (m memDocuments) ForLanguage(_ context.Context, companyID string, lang entities.Language, limit int) ([]entities.Document, error) {
	docs := m.newest(companyID, func(d *entities.Document) bool {
		return d.Language == lang || d.Language == entities.LanguageAuto
	})
	return paginate(docs, 1, limit), nil
}

func (m memDocuments) All(_ context.Context, companyID string, limit int) ([]entities.Document, error) {
	docs := m.newest(companyID, func(*entities.Document) bool { return true })
	if limit > 0 {
		return paginate(docs, 1, limit), nil
	}
	return docs, nil
}

// Conversations

type memConversations struct{ s *MemoryStore }

func (m memConversations) Create(_ context.Context, c *entities.Conversation) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.insertLocked(c)
	return nil
}

func (m memConversations) insertLocked(c *entities.Conversation) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = m.s.now()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	m.s.conversations[c.ID] = &cp
}

func (m memConversations) Get(_ context.Context, companyID, id string) (*entities.Conversation, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	c, ok := m.s.conversations[id]
	if !ok || c.CompanyID != companyID {
		return nil, apperrors.NotFound("Conversation not found")
	}
	cp := *c
	return &cp, nil
}

func (m memConversations) GetOrCreateWidget(_ context.Context, c *entities.Conversation) (*entities.Conversation, bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, existing := range m.s.conversations {
		if existing.CompanyID == c.CompanyID && existing.VisitorID == c.VisitorID && existing.Source == entities.SourceWidget {
			cp := *existing
			return &cp, false, nil
		}
	}
	c.Source = entities.SourceWidget
	m.insertLocked(c)
	cp := *c
	return &cp, true, nil
}

func (m memConversations) GetWidget(_ context.Context, companyID, id, visitorID string) (*entities.Conversation, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	c, ok := m.s.conversations[id]
	if !ok || c.CompanyID != companyID || c.VisitorID != visitorID || c.Source != entities.SourceWidget {
		return nil, apperrors.NotFound("Conversation not found")
	}
	cp := *c
	return &cp, nil
}

func (m memConversations) List(_ context.Context, companyID string, page, limit int) ([]entities.ConversationSummary, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	list := []entities.ConversationSummary{}
	for _, c := range m.s.conversations {
		if c.CompanyID != companyID {
			continue
		}
		summary := entities.ConversationSummary{Conversation: *c}
		for i := range m.s.messages {
			msg := m.s.messages[i]
			if msg.ConversationID != c.ID {
				continue
			}
			summary.MessageCount++
			last := msg
			summary.LastMessage = &last
		}
		list = append(list, summary)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].UpdatedAt.After(list[j].UpdatedAt) })
	return paginate(list, page, limit), nil
}

func (m memConversations) Delete(_ context.Context, companyID, id string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	c, ok := m.s.conversations[id]
	if !ok || c.CompanyID != companyID {
		return apperrors.NotFound("Conversation not found")
	}
	delete(m.s.conversations, id)
	kept := m.s.messages[:0]
	for _, msg := range m.s.messages {
		if msg.ConversationID != id {
			kept = append(kept, msg)
		}
	}
	m.s.messages = kept
	return nil
}

func (m memConversations) Touch(_ context.Context, companyID, id string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if c, ok := m.s.conversations[id]; ok && c.CompanyID == companyID {
		c.UpdatedAt = m.s.now()
	}
	return nil
}

func (m memConversations) AddMessage(_ context.Context, companyID string, msg *entities.Message) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	c, ok := m.s.conversations[msg.ConversationID]
	if !ok || c.CompanyID != companyID {
		return apperrors.NotFound("Conversation not found")
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	msg.CreatedAt = m.s.now()
	m.s.messages = append(m.s.messages, *msg)
	return nil
}

// owned returns the conversation's messages in creation order.
func (m memConversations) owned(companyID, conversationID string) []entities.Message {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	msgs := []entities.Message{}
	c, ok := m.s.conversations[conversationID]
	if !ok || c.CompanyID != companyID {
		return msgs
	}
	for _, msg := range m.s.messages {
		if msg.ConversationID == conversationID {
			msgs = append(msgs, msg)
		}
	}
	return msgs
}

func (m memConversations) RecentMessages(_ context.Context, companyID, conversationID string, limit int) ([]entities.Message, error) {
	msgs := m.owned(companyID, conversationID)
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return paginate(msgs, 1, limit), nil
}

func (m memConversations) Messages(_ context.Context, companyID, conversationID string, page, limit int) ([]entities.Message, error) {
	return paginate(m.owned(companyID, conversationID), page, limit), nil
}

// Workflows

type memWorkflows struct{ s *MemoryStore }

func (m memWorkflows) Create(_ context.Context, w *entities.Workflow) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	w.Config = jsonOrEmpty(w.Config)
	w.CreatedAt = m.s.now()
	w.UpdatedAt = w.CreatedAt
	cp := *w
	m.s.workflows[w.ID] = &cp
	return nil
}

func (m memWorkflows) countLocked(workflowID string) int {
	n := 0
	for _, e := range m.s.executions {
		if e.WorkflowID == workflowID {
			n++
		}
	}
	return n
}

func (m memWorkflows) Get(_ context.Context, companyID, id string) (*entities.Workflow, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	w, ok := m.s.workflows[id]
	if !ok || w.CompanyID != companyID {
		return nil, apperrors.NotFound("Workflow not found")
	}
	cp := *w
	cp.ExecutionCount = m.countLocked(id)
	return &cp, nil
}

func (m memWorkflows) List(_ context.Context, companyID string) ([]entities.Workflow, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	list := []entities.Workflow{}
	for _, w := range m.s.workflows {
		if w.CompanyID == companyID {
			cp := *w
			cp.ExecutionCount = m.countLocked(w.ID)
			list = append(list, cp)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

func (m memWorkflows) Update(_ context.Context, companyID, id string, u entities.WorkflowUpdate) (*entities.Workflow, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	w, ok := m.s.workflows[id]
	if !ok || w.CompanyID != companyID {
		return nil, apperrors.NotFound("Workflow not found")
	}
	if u.Name != nil {
		w.Name = *u.Name
	}
	if u.Description != nil {
		w.Description = *u.Description
	}
	if u.Config != nil {
		w.Config = jsonOrEmpty(*u.Config)
	}
	if u.WebhookURL != nil {
		w.WebhookURL = *u.WebhookURL
	}
	if u.IsActive != nil {
		w.IsActive = *u.IsActive
	}
	w.UpdatedAt = m.s.now()
	cp := *w
	cp.ExecutionCount = m.countLocked(id)
	return &cp, nil
}

func (m memWorkflows) Delete(_ context.Context, companyID, id string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	w, ok := m.s.workflows[id]
	if !ok || w.CompanyID != companyID {
		return apperrors.NotFound("Workflow not found")
	}
	delete(m.s.workflows, id)
	for eid, e := range m.s.executions {
		if e.WorkflowID == id {
			delete(m.s.executions, eid)
		}
	}
	return nil
}

func (m memWorkflows) CreateExecution(_ context.Context, e *entities.WorkflowExecution) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.Input = jsonOrEmpty(e.Input)
	e.StartedAt = m.s.now()
	cp := *e
	m.s.executions[e.ID] = &cp
	return nil
}

func (m memWorkflows) FinishExecution(_ context.Context, id string, status entities.ExecutionStatus, output json.RawMessage, errText string) (*entities.WorkflowExecution, error) {
	if !status.Terminal() {
		return nil, fmt.Errorf("status %q is not terminal", status)
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	e, ok := m.s.executions[id]
	if !ok || e.Status != entities.ExecutionRunning {
		return nil, apperrors.Conflict("Execution already finished")
	}
	completed := m.s.now()
	e.Status = status
	e.Output = output
	e.Error = errText
	e.CompletedAt = &completed
	cp := *e
	return &cp, nil
}

func (m memWorkflows) Executions(_ context.Context, companyID, workflowID string, page, limit int) ([]entities.WorkflowExecution, int, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	list := []entities.WorkflowExecution{}
	if w, ok := m.s.workflows[workflowID]; !ok || w.CompanyID != companyID {
		return list, 0, nil
	}
	for _, e := range m.s.executions {
		if e.WorkflowID == workflowID {
			list = append(list, *e)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].StartedAt.After(list[j].StartedAt) })
	return paginate(list, page, limit), len(list), nil
}

// Widget settings

type memWidgets struct{ s *MemoryStore }

func (m memWidgets) Get(_ context.Context, companyID string) (*entities.WidgetSettings, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	ws, ok := m.s.widgets[companyID]
	if !ok {
		d := entities.DefaultWidgetSettings(companyID)
		d.ID = uuid.NewString()
		d.CreatedAt = m.s.now()
		d.UpdatedAt = d.CreatedAt
		ws = &d
		m.s.widgets[companyID] = ws
	}
	cp := *ws
	cp.AllowedDomains = append([]string{}, ws.AllowedDomains...)
	return &cp, nil
}

func (m memWidgets) Save(_ context.Context, ws *entities.WidgetSettings) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.widgets[ws.CompanyID]; !ok {
		return apperrors.NotFound("Widget settings not found")
	}
	ws.UpdatedAt = m.s.now()
	cp := *ws
	cp.AllowedDomains = append([]string{}, ws.AllowedDomains...)
	m.s.widgets[ws.CompanyID] = &cp
	return nil
}
