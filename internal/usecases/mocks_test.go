package usecases

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"

	"go.uber.org/zap"

	"project_amharicAI/internal/entities"
	"project_amharicAI/internal/interfaces"
	"project_amharicAI/internal/repository"
)

type fakeAI struct {
	mu       sync.Mutex
	reply    string
	err      error
	requests []entities.CompletionRequest
}

func (f *fakeAI) Complete(_ context.Context, req entities.CompletionRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.reply, f.err
}

func (f *fakeAI) last() entities.CompletionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []entities.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e entities.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) ofType(t entities.EventType) []entities.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []entities.Event
	for _, e := range p.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type memoryFiles struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemoryFiles() *memoryFiles {
	return &memoryFiles{files: map[string][]byte{}}
}

func (m *memoryFiles) Save(name string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[name] = data
	return name, nil
}

func (m *memoryFiles) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, name)
	return nil
}

func (m *memoryFiles) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

func (m *memoryFiles) content(name string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return string(m.files[name])
}

// plainExtractor returns the stored bytes for text/plain and nothing otherwise.
type plainExtractor struct{ files *memoryFiles }

func (e plainExtractor) Extract(path, mimeType string) string {
	if mimeType != "text/plain" {
		return ""
	}
	return e.files.content(path)
}

type fakeWebhook struct {
	body     []byte
	err      error
	calls    int
	envelope entities.WebhookEnvelope
}

func (f *fakeWebhook) Post(_ context.Context, _ string, env entities.WebhookEnvelope) ([]byte, error) {
	f.calls++
	f.envelope = env
	return f.body, f.err
}

var errStoreDown = errors.New("store down")

// failingDocumentStore fails every call.
type failingDocumentStore struct{}

func (failingDocumentStore) Create(context.Context, *entities.Document) error { return errStoreDown }
func (failingDocumentStore) Get(context.Context, string, string) (*entities.Document, error) {
	return nil, errStoreDown
}
func (failingDocumentStore) List(context.Context, string, entities.DocumentFilter) ([]entities.Document, int, error) {
	return nil, 0, errStoreDown
}
func (failingDocumentStore) Delete(context.Context, string, string) error { return errStoreDown }
func (failingDocumentStore) ForLanguage(context.Context, string, entities.Language, int) ([]entities.Document, error) {
	return nil, errStoreDown
}
func (failingDocumentStore) All(context.Context, string, int) ([]entities.Document, error) {
	return nil, errStoreDown
}

// failingWidgetLookup fails widget conversation lookups and delegates the rest.
type failingWidgetLookup struct {
	interfaces.ConversationStore
}

func (failingWidgetLookup) GetWidget(context.Context, string, string, string) (*entities.Conversation, error) {
	return nil, errStoreDown
}

func uploadOf(companyID, name, contentType, body string) UploadInput {
	return UploadInput{
		CompanyID:    companyID,
		OriginalName: name,
		ContentType:  contentType,
		Size:         int64(len(body)),
		File:         bytes.NewReader([]byte(body)),
	}
}

// testEnv wires every usecase against the in-memory store.
type testEnv struct {
	stores    *repository.Stores
	ai        *fakeAI
	events    *recordingPublisher
	files     *memoryFiles
	webhook   *fakeWebhook
	auth      *AuthUsecase
	documents *DocumentUsecase
	convs     *ConversationUsecase
	messages  *MessageService
	workflows *WorkflowUsecase
	widget    *WidgetUsecase
	dashboard *DashboardUsecase
}

func newTestEnv() *testEnv {
	logger := zap.NewNop()
	env := &testEnv{
		stores:  repository.NewMemoryStores(),
		ai:      &fakeAI{reply: "Hello from the model"},
		events:  &recordingPublisher{},
		files:   newMemoryFiles(),
		webhook: &fakeWebhook{},
	}
	s := env.stores
	env.auth = NewAuthUsecase(s.Companies, testAuthConfig(), logger)
	env.documents = NewDocumentUsecase(s.Documents, env.files, plainExtractor{env.files}, env.events, 1024, logger)
	env.convs = NewConversationUsecase(s.Conversations)
	env.messages = NewMessageService(s.Conversations, s.Documents, env.ai, env.events, logger)
	env.workflows = NewWorkflowUsecase(s.Workflows, s.Documents, env.webhook, env.events, logger)
	env.widget = NewWidgetUsecase(s.Widgets, s.Conversations, s.Companies, env.messages, "http://api.test")
	env.dashboard = NewDashboardUsecase(s.Dashboard)
	return env
}
