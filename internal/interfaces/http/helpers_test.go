package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"project_amharicAI/internal/config"
	"project_amharicAI/internal/entities"
	"project_amharicAI/internal/infrastructure"
	"project_amharicAI/internal/infrastructure/realtime"
	"project_amharicAI/internal/repository"
	"project_amharicAI/internal/usecases"
)

type fakeAI struct {
	mu       sync.Mutex
	reply    string
	requests []entities.CompletionRequest

	// When set, Complete signals entered and then waits for gate to close.
	entered chan struct{}
	gate    chan struct{}
}

func (f *fakeAI) Complete(_ context.Context, req entities.CompletionRequest) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	reply, entered, gate := f.reply, f.entered, f.gate
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	return reply, nil
}

func (f *fakeAI) block() (entered, gate chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entered = make(chan struct{}, 1)
	f.gate = make(chan struct{})
	return f.entered, f.gate
}

func (f *fakeAI) last(t *testing.T) entities.CompletionRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests)
	return f.requests[len(f.requests)-1]
}

type testServer struct {
	router  *gin.Engine
	store   *repository.MemoryStore
	ai      *fakeAI
	uploads string
}

func newTestServer(t *testing.T) *testServer {
	return newTestServerWithWidgetLimit(t, 100)
}

func newTestServerWithWidgetLimit(t *testing.T, widgetLimit int) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	store := repository.NewMemoryStore()
	stores := store.Stores()
	ai := &fakeAI{reply: "The guide explains the refund policy."}

	bus := infrastructure.NewLocalEventBus(logger)
	hub := realtime.NewHub(logger)
	bus.Subscribe(hub.Deliver)
	t.Cleanup(hub.Close)

	uploads := t.TempDir()
	storage, err := infrastructure.NewDiskStorage(uploads)
	require.NoError(t, err)

	auth := usecases.NewAuthUsecase(stores.Companies, config.AuthConfig{
		JWTSecret:  "test-secret",
		JWTExpiry:  time.Hour,
		BcryptCost: bcrypt.MinCost,
	}, logger)
	messages := usecases.NewMessageService(stores.Conversations, stores.Documents, ai, bus, logger)
	widgets := usecases.NewWidgetUsecase(stores.Widgets, stores.Conversations, stores.Companies, messages, "http://api.test")

	h := NewHandler(Usecases{
		Auth:          auth,
		Documents:     usecases.NewDocumentUsecase(stores.Documents, storage, infrastructure.NewFileTextExtractor(logger), bus, 1<<20, logger),
		Conversations: usecases.NewConversationUsecase(stores.Conversations),
		Messages:      messages,
		Workflows:     usecases.NewWorkflowUsecase(stores.Workflows, stores.Documents, infrastructure.NewWebhookClient(5*time.Second, logger), bus, logger),
		Dashboard:     usecases.NewDashboardUsecase(stores.Dashboard),
		Widgets:       widgets,
	}, hub, logger)

	limiter := infrastructure.NewWindowRateLimiter(widgetLimit, 15*time.Minute)
	t.Cleanup(limiter.Stop)
	m := NewMiddleware(auth, widgets, limiter, "http://localhost:5173", false, logger)

	r := gin.New()
	SetupRoutes(r, h, m, RouteOptions{
		AssetsDir:     t.TempDir(),
		MaxUploadSize: 1 << 20,
		AuthRate:      rate.Inf,
		AuthBurst:     1,
	})

	return &testServer{router: r, store: store, ai: ai, uploads: uploads}
}

type request struct {
	method  string
	path    string
	token   string
	apiKey  string
	origin  string
	body    any
	rawBody io.Reader
	ctype   string
}

func (s *testServer) do(t *testing.T, r request) *httptest.ResponseRecorder {
	t.Helper()
	body := r.rawBody
	if r.body != nil {
		data, err := json.Marshal(r.body)
		require.NoError(t, err)
		body = bytes.NewReader(data)
		r.ctype = "application/json"
	}
	req := httptest.NewRequest(r.method, r.path, body)
	if r.ctype != "" {
		req.Header.Set("Content-Type", r.ctype)
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	if r.apiKey != "" {
		req.Header.Set("x-api-key", r.apiKey)
	}
	if r.origin != "" {
		req.Header.Set("Origin", r.origin)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

type registered struct {
	Token   string                 `json:"token"`
	Company entities.PublicCompany `json:"company"`
}

func (s *testServer) register(t *testing.T, name, email string) registered {
	t.Helper()
	w := s.do(t, request{
		method: http.MethodPost,
		path:   "/api/auth/register",
		body:   gin.H{"name": name, "email": email, "password": "secret123"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var out registered
	decode(t, w, &out)
	return out
}

func (s *testServer) upload(t *testing.T, token, filename, content string) entities.Document {
	t.Helper()
	body, ctype := multipartFile(t, filename, content)
	w := s.do(t, request{method: http.MethodPost, path: "/api/documents/upload", token: token, rawBody: body, ctype: ctype})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var out struct {
		Document entities.Document `json:"document"`
	}
	decode(t, w, &out)
	return out.Document
}

func multipartFile(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(uploadField, filename)
	require.NoError(t, err)
	_, err = io.Copy(part, strings.NewReader(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var out struct {
		Error string `json:"error"`
	}
	decode(t, w, &out)
	return out.Error
}
