package http

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"project_amharicAI/internal/apperrors"
	"project_amharicAI/internal/infrastructure"
	"project_amharicAI/internal/infrastructure/realtime"
	"project_amharicAI/internal/usecases"
)

// Usecases groups the application services the handlers call into.
type Usecases struct {
	Auth          *usecases.AuthUsecase
	Documents     *usecases.DocumentUsecase
	Conversations *usecases.ConversationUsecase
	Messages      *usecases.MessageService
	Workflows     *usecases.WorkflowUsecase
	Dashboard     *usecases.DashboardUsecase
	Widgets       *usecases.WidgetUsecase
}

type Handler struct {
	auth          *usecases.AuthUsecase
	documents     *usecases.DocumentUsecase
	conversations *usecases.ConversationUsecase
	messages      *usecases.MessageService
	workflows     *usecases.WorkflowUsecase
	dashboard     *usecases.DashboardUsecase
	widgets       *usecases.WidgetUsecase
	hub           *realtime.Hub
	replies       *infrastructure.ReplyGuard
	upgrader      websocket.Upgrader
	logger        *zap.Logger
}

func NewHandler(uc Usecases, hub *realtime.Hub, logger *zap.Logger) *Handler {
	return &Handler{
		auth:          uc.Auth,
		documents:     uc.Documents,
		conversations: uc.Conversations,
		messages:      uc.Messages,
		workflows:     uc.Workflows,
		dashboard:     uc.Dashboard,
		widgets:       uc.Widgets,
		hub:           hub,
		replies:       infrastructure.NewReplyGuard(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger.Named("http"),
	}
}

type RouteOptions struct {
	AssetsDir     string
	MaxUploadSize int64
	AuthRate      rate.Limit
	AuthBurst     int
}

// multipart framing on top of the largest accepted file
const uploadOverhead = 1 << 20

func SetupRoutes(r *gin.Engine, h *Handler, m *Middleware, opts RouteOptions) {
	RegisterValidators()

	h.upgrader.CheckOrigin = func(req *http.Request) bool {
		origin := req.Header.Get("Origin")
		return origin == "" || m.allowedOrigin(origin)
	}

	r.Use(RequestLogger(h.logger))
	r.Use(SecurityHeaders())
	r.Use(RequestSizeLimiter(opts.MaxUploadSize + uploadOverhead))
	r.Use(m.CORSMiddleware())

	r.GET("/health", h.Health)

	// Widget bundle, embedded on customer sites
	r.StaticFile("/widget.js", filepath.Join(opts.AssetsDir, "widget.js"))
	r.StaticFile("/widget.css", filepath.Join(opts.AssetsDir, "widget.css"))
	r.StaticFile("/widget.html", filepath.Join(opts.AssetsDir, "widget.html"))

	// Realtime channel; browsers pass the token as a query parameter
	r.GET("/socket", m.AuthRequired(true), h.Socket)

	// Public widget API
	widget := r.Group("/api/widget")
	widget.Use(m.WidgetRateLimit())
	widget.Use(m.APIKeyRequired())
	{
		widget.GET("/config", m.WidgetAccess(false), h.WidgetConfig)
		widget.POST("/conversations", m.WidgetAccess(true), h.StartWidgetConversation)
		widget.POST("/conversations/:id/messages", m.WidgetAccess(true), h.SendWidgetMessage)
	}

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	{
		limited := authGroup.Group("")
		limited.Use(m.RateLimitPerIP(opts.AuthRate, opts.AuthBurst))
		limited.POST("/register", h.Register)
		limited.POST("/login", h.Login)

		authGroup.GET("/profile", m.AuthRequired(false), h.Profile)
		authGroup.POST("/refresh-api-key", m.AuthRequired(false), h.RefreshAPIKey)
	}

	protected := api.Group("")
	protected.Use(m.AuthRequired(false))
	{
		protected.POST("/documents/upload", h.UploadDocument)
		protected.GET("/documents", h.ListDocuments)
		protected.GET("/documents/:id", h.GetDocument)
		protected.DELETE("/documents/:id", h.DeleteDocument)

		protected.POST("/ai/conversations", h.CreateConversation)
		protected.GET("/ai/conversations", h.ListConversations)
		protected.GET("/ai/conversations/:id/messages", h.GetMessages)
		protected.POST("/ai/conversations/:id/messages", h.SendMessage)
		protected.DELETE("/ai/conversations/:id", h.DeleteConversation)
		protected.POST("/ai/chat", h.Chat)

		protected.POST("/workflows", h.CreateWorkflow)
		protected.GET("/workflows", h.ListWorkflows)
		protected.PUT("/workflows/:id", h.UpdateWorkflow)
		protected.DELETE("/workflows/:id", h.DeleteWorkflow)
		protected.POST("/workflows/:id/execute", h.ExecuteWorkflow)
		protected.GET("/workflows/:id/executions", h.ListExecutions)

		protected.GET("/dashboard/stats", h.DashboardStats)
		protected.GET("/dashboard/activities", h.DashboardActivities)
		protected.GET("/dashboard/analytics", h.DashboardAnalytics)
		protected.GET("/dashboard/export", h.ExportData)
		protected.GET("/dashboard/widget-settings", h.GetWidgetSettings)
		protected.PUT("/dashboard/widget-settings", h.UpdateWidgetSettings)
		protected.GET("/dashboard/widget-settings/qr", h.WidgetQRCode)
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
}

var errReplyInProgress = apperrors.Conflict("A reply is already being generated for this conversation")

// respondError writes {error: message}. Internal failures are logged and
// answered with the handler's generic message.
func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	status := apperrors.Status(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(fallback,
			zap.String("path", c.FullPath()),
			zap.String("company_id", companyID(c)),
			zap.Error(err))
		c.JSON(status, gin.H{"error": fallback})
		return
	}
	c.JSON(status, gin.H{"error": apperrors.Message(err, fallback)})
}
