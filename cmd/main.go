package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"project_amharicAI/internal/config"
	"project_amharicAI/internal/infrastructure"
	"project_amharicAI/internal/infrastructure/realtime"
	"project_amharicAI/internal/interfaces"
	"project_amharicAI/internal/interfaces/http"
	"project_amharicAI/internal/repository"
	"project_amharicAI/internal/usecases"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load configuration:", err)
		os.Exit(1)
	}

	logger, err := infrastructure.NewLogger(cfg.IsProduction())
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to create logger:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage
	var stores *repository.Stores
	switch cfg.Storage {
	case "postgres":
		pg, err := infrastructure.NewPostgresClient(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer pg.Close()
		stores = repository.NewPostgresStores(pg.Pool)
		logger.Info("Connected to PostgreSQL")
	default:
		stores = repository.NewMemoryStores()
		logger.Warn("Using in-memory storage; data is lost on restart")
	}

	// Realtime events
	hub := realtime.NewHub(logger)
	local := infrastructure.NewLocalEventBus(logger)
	local.Subscribe(hub.Deliver)

	g, gctx := errgroup.WithContext(ctx)

	var events interfaces.EventPublisher = local
	if cfg.RedisURL != "" {
		client, err := infrastructure.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer client.Close()
		relay := infrastructure.NewRedisEventBus(client, local, logger)
		events = relay
		g.Go(func() error { return relay.Run(gctx) })
		logger.Info("Relaying events through Redis")
	}

	storage, err := infrastructure.NewDiskStorage(cfg.Upload.Path)
	if err != nil {
		return fmt.Errorf("prepare upload directory: %w", err)
	}
	extractor := infrastructure.NewFileTextExtractor(logger)
	ai := infrastructure.NewAIClient(cfg.LLM, logger)
	webhook := infrastructure.NewWebhookClient(cfg.WebhookTimeout, logger)

	// Usecases
	auth := usecases.NewAuthUsecase(stores.Companies, cfg.Auth, logger)
	messages := usecases.NewMessageService(stores.Conversations, stores.Documents, ai, events, logger)
	widgets := usecases.NewWidgetUsecase(stores.Widgets, stores.Conversations, stores.Companies, messages, cfg.PublicURL)

	handler := http.NewHandler(http.Usecases{
		Auth:          auth,
		Documents:     usecases.NewDocumentUsecase(stores.Documents, storage, extractor, events, cfg.Upload.MaxFileSize, logger),
		Conversations: usecases.NewConversationUsecase(stores.Conversations),
		Messages:      messages,
		Workflows:     usecases.NewWorkflowUsecase(stores.Workflows, stores.Documents, webhook, events, logger),
		Dashboard:     usecases.NewDashboardUsecase(stores.Dashboard),
		Widgets:       widgets,
	}, hub, logger)

	widgetLimiter := infrastructure.NewWindowRateLimiter(cfg.Widget.RateLimit, cfg.Widget.RateWindow)
	defer widgetLimiter.Stop()
	middleware := http.NewMiddleware(auth, widgets, widgetLimiter, cfg.ClientURL, cfg.IsProduction(), logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	http.SetupRoutes(r, handler, middleware, http.RouteOptions{
		AssetsDir:     cfg.Widget.AssetsDir,
		MaxUploadSize: cfg.Upload.MaxFileSize,
		AuthRate:      rate.Limit(cfg.Auth.RatePerSecond),
		AuthBurst:     cfg.Auth.RateBurst,
	})

	server := &nethttp.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		logger.Info("HTTP server listening",
			zap.String("addr", server.Addr),
			zap.String("environment", cfg.Environment),
			zap.String("llm_provider", cfg.LLM.Provider))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		// Websocket connections are hijacked and not closed by Shutdown.
		hub.Close()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
