package usecases

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"project_amharicAI/internal/apperrors"
	"project_amharicAI/internal/entities"
	"project_amharicAI/internal/interfaces"
)

const (
	historyWindow       = 10
	contextDocuments    = 5
	documentExcerptSize = 1000

	chatTemperature     = 0.7
	pipelineMaxTokens   = 2000
	statelessMaxTokens  = 1000
	fallbackReply       = "Sorry, I could not generate a response."
	documentBlockHeader = "Available Documents:\n"
)

// MessageService runs one chat turn: persist the user message, assemble history and
// document context, ask the model, persist the reply and notify the company's room.
type MessageService struct {
	conversations interfaces.ConversationStore
	documents     interfaces.DocumentStore
	ai            interfaces.AIClient
	events        interfaces.EventPublisher
	logger        *zap.Logger
}

func NewMessageService(
	conversations interfaces.ConversationStore,
	documents interfaces.DocumentStore,
	ai interfaces.AIClient,
	events interfaces.EventPublisher,
	logger *zap.Logger,
) *MessageService {
	return &MessageService{
		conversations: conversations,
		documents:     documents,
		ai:            ai,
		events:        events,
		logger:        logger.Named("chat"),
	}
}

type SendMessageInput struct {
	CompanyID      string
	ConversationID string
	Content        string
	Language       string // am, en, or empty/auto to detect
}

type SendMessageResult struct {
	UserMessage *entities.Message `json:"userMessage"`
	AIMessage   *entities.Message `json:"aiMessage"`
}

// ProcessMessage runs the pipeline once. When anything after the user message fails the
// user message stays stored without a reply; nothing is retried.
func (s *MessageService) ProcessMessage(ctx context.Context, in SendMessageInput) (*SendMessageResult, error) {
	if strings.TrimSpace(in.Content) == "" {
		return nil, apperrors.Validation("Message content is required")
	}
	lang := entities.ResolveLanguage(in.Language, in.Content)

	userMessage := &entities.Message{
		ConversationID: in.ConversationID,
		Role:           entities.RoleUser,
		Content:        in.Content,
		Language:       lang,
	}
	if err := s.conversations.AddMessage(ctx, in.CompanyID, userMessage); err != nil {
		return nil, err
	}

	var (
		history []entities.Message
		docs    []entities.Document
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		history, err = s.conversations.RecentMessages(gctx, in.CompanyID, in.ConversationID, historyWindow)
		return err
	})
	g.Go(func() error {
		var err error
		docs, err = s.documents.ForLanguage(gctx, in.CompanyID, lang, contextDocuments)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to assemble context: %w", err)
	}

	turns := []entities.ChatTurn{{Role: entities.ChatRoleSystem, Content: SystemPrompt(lang)}}
	if docContext := BuildDocumentContext(docs); docContext != "" {
		turns = append(turns, entities.ChatTurn{Role: entities.ChatRoleSystem, Content: documentBlockHeader + docContext})
	}
	turns = append(turns, historyTurns(history)...)

	reply, err := s.ai.Complete(ctx, entities.CompletionRequest{
		Messages:    turns,
		Temperature: chatTemperature,
		MaxTokens:   pipelineMaxTokens,
	})
	if err != nil {
		s.logger.Error("Completion failed",
			zap.String("company_id", in.CompanyID),
			zap.String("conversation_id", in.ConversationID),
			zap.Error(err))
		return nil, apperrors.Wrap(apperrors.ErrExternalService, "Failed to process message", err)
	}
	if strings.TrimSpace(reply) == "" {
		reply = fallbackReply
	}

	aiMessage := &entities.Message{
		ConversationID: in.ConversationID,
		Role:           entities.RoleAssistant,
		Content:        reply,
		Language:       lang,
	}
	if err := s.conversations.AddMessage(ctx, in.CompanyID, aiMessage); err != nil {
		return nil, err
	}
	if err := s.conversations.Touch(ctx, in.CompanyID, in.ConversationID); err != nil {
		s.logger.Warn("Failed to touch conversation", zap.String("conversation_id", in.ConversationID), zap.Error(err))
	}

	s.events.Publish(ctx, entities.Event{
		Type:      entities.EventNewMessage,
		CompanyID: in.CompanyID,
		Data: entities.NewMessagePayload{
			ConversationID: in.ConversationID,
			UserMessage:    userMessage,
			AIMessage:      aiMessage,
		},
	})

	s.logger.Debug("Chat turn completed",
		zap.String("conversation_id", in.ConversationID),
		zap.String("language", string(lang)),
		zap.Int("history", len(history)),
		zap.Int("documents", len(docs)))

	return &SendMessageResult{UserMessage: userMessage, AIMessage: aiMessage}, nil
}

// Chat answers a single message without storing anything.
func (s *MessageService) Chat(ctx context.Context, message, language, extraContext string) (string, entities.Language, error) {
	if strings.TrimSpace(message) == "" {
		return "", "", apperrors.Validation("Message is required")
	}
	lang := entities.ResolveLanguage(language, message)

	turns := []entities.ChatTurn{{Role: entities.ChatRoleSystem, Content: SystemPrompt(lang)}}
	if extraContext != "" {
		turns = append(turns, entities.ChatTurn{Role: entities.ChatRoleSystem, Content: "Context: " + extraContext})
	}
	turns = append(turns, entities.ChatTurn{Role: entities.ChatRoleUser, Content: message})

	reply, err := s.ai.Complete(ctx, entities.CompletionRequest{
		Messages:    turns,
		Temperature: chatTemperature,
		MaxTokens:   statelessMaxTokens,
	})
	if err != nil {
		return "", "", apperrors.Wrap(apperrors.ErrExternalService, "Failed to process chat request", err)
	}
	if strings.TrimSpace(reply) == "" {
		reply = fallbackReply
	}
	return reply, lang, nil
}

// BuildDocumentContext renders each document as its name plus the first 1000 characters.
func BuildDocumentContext(docs []entities.Document) string {
	blocks := make([]string, 0, len(docs))
	for _, d := range docs {
		blocks = append(blocks, fmt.Sprintf("Document: %s\nContent: %s...", d.OriginalName, excerpt(d.Content, documentExcerptSize)))
	}
	return strings.Join(blocks, "\n\n")
}

func excerpt(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// historyTurns reverses newest-first messages into chronological chat turns.
func historyTurns(newestFirst []entities.Message) []entities.ChatTurn {
	turns := make([]entities.ChatTurn, 0, len(newestFirst))
	for i := len(newestFirst) - 1; i >= 0; i-- {
		role := entities.ChatRoleAssistant
		if newestFirst[i].Role == entities.RoleUser {
			role = entities.ChatRoleUser
		}
		turns = append(turns, entities.ChatTurn{Role: role, Content: newestFirst[i].Content})
	}
	return turns
}
