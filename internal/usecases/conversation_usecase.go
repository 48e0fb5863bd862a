package usecases

import (
	"context"
	"strings"

	"project_amharicAI/internal/entities"
	"project_amharicAI/internal/interfaces"
)

const defaultConversationTitle = "New Conversation"

type ConversationUsecase struct {
	conversations interfaces.ConversationStore
}

func NewConversationUsecase(conversations interfaces.ConversationStore) *ConversationUsecase {
	return &ConversationUsecase{conversations: conversations}
}

func (uc *ConversationUsecase) Create(ctx context.Context, companyID, title, language string) (*entities.Conversation, error) {
	if strings.TrimSpace(title) == "" {
		title = defaultConversationTitle
	}
	lang := entities.Language(language)
	if !lang.Valid() {
		lang = entities.LanguageAuto
	}
	conv := &entities.Conversation{
		CompanyID: companyID,
		Source:    entities.SourceDashboard,
		Title:     title,
		Language:  lang,
	}
	if err := uc.conversations.Create(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

func (uc *ConversationUsecase) List(ctx context.Context, companyID string, page, limit int) ([]entities.ConversationSummary, error) {
	return uc.conversations.List(ctx, companyID, page, limit)
}

// Messages returns the conversation and one page of its messages, oldest first.
func (uc *ConversationUsecase) Messages(ctx context.Context, companyID, id string, page, limit int) (*entities.Conversation, []entities.Message, error) {
	conv, err := uc.conversations.Get(ctx, companyID, id)
	if err != nil {
		return nil, nil, err
	}
	msgs, err := uc.conversations.Messages(ctx, companyID, id, page, limit)
	if err != nil {
		return nil, nil, err
	}
	return conv, msgs, nil
}

func (uc *ConversationUsecase) Delete(ctx context.Context, companyID, id string) error {
	return uc.conversations.Delete(ctx, companyID, id)
}
