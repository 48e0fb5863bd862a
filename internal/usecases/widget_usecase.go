package usecases

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/skip2/go-qrcode"

	"project_amharicAI/internal/apperrors"
	"project_amharicAI/internal/entities"
	"project_amharicAI/internal/interfaces"
)

const (
	widgetHistoryLimit = 50
	qrCodeSize         = 256
)

// WidgetConfig is the subset of settings exposed to the embedded widget.
type WidgetConfig struct {
	PrimaryColor     string `json:"primaryColor"`
	WelcomeMessage   string `json:"welcomeMessage"`
	WelcomeMessageAm string `json:"welcomeMessageAm"`
	BotName          string `json:"botName"`
	BotNameAm        string `json:"botNameAm"`
	LogoURL          string `json:"logoUrl"`
	IsEnabled        bool   `json:"isEnabled"`
}

type WidgetSession struct {
	ConversationID string             `json:"conversationId"`
	Messages       []entities.Message `json:"messages"`
}

type WidgetUsecase struct {
	widgets       interfaces.WidgetStore
	conversations interfaces.ConversationStore
	companies     interfaces.CompanyStore
	messages      *MessageService
	publicURL     string
}

func NewWidgetUsecase(
	widgets interfaces.WidgetStore,
	conversations interfaces.ConversationStore,
	companies interfaces.CompanyStore,
	messages *MessageService,
	publicURL string,
) *WidgetUsecase {
	return &WidgetUsecase{
		widgets:       widgets,
		conversations: conversations,
		companies:     companies,
		messages:      messages,
		publicURL:     strings.TrimRight(publicURL, "/"),
	}
}

func (uc *WidgetUsecase) Config(ctx context.Context, companyID string) (*WidgetConfig, error) {
	s, err := uc.widgets.Get(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return &WidgetConfig{
		PrimaryColor:     s.PrimaryColor,
		WelcomeMessage:   s.WelcomeMessage,
		WelcomeMessageAm: s.WelcomeMessageAm,
		BotName:          s.BotName,
		BotNameAm:        s.BotNameAm,
		LogoURL:          s.LogoURL,
		IsEnabled:        s.IsEnabled,
	}, nil
}

// CheckAccess rejects requests to a disabled widget and, when an allow-list is set,
// requests whose Origin host is not on it.
func (uc *WidgetUsecase) CheckAccess(ctx context.Context, companyID, origin string) error {
	s, err := uc.widgets.Get(ctx, companyID)
	if err != nil {
		return err
	}
	if !s.IsEnabled {
		return apperrors.New(apperrors.ErrForbidden, "Widget is disabled")
	}
	return checkOrigin(s, origin)
}

// CheckOrigin applies only the allow-list. The config endpoint uses it, so a
// disabled widget can still learn that it is disabled.
func (uc *WidgetUsecase) CheckOrigin(ctx context.Context, companyID, origin string) error {
	s, err := uc.widgets.Get(ctx, companyID)
	if err != nil {
		return err
	}
	return checkOrigin(s, origin)
}

func checkOrigin(s *entities.WidgetSettings, origin string) error {
	if len(s.AllowedDomains) == 0 {
		return nil
	}
	host := originHost(origin)
	for _, domain := range s.AllowedDomains {
		if host != "" && strings.EqualFold(host, strings.TrimSpace(domain)) {
			return nil
		}
	}
	return apperrors.New(apperrors.ErrForbidden, "Domain not allowed")
}

func originHost(origin string) string {
	if origin == "" {
		return ""
	}
	u, err := url.Parse(origin)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// StartConversation resumes the visitor's conversation or creates it.
func (uc *WidgetUsecase) StartConversation(ctx context.Context, companyID, visitorID, language string) (*WidgetSession, error) {
	if strings.TrimSpace(visitorID) == "" {
		return nil, apperrors.Validation("visitorId is required")
	}
	lang := entities.Language(language)
	if !lang.Valid() {
		lang = entities.LanguageAuto
	}

	conv, created, err := uc.conversations.GetOrCreateWidget(ctx, &entities.Conversation{
		CompanyID: companyID,
		VisitorID: visitorID,
		Source:    entities.SourceWidget,
		Language:  lang,
		Title:     "Visitor Session: " + prefix(visitorID, 8),
	})
	if err != nil {
		return nil, err
	}

	session := &WidgetSession{ConversationID: conv.ID, Messages: []entities.Message{}}
	if created {
		return session, nil
	}
	session.Messages, err = uc.conversations.Messages(ctx, companyID, conv.ID, 1, widgetHistoryLimit)
	if err != nil {
		return nil, err
	}
	return session, nil
}

func prefix(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

type WidgetMessageInput struct {
	CompanyID      string
	ConversationID string
	VisitorID      string
	Content        string
	Language       string
}

func (uc *WidgetUsecase) SendMessage(ctx context.Context, in WidgetMessageInput) (*SendMessageResult, error) {
	if strings.TrimSpace(in.Content) == "" || strings.TrimSpace(in.VisitorID) == "" {
		return nil, apperrors.Validation("content and visitorId are required")
	}
	if _, err := uc.conversations.GetWidget(ctx, in.CompanyID, in.ConversationID, in.VisitorID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Wrap(apperrors.ErrNotFound, "Conversation not found or access denied", err)
		}
		return nil, err
	}
	return uc.messages.ProcessMessage(ctx, SendMessageInput{
		CompanyID:      in.CompanyID,
		ConversationID: in.ConversationID,
		Content:        in.Content,
		Language:       in.Language,
	})
}

// Settings returns the full dashboard view of the widget settings.
func (uc *WidgetUsecase) Settings(ctx context.Context, companyID string) (*entities.WidgetSettings, error) {
	return uc.widgets.Get(ctx, companyID)
}

func (uc *WidgetUsecase) UpdateSettings(ctx context.Context, companyID string, u entities.WidgetSettingsUpdate) (*entities.WidgetSettings, error) {
	s, err := uc.widgets.Get(ctx, companyID)
	if err != nil {
		return nil, err
	}
	s.Apply(u)
	if s.AllowedDomains == nil {
		s.AllowedDomains = []string{}
	}
	if err := uc.widgets.Save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// EmbedSnippet is the script tag a company pastes into its site.
func (uc *WidgetUsecase) EmbedSnippet(apiKey string) string {
	return fmt.Sprintf("<script\n  src=\"%s/widget.js\"\n  data-api-key=\"%s\"\n></script>", uc.publicURL, apiKey)
}

// PreviewURL opens the hosted widget page for the company.
func (uc *WidgetUsecase) PreviewURL(apiKey string) string {
	return uc.publicURL + "/widget.html?key=" + url.QueryEscape(apiKey)
}

// QRCode renders the preview URL as a PNG.
func (uc *WidgetUsecase) QRCode(ctx context.Context, companyID string) ([]byte, error) {
	company, err := uc.companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(uc.PreviewURL(company.APIKey), qrcode.Medium, qrCodeSize)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}
	return png, nil
}
