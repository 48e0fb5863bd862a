package usecases

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"project_amharicAI/internal/apperrors"
	"project_amharicAI/internal/entities"
)

func TestWidget_StartConversationIsIdempotent(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = map[string]bool{}
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := env.widget.StartConversation(ctx, "c1", "visitor-123456789", "")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			ids[s.ConversationID] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	require.Len(t, ids, 1)

	var id string
	for k := range ids {
		id = k
	}
	conv, err := env.stores.Conversations.Get(ctx, "c1", id)
	require.NoError(t, err)
	assert.Equal(t, "Visitor Session: visitor-", conv.Title)
	assert.Equal(t, entities.SourceWidget, conv.Source)
	assert.Equal(t, entities.LanguageAuto, conv.Language)

	_, err = env.widget.StartConversation(ctx, "c1", "", "")
	assert.Equal(t, "visitorId is required", apperrors.Message(err, ""))
}

func TestWidget_ResumeReturnsHistory(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	s, err := env.widget.StartConversation(ctx, "c1", "v1", "en")
	require.NoError(t, err)
	assert.Empty(t, s.Messages)

	_, err = env.widget.SendMessage(ctx, WidgetMessageInput{CompanyID: "c1", ConversationID: s.ConversationID, VisitorID: "v1", Content: "hello"})
	require.NoError(t, err)

	again, err := env.widget.StartConversation(ctx, "c1", "v1", "en")
	require.NoError(t, err)
	assert.Equal(t, s.ConversationID, again.ConversationID)
	require.Len(t, again.Messages, 2)
	assert.Equal(t, entities.RoleUser, again.Messages[0].Role)
	assert.Equal(t, entities.RoleAssistant, again.Messages[1].Role)
}

func TestWidget_SendMessageChecksVisitor(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	s, err := env.widget.StartConversation(ctx, "c1", "v1", "")
	require.NoError(t, err)

	tests := []struct {
		name string
		in   WidgetMessageInput
		kind error
	}{
		{"other visitor", WidgetMessageInput{CompanyID: "c1", ConversationID: s.ConversationID, VisitorID: "v2", Content: "x"}, apperrors.ErrNotFound},
		{"other company", WidgetMessageInput{CompanyID: "c2", ConversationID: s.ConversationID, VisitorID: "v1", Content: "x"}, apperrors.ErrNotFound},
		{"missing content", WidgetMessageInput{CompanyID: "c1", ConversationID: s.ConversationID, VisitorID: "v1"}, apperrors.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.widget.SendMessage(ctx, tt.in)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
	assert.Empty(t, env.ai.requests)
}

func TestWidget_SendMessageStoreFailure(t *testing.T) {
	env := newTestEnv()
	s := env.stores
	widget := NewWidgetUsecase(s.Widgets, failingWidgetLookup{s.Conversations}, s.Companies, env.messages, "http://api.test")

	_, err := widget.SendMessage(context.Background(), WidgetMessageInput{
		CompanyID: "c1", ConversationID: "conv", VisitorID: "v1", Content: "hello",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, errStoreDown)
	assert.NotErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, 500, apperrors.Status(err))
}

func TestWidget_CheckAccess(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	require.NoError(t, env.widget.CheckAccess(ctx, "c1", ""), "no allow-list")

	domains := []string{"shop.example.et"}
	_, err := env.widget.UpdateSettings(ctx, "c1", entities.WidgetSettingsUpdate{AllowedDomains: &domains})
	require.NoError(t, err)

	assert.NoError(t, env.widget.CheckAccess(ctx, "c1", "https://shop.example.et:8443"))
	assert.ErrorIs(t, env.widget.CheckAccess(ctx, "c1", "https://evil.test"), apperrors.ErrForbidden)
	assert.ErrorIs(t, env.widget.CheckAccess(ctx, "c1", ""), apperrors.ErrForbidden)

	disabled := false
	_, err = env.widget.UpdateSettings(ctx, "c1", entities.WidgetSettingsUpdate{IsEnabled: &disabled})
	require.NoError(t, err)
	err = env.widget.CheckAccess(ctx, "c1", "https://shop.example.et")
	assert.Equal(t, "Widget is disabled", apperrors.Message(err, ""))

	assert.NoError(t, env.widget.CheckOrigin(ctx, "c1", "https://shop.example.et"), "config stays readable while disabled")
	assert.ErrorIs(t, env.widget.CheckOrigin(ctx, "c1", "https://evil.test"), apperrors.ErrForbidden)
}

func TestWidget_ConfigAndQRCode(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	res, err := env.auth.Register(ctx, "Acme", "a@acme.et", "secret1")
	require.NoError(t, err)

	cfg, err := env.widget.Config(ctx, res.Company.ID)
	require.NoError(t, err)
	assert.Equal(t, "AI Assistant", cfg.BotName)
	assert.True(t, cfg.IsEnabled)

	png, err := env.widget.QRCode(ctx, res.Company.ID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	assert.Contains(t, env.widget.EmbedSnippet(res.Company.APIKey), `src="http://api.test/widget.js"`)
	assert.Equal(t, "http://api.test/widget.html?key="+res.Company.APIKey, env.widget.PreviewURL(res.Company.APIKey))
}
