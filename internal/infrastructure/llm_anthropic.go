package infrastructure

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"

	"project_amharicAI/internal/entities"
	"project_amharicAI/internal/interfaces"
)

type AnthropicClient struct {
	client *anthropic.Client
	model  string
	logger *zap.Logger
}

var _ interfaces.AIClient = (*AnthropicClient)(nil)

func NewAnthropicClient(apiKey, model string, logger *zap.Logger) *AnthropicClient {
	return &AnthropicClient{
		client: anthropic.NewClient(apiKey),
		model:  model,
		logger: logger.Named("llm"),
	}
}

func (c *AnthropicClient) Complete(ctx context.Context, req entities.CompletionRequest) (string, error) {
	system, messages := toAnthropicMessages(req.Messages)
	temperature := req.Temperature

	start := time.Now()
	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:       anthropic.Model(c.model),
		System:      system,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		c.logger.Error("LLM request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", fmt.Errorf("anthropic messages: %w", err)
	}

	c.logger.Info("LLM request completed",
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
		zap.Duration("elapsed", time.Since(start)))

	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != nil {
			return *block.Text, nil
		}
	}
	return "", nil
}

// toAnthropicMessages moves system turns into the system prompt and merges
// consecutive turns of the same role, since the API expects alternating roles
// starting with the user.
func toAnthropicMessages(turns []entities.ChatTurn) (string, []anthropic.Message) {
	var system []string
	var messages []anthropic.Message
	var texts []string
	var role anthropic.ChatRole

	flush := func() {
		if len(texts) == 0 {
			return
		}
		messages = append(messages, anthropic.Message{
			Role:    role,
			Content: []anthropic.MessageContent{anthropic.NewTextMessageContent(strings.Join(texts, "\n\n"))},
		})
		texts = nil
	}

	for _, t := range turns {
		if t.Role == entities.ChatRoleSystem {
			system = append(system, t.Content)
			continue
		}
		r := anthropic.RoleUser
		if t.Role == entities.ChatRoleAssistant {
			r = anthropic.RoleAssistant
		}
		if len(messages) == 0 && len(texts) == 0 && r == anthropic.RoleAssistant {
			continue
		}
		if r != role {
			flush()
			role = r
		}
		texts = append(texts, t.Content)
	}
	flush()

	return strings.Join(system, "\n\n"), messages
}
