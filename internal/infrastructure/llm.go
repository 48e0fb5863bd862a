package infrastructure

import (
	"go.uber.org/zap"

	"project_amharicAI/internal/config"
	"project_amharicAI/internal/interfaces"
)

// NewAIClient picks the LLM provider from configuration.
func NewAIClient(cfg config.LLMConfig, logger *zap.Logger) interfaces.AIClient {
	if cfg.Provider == "anthropic" {
		return NewAnthropicClient(cfg.AnthropicAPIKey, cfg.AnthropicModel, logger)
	}
	return NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.Model, logger)
}
