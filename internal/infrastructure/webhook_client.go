package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"project_amharicAI/internal/entities"
)

const maxWebhookResponse = 1 << 20

type WebhookClient struct {
	http    *http.Client
	maxBody int64
	logger  *zap.Logger
}

func NewWebhookClient(timeout time.Duration, logger *zap.Logger) *WebhookClient {
	return &WebhookClient{
		http:    &http.Client{Timeout: timeout},
		maxBody: maxWebhookResponse,
		logger:  logger.Named("webhook"),
	}
}

// Post sends the envelope and returns the raw response body. Non-2xx responses are errors.
func (w *WebhookClient) Post(ctx context.Context, url string, envelope entities.WebhookEnvelope) ([]byte, error) {
	data, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("encode webhook envelope: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := w.http.Do(req)
	if err != nil {
		w.logger.Error("Webhook request failed",
			zap.String("execution_id", envelope.ExecutionID),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, fmt.Errorf("webhook request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, w.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("read webhook response: %w", err)
	}
	if int64(len(body)) > w.maxBody {
		return nil, fmt.Errorf("webhook response exceeds %d bytes", w.maxBody)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	w.logger.Info("Webhook completed",
		zap.String("execution_id", envelope.ExecutionID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	return body, nil
}
