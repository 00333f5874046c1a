package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jonwraymond/vigil/monitor"
)

// WebhookConfig configures a webhook sink.
type WebhookConfig struct {
	// URL is the endpoint events are posted to. Required.
	URL string

	// BearerToken, when set, is sent as the Authorization header.
	BearerToken string

	// Headers are added to every request.
	Headers map[string]string

	// Client is the HTTP client used for posts.
	// Default: a client with a 10s timeout.
	Client *http.Client
}

// WebhookSink posts events as JSON to an alerting endpoint.
type WebhookSink struct {
	config WebhookConfig
}

// NewWebhookSink creates a webhook sink.
func NewWebhookSink(config WebhookConfig) *WebhookSink {
	if config.Client == nil {
		config.Client = &http.Client{Timeout: 10 * time.Second}
	}

	return &WebhookSink{config: config}
}

// Send posts one event. Any response outside the 2xx range is a failure.
func (s *WebhookSink) Send(ctx context.Context, e monitor.Event) error {
	body, err := json.Marshal(eventPayload(e))
	if err != nil {
		return fmt.Errorf("notify: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: create webhook request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range s.config.Headers {
		req.Header.Set(k, v)
	}
	if s.config.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.config.BearerToken)
	}

	resp, err := s.config.Client.Do(req)
	if err != nil {
		return fmt.Errorf("notify: post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if len(b) == 0 {
			return fmt.Errorf("notify: webhook status %d", resp.StatusCode)
		}
		return fmt.Errorf("notify: webhook status %d: %s", resp.StatusCode, b)
	}

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

var _ Sink = (*WebhookSink)(nil)
