// Package crm delivers call summaries to the CRM webhook after a
// handoff. Delivery is best-effort; callers never block on it.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/voxbridge/relay-gateway/internal/config"
	"github.com/voxbridge/relay-gateway/internal/resilience"
	"github.com/voxbridge/relay-gateway/internal/transcript"
)

// Summary is the structured call record posted to the CRM
type Summary struct {
	CorrelationID string            `json:"correlationId"`
	CallSID       string            `json:"callSid"`
	CallerAddress string            `json:"callerAddress"`
	Timestamp     time.Time         `json:"timestamp"`
	Transcript    []transcript.Turn `json:"transcript"`
	LastReply     string            `json:"lastReply"`
	HandoffReason string            `json:"handoffReason"`
}

// HandoffLogger records a completed handoff in an external system
type HandoffLogger interface {
	LogHandoff(ctx context.Context, summary *Summary) error
}

// WebhookClient implements HandoffLogger via a one-shot JSON POST
type WebhookClient struct {
	url        string
	httpClient *http.Client
	retryCfg   *resilience.RetryConfig
}

// NewWebhookClient creates a new CRM webhook client
func NewWebhookClient(cfg *config.Config) *WebhookClient {
	return &WebhookClient{
		url: cfg.CRMWebhookURL,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.CRMTimeout) * time.Second,
		},
		retryCfg: &resilience.RetryConfig{
			MaxAttempts:       cfg.RetryMaxAttempts,
			InitialBackoff:    time.Duration(cfg.RetryInitialBackoff) * time.Millisecond,
			MaxBackoff:        5 * time.Second,
			BackoffMultiplier: 2.0,
		},
	}
}

// LogHandoff posts the summary, retrying transient failures
func (c *WebhookClient) LogHandoff(ctx context.Context, summary *Summary) error {
	if c.url == "" {
		return fmt.Errorf("CRM webhook URL is not configured")
	}

	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal call summary: %w", err)
	}

	return resilience.Retry(ctx, func() error {
		return c.post(ctx, payload)
	}, c.retryCfg, resilience.IsRetryableNetworkError)
}

func (c *WebhookClient) post(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post call summary: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 500 {
		// Server errors are worth retrying
		return fmt.Errorf("crm webhook returned status %d: unavailable", resp.StatusCode)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("crm webhook returned status %d", resp.StatusCode)
	}
	return nil
}
