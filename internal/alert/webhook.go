package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// Sentinel errors for webhook dispatch failures.
var (
	ErrWebhookUnreachable = errors.New("webhook unreachable")
	ErrWebhookRejected    = errors.New("webhook rejected notification")
	ErrWebhookTimeout     = errors.New("webhook timeout")
)

// Notifier dispatches alert notifications.
type Notifier interface {
	Notify(ctx context.Context, webhookURL, message string) error
}

// WebhookNotifier implements Notifier over plain HTTP POST with a
// Slack-compatible {"text": ...} body.
type WebhookNotifier struct {
	client *http.Client
}

// NewWebhookNotifier creates a notifier with the given per-dispatch timeout.
func NewWebhookNotifier(timeout time.Duration) *WebhookNotifier {
	return &WebhookNotifier{client: &http.Client{Timeout: timeout}}
}

func (n *WebhookNotifier) Notify(ctx context.Context, webhookURL, message string) error {
	body, err := json.Marshal(map[string]string{"text": message})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", ErrWebhookRejected, resp.StatusCode)
	}
	return nil
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrWebhookTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrWebhookTimeout, err)
	}

	return fmt.Errorf("%w: %v", ErrWebhookUnreachable, err)
}

// Compile-time check that WebhookNotifier implements Notifier.
var _ Notifier = (*WebhookNotifier)(nil)
