// Package reporter submits collected payloads to the ingestion API.
package reporter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/agentpulse/agentpulse/pkg/models"
)

// Sentinel errors for submission failures.
var (
	ErrServerUnreachable = errors.New("server unreachable")
	ErrUnauthorized      = errors.New("workspace key rejected")
	ErrSubmitRejected    = errors.New("report rejected")
	ErrSubmitTimeout     = errors.New("submission timeout")
)

// Client submits report payloads.
type Client interface {
	SubmitReport(ctx context.Context, payload models.ReportPayload) error
}

// HTTPClient implements Client against the dashboard's HTTP API.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPClient creates a submission client. baseURL is the server root,
// without a trailing slash.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) SubmitReport(ctx context.Context, payload models.ReportPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	u := c.baseURL + "/v1/report"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return classifyError(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: status %d", ErrUnauthorized, resp.StatusCode)
	default:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d: %s", ErrSubmitRejected, resp.StatusCode, strings.TrimSpace(string(detail)))
	}
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrSubmitTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return fmt.Errorf("%w: %v", ErrSubmitTimeout, err)
		}
		return fmt.Errorf("%w: %v", ErrServerUnreachable, err)
	}

	return fmt.Errorf("%w: %v", ErrServerUnreachable, err)
}

// Compile-time check that HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)
