package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Controller starts and stops the remote producer.
type Controller interface {
	StartSession(ctx context.Context, sessionID string) error
	StopSession(ctx context.Context) error
}

// HTTPController drives a backend exposing POST /api/start and /api/stop.
type HTTPController struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTPController(baseURL string) *HTTPController {
	return &HTTPController{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: 5 * time.Second},
	}
}

type startRequest struct {
	SessionID string `json:"session_id"`
}

func (c *HTTPController) StartSession(ctx context.Context, sessionID string) error {
	body, err := json.Marshal(startRequest{SessionID: sessionID})
	if err != nil {
		return fmt.Errorf("encoding start request: %w", err)
	}
	return c.post(ctx, "/api/start", body)
}

func (c *HTTPController) StopSession(ctx context.Context) error {
	return c.post(ctx, "/api/stop", nil)
}

func (c *HTTPController) post(ctx context.Context, path string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building %s request: %w", path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("POST %s: %s: %s", path, resp.Status, strings.TrimSpace(string(msg)))
	}
	return nil
}
