// Package openrouter sends PCB images to an OpenRouter chat-completion model.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"pcb-inspector/config"
	"pcb-inspector/internal/domain/entity"
	"pcb-inspector/internal/domain/port"
)

// Client calls the chat-completion endpoint once per inspection.
// It places no limit on concurrent calls.
type Client struct {
	cfg        config.OpenRouterConfig
	httpClient *http.Client
	log        *zap.Logger
}

// NewClient creates a client for the configured endpoint.
func NewClient(cfg config.OpenRouterConfig, log *zap.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log,
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

// chatMessage content is either a string or a list of parts.
type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *errorBody `json:"error,omitempty"`
}

type errorEnvelope struct {
	Error *errorBody `json:"error"`
}

type errorBody struct {
	Message string `json:"message"`
	Code    any    `json:"code,omitempty"`
}

// Ready fails when no API key is configured.
func (c *Client) Ready() error {
	if c.cfg.APIKey == "" {
		return &entity.ConfigurationError{Message: MissingKeyMessage}
	}
	return nil
}

// Inspect sends one image and returns the model's report.
// Errors are *entity.ConfigurationError or *entity.InspectionError.
func (c *Client) Inspect(ctx context.Context, payload entity.ImagePayload) (string, error) {
	if err := c.Ready(); err != nil {
		return "", err
	}

	body, err := json.Marshal(c.buildRequest(payload))
	if err != nil {
		return "", &entity.InspectionError{Message: fmt.Sprintf("marshal request: %v", err), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", &entity.InspectionError{Message: fmt.Sprintf("create request: %v", err), Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("HTTP-Referer", c.cfg.Referer)
	req.Header.Set("X-Title", c.cfg.Title)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("inspection request failed", zap.Error(err))
		return "", &entity.InspectionError{Message: fmt.Sprintf("send request: %v", err), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &entity.InspectionError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("read response: %v", err), Err: err}
	}

	c.log.Info("inspection response",
		zap.String("model", c.cfg.Model),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &entity.InspectionError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(raw, resp),
		}
	}

	var decoded chatResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", &entity.InspectionError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("decode response: %v", err), Err: err}
	}

	if len(decoded.Choices) == 0 && decoded.Error != nil && decoded.Error.Message != "" {
		return "", &entity.InspectionError{StatusCode: resp.StatusCode, Message: decoded.Error.Message}
	}

	if len(decoded.Choices) == 0 || strings.TrimSpace(decoded.Choices[0].Message.Content) == "" {
		c.log.Warn("model returned no content", zap.Int("choices", len(decoded.Choices)))
		return NoAnalysisText, nil
	}
	return decoded.Choices[0].Message.Content, nil
}

func (c *Client) buildRequest(payload entity.ImagePayload) chatRequest {
	return chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: SystemPrompt},
			{Role: "user", Content: []contentPart{
				{Type: "text", Text: UserPrompt},
				{Type: "image_url", ImageURL: &imageURL{URL: payload.DataURL()}},
			}},
		},
	}
}

// errorMessage takes error.message from the body, or the status text when absent.
func errorMessage(raw []byte, resp *http.Response) string {
	var env errorEnvelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Error != nil && env.Error.Message != "" {
		return env.Error.Message
	}
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return resp.Status
}

var _ port.Inspector = (*Client)(nil)
