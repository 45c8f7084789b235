package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// OpenAIGateway implements Gateway against any OpenAI-compatible chat
// completions endpoint (OpenAI itself, OpenRouter, or a local server).
// JSON output is requested via response_format; the schema is enforced by
// unmarshalling into req.Out.
type OpenAIGateway struct {
	apiKey     string
	baseURL    string
	model      string
	headers    map[string]string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewOpenAIGateway creates a gateway for an OpenAI-compatible endpoint.
// extraHeaders lets deployments like OpenRouter attach attribution headers.
func NewOpenAIGateway(apiKey, baseURL, model string, extraHeaders map[string]string, logger *zap.Logger) *OpenAIGateway {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenAIGateway{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		headers: extraHeaders,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
		logger: logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
	Temperature float32 `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends one chat completion constrained to JSON output and
// decodes the response into req.Out.
func (g *OpenAIGateway) Complete(ctx context.Context, req Request) error {
	payload := chatRequest{
		Model:       g.model,
		Temperature: req.Temperature,
	}
	payload.ResponseFormat.Type = "json_object"
	if req.System != "" {
		payload.Messages = append(payload.Messages, chatMessage{Role: "system", Content: req.System})
	}
	payload.Messages = append(payload.Messages, chatMessage{Role: "user", Content: req.Prompt})

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode completion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build completion request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	for k, v := range g.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("completion endpoint returned status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("failed to decode completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return &SchemaError{Provider: "openai", Err: fmt.Errorf("no choices returned")}
	}

	content := parsed.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(content), req.Out); err != nil {
		g.logger.Warn("completion response failed to parse", zap.Error(err))
		return &SchemaError{Provider: "openai", Raw: content, Err: err}
	}
	return nil
}

var _ Gateway = (*OpenAIGateway)(nil)
